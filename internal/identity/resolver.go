package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"housing/pkg/logger"
	"housing/pkg/supabase"
)

var ErrInvalidToken = errors.New("identity: invalid access token")

type TokenVerifier func(token string, now time.Time) (*supabase.VerifiedToken, error)

// Resolver turns an access token into an Identity with its staff role.
type Resolver struct {
	Verify    TokenVerifier
	Directory Directory
	// Cache is optional.
	Cache *Cache
	Now   func() time.Time
}

func NewResolver(jwtSecret string, dir Directory, cache *Cache) *Resolver {
	return &Resolver{
		Verify: func(token string, now time.Time) (*supabase.VerifiedToken, error) {
			return supabase.VerifyAccessToken(token, jwtSecret, now)
		},
		Directory: dir,
		Cache:     cache,
		Now:       time.Now,
	}
}

// Resolve returns (nil, nil) for an empty token and ErrInvalidToken for a token that fails verification.
// Any other error is a backend failure.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	vt, err := r.Verify(token, now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := &Identity{UserID: vt.UserID, Email: vt.Email, Anonymous: vt.IsAnonymous, Role: RoleUser}
	if vt.IsAnonymous {
		return id, nil
	}

	role, err := r.roleOf(ctx, vt.UserID)
	if err != nil {
		return nil, err
	}
	id.Role = role
	return id, nil
}

func (r *Resolver) roleOf(ctx context.Context, userID string) (Role, error) {
	log := logger.FromContext(ctx)
	if r.Cache != nil {
		role, ok, err := r.Cache.Get(ctx, userID)
		if err != nil {
			log.Warn("identity cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			return role, nil
		}
	}

	role, err := r.Directory.RoleOf(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		// Authenticated but not staff.
		role, err = RoleUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup role: %w", err)
	}

	if r.Cache != nil {
		if err := r.Cache.Set(ctx, userID, role); err != nil {
			log.Warn("identity cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return role, nil
}

// Forget drops any cached role for userID. Used on logout and role change.
func (r *Resolver) Forget(ctx context.Context, userID string) {
	if r == nil || r.Cache == nil || userID == "" {
		return
	}
	if err := r.Cache.Invalidate(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("identity cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
