package supabase

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const authenticatedAudience = "authenticated"

type AccessTokenClaims struct {
	jwt.RegisteredClaims

	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"` // postgres role: authenticated | anon
	IsAnonymous bool   `json:"is_anonymous,omitempty"`
}

type VerifiedToken struct {
	UserID      string
	Email       string
	IsAnonymous bool
	ExpiresAt   time.Time
}

// VerifyAccessToken verifies a project access token (JWT, HS256) with the project JWT secret.
func VerifyAccessToken(tokenString, secret string, now time.Time) (*VerifiedToken, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing jwt secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	claims := &AccessTokenClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if !slices.Contains([]string(claims.Audience), authenticatedAudience) {
		return nil, fmt.Errorf("audience mismatch")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject in token")
	}

	return &VerifiedToken{
		UserID:      claims.Subject,
		Email:       claims.Email,
		IsAnonymous: claims.IsAnonymous,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
