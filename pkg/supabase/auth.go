package supabase

import (
	"context"
	"fmt"
	"net/http"
)

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	IsAnonymous  bool           `json:"is_anonymous"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/auth/v1/token")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &out, nil
}

// SignInAnonymously creates an ephemeral identity for a visitor without an account.
func (c *Client) SignInAnonymously(ctx context.Context) (*Session, error) {
	var out Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"data": map[string]any{}}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/auth/v1/signup")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("anonymous sign in: %w", err)
	}
	if out.User.ID == "" {
		return nil, fmt.Errorf("anonymous sign in: empty user in response")
	}
	return &out, nil
}

// GetUser returns the identity behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/auth/v1/user")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &out, nil
}

// SignOut revokes the session behind accessToken. An already-expired session is not an error.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&errorBody{}).
		Post("/auth/v1/logout")
	if err := checkResponse(resp, err); err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

type CreateUserParams struct {
	Email        string         `json:"email"`
	Password     string         `json:"password,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AdminCreateUser creates an identity with the service role key.
func (c *Client) AdminCreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	var out User
	resp, err := c.admin().
		SetContext(ctx).
		SetBody(p).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/auth/v1/admin/users")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("admin create user: %w", err)
	}
	return &out, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	resp, err := c.admin().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetError(&errorBody{}).
		Delete("/auth/v1/admin/users/{id}")
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("admin delete user: %w", err)
	}
	return nil
}

type generateLinkResponse struct {
	ActionLink string `json:"action_link"`
	Properties struct {
		ActionLink string `json:"action_link"`
	} `json:"properties"`
}

// GenerateRecoveryLink returns a password-recovery link for email.
func (c *Client) GenerateRecoveryLink(ctx context.Context, email, redirectTo string) (string, error) {
	body := map[string]any{"type": "recovery", "email": email}
	if redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	var out generateLinkResponse
	resp, err := c.admin().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/auth/v1/admin/generate_link")
	if err := checkResponse(resp, err); err != nil {
		return "", fmt.Errorf("generate link: %w", err)
	}
	if out.ActionLink != "" {
		return out.ActionLink, nil
	}
	return out.Properties.ActionLink, nil
}
