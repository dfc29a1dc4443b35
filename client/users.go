package client

import (
	"context"
	"net/http"

	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// UsersService handles registration, login and session checks. Token
// issuance is the server's business; the client only carries the session
// cookie the login response sets.
type UsersService struct {
	client *Client
}

// unwrapAuth converts the auth envelope into a user or a normalized error.
// The endpoints answer 200 with success=false for business failures such as
// a duplicate email, so the envelope is checked even on success.
func unwrapAuth(resp *types.AuthResponse, fallback string) (*types.User, error) {
	if resp.Success && resp.User != nil {
		u := *resp.User
		if u.Role == "" {
			u.Role = types.RoleStudent
		}
		return &u, nil
	}
	msg := resp.Message
	if msg == "" {
		msg = fallback
	}
	return nil, &errors.RequestError{Message: msg, RawStatus: http.StatusOK}
}

// Register creates a new student account.
func (s *UsersService) Register(ctx context.Context, email, password string) (*types.User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp types.AuthResponse
	if err := s.client.Post(ctx, "/user/register", body, &resp); err != nil {
		return nil, err
	}
	return unwrapAuth(&resp, "Registration failed.")
}

// Login authenticates with email and password. On success the server sets
// the session cookie on the shared jar.
func (s *UsersService) Login(ctx context.Context, email, password string) (*types.User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp types.AuthResponse
	if err := s.client.Post(ctx, "/user/login", body, &resp); err != nil {
		return nil, err
	}
	return unwrapAuth(&resp, "Login failed.")
}

// GoogleLogin authenticates with a Google ID token.
func (s *UsersService) GoogleLogin(ctx context.Context, idToken string) (*types.User, error) {
	body := map[string]string{"id_token": idToken}

	var resp types.AuthResponse
	if err := s.client.Post(ctx, "/user/google-login", body, &resp); err != nil {
		return nil, err
	}
	return unwrapAuth(&resp, "Google login failed.")
}

// Profile returns the current session's user, or nil without error when the
// session is absent or expired.
func (s *UsersService) Profile(ctx context.Context) (*types.User, error) {
	var resp types.AuthResponse
	err := s.client.Get(ctx, "/user/profile", &resp)
	if err != nil {
		if errors.IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		return nil, nil
	}
	u := *resp.User
	if u.Role == "" {
		u.Role = types.RoleStudent
	}
	return &u, nil
}

// Logout tears down the server-side session.
func (s *UsersService) Logout(ctx context.Context) error {
	return s.client.Post(ctx, "/user/logout", nil, nil)
}
