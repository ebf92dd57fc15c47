// Package auth implements login, registration and logout against the
// complaint backend.
//
// The service only obtains credentials. Persisting the returned token is the
// caller's job, see internal/app.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/R3E-Network/complaint_client/internal/domain/user"
	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/httputil"
)

// =============================================================================
// Request/Response Types
// =============================================================================

// LoginRequest carries credentials. Identifier is an email or an
// institutional id.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterRequest creates a new student account.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        user.User `json:"user"`
}

// =============================================================================
// Service
// =============================================================================

// Service calls the authentication endpoints.
type Service struct {
	client *httputil.Client
}

// New creates an auth service.
func New(client *httputil.Client) *Service {
	return &Service{client: client}
}

// Login exchanges credentials for an access token.
func (s *Service) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	req := LoginRequest{Identifier: strings.TrimSpace(identifier), Password: password}
	if req.Identifier == "" {
		return nil, apierrors.Validation("identifier", "Please enter your email or student ID.")
	}
	if req.Password == "" {
		return nil, apierrors.Validation("password", "Please enter your password.")
	}

	resp, err := s.client.Post(ctx, "/login", httputil.JSONBody(req))
	if err != nil {
		return nil, err
	}
	return decodeAuth(resp)
}

// Register creates an account and returns its first access token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Name == "":
		return nil, apierrors.Validation("name", "Please enter your name.")
	case req.Email == "":
		return nil, apierrors.Validation("email", "Please enter your email.")
	case req.Password == "":
		return nil, apierrors.Validation("password", "Please enter a password.")
	case req.Password != req.PasswordConfirmation:
		return nil, apierrors.Validation("password_confirmation", "Passwords do not match.")
	}

	resp, err := s.client.Post(ctx, "/register", httputil.JSONBody(req))
	if err != nil {
		return nil, err
	}
	return decodeAuth(resp)
}

// Logout revokes the current token server-side. Local state is untouched.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Post(ctx, "/logout", nil)
	return err
}

// GetAuthUser returns the user owning the current token.
func (s *Service) GetAuthUser(ctx context.Context) (*user.User, error) {
	resp, err := s.client.Get(ctx, "/user")
	if err != nil {
		return nil, err
	}
	var u user.User
	found, err := resp.DecodeKey("user", &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("get auth user: response has no user")
	}
	return &u, nil
}

func decodeAuth(resp *httputil.Response) (*AuthResponse, error) {
	var out AuthResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("auth response has no access token")
	}
	return &out, nil
}
