// Package users implements profile, password, notification preference and
// leaderboard endpoints.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/R3E-Network/complaint_client/internal/domain/timestamp"
	"github.com/R3E-Network/complaint_client/internal/domain/user"
	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/httputil"
)

// =============================================================================
// Request/Response Types
// =============================================================================

// ProfileUpdate carries the only client-writable identity fields.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordChange is validated by the server.
type PasswordChange struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

// NotificationPreferences are three independent delivery toggles.
type NotificationPreferences struct {
	ID                 int64          `json:"id"`
	UserID             int64          `json:"user_id"`
	EmailNotifications bool           `json:"email_notifications"`
	PushNotifications  bool           `json:"push_notifications"`
	SMSNotifications   bool           `json:"sms_notifications"`
	CreatedAt          timestamp.Time `json:"created_at"`
	UpdatedAt          timestamp.Time `json:"updated_at"`
}

// PreferencesUpdate is the body of POST /user/notifications.
type PreferencesUpdate struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// Leaderboard is the server-truncated ranking plus the caller's own entry.
type Leaderboard struct {
	Leaderboard []user.User `json:"leaderboard"`
	CurrentUser user.User   `json:"currentUser"`
}

// CurrentUserListed reports whether the caller appears in the ranking.
func (l *Leaderboard) CurrentUserListed() bool {
	for _, u := range l.Leaderboard {
		if u.ID == l.CurrentUser.ID {
			return true
		}
	}
	return false
}

// =============================================================================
// Service
// =============================================================================

// Service calls the user endpoints.
type Service struct {
	client *httputil.Client
}

// New creates a user service.
func New(client *httputil.Client) *Service {
	return &Service{client: client}
}

// GetUserProfile returns the caller's profile.
func (s *Service) GetUserProfile(ctx context.Context) (*user.User, error) {
	resp, err := s.client.Get(ctx, "/user")
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// UpdateUserProfile changes name and email.
func (s *Service) UpdateUserProfile(ctx context.Context, name, email string) (*user.User, error) {
	update := ProfileUpdate{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	switch {
	case update.Name == "":
		return nil, apierrors.Validation("name", "Name and email are required.")
	case update.Email == "":
		return nil, apierrors.Validation("email", "Name and email are required.")
	}
	resp, err := s.client.Put(ctx, "/user/profile", httputil.JSONBody(update))
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// ChangePassword asks the server to replace the password. Mismatches are
// reported by the server and surfaced unchanged.
func (s *Service) ChangePassword(ctx context.Context, current, newPassword, confirmation string) error {
	_, err := s.client.Post(ctx, "/user/change-password", httputil.JSONBody(PasswordChange{
		CurrentPassword:         current,
		NewPassword:             newPassword,
		NewPasswordConfirmation: confirmation,
	}))
	return err
}

// GetNotificationPreferences returns the delivery toggles.
func (s *Service) GetNotificationPreferences(ctx context.Context) (*NotificationPreferences, error) {
	resp, err := s.client.Get(ctx, "/user/notifications")
	if err != nil {
		return nil, err
	}
	prefs := &NotificationPreferences{}
	if _, err := resp.DecodeKey("preferences", prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// UpdateNotifications sets all three toggles at once.
func (s *Service) UpdateNotifications(ctx context.Context, email, push, sms bool) error {
	_, err := s.client.Post(ctx, "/user/notifications", httputil.JSONBody(PreferencesUpdate{
		Email: email,
		Push:  push,
		SMS:   sms,
	}))
	return err
}

// GetLeaderboard returns the top users and the caller's own standing, which
// is present even when the caller is outside the returned list.
func (s *Service) GetLeaderboard(ctx context.Context) (*Leaderboard, error) {
	resp, err := s.client.Get(ctx, "/leaderboard")
	if err != nil {
		return nil, err
	}
	board := &Leaderboard{}
	if _, err := resp.DecodeKey("leaderboard", &board.Leaderboard); err != nil {
		return nil, err
	}
	if _, err := resp.DecodeKey("currentUser", &board.CurrentUser); err != nil {
		return nil, err
	}
	if board.Leaderboard == nil {
		board.Leaderboard = []user.User{}
	}
	return board, nil
}

func decodeUser(resp *httputil.Response) (*user.User, error) {
	var u user.User
	found, err := resp.DecodeKey("user", &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("response has no user")
	}
	return &u, nil
}
