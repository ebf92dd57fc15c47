package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/httputil"
	"github.com/R3E-Network/complaint_client/internal/kvstore"
	"github.com/R3E-Network/complaint_client/internal/session"
	"github.com/R3E-Network/complaint_client/pkg/testutil"
)

func newService(t *testing.T) (*Service, *testutil.Backend, *session.Session) {
	t.Helper()
	backend := testutil.NewBackend(t)
	sess := session.New(kvstore.NewMemory())
	require.NoError(t, sess.Save(context.Background(), "tok"))
	client, err := httputil.New(httputil.Config{BaseURL: backend.URL()}, sess)
	require.NoError(t, err)
	return New(client), backend, sess
}

func TestGetUserProfile(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodGet, "/user", testutil.OK(`{"user":{"id":3,"name":"Ada","email":"ada@example.edu","role":"student","points":120}}`))

	u, err := svc.GetUserProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, 120, u.Points)
	assert.Equal(t, 0, u.RankOrZero())
}

func TestUpdateUserProfile(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodPut, "/user/profile", testutil.OK(`{"user":{"id":3,"name":"Ada L","email":"ada@uni.edu","points":120}}`))

	u, err := svc.UpdateUserProfile(context.Background(), " Ada L ", "ada@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", u.Name)
	assert.Equal(t, map[string]interface{}{"name": "Ada L", "email": "ada@uni.edu"}, backend.Last().JSON())

	_, err = svc.UpdateUserProfile(context.Background(), "", "x@y")
	assert.True(t, apierrors.IsValidation(err))
	assertInvalidField(t, err, "name")

	_, err = svc.UpdateUserProfile(context.Background(), "Ada", "  ")
	assert.True(t, apierrors.IsValidation(err))
	assertInvalidField(t, err, "email")
	assert.Len(t, backend.RequestsTo(http.MethodPut, "/api/user/profile"), 1)
}

func assertInvalidField(t *testing.T, err error, field string) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, field)
	assert.Len(t, apiErr.Fields, 1)
}

func TestChangePassword_ServerMessageVerbatim(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodPost, "/user/change-password",
		testutil.OK(`{"message":"Password changed successfully"}`),
		testutil.JSON(http.StatusUnprocessableEntity, `{"message":"The current password is incorrect."}`),
	)

	require.NoError(t, svc.ChangePassword(context.Background(), "old", "new", "new"))
	assert.Equal(t, map[string]interface{}{
		"current_password":          "old",
		"new_password":              "new",
		"new_password_confirmation": "new",
	}, backend.Last().JSON())

	err := svc.ChangePassword(context.Background(), "bad", "new", "new")
	require.Error(t, err)
	kind, msg := apierrors.Classify(err)
	assert.Equal(t, apierrors.KindValidation, kind)
	assert.Equal(t, "The current password is incorrect.", msg)
}

func TestNotificationPreferences(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodGet, "/user/notifications", testutil.OK(`{"preferences":{"id":1,"user_id":3,"email_notifications":true,"push_notifications":false,"sms_notifications":true}}`))
	backend.On(http.MethodPost, "/user/notifications", testutil.OK(`{"message":"Notification preferences updated"}`))

	prefs, err := svc.GetNotificationPreferences(context.Background())
	require.NoError(t, err)
	assert.True(t, prefs.EmailNotifications)
	assert.False(t, prefs.PushNotifications)
	assert.True(t, prefs.SMSNotifications)

	require.NoError(t, svc.UpdateNotifications(context.Background(), false, true, false))
	assert.Equal(t, map[string]interface{}{"email": false, "push": true, "sms": false}, backend.Last().JSON())
}

func TestGetLeaderboard_CurrentUserOutsideTop(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodGet, "/leaderboard", testutil.OK(`{
		"leaderboard":[
			{"id":1,"name":"Bea","points":900,"rank":1},
			{"id":2,"name":"Cy","points":850,"rank":2}
		],
		"currentUser":{"id":42,"name":"Ada","points":15,"rank":37}
	}`))

	board, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, board.Leaderboard, 2)
	assert.Equal(t, int64(42), board.CurrentUser.ID)
	assert.Equal(t, 37, board.CurrentUser.RankOrZero())
	assert.Greater(t, board.CurrentUser.RankOrZero(), len(board.Leaderboard))
	assert.False(t, board.CurrentUserListed())
}

func TestGetLeaderboard_MissingFields(t *testing.T) {
	svc, backend, _ := newService(t)
	backend.On(http.MethodGet, "/leaderboard", testutil.OK(`{}`))

	board, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, board.Leaderboard)
	assert.Empty(t, board.Leaderboard)
	assert.Zero(t, board.CurrentUser.ID)
}

func TestUnauthorizedErasesTokenOnAnyEndpoint(t *testing.T) {
	ctx := context.Background()
	calls := []struct {
		method, pattern string
		call            func(*Service) error
	}{
		{http.MethodGet, "/leaderboard", func(s *Service) error { _, err := s.GetLeaderboard(ctx); return err }},
		{http.MethodPut, "/user/profile", func(s *Service) error { _, err := s.UpdateUserProfile(ctx, "a", "b"); return err }},
		{http.MethodPost, "/user/notifications", func(s *Service) error { return s.UpdateNotifications(ctx, true, true, true) }},
	}
	for _, tt := range calls {
		t.Run(tt.pattern, func(t *testing.T) {
			svc, backend, sess := newService(t)
			backend.On(tt.method, tt.pattern, testutil.JSON(http.StatusUnauthorized, `{"message":"Unauthenticated."}`))

			err := tt.call(svc)
			assert.True(t, apierrors.IsUnauthorized(err))
			assert.False(t, sess.Authenticated(ctx))
		})
	}
}
