package app

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/complaint_client/internal/config"
	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/kvstore"
	"github.com/R3E-Network/complaint_client/pkg/logger"
	"github.com/R3E-Network/complaint_client/pkg/testutil"
	"github.com/R3E-Network/complaint_client/services/auth"
)

const loginBody = `{"access_token":"tok-1","token_type":"Bearer","user":{"id":3,"name":"Ada","role":"student"}}`

func newApp(t *testing.T) (*Application, *testutil.Backend, *kvstore.Memory) {
	t.Helper()
	backend := testutil.NewBackend(t)
	store := kvstore.NewMemory()
	cfg := &config.Config{
		APIURL:        backend.URL(),
		Timeout:       5 * time.Second,
		TokenStore:    "memory",
		WatchInterval: time.Millisecond,
	}
	application, err := New(cfg, Dependencies{Store: store}, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application, backend, store
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestNew_BuildsStoreFromConfig(t *testing.T) {
	cfg := &config.Config{APIURL: "http://localhost:8000", TokenStore: "file", TokenDir: t.TempDir()}
	application, err := New(cfg, Dependencies{}, logger.NewDiscard())
	require.NoError(t, err)
	assert.IsType(t, &kvstore.File{}, application.store)
	assert.Equal(t, "http://localhost:8000/api", application.Client.BaseURL())
}

func TestSignIn_PersistsToken(t *testing.T) {
	application, backend, store := newApp(t)
	backend.On(http.MethodPost, "/login", testutil.OK(loginBody))
	backend.On(http.MethodGet, "/user", testutil.OK(`{"user":{"id":3}}`))
	ctx := context.Background()

	resp, err := application.SignIn(ctx, "ada@example.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ada", resp.User.Name)

	token, err := store.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	_, err = application.Auth.GetAuthUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", backend.Last().Header.Get("Authorization"))
}

func TestSignIn_FailureLeavesSessionEmpty(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodPost, "/login", testutil.JSON(http.StatusUnprocessableEntity, `{"message":"Invalid credentials"}`))

	_, err := application.SignIn(context.Background(), "ada", "bad")
	require.Error(t, err)
	assert.False(t, application.Session.Authenticated(context.Background()))
}

func TestSignUp_PersistsToken(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodPost, "/register", testutil.OK(loginBody))

	_, err := application.SignUp(context.Background(), auth.RegisterRequest{
		Name: "Ada", Email: "ada@example.edu", Password: "pw", PasswordConfirmation: "pw",
	})
	require.NoError(t, err)
	assert.True(t, application.Session.Authenticated(context.Background()))
}

func TestSignOut_ThenCallIsUnauthenticated(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodPost, "/logout", testutil.OK(`{"message":"Logged out"}`))
	backend.On(http.MethodGet, "/complaints", testutil.OK(`{"complaints":[]}`))
	ctx := context.Background()
	require.NoError(t, application.Session.Save(ctx, "tok-1"))

	require.NoError(t, application.SignOut(ctx))
	assert.Equal(t, "Bearer tok-1", backend.Last().Header.Get("Authorization"))

	_, err := application.Complaints.GetComplaints(ctx)
	require.NoError(t, err)
	assert.False(t, backend.Last().HasAuthorization())
}

func TestSignOut_ClearsEvenWhenServerFails(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodPost, "/logout", testutil.JSON(http.StatusInternalServerError, `{"message":"down"}`))
	ctx := context.Background()
	require.NoError(t, application.Session.Save(ctx, "tok-1"))

	err := application.SignOut(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apierrors.StatusCode(err))
	assert.False(t, application.Session.Authenticated(ctx))
}

func TestLoadDashboard(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodGet, "/complaints", testutil.OK(`{"complaints":[{"id":1,"title":"A","status":"pending"}]}`))
	backend.On(http.MethodGet, "/complaints/stats", testutil.OK(`{"stats":{"total":1,"pending":1}}`))

	dash, err := application.LoadDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, dash.Complaints, 1)
	assert.Equal(t, 1, dash.Stats.Stats.Total)
	assert.Zero(t, dash.Stats.Gamification.Level)
	assert.Len(t, backend.Requests(), 2)
}

func TestLoadDashboard_EitherFailureFails(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.On(http.MethodGet, "/complaints", testutil.OK(`{}`))
	backend.On(http.MethodGet, "/complaints/stats", testutil.JSON(http.StatusInternalServerError, nil))

	_, err := application.LoadDashboard(context.Background())
	require.Error(t, err)
	kind, _ := apierrors.Classify(err)
	assert.Equal(t, apierrors.KindServer, kind)
}

func TestUnauthorizedDuringDashboardErasesToken(t *testing.T) {
	application, backend, _ := newApp(t)
	backend.RequireToken("fresh")
	backend.On(http.MethodGet, "/complaints", testutil.OK(`{}`))
	backend.On(http.MethodGet, "/complaints/stats", testutil.OK(`{}`))
	ctx := context.Background()
	require.NoError(t, application.Session.Save(ctx, "stale"))

	_, err := application.LoadDashboard(ctx)
	assert.True(t, apierrors.IsUnauthorized(err))
	assert.False(t, application.Session.Authenticated(ctx))
}

func TestWatchNotifications(t *testing.T) {
	application, backend, _ := newApp(t)
	var calls int32
	backend.Handle(http.MethodGet, "/notifications", func(r *http.Request, _ map[string]string) testutil.Reply {
		if atomic.AddInt32(&calls, 1) > 2 {
			return testutil.JSON(http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
		}
		return testutil.OK(`{"notifications":{"data":[{"id":1,"title":"Reviewed","read":false}]}}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, errc := application.WatchNotifications(ctx)

	var got []int64
	for n := range out {
		got = append(got, n.ID)
	}
	assert.Equal(t, []int64{1}, got)
	assert.True(t, apierrors.IsUnauthorized(<-errc))
}
