package notifications

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/httputil"
	"github.com/R3E-Network/complaint_client/internal/kvstore"
	"github.com/R3E-Network/complaint_client/internal/session"
	"github.com/R3E-Network/complaint_client/pkg/testutil"
)

const pageBody = `{"notifications":{
	"current_page":1,
	"data":[
		{"id":1,"user_id":3,"complaint_id":9,"title":"Status changed","message":"Your complaint is now reviewed","type":"status_update","read":false,"created_at":"2025-03-02T10:00:00.000000Z","updated_at":"2025-03-02T10:00:00.000000Z"},
		{"id":2,"user_id":3,"complaint_id":null,"title":"Welcome","message":"Hi","type":"system","read":true}
	],
	"first_page_url":"http://host/api/notifications?page=1",
	"from":1,
	"last_page":2,
	"last_page_url":"http://host/api/notifications?page=2",
	"links":[{"url":null,"label":"&laquo; Previous","active":false},{"url":"http://host/api/notifications?page=1","label":"1","page":1,"active":true}],
	"next_page_url":"http://host/api/notifications?page=2",
	"path":"http://host/api/notifications",
	"per_page":2,
	"prev_page_url":null,
	"to":2,
	"total":3
}}`

func newService(t *testing.T) (*Service, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	sess := session.New(kvstore.NewMemory())
	require.NoError(t, sess.Save(context.Background(), "tok"))
	client, err := httputil.New(httputil.Config{BaseURL: backend.URL()}, sess)
	require.NoError(t, err)
	return New(client), backend
}

func TestGetNotifications(t *testing.T) {
	svc, backend := newService(t)
	backend.On(http.MethodGet, "/notifications", testutil.OK(pageBody))

	page, err := svc.GetNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PerPage)
	require.NotNil(t, page.From)
	assert.Equal(t, 1, *page.From)
	assert.Nil(t, page.PrevPageURL)
	assert.True(t, page.HasNext())
	assert.Len(t, page.Links, 2)
	assert.Nil(t, page.Links[0].URL)
	assert.Equal(t, 1, page.Unread())

	require.NotNil(t, page.Data[0].ComplaintID)
	assert.Equal(t, int64(9), *page.Data[0].ComplaintID)
	assert.Nil(t, page.Data[1].ComplaintID)
}

func TestGetNotifications_MissingEnvelope(t *testing.T) {
	svc, backend := newService(t)
	backend.On(http.MethodGet, "/notifications", testutil.OK(`{}`))

	page, err := svc.GetNotifications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Unread())
	assert.False(t, page.HasNext())
}

func TestMarkNotificationAsRead_Idempotent(t *testing.T) {
	svc, backend := newService(t)

	var mu sync.Mutex
	read := map[string]bool{}
	backend.Handle(http.MethodPost, "/notifications/{id}/read", func(r *http.Request, vars map[string]string) testutil.Reply {
		mu.Lock()
		defer mu.Unlock()
		read[vars["id"]] = true
		return testutil.OK(map[string]interface{}{
			"notification": map[string]interface{}{"id": 5, "title": "Resolved", "read": read[vars["id"]]},
		})
	})

	for i := 0; i < 2; i++ {
		n, err := svc.MarkNotificationAsRead(context.Background(), 5)
		require.NoError(t, err, "call %d", i+1)
		assert.True(t, n.Read)
		assert.Equal(t, int64(5), n.ID)
	}
	assert.Len(t, backend.RequestsTo(http.MethodPost, "/api/notifications/5/read"), 2)
}

func TestMarkNotificationAsRead_NotFound(t *testing.T) {
	svc, backend := newService(t)
	backend.On(http.MethodPost, "/notifications/{id}/read", testutil.JSON(http.StatusNotFound, `{"message":"No query results"}`))

	_, err := svc.MarkNotificationAsRead(context.Background(), 99)
	assert.True(t, apierrors.IsNotFound(err))
}

func TestMarkAllNotificationsAsRead(t *testing.T) {
	svc, backend := newService(t)
	backend.On(http.MethodPost, "/notifications/read-all", testutil.OK(`{"message":"All notifications marked as read"}`))

	require.NoError(t, svc.MarkAllNotificationsAsRead(context.Background()))
	require.NoError(t, svc.MarkAllNotificationsAsRead(context.Background()))
	assert.Len(t, backend.RequestsTo(http.MethodPost, "/api/notifications/read-all"), 2)
	assert.Equal(t, "Bearer tok", backend.Last().Header.Get("Authorization"))
}
