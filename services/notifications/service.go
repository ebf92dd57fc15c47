// Package notifications implements the notification inbox endpoints and a
// polling watcher for newly arrived notifications.
package notifications

import (
	"context"
	"fmt"

	"github.com/R3E-Network/complaint_client/internal/domain/timestamp"
	"github.com/R3E-Network/complaint_client/internal/httputil"
)

// Notification is a server-created message, usually about a complaint.
type Notification struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	ComplaintID *int64         `json:"complaint_id"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Type        string         `json:"type"`
	Read        bool           `json:"read"`
	CreatedAt   timestamp.Time `json:"created_at"`
	UpdatedAt   timestamp.Time `json:"updated_at"`
}

// PageLink is one entry of the paginator's link list.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Page   *int    `json:"page"`
	Active bool    `json:"active"`
}

// Page is one page of notifications with its paginator metadata.
type Page struct {
	Data         []Notification `json:"data"`
	CurrentPage  int            `json:"current_page"`
	LastPage     int            `json:"last_page"`
	PerPage      int            `json:"per_page"`
	Total        int            `json:"total"`
	From         *int           `json:"from"`
	To           *int           `json:"to"`
	FirstPageURL string         `json:"first_page_url"`
	LastPageURL  string         `json:"last_page_url"`
	NextPageURL  *string        `json:"next_page_url"`
	PrevPageURL  *string        `json:"prev_page_url"`
	Path         string         `json:"path"`
	Links        []PageLink     `json:"links"`
}

// Unread counts unread notifications on this page.
func (p *Page) Unread() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, item := range p.Data {
		if !item.Read {
			n++
		}
	}
	return n
}

// HasNext reports whether a further page exists.
func (p *Page) HasNext() bool {
	return p != nil && p.NextPageURL != nil && *p.NextPageURL != ""
}

// Service calls the notification endpoints.
type Service struct {
	client *httputil.Client
}

// New creates a notification service.
func New(client *httputil.Client) *Service {
	return &Service{client: client}
}

// GetNotifications returns the first page of the caller's notifications.
// A response without the envelope yields an empty page.
func (s *Service) GetNotifications(ctx context.Context) (*Page, error) {
	resp, err := s.client.Get(ctx, "/notifications")
	if err != nil {
		return nil, err
	}
	page := &Page{}
	if _, err := resp.DecodeKey("notifications", page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []Notification{}
	}
	return page, nil
}

// MarkNotificationAsRead flags one notification as read. Marking an already
// read notification succeeds.
func (s *Service) MarkNotificationAsRead(ctx context.Context, id int64) (*Notification, error) {
	resp, err := s.client.Post(ctx, fmt.Sprintf("/notifications/%d/read", id), nil)
	if err != nil {
		return nil, err
	}
	var n Notification
	found, err := resp.DecodeKey("notification", &n)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("mark notification %d read: response has no notification", id)
	}
	return &n, nil
}

// MarkAllNotificationsAsRead flags every notification of the caller as read.
func (s *Service) MarkAllNotificationsAsRead(ctx context.Context) error {
	_, err := s.client.Post(ctx, "/notifications/read-all", nil)
	return err
}
