// Package complaints implements the complaint endpoints: listing, statistics,
// submission with an optional image, deletion and categories.
package complaints

import (
	"context"
	"fmt"

	"github.com/R3E-Network/complaint_client/internal/httputil"
	"github.com/R3E-Network/complaint_client/pkg/logger"
)

// Service calls the complaint endpoints.
type Service struct {
	client *httputil.Client
	images ImageSource
	log    *logger.Logger
}

// New creates a complaint service. A nil images source reads local files.
func New(client *httputil.Client, images ImageSource, log *logger.Logger) *Service {
	if images == nil {
		images = FileImageSource{}
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Service{client: client, images: images, log: log.Named("complaints")}
}

// GetComplaints lists the caller's complaints. It never returns nil.
func (s *Service) GetComplaints(ctx context.Context) ([]Complaint, error) {
	resp, err := s.client.Get(ctx, "/complaints")
	if err != nil {
		return nil, err
	}
	var list []Complaint
	if _, err := resp.DecodeKey("complaints", &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Complaint{}
	}
	return list, nil
}

// GetComplaintStats returns the dashboard counters and gamification snapshot.
func (s *Service) GetComplaintStats(ctx context.Context) (*StatsResponse, error) {
	resp, err := s.client.Get(ctx, "/complaints/stats")
	if err != nil {
		return nil, err
	}
	out := &StatsResponse{}
	if _, err := resp.DecodeKey("stats", &out.Stats); err != nil {
		return nil, err
	}
	if _, err := resp.DecodeKey("gamification", &out.Gamification); err != nil {
		return nil, err
	}
	return out, nil
}

// GetComplaint fetches one complaint. A 404 surfaces as a not-found error.
func (s *Service) GetComplaint(ctx context.Context, id int64) (*Complaint, error) {
	resp, err := s.client.Get(ctx, fmt.Sprintf("/complaints/%d", id))
	if err != nil {
		return nil, err
	}
	var c Complaint
	found, err := resp.DecodeKey("complaint", &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("get complaint %d: response has no complaint", id)
	}
	return &c, nil
}

// CreateComplaint submits sub in the encoding the caller chose. sub is not
// modified. Any failure is returned as a *SubmissionError.
func (s *Service) CreateComplaint(ctx context.Context, sub Submission) (*Complaint, error) {
	if sub == nil {
		return nil, normalizeSubmissionError(nil)
	}
	fields := sub.fields()
	if err := fields.Validate(); err != nil {
		return nil, normalizeSubmissionError(err)
	}

	body, err := sub.body(ctx, s.images, fields)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to prepare complaint submission")
		return nil, normalizeSubmissionError(err)
	}

	resp, err := s.client.Post(ctx, "/complaints", body)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("complaint submission rejected")
		return nil, normalizeSubmissionError(err)
	}

	created := &Complaint{}
	if _, err := resp.DecodeKey("complaint", created); err != nil {
		return nil, normalizeSubmissionError(err)
	}
	return created, nil
}

// DeleteComplaint removes a complaint. Errors pass through unchanged.
func (s *Service) DeleteComplaint(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("/complaints/%d", id))
	return err
}

// GetCategories lists complaint categories. Both {"categories": [...]} and a
// bare array are accepted.
func (s *Service) GetCategories(ctx context.Context) ([]Category, error) {
	resp, err := s.client.Get(ctx, "/categories")
	if err != nil {
		return nil, err
	}
	var list []Category
	if resp.JSON().IsArray() {
		if err := resp.Decode(&list); err != nil {
			return nil, err
		}
	} else if _, err := resp.DecodeKey("categories", &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Category{}
	}
	return list, nil
}

// ImageURL resolves a complaint's image path to a full URL, "" without one.
func (s *Service) ImageURL(c Complaint) string {
	if !c.HasImage() {
		return ""
	}
	return s.client.ImageURL(*c.ImagePath)
}
