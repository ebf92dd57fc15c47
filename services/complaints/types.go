package complaints

import (
	"fmt"
	"strings"

	"github.com/R3E-Network/complaint_client/internal/domain/timestamp"
	"github.com/R3E-Network/complaint_client/internal/domain/user"
)

// Status is the server-owned lifecycle state of a complaint.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusResolved Status = "resolved"
)

func (s Status) order() int {
	switch s {
	case StatusPending:
		return 1
	case StatusReviewed:
		return 2
	case StatusResolved:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.order() > 0 }

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool { return s == StatusResolved }

// CanFollow reports whether the server may move a complaint from one status
// to another. Transitions only move forward; reviewed may be skipped.
func CanFollow(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return to.order() > from.order()
}

// Priority is the urgency chosen at submission.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"

	DefaultPriority = PriorityMedium
)

// Priorities lists the accepted priorities in ascending urgency.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is an accepted priority.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePriority accepts any case; empty yields DefaultPriority.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultPriority, nil
	}
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want low, medium, high or urgent)", raw)
	}
	return p, nil
}

// Category is reference data used to tag a complaint.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Complaint is a submitted grievance.
type Complaint struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImagePath   *string        `json:"image_path"`
	Status      Status         `json:"status"`
	CategoryID  *int64         `json:"category_id,omitempty"`
	Priority    Priority       `json:"priority,omitempty"`
	CreatedAt   timestamp.Time `json:"created_at"`
	UpdatedAt   timestamp.Time `json:"updated_at"`
	User        *user.User     `json:"user,omitempty"`
	Category    *Category      `json:"category,omitempty"`
}

// HasImage reports whether an image was attached.
func (c Complaint) HasImage() bool {
	return c.ImagePath != nil && *c.ImagePath != ""
}

// Stats counts the caller's complaints per status.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Reviewed int `json:"reviewed"`
	Resolved int `json:"resolved"`
}

// Gamification is the derived points snapshot. It is never persisted.
type Gamification struct {
	TotalPoints       int `json:"total_points"`
	Level             int `json:"level"`
	PointsToNextLevel int `json:"points_to_next_level"`
}

// LevelProgress is the percentage towards the next level.
func (g Gamification) LevelProgress() int {
	if g.TotalPoints <= 0 {
		return 0
	}
	return g.TotalPoints % 100
}

// Achievement is a badge unlocked by level.
type Achievement struct {
	Name     string
	MinLevel int
}

var achievements = []Achievement{
	{Name: "First Step", MinLevel: 1},
	{Name: "Explorer", MinLevel: 3},
	{Name: "Champion", MinLevel: 5},
	{Name: "Legend", MinLevel: 10},
}

// Achievements returns the badges unlocked at the current level.
func (g Gamification) Achievements() []Achievement {
	out := []Achievement{}
	for _, a := range achievements {
		if g.Level >= a.MinLevel {
			out = append(out, a)
		}
	}
	return out
}

// StatsResponse is the dashboard payload. Missing parts are zero valued.
type StatsResponse struct {
	Stats        Stats        `json:"stats"`
	Gamification Gamification `json:"gamification"`
}
