// Package user holds the user model shared by the auth, complaint and
// leaderboard services.
package user

import "github.com/R3E-Network/complaint_client/internal/domain/timestamp"

// Role is the server-assigned role of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// IsStudent reports whether the role may file complaints.
func (r Role) IsStudent() bool { return r == RoleStudent }

// User is an account as returned by the backend. Only Name and Email are
// client-writable; Points and Rank are computed server-side.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role,omitempty"`
	Points int    `json:"points"`
	// Rank is 1-based and only present in leaderboard responses.
	Rank      *int           `json:"rank,omitempty"`
	CreatedAt timestamp.Time `json:"created_at,omitempty"`
	UpdatedAt timestamp.Time `json:"updated_at,omitempty"`
}

// RankOrZero returns the leaderboard rank, 0 when unranked.
func (u User) RankOrZero() int {
	if u.Rank == nil {
		return 0
	}
	return *u.Rank
}
