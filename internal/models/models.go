package models

import "time"

// Role is the fixed set of account roles.
type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleWorker        Role = "worker"
	RoleContactPerson Role = "contact_person"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleContactPerson:
		return true
	}
	return false
}

// User represents a registered account. The password hash is never
// serialized.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	PushToken       *string   `json:"push_token,omitempty"`
	UpvotedIssues   []string  `json:"upvoted_issues"`
	DownvotedIssues []string  `json:"downvoted_issues"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Location is a GeoJSON-style point: longitude first, then latitude.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Issue represents a reported civic problem.
type Issue struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	MediaID          *string     `json:"media_id,omitempty"`
	Media            *Media      `json:"media,omitempty"`
	Location         Location    `json:"location"`
	Status           IssueStatus `json:"status"`
	Upvotes          int         `json:"upvotes"`
	Downvotes        int         `json:"downvotes"`
	UpvotedBy        []string    `json:"upvoted_by"`
	DownvotedBy      []string    `json:"downvoted_by"`
	ReportedBy       string      `json:"reported_by"`
	ReporterUsername string      `json:"reporter_username,omitempty"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Message is a directed note between a citizen and the contact person.
// Messages are immutable after creation.
type Message struct {
	ID           string    `json:"id"`
	FromID       string    `json:"from_id"`
	ToID         string    `json:"to_id"`
	FromUsername string    `json:"from_username,omitempty"`
	ToUsername   string    `json:"to_username,omitempty"`
	Body         string    `json:"body"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// Media is a reference to an image blob stored in S3.
type Media struct {
	ID          string    `json:"id"`
	S3Key       string    `json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserSummary is the projection returned by contact listings.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
