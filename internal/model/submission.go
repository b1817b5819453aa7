package model

import "time"

// Submission represents a single contact-form record stored remotely.
type Submission struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Status is the triage state of a submission.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
)

// ValidStatus reports whether s is one of the four triage states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusUnread, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

// FilterSpec narrows which submissions a query returns. A new FilterSpec
// fully replaces the previous one; there is no merge semantics.
type FilterSpec struct {
	// Status filters by exact status. "" and "all" return every status.
	Status string `json:"status,omitempty"`
	// Search is matched case-insensitively as a substring of name, email
	// or subject.
	Search string `json:"search,omitempty"`
	// From/To bound created_at when non-zero.
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// HasStatus reports whether the filter restricts status at all.
func (f FilterSpec) HasStatus() bool {
	return f.Status != "" && f.Status != "all"
}
