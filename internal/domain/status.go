package domain

import "strings"

// Status is the workflow state shared by onboardings and calculations.
// Transitions are unrestricted; done is terminal only by convention.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every member of the workflow enum in lifecycle order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone}

// Valid reports whether s is a member of the workflow enum.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Open reports whether work on the record is still pending.
func (s Status) Open() bool {
	return s == StatusNew || s == StatusInProgress
}

// ParseStatus validates raw against the workflow enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", NewValidationError("status", "must be one of new, in-progress, done")
	}
	return s, nil
}
