// Package model defines the domain types shared by the sitebudget client:
// projects, forecast line items, expenses, draws and derived budget summaries.
package model

import "strings"

// Status is the canonical completion state of a project or forecast line item.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the canonical statuses in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

var statusReplacer = strings.NewReplacer(" ", "_", "-", "_")

// ParseStatus maps any UI spelling ("Complete", "In Progress", "not-started")
// onto the canonical set. Unknown or empty spellings are treated as not started.
func ParseStatus(s string) Status {
	key := statusReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "completed", "complete", "done", "finished":
		return StatusCompleted
	case "in_progress", "inprogress", "started", "active", "ongoing":
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label returns the human-readable form, e.g. "In Progress".
func (s Status) Label() string {
	switch ParseStatus(string(s)) {
	case StatusCompleted:
		return "Completed"
	case StatusInProgress:
		return "In Progress"
	default:
		return "Not Started"
	}
}
