// Package types defines the core data types mirrored from the incident
// backend. The client never owns these records; it reads them through the
// status endpoint and treats them as authoritative snapshots.
package types

import (
	"time"
)

// Status represents the lifecycle status of an incident.
type Status string

const (
	// StatusOpen indicates the incident is open and unassigned
	StatusOpen Status = "OPEN"
	// StatusInvestigating indicates analysis or human investigation is underway
	StatusInvestigating Status = "INVESTIGATING"
	// StatusResolved indicates the incident has been resolved
	StatusResolved Status = "RESOLVED"
	// StatusClosed indicates the incident is closed and archived
	StatusClosed Status = "CLOSED"
)

// IsValidStatus validates if a status string is a known lifecycle status.
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Severity represents the operator-assigned severity of an incident.
type Severity string

const (
	// SeverityCritical indicates a critical, page-immediately incident
	SeverityCritical Severity = "critical"
	// SeverityHigh indicates a high-priority incident
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a medium-priority incident
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a low-priority incident
	SeverityLow Severity = "low"
)

// Incident is a read-only mirror of the backend's incident record.
//
// RootCause transitions from nil to non-nil at most once per analysis run,
// and its presence is the authoritative completion signal for the analysis
// job. Status and other fields must not be used to infer completion.
type Incident struct {
	// ID is the backend identifier for this incident
	ID string `json:"id"`
	// Title is a short human-readable summary
	Title string `json:"title"`
	// Status is the lifecycle status (OPEN, INVESTIGATING, RESOLVED, CLOSED)
	Status Status `json:"status"`
	// Severity is the operator-assigned severity
	Severity Severity `json:"severity"`
	// Service is the affected service, if the backend attributes one
	Service string `json:"service,omitempty"`
	// RootCause is the analysis result; nil while analysis is in progress
	RootCause *string `json:"root_cause"`
	// ActionTaken is the remediation recorded by the backend, if any
	ActionTaken *string `json:"action_taken"`
	// CreatedAt is when the incident was opened
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the incident was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRootCause reports whether the analysis job has completed for this
// incident. This is the only completion check the client performs.
func (i *Incident) HasRootCause() bool {
	return i != nil && i.RootCause != nil && *i.RootCause != ""
}

// Clone returns a deep copy of the incident, safe to hand across goroutines.
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	out := *i
	if i.RootCause != nil {
		rc := *i.RootCause
		out.RootCause = &rc
	}
	if i.ActionTaken != nil {
		at := *i.ActionTaken
		out.ActionTaken = &at
	}
	return &out
}

// LogEntry is a single backend log line returned alongside an incident
// snapshot. Entries are display-only context for the operator.
type LogEntry struct {
	// Timestamp is when the line was logged
	Timestamp time.Time `json:"timestamp"`
	// Level is the log level (info, warn, error, ...)
	Level string `json:"level"`
	// Service is the service that emitted the line
	Service string `json:"service"`
	// Message is the log message text
	Message string `json:"message"`
}
