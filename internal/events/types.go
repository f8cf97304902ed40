// Package events defines the analysis agent's event stream model: the
// AgentEvent type, the frame parser, and the bounded in-memory buffer that
// caps event retention for long-running analyses.
package events

import (
	"time"
)

// EventType represents the type of event emitted by the analysis agent.
type EventType string

const (
	// EventTypePlanCreated indicates the agent produced an investigation plan
	EventTypePlanCreated EventType = "plan_created"
	// EventTypePlanStepStarted indicates a plan step began executing
	EventTypePlanStepStarted EventType = "plan_step_started"
	// EventTypePlanStepCompleted indicates a plan step finished successfully
	EventTypePlanStepCompleted EventType = "plan_step_completed"
	// EventTypePlanStepFailed indicates a plan step failed
	EventTypePlanStepFailed EventType = "plan_step_failed"
	// EventTypeAgentAction indicates the agent took an action (query, tool call)
	EventTypeAgentAction EventType = "agent_action"
	// EventTypeObservation indicates the agent recorded an observation
	EventTypeObservation EventType = "observation"
	// EventTypeError indicates the agent reported an error
	EventTypeError EventType = "error"
	// EventTypeKnowledgeRetrieved indicates the agent retrieved prior knowledge
	EventTypeKnowledgeRetrieved EventType = "knowledge_retrieved"
	// EventTypeFileOperation indicates the agent read or inspected a file
	EventTypeFileOperation EventType = "file_operation"
	// EventTypeUnknown is the explicit default for unrecognized type tags.
	// Unrecognized events are kept, not dropped; the original tag survives
	// in the event's Data map under "type".
	EventTypeUnknown EventType = "unknown"
)

// KnownEventType reports whether t is one of the recognized event types.
// EventTypeUnknown itself is not "known"; it is the fallback arm.
func KnownEventType(t EventType) bool {
	switch t {
	case EventTypePlanCreated, EventTypePlanStepStarted, EventTypePlanStepCompleted,
		EventTypePlanStepFailed, EventTypeAgentAction, EventTypeObservation,
		EventTypeError, EventTypeKnowledgeRetrieved, EventTypeFileOperation:
		return true
	}
	return false
}

// AgentEvent represents one reasoning step reported by the analysis agent
// over the live feed. Events are immutable once parsed and are ordered by
// arrival; timestamps are display metadata, not an ordering key.
type AgentEvent struct {
	// ID is the unique identifier for this event (client-assigned if the
	// frame carried none)
	ID string `json:"id"`
	// Type is the discriminating event type
	Type EventType `json:"type"`
	// Timestamp is when the event occurred; stamped with receipt time when
	// the frame omits it
	Timestamp time.Time `json:"timestamp"`
	// Agent is the name of the agent that produced this event
	Agent string `json:"agent,omitempty"`
	// StepNumber is the plan step this event belongs to (0 if not step-scoped)
	StepNumber int `json:"step_number,omitempty"`
	// StepDescription is the human-readable description of the step
	StepDescription string `json:"step_description,omitempty"`
	// Message is the free-form event message
	Message string `json:"message,omitempty"`
	// FilePath is the file involved, for file_operation events
	FilePath string `json:"file_path,omitempty"`
	// Success indicates whether the operation succeeded, where applicable
	Success *bool `json:"success,omitempty"`
	// Error is the error text, for error and failed-step events
	Error string `json:"error,omitempty"`
	// RelevanceScore is the retrieval relevance, for knowledge_retrieved events
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	// Data holds payload fields the parser did not map to a typed field
	Data map[string]interface{} `json:"data,omitempty"`
}
