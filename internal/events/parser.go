package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// frame is the wire shape of one feed message. All fields are optional on
// the wire; ParseFrame normalizes them.
type frame struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Timestamp       *time.Time `json:"timestamp"`
	Agent           string     `json:"agent"`
	StepNumber      int        `json:"step_number"`
	StepDescription string     `json:"step_description"`
	Message         string     `json:"message"`
	FilePath        string     `json:"file_path"`
	Success         *bool      `json:"success"`
	Error           string     `json:"error"`
	RelevanceScore  float64    `json:"relevance_score"`
}

// typedFrameKeys are the payload keys ParseFrame maps to typed fields.
// Anything else in the frame is preserved in AgentEvent.Data.
var typedFrameKeys = map[string]bool{
	"id":               true,
	"type":             true,
	"timestamp":        true,
	"agent":            true,
	"step_number":      true,
	"step_description": true,
	"message":          true,
	"file_path":        true,
	"success":          true,
	"error":            true,
	"relevance_score":  true,
}

// ParseFrame decodes a single JSON feed frame into an AgentEvent.
//
// Malformed JSON returns an error so the caller can log and drop the frame.
// An unrecognized type tag is not an error: the event is kept with
// EventTypeUnknown and the original tag preserved in Data["type"]. A missing
// timestamp is stamped with receivedAt, and a missing ID gets a fresh uuid.
func ParseFrame(raw []byte, receivedAt time.Time) (*AgentEvent, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding event frame: %w", err)
	}

	event := &AgentEvent{
		ID:              f.ID,
		Type:            EventType(f.Type),
		Agent:           f.Agent,
		StepNumber:      f.StepNumber,
		StepDescription: f.StepDescription,
		Message:         f.Message,
		FilePath:        f.FilePath,
		Success:         f.Success,
		Error:           f.Error,
		RelevanceScore:  f.RelevanceScore,
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if f.Timestamp != nil && !f.Timestamp.IsZero() {
		event.Timestamp = *f.Timestamp
	} else {
		event.Timestamp = receivedAt
	}

	// Preserve payload fields the typed struct does not cover.
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for key, value := range payload {
			if typedFrameKeys[key] {
				continue
			}
			if event.Data == nil {
				event.Data = make(map[string]interface{})
			}
			event.Data[key] = value
		}
	}

	if !KnownEventType(event.Type) {
		if event.Data == nil {
			event.Data = make(map[string]interface{})
		}
		if f.Type != "" {
			event.Data["type"] = f.Type
		}
		event.Type = EventTypeUnknown
	}

	return event, nil
}
