package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oncallops/incidentwatch/internal/events"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "exactly10!", truncateString("exactly10!", 10))
	assert.Equal(t, "this is...", truncateString("this is far too long", 10))
	assert.Equal(t, "...", truncateString("anything", 3))
	assert.Equal(t, "...", truncateString("anything", 1))
}

func TestJoinFields(t *testing.T) {
	assert.Equal(t, "a | b | c", joinFields([]string{"a", "b", "c"}))
	assert.Equal(t, "a | c", joinFields([]string{"a", "", "c"}))
	assert.Equal(t, "", joinFields(nil))
	assert.Equal(t, "", joinFields([]string{"", ""}))
}

func TestGetEventEmoji(t *testing.T) {
	tests := []struct {
		eventType events.EventType
		want      string
	}{
		{events.EventTypePlanCreated, "🗺️"},
		{events.EventTypePlanStepCompleted, "✅"},
		{events.EventTypePlanStepFailed, "🚫"},
		{events.EventTypeAgentAction, "🔧"},
		{events.EventTypeError, "❌"},
		{events.EventTypeUnknown, "•"},
	}
	for _, tt := range tests {
		event := &events.AgentEvent{Type: tt.eventType}
		assert.Equal(t, tt.want, getEventEmoji(event), "emoji for %s", tt.eventType)
	}
}

func TestHeadlineMessagePrefersMessage(t *testing.T) {
	event := &events.AgentEvent{
		Type:            events.EventTypePlanStepStarted,
		Message:         "checking metrics",
		StepDescription: "query dashboards",
	}
	assert.Equal(t, "checking metrics", headlineMessage(event))
}

func TestHeadlineMessageFallbacks(t *testing.T) {
	step := &events.AgentEvent{Type: events.EventTypePlanStepStarted, StepDescription: "query dashboards"}
	assert.Equal(t, "query dashboards", headlineMessage(step))

	bareStep := &events.AgentEvent{Type: events.EventTypePlanStepStarted, StepNumber: 3}
	assert.Equal(t, "step 3", headlineMessage(bareStep))

	file := &events.AgentEvent{Type: events.EventTypeFileOperation, FilePath: "/etc/app.conf"}
	assert.Equal(t, "/etc/app.conf", headlineMessage(file))

	failure := &events.AgentEvent{Type: events.EventTypeError, Error: "connection refused"}
	assert.Equal(t, "connection refused", headlineMessage(failure))

	generic := &events.AgentEvent{Type: events.EventTypeObservation}
	assert.Equal(t, "observation", headlineMessage(generic))
}

func TestExtractEventMetadata(t *testing.T) {
	step := &events.AgentEvent{
		Type:            events.EventTypePlanStepCompleted,
		StepNumber:      2,
		Message:         "done",
		StepDescription: "correlate deploy timeline",
	}
	assert.Equal(t, "step 2 | correlate deploy timeline", extractEventMetadata(step))

	knowledge := &events.AgentEvent{
		Type:           events.EventTypeKnowledgeRetrieved,
		RelevanceScore: 0.87,
		Data:           map[string]interface{}{"source": "runbook-42"},
	}
	assert.Equal(t, "relevance 87% | runbook-42", extractEventMetadata(knowledge))

	success := true
	file := &events.AgentEvent{
		Type:    events.EventTypeFileOperation,
		Success: &success,
		Data:    map[string]interface{}{"operation": "read"},
	}
	assert.Equal(t, "read | ✓", extractEventMetadata(file))

	empty := &events.AgentEvent{Type: events.EventTypeObservation}
	assert.Equal(t, "", extractEventMetadata(empty))
}

func TestGetStringField(t *testing.T) {
	data := map[string]interface{}{"name": "checkout", "count": 3}
	assert.Equal(t, "checkout", getStringField(data, "name", "dflt"))
	assert.Equal(t, "dflt", getStringField(data, "count", "dflt"), "non-string falls back")
	assert.Equal(t, "dflt", getStringField(nil, "name", "dflt"))
}
