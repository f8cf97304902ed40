package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/oncallops/incidentwatch/internal/events"
	"github.com/oncallops/incidentwatch/internal/types"
)

// displayAgentEvent formats and prints a single analysis event with a
// consistent two-line format: headline, then gray metadata.
func displayAgentEvent(event *events.AgentEvent) {
	emoji := getEventEmoji(event)
	timestamp := event.Timestamp.Format("15:04:05")

	agentColor := color.New(color.FgGreen)
	agent := agentColor.Sprint(event.Agent)
	if event.Agent == "" {
		agent = agentColor.Sprint("analysis")
	}

	typeColor := color.New(color.FgMagenta)
	eventType := typeColor.Sprint(event.Type)

	// Headline message, truncated to fit an ~80-char terminal line
	maxMessageLen := 60 - len(event.Agent) - len(string(event.Type))
	message := truncateString(headlineMessage(event), maxMessageLen)

	fmt.Printf("%s [%s] %s %s: %s\n",
		emoji,
		timestamp,
		agent,
		eventType,
		message,
	)

	metadata := extractEventMetadata(event)
	if metadata != "" {
		gray := color.New(color.FgHiBlack)
		fmt.Printf("  %s\n", gray.Sprint(metadata))
	} else {
		fmt.Println()
	}
}

// headlineMessage picks the most useful one-liner for the event.
func headlineMessage(event *events.AgentEvent) string {
	if event.Message != "" {
		return event.Message
	}
	switch event.Type {
	case events.EventTypePlanStepStarted, events.EventTypePlanStepCompleted, events.EventTypePlanStepFailed:
		if event.StepDescription != "" {
			return event.StepDescription
		}
		return fmt.Sprintf("step %d", event.StepNumber)
	case events.EventTypeFileOperation:
		return event.FilePath
	case events.EventTypeError:
		return event.Error
	}
	return string(event.Type)
}

// getEventEmoji returns the icon for each event type.
func getEventEmoji(event *events.AgentEvent) string {
	switch event.Type {
	case events.EventTypePlanCreated:
		return "🗺️"
	case events.EventTypePlanStepStarted:
		return "▶️"
	case events.EventTypePlanStepCompleted:
		return "✅"
	case events.EventTypePlanStepFailed:
		return "🚫"
	case events.EventTypeAgentAction:
		return "🔧"
	case events.EventTypeObservation:
		return "🔍"
	case events.EventTypeKnowledgeRetrieved:
		return "📚"
	case events.EventTypeFileOperation:
		return "📝"
	case events.EventTypeError:
		return "❌"
	default:
		return "•"
	}
}

// getSeverityColor maps incident severity to a display color.
func getSeverityColor(severity types.Severity) *color.Color {
	switch severity {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case types.SeverityHigh:
		return color.New(color.FgRed)
	case types.SeverityMedium:
		return color.New(color.FgYellow)
	case types.SeverityLow:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

// getStatusColor maps incident status to a display color.
func getStatusColor(status types.Status) *color.Color {
	switch status {
	case types.StatusOpen:
		return color.New(color.FgRed)
	case types.StatusInvestigating:
		return color.New(color.FgYellow)
	case types.StatusResolved:
		return color.New(color.FgGreen)
	case types.StatusClosed:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgWhite)
	}
}

// extractEventMetadata extracts a few key fields per event type, joined
// with " | " and truncated to fit the metadata line.
func extractEventMetadata(event *events.AgentEvent) string {
	var fields []string

	switch event.Type {
	case events.EventTypePlanStepStarted, events.EventTypePlanStepCompleted, events.EventTypePlanStepFailed:
		fields = append(fields, fmt.Sprintf("step %d", event.StepNumber))
		if event.StepDescription != "" && event.Message != "" {
			fields = append(fields, truncateString(event.StepDescription, 40))
		}
		if event.Error != "" {
			fields = append(fields, truncateString(event.Error, 40))
		}

	case events.EventTypeKnowledgeRetrieved:
		if event.RelevanceScore > 0 {
			fields = append(fields, fmt.Sprintf("relevance %.0f%%", event.RelevanceScore*100))
		}
		if source := getStringField(event.Data, "source", ""); source != "" {
			fields = append(fields, truncateString(source, 30))
		}

	case events.EventTypeFileOperation:
		if op := getStringField(event.Data, "operation", ""); op != "" {
			fields = append(fields, op)
		}
		if event.Success != nil {
			if *event.Success {
				fields = append(fields, "✓")
			} else {
				fields = append(fields, "✗")
			}
		}

	case events.EventTypeError:
		if event.Error != "" && event.Message != "" {
			fields = append(fields, truncateString(event.Error, 50))
		}

	default:
		if svc := getStringField(event.Data, "service", ""); svc != "" {
			fields = append(fields, svc)
		}
		if tool := getStringField(event.Data, "tool", ""); tool != "" {
			fields = append(fields, tool)
		}
	}

	return truncateString(joinFields(fields), 70)
}

func getStringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

// joinFields joins non-empty metadata fields with " | ".
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// truncateString truncates a string to maxLen, adding "..." if needed.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
