package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/oncallops/incidentwatch/internal/types"
)

// printWatchHeader prints the banner shown when a watch begins.
func printWatchHeader(incident *types.Incident) {
	cyan := color.New(color.FgCyan).SprintFunc()
	severity := getSeverityColor(incident.Severity).Sprint(incident.Severity)
	fmt.Printf("\n%s Watching %s [%s] %s (Ctrl+C to stop)\n\n",
		cyan("👁️"), incident.ID, severity, incident.Title)
}

// printIncident prints a one-shot incident summary.
func printIncident(incident *types.Incident, logs []types.LogEntry) {
	status := getStatusColor(incident.Status).Sprint(incident.Status)
	severity := getSeverityColor(incident.Severity).Sprint(incident.Severity)

	fmt.Printf("\n%s  %s\n", incident.ID, incident.Title)
	fmt.Printf("  Status:   %s\n", status)
	fmt.Printf("  Severity: %s\n", severity)
	if incident.Service != "" {
		fmt.Printf("  Service:  %s\n", incident.Service)
	}

	if incident.HasRootCause() {
		green := color.New(color.FgGreen)
		fmt.Printf("  Root cause: %s\n", green.Sprint(*incident.RootCause))
		if incident.ActionTaken != nil && *incident.ActionTaken != "" {
			fmt.Printf("  Action:     %s\n", *incident.ActionTaken)
		}
	} else {
		gray := color.New(color.FgHiBlack)
		fmt.Printf("  Root cause: %s\n", gray.Sprint("not yet determined"))
	}

	if len(logs) > 0 {
		fmt.Printf("\n  Recent logs:\n")
		gray := color.New(color.FgHiBlack)
		for _, entry := range logs {
			fmt.Printf("    %s [%s] %s: %s\n",
				gray.Sprint(entry.Timestamp.Format("15:04:05")),
				entry.Level, entry.Service, truncateString(entry.Message, 60))
		}
	}
	fmt.Println()
}

// printResolved prints the completion panel at the end of a watch.
func printResolved(incident *types.Incident, attempts int) {
	green := color.New(color.FgGreen)

	fmt.Printf("\n%s Root cause found", green.Sprint("✅"))
	if attempts > 0 {
		fmt.Printf(" after %d status checks", attempts)
	}
	fmt.Println()

	if incident != nil && incident.HasRootCause() {
		fmt.Printf("\n  %s\n", green.Sprint(*incident.RootCause))
		if incident.ActionTaken != nil && *incident.ActionTaken != "" {
			fmt.Printf("  Action taken: %s\n", *incident.ActionTaken)
		}
	}
	fmt.Println()
}
