package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <incident-id>",
	Short: "Trigger a root-cause analysis run",
	Long: `Ask the backend to start (or restart) the automated root-cause
analysis for an incident. Use "incidentwatch watch --trigger" to trigger
and follow in one step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := client.TriggerAnalysis(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("%s Analysis triggered for %s\n", color.CyanString("🧠"), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
