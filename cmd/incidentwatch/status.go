package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <incident-id>",
	Short: "Show the current incident status and recent logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		incident, logs, err := client.GetIncident(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printIncident(incident, logs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
