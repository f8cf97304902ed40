package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <incident-id>",
	Short: "Mark an incident as resolved",
	Long: `Mark an incident RESOLVED on the backend. Refuses to resolve an
incident whose analysis has not produced a root cause yet, unless --force
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if !force {
			incident, _, err := client.GetIncident(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !incident.HasRootCause() {
				return fmt.Errorf("incident %s has no root cause yet; use --force to resolve anyway", args[0])
			}
		}

		if err := client.ResolveIncident(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("%s Incident %s marked RESOLVED\n", color.GreenString("✅"), args[0])
		return nil
	},
}

func init() {
	resolveCmd.Flags().Bool("force", false, "Resolve even without a root cause")
	rootCmd.AddCommand(resolveCmd)
}
