package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oncallops/incidentwatch/internal/api"
	"github.com/oncallops/incidentwatch/internal/config"
)

var (
	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "incidentwatch",
	Short: "Watch backend incident root-cause analysis from the terminal",
	Long: `incidentwatch follows a backend incident's automated root-cause
analysis: it streams the live agent events over the event feed, polls the
incident status in the background, and reports when a root cause lands or
the watch window runs out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
			cfg.APIURL = apiURL
		}
		if feedURL, _ := cmd.Flags().GetString("feed-url"); feedURL != "" {
			cfg.FeedURL = feedURL
		}
		if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
			cfg.LogLevel = logLevel
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		log.SetLevel(level)
		log.SetOutput(os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().String("api-url", "", "Incident backend base URL (overrides config)")
	rootCmd.PersistentFlags().String("feed-url", "", "Event feed base URL (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "incidentwatch.yaml"
	}
	return home + "/.config/incidentwatch/config.yaml"
}

// newAPIClient builds the backend client from the loaded configuration.
func newAPIClient() (*api.Client, error) {
	timeout, err := cfg.ParseRequestTimeout()
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.Config{
		BaseURL:           cfg.APIURL,
		Timeout:           timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, log), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
