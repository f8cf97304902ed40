package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oncallops/incidentwatch/internal/events"
	"github.com/oncallops/incidentwatch/internal/feed"
	"github.com/oncallops/incidentwatch/internal/poll"
	"github.com/oncallops/incidentwatch/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch <incident-id>",
	Short: "Follow an incident's root-cause analysis live",
	Long: `Watch an incident's automated root-cause analysis until it completes.

Live agent events stream in over the event feed while the incident status
is polled in the background. The watch ends when a root cause is found or
the attempt ceiling is reached; a lost feed connection only degrades the
display, the polling still drives the watch to an outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trigger, _ := cmd.Flags().GetBool("trigger")
		autoResolve, _ := cmd.Flags().GetBool("resolve")
		interval, _ := cmd.Flags().GetDuration("interval")
		maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
		return runWatch(args[0], trigger, autoResolve, interval, maxAttempts)
	},
}

func init() {
	watchCmd.Flags().Bool("trigger", false, "Trigger a new analysis run before watching")
	watchCmd.Flags().Bool("resolve", false, "Mark the incident resolved once a root cause lands")
	watchCmd.Flags().Duration("interval", 0, "Status polling interval (default from config)")
	watchCmd.Flags().Int("max-attempts", 0, "Polling attempt ceiling (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(incidentID string, trigger, autoResolve bool, interval time.Duration, maxAttempts int) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if interval <= 0 {
		if interval, err = cfg.ParsePollInterval(); err != nil {
			return err
		}
	}
	if maxAttempts <= 0 {
		maxAttempts = cfg.MaxAttempts
	}

	buffer := events.NewBuffer(cfg.EventBufferSize)
	eventFeed := feed.New(cfg.ResolveFeedURL(), buffer, log)
	loop := poll.New(client, poll.Config{Interval: interval, MaxAttempts: maxAttempts}, log)
	sess := session.New(incidentID, client, loop, eventFeed, buffer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if trigger {
		if err := client.TriggerAnalysis(ctx, incidentID); err != nil {
			return err
		}
		fmt.Printf("%s Analysis triggered for %s\n", color.CyanString("🧠"), incidentID)
	}

	if err := sess.Open(ctx); err != nil {
		return err
	}

	if sess.Phase() == session.PhaseResolved {
		incident, _ := sess.Snapshot()
		printResolved(incident, 0)
		sess.Close()
		return maybeResolveBackend(ctx, sess, autoResolve)
	}

	incident, _ := sess.Snapshot()
	printWatchHeader(incident)

	// The consumer goroutine owns the terminal; the watcher goroutine turns
	// either a signal or a terminal phase into a synchronous session close.
	finished := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(finished)
		for update := range sess.Updates() {
			renderUpdate(update)
			if update.Phase == session.PhaseResolved || update.Phase == session.PhaseTimedOut {
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			fmt.Println("\nStopped watching")
		case <-finished:
		}
		sess.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	switch sess.Phase() {
	case session.PhaseResolved:
		return maybeResolveBackend(context.Background(), sess, autoResolve)
	case session.PhaseTimedOut:
		return fmt.Errorf("analysis did not complete within %d polling attempts; retry with: incidentwatch trigger %s", maxAttempts, incidentID)
	}
	return nil
}

// renderUpdate prints one session update: a live event, or a phase or
// connection change.
func renderUpdate(update session.Update) {
	if update.Event != nil {
		displayAgentEvent(update.Event)
		return
	}

	switch update.Phase {
	case session.PhaseResolved:
		printResolved(update.Incident, update.Attempts)
	case session.PhaseTimedOut:
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("\n%s Analysis timed out after %d polling attempts\n", yellow("⏱️"), update.Attempts)
	case session.PhaseAnalyzing:
		if update.Connection == feed.StateDisconnected {
			gray := color.New(color.FgHiBlack)
			fmt.Printf("%s\n", gray.Sprint("  live feed disconnected, polling continues"))
		}
	}
}

func maybeResolveBackend(ctx context.Context, sess *session.Session, autoResolve bool) error {
	if !autoResolve {
		return nil
	}
	if err := sess.Resolve(ctx); err != nil {
		return fmt.Errorf("marking incident resolved: %w", err)
	}
	fmt.Printf("%s Incident marked RESOLVED\n", color.GreenString("✅"))
	return nil
}
