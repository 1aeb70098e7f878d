package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sentinel/internal/adapters/config"
	"sentinel/internal/daemon"
	"sentinel/internal/domain"
	"sentinel/internal/store"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sentinel",
		Short:        "Real-time market news monitor",
		Long:         "Sentinel watches market news streams and feeds, classifies headlines by urgency, and queues alerts for the trading assistant.",
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newAlertsCmd(),
	)
	return root
}

// newRunCmd runs the daemon in the foreground. This is also what a
// backgrounded start re-executes.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the news daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return daemon.Run(cfg)
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the news daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pid, err := daemon.Start(cfg)
			if errors.Is(err, errors.ErrAlreadyRunning) {
				fmt.Printf("Daemon already running (pid %d)\n", pid)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Daemon started (pid %d)\n", pid)
			fmt.Printf("Logs: %s\n", cfg.Data.LogPath())
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pid, err := daemon.Stop(cfg)
			if errors.Is(err, errors.ErrNotRunning) {
				fmt.Println("Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Daemon stopped (pid %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon liveness and pending alert count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st := daemon.GetStatus(cfg)
			if st.Running {
				fmt.Printf("Daemon running (pid %d)\n", st.PID)
			} else {
				fmt.Println("Daemon is not running")
			}
			fmt.Printf("Pending alerts: %d\n", st.PendingAlerts)
			return nil
		},
	}
}

// newAlertsCmd prints pending alerts grouped by suggested action. Read-only:
// alerts stay queued for the trading-logic consumer.
func newAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List pending alerts without consuming them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			alerts, err := store.ReadAlertFile(cfg.Data.PendingPath())
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Println("No pending alerts")
				return nil
			}

			fmt.Printf("%d pending alert(s)\n\n", len(alerts))
			renderGrouped(cmd.OutOrStdout(), alerts)
			return nil
		},
	}
}

func renderGrouped(w io.Writer, alerts []domain.Alert) {
	var order []string
	groups := make(map[string][]domain.Alert)
	for _, a := range alerts {
		hint := actionHint(a)
		if _, ok := groups[hint]; !ok {
			order = append(order, hint)
		}
		groups[hint] = append(groups[hint], a)
	}

	for _, hint := range order {
		fmt.Fprintf(w, "%s:\n", hint)
		for _, a := range groups[hint] {
			fmt.Fprintf(w, "  [%s] %s (%s)\n", a.Urgency, a.Headline, a.Source)
		}
		fmt.Fprintln(w)
	}
}

// actionHint maps an alert to the follow-up it suggests to the operator.
func actionHint(a domain.Alert) string {
	switch {
	case a.IsMacro:
		return "assess market"
	case a.Urgency == domain.UrgencyCritical:
		return "review " + a.Ticker
	default:
		return "watch " + a.Ticker
	}
}
