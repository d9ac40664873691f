package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dafibh/ledger/internal/client"
	"github.com/dafibh/ledger/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagServer string
	flagLedger string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Personal budget ledger",
	Long:          "Track a spending budget and expenses against a ledger server.",
	RunE:          runStatus,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("  "+describeError(err)))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Ledger server URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagLedger, "ledger", "l", "", "Ledger id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/ledger/config.toml)")
}

// newSession builds a session from the config file and flags
func newSession() (*client.Session, error) {
	cfg, err := config.LoadClient(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagLedger != "" {
		cfg.Ledger = flagLedger
	}

	store := client.NewHTTPClient(cfg.ServerURL, cfg.Ledger, cfg.Timeout.Duration)
	return client.NewSession(store), nil
}

// describeError turns session errors into one line for the terminal
func describeError(err error) string {
	var verr *client.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Rejected: " + verr.Error()
	case client.IsTransport(err):
		return "Could not reach the ledger server: " + err.Error()
	case errors.Is(err, errAborted):
		return "Aborted."
	default:
		return err.Error()
	}
}
