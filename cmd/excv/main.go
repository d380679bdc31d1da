// Package main implements the excv CLI -- the command-line front end for
// the excavator daemon.
//
// The actual subcommand implementations are split across multiple
// cmd_*.go files for maintainability.
//
// # File Index
//
//	main.go          - Entry point, rootCmd, global flags, init()
//	cmd_serve.go     - serve, the long-running daemon process
//	cmd_lifecycle.go - stop, restart, ping, health, status, init
//	cmd_query.go     - query, file, entities, patterns, discoveries, feedback
//	cmd_jobs.go      - excavate, correlate, jobs, logs
//	cmd_dashboard.go - dashboard, a bubbletea TUI over the control plane
//	httpclient.go    - small JSON HTTP client shared by every client-side command
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/excavator/excavator/internal/logging"
)

var (
	verbose    bool
	configPath string
	serverAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "excv",
	Short: "excavator - cognitive archaeology over a file tree",
	Long: `excavator indexes a directory tree, extracts entities and
relationships from what it finds, and surfaces correlations a human
reviewing the files one at a time would likely miss.

Run "excv serve" to start the daemon, then use the other subcommands to
talk to it over its HTTP control plane.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "excavator.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "", "Control plane address (overrides config)")

	rootCmd.AddCommand(
		serveCmd,
		stopCmd,
		restartCmd,
		pingCmd,
		statusCmd,
		healthCmd,
		initCmd,
		queryCmd,
		fileCmd,
		entitiesCmd,
		patternsCmd,
		discoveriesCmd,
		feedbackCmd,
		excavateCmd,
		correlateCmd,
		jobsCmd,
		logsCmd,
		dashboardCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
