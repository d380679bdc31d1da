package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/excavator/excavator/internal/config"
	"github.com/excavator/excavator/internal/daemon"
	"github.com/excavator/excavator/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the excavator daemon in the foreground",
	Long: `serve boots the full excavator daemon: the catalog, vector store,
file watcher, extraction pipeline, correlation engine, and HTTP control
plane. It blocks until interrupted (Ctrl+C) or stopped via the control
plane's /shutdown endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverAddr != "" {
			cfg.ControlPlane.ListenAddr = serverAddr
		}

		if err := logging.Configure(filepath.Join(cfg.StateDir, "logs"), cfg.Logging.DebugMode, cfg.Logging.Categories, cfg.Logging.Level, cfg.Logging.JSONFormat); err != nil {
			fmt.Printf("warning: failed to configure file logging: %v\n", err)
		}

		fmt.Printf("excavator starting -- roots: %v\n", cfg.Watcher.Roots)
		fmt.Printf("  state dir:   %s\n", cfg.StateDir)
		fmt.Printf("  catalog:     %s\n", cfg.Catalog.DatabasePath)
		fmt.Printf("  control plane: http://%s/api/v1\n", cfg.ControlPlane.ListenAddr)

		d, err := daemon.New(cfg)
		if err != nil {
			return fmt.Errorf("initialize daemon: %w", err)
		}

		fmt.Println("excavator is running. Press Ctrl+C to stop.")
		if err := d.Run(context.Background()); err != nil {
			return fmt.Errorf("daemon exited with error: %w", err)
		}
		fmt.Println("excavator stopped.")
		return nil
	},
}
