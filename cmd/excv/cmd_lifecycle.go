package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/excavator/excavator/internal/config"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check whether the daemon is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().get("/health", &resp); err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		fmt.Println("pong")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show daemon health",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().get("/health", &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status: readiness, catalog stats, queue depth, current operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().get("/status", &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Gracefully shut down the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().post("/shutdown", nil, &resp); err != nil {
			return fmt.Errorf("request shutdown: %w", err)
		}
		fmt.Println("shutdown requested")
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Request shutdown, then poll until the daemon has exited",
	Long: `restart asks the running daemon to shut down and then polls /health
until it stops responding. It does not itself start a new daemon process --
excavator's process manager (systemd, a supervisor, or a plain shell loop)
is expected to restart "excv serve" once the old process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		var resp map[string]interface{}
		if err := client.post("/shutdown", nil, &resp); err != nil {
			return fmt.Errorf("request shutdown: %w", err)
		}
		fmt.Println("shutdown requested, waiting for process to exit...")
		deadline := time.Now().Add(30 * time.Second)
		for time.Now().Before(deadline) {
			if err := client.get("/health", &resp); err != nil {
				fmt.Println("daemon has exited; restart it with \"excv serve\"")
				return nil
			}
			time.Sleep(500 * time.Millisecond)
		}
		return fmt.Errorf("daemon did not exit within 30s")
	},
}

var initFlagForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default excavator.yaml config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initFlagForce {
			if _, err := os.Stat(configPath); err == nil {
				fmt.Printf("%s already exists, use --force to overwrite\n", configPath)
				return nil
			}
		}
		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("wrote default config to %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initFlagForce, "force", "f", false, "Overwrite an existing config file")
}
