package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var excavatePriority string

var excavateCmd = &cobra.Command{
	Use:   "excavate [paths...]",
	Short: "Enqueue paths for (re-)extraction",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]interface{}{"paths": args, "priority": excavatePriority}
		var resp map[string]interface{}
		if err := newAPIClient().post("/excavate", body, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var correlateSync bool

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Trigger a correlation pass over the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/correlate"
		if correlateSync {
			path = "/correlate/run"
		}
		var resp map[string]interface{}
		if err := newAPIClient().post(path, nil, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show queued, current, and recently completed jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		var queued, current map[string]interface{}
		var recent []interface{}
		if err := client.get("/jobs", &queued); err != nil {
			return err
		}
		if err := client.get("/jobs/current", &current); err != nil {
			return err
		}
		if err := client.get(fmt.Sprintf("/jobs/recent?limit=%d", jobsLimit), &recent); err != nil {
			return err
		}
		fmt.Println("Queued:")
		printJSON(queued)
		fmt.Println("Current:")
		printJSON(current)
		fmt.Println("Recent:")
		printJSON(recent)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the telemetry rollup (patterns, entities, discoveries, storage)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().get("/telemetry", &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

func init() {
	excavateCmd.Flags().StringVar(&excavatePriority, "priority", "normal", "Job priority: low, normal, high")
	correlateCmd.Flags().BoolVar(&correlateSync, "sync", false, "Block until the correlation run completes")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "Maximum number of jobs to show")
}
