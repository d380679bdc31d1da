package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var queryTopK int

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Semantic-search the indexed corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		q := url.Values{}
		q.Set("q", args[0])
		q.Set("k", fmt.Sprintf("%d", queryTopK))
		if err := newAPIClient().get("/query?"+q.Encode(), &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var fileCmd = &cobra.Command{
	Use:   "file [id]",
	Short: "Show a cataloged file and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := newAPIClient().get("/file/"+url.PathEscape(args[0]), &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var entitiesType string

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List consolidated entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/entities"
		if entitiesType != "" {
			path += "?type=" + url.QueryEscape(entitiesType)
		}
		var resp map[string]interface{}
		if err := newAPIClient().get(path, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var (
	patternsType  string
	patternsStale bool
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List detected patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if patternsType != "" {
			q.Set("type", patternsType)
		}
		if patternsStale {
			q.Set("stale", "true")
		}
		path := "/patterns"
		if enc := q.Encode(); enc != "" {
			path += "?" + enc
		}
		var resp map[string]interface{}
		if err := newAPIClient().get(path, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var discoveriesStatus string

var discoveriesCmd = &cobra.Command{
	Use:   "discoveries",
	Short: "List surfaced discoveries awaiting (or already given) feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/discoveries"
		if discoveriesStatus != "" {
			path += "?status=" + url.QueryEscape(discoveriesStatus)
		}
		var resp map[string]interface{}
		if err := newAPIClient().get(path, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

var feedbackNotes string

var feedbackCmd = &cobra.Command{
	Use:   "feedback [discovery-id] [confirm|dismiss]",
	Short: "Record feedback on a surfaced discovery",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"action": args[1], "notes": feedbackNotes}
		var resp map[string]interface{}
		if err := newAPIClient().post("/discoveries/"+url.PathEscape(args[0])+"/feedback", body, &resp); err != nil {
			return err
		}
		printJSON(resp)
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top", "k", 10, "Number of results to return")
	entitiesCmd.Flags().StringVar(&entitiesType, "type", "", "Filter by entity type")
	patternsCmd.Flags().StringVar(&patternsType, "type", "", "Filter by pattern type")
	patternsCmd.Flags().BoolVar(&patternsStale, "stale", false, "Only show stale patterns")
	discoveriesCmd.Flags().StringVar(&discoveriesStatus, "status", "", "Filter by discovery status")
	feedbackCmd.Flags().StringVar(&feedbackNotes, "notes", "", "Optional free-text notes")
}
