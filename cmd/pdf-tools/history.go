// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-tools/internal/history"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored activity log or completed requests",
	Long: `History reads history.db in the state directory. By default it prints the
most recent activity log entries. --requests prints one line per completed
request instead. --export writes everything as yaml or json to stdout or
--output.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate processing statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	historyCmd.Flags().String("severity", "", "only entries of this severity: info, success, error")
	historyCmd.Flags().String("request", "", "only entries of this request id")
	historyCmd.Flags().Int("limit", 50, "most recent entries to print (0 for all)")
	historyCmd.Flags().Bool("requests", false, "print completed requests instead of log entries")
	historyCmd.Flags().String("export", "", "export format: yaml or json")
	historyCmd.Flags().StringP("output", "o", "", "export destination (default: stdout)")

	rootCmd.AddCommand(historyCmd, statsCmd)
}

func openHistory() (*history.Store, error) {
	return history.Open(cfg.StateDir, logger)
}

func runHistory(cmd *cobra.Command, args []string) error {
	severity, _ := cmd.Flags().GetString("severity")
	requestID, _ := cmd.Flags().GetString("request")
	limit, _ := cmd.Flags().GetInt("limit")
	requests, _ := cmd.Flags().GetBool("requests")
	format, _ := cmd.Flags().GetString("export")
	output, _ := cmd.Flags().GetString("output")

	switch types.Severity(severity) {
	case "", types.SeverityInfo, types.SeveritySuccess, types.SeverityError:
	default:
		return types.NewError(types.KindSelection, "", fmt.Sprintf("unknown severity %q", severity), nil)
	}
	filter := history.Filter{Severity: types.Severity(severity), RequestID: requestID, Limit: limit}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	if format != "" {
		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}
		filter.Limit = 0
		switch format {
		case "yaml":
			err = store.ExportYAML(ctx, w, filter)
		case "json":
			err = store.ExportJSON(ctx, w, filter)
		default:
			return types.NewError(types.KindSelection, "", fmt.Sprintf("unknown export format %q: use yaml or json", format), nil)
		}
		if err != nil {
			return err
		}
		if output != "" {
			fmt.Printf("Exported history to %s\n", output)
		}
		return nil
	}

	if requests {
		records, err := store.Requests(ctx, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No requests recorded.")
		}
		for _, r := range records {
			line := fmt.Sprintf("%s  %-9s %-9s %s  %d input(s)", r.FinishedAt.Local().Format(time.DateTime), r.Kind, r.State, r.ID, len(r.Inputs))
			if r.Error != "" {
				line += "  " + r.Error
			}
			fmt.Println(line)
		}
		return nil
	}

	entries, err := store.Entries(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No activity recorded.")
	}
	for _, e := range entries {
		fmt.Printf("%s %s\n", e.Time.Local().Format(time.DateOnly), e.String())
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Requests:            %d\n", st.Requests)
	fmt.Printf("  succeeded:         %d\n", st.Succeeded)
	fmt.Printf("  failed:            %d\n", st.Failed)
	fmt.Printf("Documents processed: %d\n", st.DocumentsProcessed)
	fmt.Printf("Bytes processed:     %s\n", types.FormatSize(st.BytesProcessed))
	fmt.Printf("Compression saved:   %s\n", types.FormatSize(st.CompressionSaved))
	return nil
}
