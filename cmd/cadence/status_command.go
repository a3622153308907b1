package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/manifest"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var episodeID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent render runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			out := cmd.OutOrStdout()

			if episode := strings.TrimSpace(episodeID); episode != "" {
				record, err := ledger.LatestRun(cmd.Context(), episode)
				if errors.Is(err, manifest.ErrNotFound) {
					fmt.Fprintf(out, "No runs recorded for episode %s\n", episode)
					return nil
				}
				if err != nil {
					return err
				}
				printRunDetail(cmd, record)
				return nil
			}

			records, err := ledger.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No render runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.EpisodeID,
					string(record.Status),
					fmt.Sprintf("%d", record.ChunkCount),
					fmt.Sprintf("%d", len(record.FailedChunks)),
					formatSeconds(record.DurationSeconds),
					formatSeconds(record.RenderSeconds),
					record.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			headers := []string{"Episode", "Status", "Chunks", "Failed", "Audio", "Render", "Updated"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&episodeID, "episode", "", "Show the latest run for one episode")
	return cmd
}

func printRunDetail(cmd *cobra.Command, record *manifest.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Episode:     %s\n", record.EpisodeID)
	if record.Title != "" {
		fmt.Fprintf(out, "Title:       %s\n", record.Title)
	}
	fmt.Fprintf(out, "Run:         %s\n", record.RunID)
	fmt.Fprintf(out, "Status:      %s\n", record.Status)
	if record.AudioPath != "" {
		fmt.Fprintf(out, "Audio:       %s (%s)\n", record.AudioPath, formatSeconds(record.DurationSeconds))
	}
	fmt.Fprintf(out, "Chunks:      %d (%d cached)\n", record.ChunkCount, record.CacheHits)
	if len(record.FailedChunks) > 0 {
		fmt.Fprintf(out, "Failed:      %v\n", record.FailedChunks)
	}
	if record.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s\n", record.ErrorMessage)
	}
	fmt.Fprintf(out, "Render time: %s\n", formatSeconds(record.RenderSeconds))
	fmt.Fprintf(out, "Updated:     %s\n", record.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds) / 60
	return fmt.Sprintf("%dm%02ds", minutes, int(seconds)%60)
}
