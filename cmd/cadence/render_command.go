package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/logging"
	"cadence/internal/manifest"
	"cadence/internal/pipeline"
	"cadence/internal/script"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var cleanChunks bool

	cmd := &cobra.Command{
		Use:   "render <episode-id> <script-path>",
		Short: "Render a dialogue script into a narrated episode",
		Long: `Render synthesizes every line of the script, masters the audio into a
single MP3, and writes subtitle timings alongside it. Chunk audio is cached
per episode, so re-running after a partial failure only synthesizes what is
missing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			episodeID := strings.TrimSpace(args[0])
			scriptPath := strings.TrimSpace(args[1])

			parsed, err := parseScriptFile(scriptPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			ledger, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			renderer, err := pipeline.New(pipeline.Options{
				Config: cfg,
				Logger: logger,
				Ledger: ledger,
			})
			if err != nil {
				return err
			}

			result, err := renderer.Render(cmd.Context(), episodeID, parsed)
			if err != nil {
				return err
			}

			if cleanChunks {
				if err := renderer.CleanupChunks(episodeID); err != nil {
					logger.Warn("chunk cleanup failed", "error", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %s\n", episodeID)
			fmt.Fprintf(out, "  Audio:     %s (%.1fs)\n", result.AudioPath, result.Manifest.DurationSeconds)
			fmt.Fprintf(out, "  Subtitles: %s\n", result.SRTPath)
			fmt.Fprintf(out, "  Timings:   %s\n", result.TimingPath)
			fmt.Fprintf(out, "  Chunks:    %d synthesized, %d from cache", result.Metrics.SuccessfulChunks, result.Metrics.CacheHits)
			if len(result.Manifest.FailedChunks) > 0 {
				fmt.Fprintf(out, ", %d failed %v", len(result.Manifest.FailedChunks), result.Manifest.FailedChunks)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanChunks, "clean-chunks", false, "Remove cached chunk audio after a successful render")
	return cmd
}

func parseScriptFile(path string) (*script.Script, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script %s: %w", path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		parsed, err := script.ParseJSON(file)
		if err != nil {
			return nil, fmt.Errorf("parse script %s: %w", path, err)
		}
		return parsed, nil
	}
	parsed, err := script.ParseScenario(file)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return parsed, nil
}
