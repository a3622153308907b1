package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/logging"
	"cadence/internal/pipeline"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <episode-id>",
		Short: "Remove cached chunk audio for an episode",
		Long: `Clean deletes the per-episode chunk cache. The mastered audio, subtitles,
and manifest are kept. Do not clean an episode you plan to resume after a
partial failure; the cache is what makes re-renders cheap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			renderer, err := pipeline.New(pipeline.Options{
				Config: cfg,
				Logger: logging.NewNop(),
			})
			if err != nil {
				return err
			}

			episodeID := strings.TrimSpace(args[0])
			if err := renderer.CleanupChunks(episodeID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed chunk cache for %s\n", episodeID)
			return nil
		},
	}
}
