package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/deps"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/synth"
)

func newEnginesCommand(ctx *commandContext) *cobra.Command {
	var probeEngine bool

	cmd := &cobra.Command{
		Use:     "engines",
		Aliases: []string{"doctor"},
		Short:   "Check external binaries and the synthesis backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Description
				}
				rows = append(rows, []string{
					status.Name,
					status.Command,
					yesNo(status.Available),
					yesNo(!status.Optional),
					detail,
				})
			}
			headers := []string{"Dependency", "Command", "Found", "Required", "Detail"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))

			if probeEngine {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("configure logging: %w", err)
				}
				engine, err := synth.New(cfg, logger, ffprobe.Duration(cfg.FFprobeBinary()))
				if err != nil {
					return err
				}
				if err := engine.Probe(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Backend %s: unreachable (%v)\n", engine.Name(), err)
				} else {
					fmt.Fprintf(out, "Backend %s: reachable\n", engine.Name())
				}
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probeEngine, "probe", false, "Also probe the configured synthesis backend")
	return cmd
}
