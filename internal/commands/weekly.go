package commands

import (
	"fmt"

	"github.com/sdpower/tokenflow-go/internal/aggregator"
	"github.com/sdpower/tokenflow-go/internal/output"
	"github.com/sdpower/tokenflow-go/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewWeeklyCommand() *cobra.Command {
	var (
		roots      []string
		configPath string
		format     string
		timezone   string
		batchSize  int
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Generate weekly usage report",
		Long:  `Aggregate usage logs into ISO-week buckets with estimated hour ranges per model family.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}

			loc, err := resolveTimezone(timezone)
			if err != nil {
				return err
			}

			if len(roots) == 0 {
				roots = defaultRoots()
			}

			log := newLogger(debug)
			p, err := pipeline.New(cfg, log, pipeline.Options{
				BatchSize:  batchSize,
				Streaming:  true,
				Diagnostic: debug,
			})
			if err != nil {
				return err
			}

			entries, _, err := p.Ingest(cmd.Context(), roots)
			if err != nil {
				return fmt.Errorf("failed to load usage data: %w", err)
			}

			agg := aggregator.New(cfg, log)
			agg.SetTimezone(loc)
			weeks := aggregator.SortedWeekly(agg.Weekly(entries))

			out, err := output.NewFormatter(format).FormatWeekly(weeks)
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roots, "data-path", nil, "Root directories to scan for usage logs (repeatable)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "Timezone for week grouping. Default: UTC")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Files decoded concurrently per batch (default 10)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Show per-line diagnostic information")

	return cmd
}
