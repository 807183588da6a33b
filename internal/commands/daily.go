package commands

import (
	"fmt"

	"github.com/sdpower/tokenflow-go/internal/aggregator"
	"github.com/sdpower/tokenflow-go/internal/output"
	"github.com/sdpower/tokenflow-go/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewDailyCommand() *cobra.Command {
	var (
		roots      []string
		configPath string
		format     string
		timezone   string
		batchSize  int
		noStream   bool
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Generate daily usage report",
		Long:  `Aggregate usage logs into per-date buckets and report tokens, conversations and cost.`,
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
				Streaming:  !noStream,
				Diagnostic: debug,
			})
			if err != nil {
				return err
			}

			entries, stats, err := p.Ingest(cmd.Context(), roots)
			if err != nil {
				return fmt.Errorf("failed to load usage data: %w", err)
			}

			agg := aggregator.New(cfg, log)
			agg.SetTimezone(loc)
			days := aggregator.SortedDaily(agg.Daily(entries))

			out, err := output.NewFormatter(format).FormatDaily(days, stats)
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
	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "Timezone for date grouping (e.g., UTC, Asia/Tokyo). Default: UTC")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Files decoded concurrently per batch (default 10)")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Use the sequential whole-file loader instead of the batched pipeline")
	cmd.Flags().BoolVar(&debug, "debug", false, "Show per-line diagnostic information")

	return cmd
}
