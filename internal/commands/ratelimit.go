package commands

import (
	"fmt"
	"time"

	"github.com/sdpower/tokenflow-go/internal/aggregator"
	"github.com/sdpower/tokenflow-go/internal/output"
	"github.com/sdpower/tokenflow-go/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewRateLimitCommand() *cobra.Command {
	var (
		roots      []string
		configPath string
		format     string
		timezone   string
		plan       string
		week       string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Show weekly rate-limit consumption",
		Long:  `Compare one week's token usage per model family against a plan's weekly allowances.`,
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
			p, err := pipeline.New(cfg, log, pipeline.Options{Streaming: true, Diagnostic: debug})
			if err != nil {
				return err
			}

			entries, _, err := p.Ingest(cmd.Context(), roots)
			if err != nil {
				return fmt.Errorf("failed to load usage data: %w", err)
			}

			agg := aggregator.New(cfg, log)
			agg.SetTimezone(loc)
			weeks := agg.Weekly(entries)

			key := week
			if key == "" {
				now := time.Now().In(loc)
				wd := int(now.Weekday())
				if wd == 0 {
					wd = 7
				}
				key = now.AddDate(0, 0, 1-wd).Format("2006-01-02")
			}

			bucket, ok := weeks[key]
			if !ok {
				return fmt.Errorf("no usage recorded for week starting %s", key)
			}

			info, err := agg.RateLimits(bucket, plan)
			if err != nil {
				return err
			}

			out, err := output.NewFormatter(format).FormatRateLimits(info)
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
	cmd.Flags().StringVarP(&plan, "plan", "p", "pro", "Plan tier to compare against (pro, max5x, max20x)")
	cmd.Flags().StringVarP(&week, "week", "w", "", "Week to report (Monday date, YYYY-MM-DD; defaults to current week)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Show per-line diagnostic information")

	return cmd
}
