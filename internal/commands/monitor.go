package commands

import (
	"time"

	"github.com/sdpower/tokenflow-go/internal/monitor"
	"github.com/spf13/cobra"
)

func NewMonitorCommand() *cobra.Command {
	var (
		roots      []string
		configPath string
		timezone   string
		plan       string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live usage dashboard",
		Long:  `Re-run ingestion on an interval and display today's usage and weekly rate-limit consumption.`,
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

			m := monitor.New(monitor.Options{
				Roots:    roots,
				Config:   cfg,
				Plan:     plan,
				Interval: interval,
				Timezone: loc,
			})
			return m.Start(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&roots, "data-path", nil, "Root directories to scan for usage logs (repeatable)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "Timezone for date grouping. Default: UTC")
	cmd.Flags().StringVarP(&plan, "plan", "p", "pro", "Plan tier to compare against")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 10*time.Second, "Refresh interval")

	return cmd
}
