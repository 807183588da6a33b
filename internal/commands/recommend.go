package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sdpower/tokenflow-go/internal/advisor"
	"github.com/spf13/cobra"
)

func NewRecommendCommand() *cobra.Command {
	var (
		configPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "recommend [task description]",
		Short: "Recommend a model for a task",
		Long:  `Classify a free-text task description and recommend a model with a cost comparison against the most expensive option.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}

			rec := advisor.New(cfg).Recommend(strings.Join(args, " "))

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			fmt.Printf("Classification: %s\n", rec.Classification)
			fmt.Printf("Recommended:    %s\n", rec.RecommendedModel)
			fmt.Printf("Confidence:     %.0f%%\n", rec.Confidence*100)
			fmt.Printf("Reasoning:      %s\n", rec.Reasoning)
			fmt.Printf("Est. savings:   $%.4f per 1K-in/1K-out exchange\n", rec.CostSavings)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")

	return cmd
}
