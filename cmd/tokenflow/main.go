package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sdpower/tokenflow-go/internal/commands"
	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	rootCmd := &cobra.Command{
		Use:   "tokenflow",
		Short: "AI assistant usage analysis tool",
		Long:  `A CLI tool for aggregating AI assistant usage logs into daily and weekly summaries, rate-limit consumption and model recommendations.`,
	}

	rootCmd.AddCommand(
		commands.NewDailyCommand(),
		commands.NewWeeklyCommand(),
		commands.NewRateLimitCommand(),
		commands.NewRecommendCommand(),
		commands.NewMonitorCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
