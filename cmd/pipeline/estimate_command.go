package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediagen-gateway/internal/bootstrap"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

func newEstimateCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price an episode without generating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := request.ParseTier(flags.costTier)
			if err != nil {
				return err
			}
			output, err := orchestrator.ParseOutputType(flags.outputType)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if flags.duration == 0 {
				flags.duration = cfg.VideoDurationMinutes
			}

			table, err := bootstrap.PricingTable(cfg)
			if err != nil {
				return err
			}

			estimator := pricing.NewEstimator(table)
			specs := orchestrator.PlanSpecs(orchestrator.PipelineRequest{
				Channel:         flags.channel,
				Theme:           flags.theme,
				Week:            flags.week,
				Tier:            tier,
				Output:          output,
				NumShorts:       flags.numShorts,
				DurationMinutes: flags.duration,
				ImageQuery:      flags.imageQuery,
				NumImages:       flags.numImages,
			})
			return printEstimate(cmd.OutOrStdout(), estimator.Estimate(specs, tier), flags.jsonOut)
		},
	}

	cmd.Flags().StringVar(&flags.channel, "channel", "", "Channel the episode belongs to")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "Episode theme")
	cmd.Flags().IntVar(&flags.week, "week", 0, "Week number for recurring schedules")
	cmd.Flags().StringVar(&flags.outputType, "output", "both", "Deliverables to price: long, shorts or both")
	cmd.Flags().StringVar(&flags.costTier, "cost-tier", "free", "Cost tier: free, low or high")
	cmd.Flags().IntVar(&flags.numShorts, "num-shorts", request.DefaultShorts, "Shorts to extract (0 disables)")
	cmd.Flags().IntVar(&flags.duration, "duration", 0, "Target video duration in minutes")
	cmd.Flags().IntVar(&flags.numImages, "num-images", 0, "Stock images to fetch")
	cmd.Flags().StringVar(&flags.imageQuery, "image-query", "", "Stock image search query")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the estimate as JSON")

	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("theme")

	return cmd
}

func printEstimate(out io.Writer, estimate pricing.CostEstimate, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(estimate)
	}

	fmt.Fprintf(out, "Estimated cost (%s tier):\n", estimate.Tier)
	for _, op := range request.Operations() {
		stage, ok := estimate.PerStage[op]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %-18s %10.1f units  $%.4f\n", op, stage.Units, stage.USD)
	}
	fmt.Fprintf(out, "total: $%.4f\n", estimate.Total.USD)
	return nil
}
