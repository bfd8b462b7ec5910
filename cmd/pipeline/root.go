package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

func newRootCommand() *cobra.Command {
	var listTiers bool

	rootCmd := &cobra.Command{
		Use:           "pipeline",
		Short:         "Generate recurring episode assets through the caching gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listTiers {
				printTiers(cmd)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&listTiers, "list-tiers", false, "List cost tiers and their prices")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newEstimateCommand())
	rootCmd.AddCommand(newCacheCommand())

	return rootCmd
}

func printTiers(cmd *cobra.Command) {
	table := pricing.Default()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Cost tiers (prices in USD):")
	for _, tier := range request.Tiers() {
		fmt.Fprintf(out, "  %s\n", tier)
		for _, op := range request.Operations() {
			price := table[tier][op]
			switch {
			case price.PerUnit > 0:
				fmt.Fprintf(out, "    %-18s %.4f per unit\n", op, price.PerUnit)
			case price.InputPerKTok > 0 || price.OutputPerKTok > 0:
				fmt.Fprintf(out, "    %-18s %.4f in / %.4f out per 1k tokens\n",
					op, price.InputPerKTok, price.OutputPerKTok)
			default:
				fmt.Fprintf(out, "    %-18s free\n", op)
			}
		}
	}
}
