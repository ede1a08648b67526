package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/streambench/internal/app"
	"github.com/davidbz/streambench/internal/domain"
)

func newPricingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pricing",
		Short: "Show the per-1M token prices used for cost estimates",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.NewContainer(cliLogging)
			if err != nil {
				return err
			}

			return container.Invoke(func(pricing domain.PricingRegistry) {
				fmt.Fprint(cmd.OutOrStdout(), formatPricingTable(pricing.List(context.Background())))
			})
		},
	}
}

func formatPricingTable(entries []domain.PricingEntry) string {
	if len(entries) == 0 {
		return "No pricing registered.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-36s %12s %12s  %s\n", "PROVIDER", "MODEL", "INPUT/1M", "OUTPUT/1M", "SOURCE")
	b.WriteString(strings.Repeat("-", 100) + "\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "%-12s %-36s %12s %12s  %s\n",
			e.Provider,
			defaultStr(e.Model, "(default)"),
			"$"+formatPrice(e.Config.InputCostPer1M),
			"$"+formatPrice(e.Config.OutputCostPer1M),
			e.Config.SourceURL)
	}
	return b.String()
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
