package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/streambench/internal/app"
	"github.com/davidbz/streambench/internal/domain"
	ledger "github.com/davidbz/streambench/internal/ledger/redis"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show recorded usage totals per provider and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.NewContainer(cliLogging)
			if err != nil {
				return err
			}

			return container.Invoke(func(usageLedger *ledger.Ledger) error {
				if usageLedger == nil {
					return errors.New("usage ledger is disabled; set REDIS_ADDR")
				}
				defer func() { _ = usageLedger.Close() }()

				totals, err := usageLedger.Totals(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprint(cmd.OutOrStdout(), formatUsageTable(totals))
				return nil
			})
		},
	}
}

func formatUsageTable(totals []domain.UsageTotal) string {
	if len(totals) == 0 {
		return "No usage recorded.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-36s %6s %10s %10s %12s\n",
		"PROVIDER", "MODEL", "RUNS", "TOKENS", "AVG LAT", "EST. COST")
	b.WriteString(strings.Repeat("-", 91) + "\n")

	var totalCost float64
	for _, t := range totals {
		var avgLatency int64
		if t.Runs > 0 {
			avgLatency = t.LatencyMs / t.Runs
		}
		fmt.Fprintf(&b, "%-12s %-36s %6d %10d %10s %12s\n",
			t.Provider, t.Model, t.Runs, t.TotalTokens,
			domain.FormatLatency(avgLatency),
			"$"+domain.FormatUSD(t.CostUSD))
		totalCost += t.CostUSD
	}
	b.WriteString(strings.Repeat("-", 91) + "\n")
	fmt.Fprintf(&b, "%78s %12s\n", "TOTAL:", "$"+domain.FormatUSD(totalCost))
	return b.String()
}
