package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davidbz/streambench/internal/app"
	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/domain"
)

func newRunCmd() *cobra.Command {
	var (
		presetsPath string
		compare     bool
		offline     bool
		only        []string
	)

	cmd := &cobra.Command{
		Use:   "run [question]",
		Short: "Stream every preset variant for a question, then compare them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.NewContainer(cliLogging, func(cfg *config.Config) {
				if presetsPath != "" {
					cfg.Presets.Path = presetsPath
				}
				if offline {
					cfg.Transport.Kind = config.TransportEcho
				}
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			question := strings.Join(args, " ")

			return container.Invoke(func(orchestrator *domain.Orchestrator, presets *config.Presets) error {
				variants, err := selectVariants(presets, only)
				if err != nil {
					return err
				}

				return runBenchmark(ctx, cmd.OutOrStdout(), orchestrator, question, variants, compareVariant(presets, compare))
			})
		},
	}

	cmd.Flags().StringVarP(&presetsPath, "presets", "p", "", "path to a YAML variant presets file")
	cmd.Flags().BoolVar(&compare, "compare", true, "ask the comparison variant to judge the answers")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the echo transport instead of calling providers")
	cmd.Flags().StringSliceVar(&only, "only", nil, "run only these output keys")

	return cmd
}

// cliLogging keeps logs on the console encoder so they stay readable next to answers.
func cliLogging(cfg *config.Config) {
	cfg.Log.Development = true
}

func selectVariants(presets *config.Presets, only []string) ([]domain.Variant, error) {
	if len(only) == 0 {
		return presets.Variants, nil
	}

	variants := make([]domain.Variant, 0, len(only))
	for _, key := range only {
		variant, ok := presets.Variant(key)
		if !ok {
			return nil, fmt.Errorf("unknown output key %q", key)
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func compareVariant(presets *config.Presets, enabled bool) *domain.Variant {
	if !enabled {
		return nil
	}
	variant := presets.Comparison
	return &variant
}

// runBenchmark streams every variant, prints each slot's answer with its
// metrics, then streams the comparison when one is given.
func runBenchmark(
	ctx context.Context,
	out io.Writer,
	orchestrator *domain.Orchestrator,
	question string,
	variants []domain.Variant,
	comparison *domain.Variant,
) error {
	run, err := orchestrator.RunAll(ctx, question, variants)
	if err != nil {
		return err
	}

	p := newPrinter(out)
	for ev := range run.Events() {
		p.event(ev)
	}
	results := run.Wait()

	p.summary(results)

	if ctx.Err() != nil {
		return errors.New("run stopped")
	}
	if comparison == nil || !anyCompleted(results) {
		return nil
	}

	p.header("comparison", comparison.Model)
	events, err := orchestrator.Compare(ctx, question, results, *comparison)
	if err != nil {
		p.line(domain.DescribeError(err))
		return nil
	}

	text, metrics, err := domain.Collect(p.tee(events))
	switch {
	case err != nil:
		p.line(domain.DescribeError(err))
	case metrics != nil:
		if !strings.HasSuffix(text, "\n") {
			p.line("")
		}
		p.line(domain.FormatMetricsBlock(*metrics))
	}

	p.line("")
	p.line(domain.FormatLinks())
	return nil
}

func anyCompleted(results []domain.VariantResult) bool {
	for _, result := range results {
		if result.Err == nil && result.Metrics != nil {
			return true
		}
	}
	return false
}
