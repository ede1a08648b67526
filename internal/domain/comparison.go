package domain

import (
	"fmt"
	"strings"
)

// ComparisonSystemPrompt instructs the critic model used by comparison runs.
const ComparisonSystemPrompt = "You are a critic. Compare the answers by quality, speed and resource usage. " +
	"State the key differences between the models and a practical conclusion. " +
	"Decide which model handled the task best in terms of price to quality. " +
	"Finish with a block of working links to the model and pricing pages."

// PricingLinks are appended after a comparison run.
var PricingLinks = []string{ //nolint:gochecknoglobals // static reference table
	"DeepSeek pricing: https://api-docs.deepseek.com/quick_start/pricing",
	"OpenRouter models/pricing: https://openrouter.ai/models",
	"Llama model page: https://openrouter.ai/meta-llama/llama-3.1-8b-instruct",
}

// BuildComparisonPrompt assembles the critic prompt from every slot's text and metrics.
func BuildComparisonPrompt(question string, results []VariantResult) string {
	var b strings.Builder

	b.WriteString("User question:\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	for _, result := range results {
		fmt.Fprintf(&b, "%s (%s):\n", result.OutputKey, resultModel(result))
		b.WriteString(result.Text)
		b.WriteString("\n")
		b.WriteString(MetricsLine(result.Metrics))
		b.WriteString("\n\n")
	}

	b.WriteString("Give a structured comparison:\n")
	b.WriteString("1) Answer quality\n")
	b.WriteString("2) Speed\n")
	b.WriteString("3) Resource usage (tokens and cost)\n")
	b.WriteString("4) Key differences between the models\n")
	b.WriteString("5) Practical conclusion on when to use which model\n")
	b.WriteString("6) Add links to the pricing and model pages\n")

	return b.String()
}

func resultModel(result VariantResult) string {
	if result.Metrics != nil && result.Metrics.Model != "" {
		return result.Metrics.Model
	}
	if result.Variant.Model != "" {
		return result.Variant.Model
	}
	return string(result.Variant.Provider)
}

// MetricsLine renders metrics on a single line for the comparison prompt.
func MetricsLine(metrics *CompletionMetrics) string {
	if metrics == nil {
		return "Metrics: unavailable"
	}
	return fmt.Sprintf("Metrics: %s, prompt=%d, completion=%d, total=%d, cost=$%s",
		FormatLatency(metrics.LatencyMs),
		metrics.Usage.Prompt(),
		metrics.Usage.Completion(),
		metrics.Usage.Total(),
		FormatUSD(metrics.EstimatedCostUSD),
	)
}

// FormatMetricsBlock renders metrics as the block appended under a slot's output.
func FormatMetricsBlock(metrics CompletionMetrics) string {
	var b strings.Builder
	b.WriteString("Metrics:\n")
	fmt.Fprintf(&b, "- Latency: %s\n", FormatLatency(metrics.LatencyMs))
	fmt.Fprintf(&b, "- Prompt tokens: %d\n", metrics.Usage.Prompt())
	fmt.Fprintf(&b, "- Completion tokens: %d\n", metrics.Usage.Completion())
	fmt.Fprintf(&b, "- Total tokens: %d\n", metrics.Usage.Total())
	fmt.Fprintf(&b, "- Estimated cost: $%s", FormatUSD(metrics.EstimatedCostUSD))
	return b.String()
}

// FormatLatency prints seconds with two decimals from one second up, milliseconds below.
func FormatLatency(latencyMs int64) string {
	if latencyMs >= 1000 {
		return fmt.Sprintf("%.2f s", float64(latencyMs)/1000.0)
	}
	return fmt.Sprintf("%d ms", latencyMs)
}

// FormatUSD prints a dollar amount with six decimals.
func FormatUSD(value float64) string {
	return fmt.Sprintf("%.6f", value)
}

// FormatLinks renders PricingLinks as a bullet list.
func FormatLinks() string {
	lines := make([]string, 0, len(PricingLinks))
	for _, link := range PricingLinks {
		lines = append(lines, "- "+link)
	}
	return strings.Join(lines, "\n")
}
