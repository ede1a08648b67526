package domain

import (
	"math"
	"strings"
	"unicode/utf16"
)

const charsPerToken = 4.0

// EstimateTokens approximates a token count from text length measured in
// UTF-16 code units, so characters outside the BMP count twice.
// Blank text is 0 tokens; any other text is at least 1.
func EstimateTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	estimate := int(math.Round(float64(len(utf16.Encode([]rune(text)))) / charsPerToken))
	return max(1, estimate)
}

// NormalizeUsage fills the counters the server left unknown. Server values
// always win, including a reported zero.
func NormalizeUsage(raw *TokenUsage, question, systemPrompt, completion string) TokenUsage {
	var usage TokenUsage
	if raw != nil {
		usage = *raw
	}

	prompt := usage.PromptTokens
	if prompt == nil {
		prompt = Tokens(EstimateTokens(question + systemPrompt))
	}

	completionTokens := usage.CompletionTokens
	if completionTokens == nil {
		completionTokens = Tokens(EstimateTokens(completion))
	}

	total := usage.TotalTokens
	if total == nil {
		total = Tokens(*prompt + *completionTokens)
	}

	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completionTokens,
		TotalTokens:      total,
	}
}
