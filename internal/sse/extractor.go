package sse

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davidbz/streambench/internal/domain"
)

// Shapes probed inside choices[0], in priority order.
var choiceShapes = []string{"delta", "message"} //nolint:gochecknoglobals // fixed lookup order

// ExtractContent returns the text of the first choice, preferring the
// streaming delta over a full message. Unexpected shapes yield nothing.
func ExtractContent(root gjson.Result) (string, bool) {
	if !root.IsObject() {
		return "", false
	}

	choices := root.Get("choices")
	if !choices.IsArray() {
		return "", false
	}
	items := choices.Array()
	if len(items) == 0 || !items[0].IsObject() {
		return "", false
	}
	first := items[0]

	for _, shape := range choiceShapes {
		node := first.Get(shape)
		if !node.IsObject() {
			continue
		}
		merged := mergeNonBlank(
			textValue(node.Get("reasoning_content")),
			textValue(node.Get("content")),
		)
		if !isBlank(merged) {
			return merged, true
		}
	}

	return "", false
}

// textValue matches one channel value: string, array of items or an object
// with text or a nested content.
func textValue(node gjson.Result) string {
	switch {
	case !node.Exists():
		return ""
	case node.IsArray():
		var b strings.Builder
		for _, item := range node.Array() {
			b.WriteString(textValue(item))
		}
		if isBlank(b.String()) {
			return ""
		}
		return b.String()
	case node.IsObject():
		if direct := primitiveText(node.Get("text")); !isBlank(direct) {
			return direct
		}
		if nested := textValue(node.Get("content")); !isBlank(nested) {
			return nested
		}
		return ""
	default:
		return primitiveText(node)
	}
}

func primitiveText(node gjson.Result) string {
	switch node.Type {
	case gjson.String:
		return node.Str
	case gjson.Number, gjson.True, gjson.False:
		return node.Raw
	default:
		return ""
	}
}

func mergeNonBlank(first, second string) string {
	switch {
	case isBlank(first):
		if isBlank(second) {
			return ""
		}
		return second
	case isBlank(second):
		return first
	default:
		return first + second
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ExtractUsage reads the root usage block. It returns nil when all three
// counters are missing.
func ExtractUsage(root gjson.Result) *domain.TokenUsage {
	if !root.IsObject() {
		return nil
	}

	usage := root.Get("usage")
	if !usage.IsObject() {
		return nil
	}

	result := domain.TokenUsage{
		PromptTokens:     intValue(usage.Get("prompt_tokens")),
		CompletionTokens: intValue(usage.Get("completion_tokens")),
		TotalTokens:      intValue(usage.Get("total_tokens")),
	}
	if result.IsEmpty() {
		return nil
	}

	return &result
}

// intValue accepts integer numbers and integer strings.
func intValue(node gjson.Result) *int {
	var raw string
	switch node.Type {
	case gjson.Number:
		raw = node.Raw
	case gjson.String:
		raw = node.Str
	default:
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
