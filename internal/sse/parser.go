// Package sse decodes server-sent event lines from chat-completions streams.
package sse

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davidbz/streambench/internal/domain"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// Kind tags the single-signal view of a line.
type Kind int

const (
	KindEmpty Kind = iota
	KindChunk
	KindUsage
	KindDone
)

// Event is the single-signal view of a line returned by ParseLine.
type Event struct {
	Kind  Kind
	Text  string
	Usage *domain.TokenUsage
}

// ParseLine classifies one line. A payload carrying both text and usage is
// reported as KindChunk with Usage also set; use Parse for the combined view.
func ParseLine(line string) Event {
	parsed, ok := Parse(line)
	switch {
	case !ok:
		return Event{Kind: KindEmpty}
	case parsed.Done:
		return Event{Kind: KindDone}
	case parsed.Text != "":
		return Event{Kind: KindChunk, Text: parsed.Text, Usage: parsed.Usage}
	default:
		return Event{Kind: KindUsage, Usage: parsed.Usage}
	}
}

// Parse decodes one line into text, usage and the done flag together.
// ok is false for non-data lines, blank or malformed payloads and payloads
// that carry neither text nor usage.
func Parse(line string) (domain.ParsedLine, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return domain.ParsedLine{}, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return domain.ParsedLine{}, false
	}
	if payload == doneMarker {
		return domain.ParsedLine{Done: true}, true
	}

	if !gjson.Valid(payload) {
		return domain.ParsedLine{}, false
	}

	root := gjson.Parse(payload)
	text, _ := ExtractContent(root)
	usage := ExtractUsage(root)
	if text == "" && usage == nil {
		return domain.ParsedLine{}, false
	}

	return domain.ParsedLine{Text: text, Usage: usage}, true
}

// ExtractText returns the line's text delta when it is non-blank.
func ExtractText(line string) (string, bool) {
	parsed, ok := Parse(line)
	if !ok || strings.TrimSpace(parsed.Text) == "" {
		return "", false
	}
	return parsed.Text, true
}

// Parser adapts Parse to domain.LineParser.
type Parser struct{}

// NewParser creates a new line parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse implements domain.LineParser.
func (p *Parser) Parse(line string) (domain.ParsedLine, bool) {
	return Parse(line)
}
