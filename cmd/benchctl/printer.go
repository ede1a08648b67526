package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/davidbz/streambench/internal/domain"
)

// printer writes interleaved variant chunks, switching the slot label
// whenever another variant produces text.
type printer struct {
	out     io.Writer
	current string
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) event(ev domain.VariantEvent) {
	if ev.Event.Kind != domain.EventChunk || ev.Event.Err != nil {
		return
	}
	if ev.OutputKey != p.current {
		if p.current != "" {
			fmt.Fprintln(p.out)
		}
		fmt.Fprintf(p.out, "[%s] ", ev.OutputKey)
		p.current = ev.OutputKey
	}
	fmt.Fprint(p.out, ev.Event.Text)
}

func (p *printer) summary(results []domain.VariantResult) {
	if p.current != "" {
		fmt.Fprintln(p.out)
		p.current = ""
	}

	for _, result := range results {
		p.header(result.OutputKey, modelOf(result))
		switch {
		case result.Err != nil:
			p.line(domain.DescribeError(result.Err))
		case result.Metrics != nil:
			p.line(strings.TrimRight(result.Text, "\n"))
			p.line("")
			p.line(domain.FormatMetricsBlock(*result.Metrics))
		}
	}
}

// tee prints chunks of a single stream while passing every event through.
func (p *printer) tee(events <-chan domain.StreamEvent) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent)
	go func() {
		defer close(out)
		for ev := range events {
			if ev.Err == nil && ev.Kind == domain.EventChunk {
				fmt.Fprint(p.out, ev.Text)
			}
			out <- ev
		}
	}()
	return out
}

func (p *printer) header(title, model string) {
	fmt.Fprintln(p.out)
	if model == "" {
		fmt.Fprintf(p.out, "== %s ==\n", title)
		return
	}
	fmt.Fprintf(p.out, "== %s (%s) ==\n", title, model)
}

func (p *printer) line(text string) {
	fmt.Fprintln(p.out, text)
}

func modelOf(result domain.VariantResult) string {
	if result.Metrics != nil {
		return result.Metrics.Model
	}
	return result.Variant.Model
}
