// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/generative-proxy/internal/markup"
	"github.com/jonathan/generative-proxy/internal/rewriting"
	"github.com/jonathan/generative-proxy/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// PrintPersonality outputs the personality a document is rewritten with.
func (p *Printer) PrintPersonality(personality types.Personality) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:     %s\n", personality.ID))
	sb.WriteString(fmt.Sprintf("Name:   %s\n", personality.Name))
	sb.WriteString(fmt.Sprintf("Prompt: %s", strings.Join(strings.Fields(personality.Prompt), " ")))
	p.printBox("PERSONALITY", sb.String())
}

// PrintPlan outputs the located containers and the leaf fragments a rewrite would send.
func (p *Printer) PrintPlan(containers []markup.Container, leaves []markup.Leaf) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Containers: %d\n", len(containers)))
	sb.WriteString(fmt.Sprintf("Fragments:  %d", len(leaves)))

	for i, leaf := range leaves {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("\n... and %d more fragments", len(leaves)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("\n%d. <%s> %s", i+1, leaf.TagName, leaf.Text))
	}

	p.printBox("REWRITE PLAN", sb.String())
}

// PrintResult outputs the provider outcome of a document rewrite.
func (p *Printer) PrintResult(result rewriting.DocumentResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Customized: %t", result.Changed))
	if result.Winner != nil {
		sb.WriteString(fmt.Sprintf("\nProvider:   %s", result.Winner.Provider))
		sb.WriteString(fmt.Sprintf("\nModel:      %s", result.Winner.Model))
	}
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:")
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("\n  • %s", e))
		}
	}
	p.printBox("REWRITE RESULT", sb.String())
}
