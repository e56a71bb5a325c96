// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/menu-crawler/internal/config"
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

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCrawlPlan outputs a human-readable summary of what the run will do.
func (p *Printer) PrintCrawlPlan(cfg config.Config) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Pages:        %d\n", len(cfg.StartURLs)))
	for i, u := range cfg.StartURLs {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(cfg.StartURLs)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  - %s\n", u))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Dataset:      %s\n", cfg.DatasetName))
	sb.WriteString(fmt.Sprintf("OCR dataset:  %s\n", cfg.OCRDatasetName))
	sb.WriteString(fmt.Sprintf("OCR backup:   %s\n", onOff(cfg.UseOCRBackup)))
	sb.WriteString(fmt.Sprintf("AI parser:    %s\n", onOff(cfg.UseAIParser)))
	sb.WriteString(fmt.Sprintf("Promo lines:  %s\n", onOff(cfg.PromoHeuristicsEnabled)))
	sb.WriteString(fmt.Sprintf("Concurrency:  %d", cfg.MaxConcurrency))

	p.printBox("CRAWL PLAN", sb.String())
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
