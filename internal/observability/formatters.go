// Package observability provides formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/types"
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
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintProfile outputs a summary of the collected profile.
func (p *Printer) PrintProfile(profile *types.Profile, usedFallback bool) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	name := "(not found)"
	if profile.Name != nil && *profile.Name != "" {
		name = *profile.Name
	}
	source := "model"
	if usedFallback {
		source = "fallback parser"
	}
	fmt.Fprintf(&sb, "Name:    %s\n", name)
	fmt.Fprintf(&sb, "Source:  %s\n", source)

	sections := []struct {
		label string
		items []string
	}{
		{"Education", profile.Education},
		{"Skills", profile.Skills},
		{"Experience", profile.Experience},
		{"Projects", profile.Projects},
		{"Certifications", profile.Certifications},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s (%d):\n", s.label, len(s.items))
		writeItems(&sb, s.items, maxItemsToShow)
	}

	p.printBox("USER PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

func writeItems(sb *strings.Builder, items []string, limit int) {
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

// PrintStage prints a one-line progress marker for a stage event.
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) PrintStage(event pipeline.ProgressEvent) {
	switch event.Step {
	case pipeline.StepRunStarted, pipeline.StepRunCompleted:
		fmt.Fprintf(p.out, "[%s] %s\n", event.RunID, event.Message)
	default:
		fmt.Fprintf(p.out, "  → %-16s %s\n", event.Step, event.Message)
	}
}

// PrintRunSummary outputs the mode and the path a run took.
func (p *Printer) PrintRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:     %s\n", result.RunID)
	fmt.Fprintf(&sb, "Mode:    %s\n", result.Mode)
	if path, err := pipeline.Path(result.Mode); err == nil {
		names := make([]string, len(path))
		for i, s := range path {
			names[i] = string(s)
		}
		fmt.Fprintf(&sb, "Path:    %s\n", strings.Join(names, " → "))
	}
	fmt.Fprintf(&sb, "Output:  %d chars", len(result.Output))

	p.printBox("RUN SUMMARY", sb.String())

	if rc := result.Context; rc != nil && rc.Profile != nil {
		p.PrintProfile(rc.Profile, rc.UsedFallback)
	}
}
