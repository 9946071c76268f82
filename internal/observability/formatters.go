// Package observability provides formatted output for the CLI commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// previewLength caps the text excerpt shown for an extraction
	previewLength = 600
)

// Printer writes human-readable summaries.
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

	for _, line := range wrap(content, boxWidth-4) {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits content into lines of at most width runes, breaking on spaces where possible.
func wrap(content string, width int) []string {
	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		runes := []rune(raw)
		for len(runes) > width {
			cut := width
			for i := width; i > width/2; i-- {
				if runes[i] == ' ' {
					cut = i
					break
				}
			}
			lines = append(lines, strings.TrimRight(string(runes[:cut]), " "))
			runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
		}
		lines = append(lines, string(runes))
	}
	return lines
}

// PrintExtraction outputs the method, length and a preview of an extracted text.
func (p *Printer) PrintExtraction(text string, method extraction.Method, title string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Method:  %s\n", method))
	sb.WriteString(fmt.Sprintf("Length:  %d\n", ingestion.Length(text)))
	if title != "" {
		sb.WriteString(fmt.Sprintf("Title:   %s\n", title))
	}
	sb.WriteString("\n")

	preview := ingestion.Truncate(text, previewLength)
	sb.WriteString(preview)
	if ingestion.Length(text) > previewLength {
		sb.WriteString("...")
	}

	p.printBox("EXTRACTED JOB TEXT", sb.String())
}

// PrintHints outputs the heuristic hint bundle.
func (p *Printer) PrintHints(h types.Hints) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Seniority:  %s\n", h.Seniority))
	sb.WriteString(fmt.Sprintf("Role type:  %s\n", h.RoleType))
	sb.WriteString(fmt.Sprintf("Domain:     %s\n", h.Domain))
	sb.WriteString(fmt.Sprintf("Focus:      %s\n", h.Focus))
	if len(h.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags:       %s", strings.Join(h.Tags, ", ")))
	}

	p.printBox("HEURISTIC HINTS", strings.TrimRight(sb.String(), "\n"))
}

// PrintAnalysis outputs the classification and every themed question.
func (p *Printer) PrintAnalysis(a *types.Analysis) {
	if a == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Level:   %s\n", a.RoleLevel))
	sb.WriteString(fmt.Sprintf("Type:    %s\n", a.RoleType))
	sb.WriteString(fmt.Sprintf("Domain:  %s\n", a.Domain))
	sb.WriteString(fmt.Sprintf("Focus:   %s\n", a.Focus))
	if len(a.Signals) > 0 {
		sb.WriteString(fmt.Sprintf("Signals: %s\n", strings.Join(a.Signals, ", ")))
	}

	n := 0
	for _, theme := range a.Themes {
		sb.WriteString(fmt.Sprintf("\n%s\n", theme.Theme))
		for _, q := range theme.Questions {
			n++
			sb.WriteString(fmt.Sprintf("  %d. %s\n", n, q))
		}
	}

	p.printBox(fmt.Sprintf("INTERVIEW QUESTIONS (%d)", a.QuestionCount()), strings.TrimRight(sb.String(), "\n"))
}
