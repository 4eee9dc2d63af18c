package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pagecheck/crawl"
)

// Ensure TextWriter implements Writer at compile time.
var _ Writer = (*TextWriter)(nil)

// TextWriter prints a styled summary for the terminal. Styles degrade to
// plain text when the output is not a terminal.
type TextWriter struct {
	output io.Writer

	title    lipgloss.Style
	success  lipgloss.Style
	category lipgloss.Style
	message  lipgloss.Style
	dim      lipgloss.Style
}

// NewTextWriter creates a TextWriter that outputs to w.
func NewTextWriter(w io.Writer) *TextWriter {
	r := lipgloss.NewRenderer(w)
	return &TextWriter{
		output:   w,
		title:    r.NewStyle().Bold(true),
		success:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		category: r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		message:  r.NewStyle().Foreground(lipgloss.Color("9")),
		dim:      r.NewStyle().Faint(true),
	}
}

// Write prints every error group by category, or a success line when the
// crawl found nothing.
func (w *TextWriter) Write(res *crawl.Result) error {
	var b strings.Builder

	groups := sections(res)
	if len(groups) == 0 {
		b.WriteString(w.success.Render("No errors found."))
		b.WriteString("\n")
		b.WriteString(w.dim.Render(fmt.Sprintf("Checked %d pages in %s", res.Visited, formatDuration(res.Duration))))
		b.WriteString("\n")
		_, err := io.WriteString(w.output, b.String())
		return err
	}

	for _, s := range groups {
		b.WriteString(w.category.Render(fmt.Sprintf("%s (%s)", s.category.Description(), groupCount(len(s.collections)))))
		b.WriteString("\n")
		for _, c := range s.collections {
			b.WriteString("\n  ")
			b.WriteString(w.message.Render("✖ " + c.Message))
			b.WriteString("\n")
			if c.Details != "" {
				for _, line := range strings.Split(c.Details, "\n") {
					b.WriteString(w.dim.Render("    " + line))
					b.WriteString("\n")
				}
			}
			b.WriteString("    Pages:\n")
			for _, page := range c.Pages {
				b.WriteString("      - " + page + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(w.title.Render(fmt.Sprintf(
		"Found %d error groups on %d of %d pages (%s)",
		res.Errors.Len(),
		res.Failed,
		res.Visited,
		formatDuration(res.Duration),
	)))
	b.WriteString("\n")

	_, err := io.WriteString(w.output, b.String())
	return err
}
