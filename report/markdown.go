package report

import (
	"io"
	"strconv"

	"github.com/fwojciec/pagecheck/crawl"
	"github.com/nao1215/markdown"
)

// Ensure MarkdownWriter implements Writer at compile time.
var _ Writer = (*MarkdownWriter)(nil)

// MarkdownWriter outputs the crawl report as a Markdown document, suited for
// CI artifacts and pull request comments.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(res *crawl.Result) error {
	md := markdown.NewMarkdown(w.output)
	groups := sections(res)

	w.writeHeader(md, res, groups)
	w.writeSummary(md, groups)
	for _, s := range groups {
		w.writeSection(md, s)
	}

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, res *crawl.Result, groups []section) {
	md.H1("Crawl Report")
	md.PlainText("")

	status := "✅ No errors"
	if len(groups) > 0 {
		status = "❌ Errors found"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", res.URL},
			{"Run ID", "`" + res.RunID + "`"},
			{"Pages Checked", strconv.Itoa(res.Visited)},
			{"Pages Failed", strconv.Itoa(res.Failed)},
			{"Duration", formatDuration(res.Duration)},
			{"Status", status},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, groups []section) {
	if len(groups) == 0 {
		md.Tip("No errors were found on any checked page.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(groups))
	total := 0
	for _, s := range groups {
		rows = append(rows, []string{s.category.Description(), strconv.Itoa(len(s.collections))})
		total += len(s.collections)
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(total) + "**"})

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Groups"},
		Rows:   rows,
	})
	md.PlainText("")
	md.Cautionf("%d distinct error(s) must be fixed before the documentation can be published.", total)
	md.PlainText("")
}

func (w *MarkdownWriter) writeSection(md *markdown.Markdown, s section) {
	md.H2(s.category.Description() + " (" + groupCount(len(s.collections)) + ")")
	md.PlainText("")
	for _, c := range s.collections {
		md.H3(c.Message)
		md.PlainText("")
		if c.Details != "" {
			md.CodeBlocks(markdown.SyntaxHighlight("text"), c.Details)
			md.PlainText("")
		}
		md.BulletList(c.Pages...)
		md.PlainText("")
	}
}
