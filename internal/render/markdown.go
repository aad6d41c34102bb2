package render

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/huangang/problempad/internal/report"
)

// Markdown writes the report list as a Markdown document: an overview table
// followed by one section per report.
func Markdown(w io.Writer, reports []report.Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Problem Reports")
	md.PlainText("")

	if len(reports) == 0 {
		md.PlainText(NoReportsText)
		return md.Build()
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			"`" + r.ID + "`",
			cell(r.Title),
			strconv.Itoa(r.Impact),
			cell(r.Name),
			FormatCreated(r.Created),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Title", "Impact", "Startup", "Created"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, r := range reports {
		writeReportSection(md, &r)
	}
	return md.Build()
}

func writeReportSection(md *markdown.Markdown, r *report.Report) {
	title := r.Title
	if title == "" {
		title = "(untitled)"
	}
	md.H2(title)
	md.PlainText("")

	items := []string{
		"Impact: " + strconv.Itoa(r.Impact),
		"Created: " + FormatCreated(r.Created),
	}
	if r.Name != "" {
		items = append(items, "Startup: "+r.Name)
	}
	if r.Industry != "" {
		items = append(items, "Industry: "+r.Industry)
	}
	if r.Market != "" {
		items = append(items, "Target market: "+r.Market)
	}
	md.BulletList(items...)
	md.PlainText("")

	if r.Description != "" {
		md.H3("Description")
		md.PlainText("")
		md.PlainText(r.Description)
		md.PlainText("")
	}

	md.H3("Solution")
	md.PlainText("")
	if r.Solution != "" {
		md.PlainText(r.Solution)
	} else {
		md.PlainText(noneText)
	}
	md.PlainText("")
}

// cell keeps table rows on one line.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return tableCellReplacer.Replace(s)
}
