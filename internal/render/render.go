// Package render turns reports into text for people. Everything here is a
// pure projection of the report list; nothing reads or writes storage.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangang/problempad/internal/report"
)

const (
	NoReportsText  = "No saved reports yet."
	NoProblemsText = "No problems have been defined yet."
	noneText       = "(none)"
)

// CreatedLayout formats creation times for display.
const CreatedLayout = "2006-01-02 15:04:05 MST"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes user text for embedding in HTML markup or attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatCreated renders a creation time in local time, or "-" when unset.
func FormatCreated(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(CreatedLayout)
}

// Detail is the plain-text view of a single report.
func Detail(r *report.Report) string {
	solution := r.Solution
	if strings.TrimSpace(solution) == "" {
		solution = noneText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Impact: %d\n", r.Impact)
	fmt.Fprintf(&b, "Created: %s\n", FormatCreated(r.Created))
	if r.Name != "" {
		fmt.Fprintf(&b, "Startup: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", r.Description)
	fmt.Fprintf(&b, "\nSolution:\n%s", solution)
	return b.String()
}

// StartupSummary lists the startup fields of a pending submission.
func StartupSummary(s report.StartupInfo) string {
	rows := [][2]string{
		{"Name", s.Name},
		{"Description", s.Desc},
		{"Industry", s.Industry},
		{"Target Market", s.Market},
		{"Founded", s.Founded},
	}

	var b strings.Builder
	for _, row := range rows {
		v := row[1]
		if strings.TrimSpace(v) == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", row[0], v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ProblemsSummary lists the non-empty problem blocks of a pending submission.
func ProblemsSummary(problems []report.ProblemInput) string {
	var b strings.Builder
	n := 0
	for _, p := range problems {
		if p.IsEmpty() {
			continue
		}
		n++
		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%d. %s [impact %s]\n", n, title, strconv.Itoa(report.ParseImpact(p.Impact)))
		if d := strings.TrimSpace(p.Description); d != "" {
			fmt.Fprintf(&b, "   %s\n", d)
		}
	}
	if n == 0 {
		return NoProblemsText
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Text is the compact terminal list: one line per report.
func Text(reports []report.Report) string {
	if len(reports) == 0 {
		return NoReportsText
	}

	var b strings.Builder
	for _, r := range reports {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%s  %-2d  %s  %s\n", r.ID, r.Impact, FormatCreated(r.Created), title)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

var tableCellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")
