package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/huangang/problempad/internal/report"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<script>alert('x')</script>", "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;"},
		{`a & "b"`, "a &amp; &quot;b&quot;"},
		{"&amp;", "&amp;amp;"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeHTML(tt.in); got != tt.want {
			t.Errorf("EscapeHTML(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestDetail(t *testing.T) {
	r := &report.Report{
		ID:          "x",
		Title:       "Churn",
		Description: "users leave",
		Impact:      8,
	}

	got := Detail(r)
	for _, want := range []string{"Title: Churn\n", "Impact: 8\n", "Created: -\n", "\nDescription:\nusers leave\n", "\nSolution:\n(none)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Detail() missing %q in:\n%s", want, got)
		}
	}

	r.Solution = "interview users"
	if !strings.HasSuffix(Detail(r), "Solution:\ninterview users") {
		t.Errorf("solution not rendered:\n%s", Detail(r))
	}
}

func TestStartupSummary(t *testing.T) {
	got := StartupSummary(report.StartupInfo{Name: "Acme", Market: "SMBs"})
	want := "Name: Acme\nDescription: -\nIndustry: -\nTarget Market: SMBs\nFounded: -"
	if got != want {
		t.Errorf("StartupSummary() =\n%s\nexpected\n%s", got, want)
	}
}

func TestProblemsSummary(t *testing.T) {
	if got := ProblemsSummary(nil); got != NoProblemsText {
		t.Errorf("empty summary = %q", got)
	}
	if got := ProblemsSummary([]report.ProblemInput{{Impact: "9"}}); got != NoProblemsText {
		t.Errorf("blank blocks should not count: %q", got)
	}

	got := ProblemsSummary([]report.ProblemInput{
		{},
		{Title: "Churn", Impact: "8"},
		{Description: "hiring is slow"},
	})
	want := "1. Churn [impact 8]\n2. (untitled) [impact 5]\n   hiring is slow"
	if got != want {
		t.Errorf("ProblemsSummary() =\n%s\nexpected\n%s", got, want)
	}
}

func TestText(t *testing.T) {
	if got := Text(nil); got != NoReportsText {
		t.Errorf("Text(nil) = %q", got)
	}

	got := Text([]report.Report{{ID: "a", Title: "One", Impact: 3}, {ID: "b", Impact: 7}})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "a ") || !strings.HasSuffix(lines[0], "One") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "(untitled)") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestHTMLList_EscapesUserText(t *testing.T) {
	var buf bytes.Buffer
	err := HTMLList(&buf, "", []report.Report{{
		ID:          "1",
		Title:       "<script>alert(1)</script>",
		Description: `"quoted" & 'single'`,
		Impact:      5,
		Created:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("HTMLList() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("raw script tag in output:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("escaped title missing:\n%s", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Errorf("ampersand not escaped:\n%s", out)
	}
	if !strings.Contains(out, "<title>ProblemPad</title>") {
		t.Errorf("default title missing:\n%s", out)
	}
}

func TestHTMLList_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := HTMLList(&buf, "Acme", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), NoReportsText) {
		t.Errorf("empty list text missing:\n%s", buf.String())
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := Markdown(&buf, []report.Report{
		{ID: "a", Title: "Pipe | title", Description: "first", Impact: 8, StartupInfo: report.StartupInfo{Name: "Acme"}},
		{ID: "b", Description: "second", Impact: 2, Solution: "hire"},
	})
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"# Problem Reports", "`a`", "## Pipe | title", "## (untitled)", "### Solution", "hire", "(none)", "Startup: Acme"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "## Pipe") > strings.Index(out, "## (untitled)") {
		t.Error("sections out of insertion order")
	}
}

func TestMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), NoReportsText) {
		t.Errorf("empty markdown = %q", buf.String())
	}
}

func TestAdminPage(t *testing.T) {
	var buf bytes.Buffer
	err := AdminPage(&buf, AdminView{
		Total:        1,
		Workbook:     true,
		WorkbookPath: "reports.xlsx",
		Token:        "a&b",
		Reports:      []report.Report{{ID: "1", Title: "<b>bold</b>", Impact: 4}},
		Logs:         []AdminLogLine{{Level: "info", Module: "Reports", Message: "created"}},
	})
	if err != nil {
		t.Fatalf("AdminPage() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<b>bold</b>") {
		t.Errorf("report title not escaped:\n%s", out)
	}
	if !strings.Contains(out, "/api/reports.xlsx?token=a%26b") {
		t.Errorf("download link missing or token not escaped:\n%s", out)
	}
	if !strings.Contains(out, "1 reports stored.") || !strings.Contains(out, "[info] Reports: created") {
		t.Errorf("summary or logs missing:\n%s", out)
	}
}
