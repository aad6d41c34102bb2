package render

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/huangang/problempad/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var listTemplate = template.Must(
	template.New("list.html").
		Funcs(template.FuncMap{"created": FormatCreated}).
		ParseFS(templateFS, "templates/list.html"),
)

type listPage struct {
	Title   string
	Empty   string
	Reports []report.Report
}

// HTMLList writes the report list as an HTML page. All report text is
// escaped by the template engine.
func HTMLList(w io.Writer, title string, reports []report.Report) error {
	if title == "" {
		title = report.DefaultStartupName
	}
	return listTemplate.Execute(w, listPage{
		Title:   title,
		Empty:   NoReportsText,
		Reports: reports,
	})
}

var adminTemplate = template.Must(
	template.New("admin.html").
		Funcs(template.FuncMap{"created": FormatCreated}).
		ParseFS(templateFS, "templates/admin.html"),
)

// AdminLogLine is one audit entry on the admin page.
type AdminLogLine struct {
	Time    time.Time
	Level   string
	Module  string
	Message string
}

// AdminView is everything the admin page shows.
type AdminView struct {
	Title        string
	Total        int64
	Workbook     bool
	WorkbookPath string
	Token        string
	Reports      []report.Report
	Logs         []AdminLogLine
}

// AdminPage writes the token-gated admin page.
func AdminPage(w io.Writer, v AdminView) error {
	if v.Title == "" {
		v.Title = report.DefaultStartupName + " admin"
	}
	return adminTemplate.Execute(w, v)
}
