package table

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/sales-atlas/pkg/adapters"
	"github.com/de-tools/sales-atlas/pkg/models/domain"

	"github.com/charmbracelet/lipgloss"
)

type TableConfig struct {
	NameWidth  int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:  40,
		ValueWidth: 24,
	}
}

// Reporter renders reports as fixed-width tables, one per section.
type Reporter struct {
	writer  io.Writer
	config  TableConfig
	heading lipgloss.Style
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	// Styles degrade to plain text when writer is not a terminal.
	renderer := lipgloss.NewRenderer(writer)
	return &Reporter{
		writer:  writer,
		config:  DefaultTableConfig(),
		heading: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value string) string {
			return fmt.Sprintf("| %-*s | %*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.ValueWidth, value)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"detail": adapters.FormatDetail,
		"heading": func(title string) string {
			return c.heading.Render("=== " + title + " ===")
		},
	}

	tmpl := `
{{heading .Title}}
{{if .Period}}
Active Period: {{.Period.Start.Format "2006-01-02"}} to {{.Period.End.Format "2006-01-02"}} ({{.Period.Duration}} days)
{{end}}{{range .Filters}}{{.Name}}: {{.Value}}
{{end}}
{{separator}}
{{formatRow "KPI" "Value"}}
{{separator}}
{{range .KPIs}}{{formatRow .Name (detail .)}}
{{end}}{{separator}}
{{range .Sections}}
{{heading .Title}}
{{separator}}
{{range .Details}}{{formatRow .Name (detail .)}}
{{else}}{{formatRow "(no data)" ""}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
