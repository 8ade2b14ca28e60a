package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/sales-atlas/pkg/adapters"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

// Reporter outputs reports to the console in a formatted text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"detail": adapters.FormatDetail,
		"money": func(v float64, unit string) string {
			return adapters.FormatDetail(domain.ReportDetail{Value: v, Unit: unit})
		},
	}

	tmpl := `
{{.Title}} [{{.Dataset}}]
{{if .Period}}Period: {{.Period.Start.Format "2006-01-02"}} to {{.Period.End.Format "2006-01-02"}} ({{.Period.Duration}} days){{else}}Period: all dates{{end}}
{{range .Filters}}Filter {{.Name}}: {{.Value}}
{{end}}Total Sales: {{money .TotalAmount .Currency}}
{{range .KPIs}}
{{.Name}}: {{detail .}}{{end}}
{{range .Sections}}
=== {{.Title}} ===
{{range .Details}}- {{.Name}}: {{detail .}}
{{else}}(no data)
{{end}}{{end}}`
	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
