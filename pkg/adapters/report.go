package adapters

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/dustin/go-humanize"
)

const (
	currency = "USD"
	avgNone  = "n/a"
)

// MapDashboardToReport flattens a dashboard into the report the terminal
// reporters render.
func MapDashboardToReport(d *dashboard.Dashboard) domain.Report {
	s := d.Summary
	report := domain.Report{
		Title:       d.Dataset.Title,
		Dataset:     d.Dataset.Name,
		Filters:     mapFilters(d.Criteria),
		TotalAmount: s.TotalSales,
		Currency:    currency,
		KPIs: []domain.ReportDetail{
			{Name: "Total Sales", Value: s.TotalSales, Unit: currency},
			{Name: "Orders", Value: s.OrderCount},
			{Name: "Avg Order Value", Value: avgValue(s.AvgOrderValue), Unit: currency},
			{Name: "Rows", Value: s.RowCount},
		},
	}
	if d.Criteria.Dates != nil {
		report.Period = mapPeriod(*d.Criteria.Dates)
	}

	monthly := domain.ReportSection{Title: "Sales over time"}
	for _, b := range s.Monthly {
		monthly.Details = append(monthly.Details, domain.ReportDetail{
			Name:  b.Month.Format(monthLayout),
			Value: b.Sales,
			Unit:  currency,
		})
	}
	report.Sections = append(report.Sections,
		monthly,
		groupSection("Sales by Region", s.ByRegion),
		groupSection("Top products", s.TopProducts),
		groupSection("Sales by Category", s.ByCategory),
	)
	return report
}

func mapPeriod(r domain.DateRange) *domain.TimePeriod {
	start := domain.StartOfDay(r.From)
	end := domain.StartOfDay(r.To)
	return &domain.TimePeriod{
		Start:    start,
		End:      end,
		Duration: int(end.Sub(start)/(24*time.Hour)) + 1,
	}
}

func mapFilters(c domain.Criteria) []domain.ReportDetail {
	details := make([]domain.ReportDetail, 0, 4)
	if c.Dates != nil {
		details = append(details, domain.ReportDetail{Name: "Order Date", Value: c.Dates.String()})
	}
	for _, f := range []struct {
		name string
		sel  domain.Selection
	}{
		{"Region", c.Regions},
		{"Category", c.Categories},
		{"Ship Mode", c.ShipModes},
	} {
		if !f.sel.Active() {
			continue
		}
		value := strings.Join(f.sel.Values(), ", ")
		if value == "" {
			value = "(none)"
		}
		details = append(details, domain.ReportDetail{Name: f.name, Value: value})
	}
	return details
}

func groupSection(title string, groups []domain.Group) domain.ReportSection {
	section := domain.ReportSection{Title: title}
	for _, g := range groups {
		name := g.Key
		if g.Null {
			name = "(blank)"
		}
		section.Details = append(section.Details, domain.ReportDetail{
			Name:  name,
			Value: g.Sales,
			Unit:  currency,
		})
	}
	return section
}

func avgValue(v *float64) interface{} {
	if v == nil {
		return avgNone
	}
	return *v
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}

// FormatDetail renders a detail value with thousands separators.
func FormatDetail(d domain.ReportDetail) string {
	var value string
	switch v := d.Value.(type) {
	case float64:
		value = humanize.FormatFloat("#,###.##", v)
	case int:
		value = humanize.Comma(int64(v))
	default:
		value = fmt.Sprint(v)
	}
	if d.Unit != "" && value != avgNone {
		return value + " " + d.Unit
	}
	return value
}
