package adapters

import (
	"testing"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/api"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}

func sampleDashboard() *dashboard.Dashboard {
	return &dashboard.Dashboard{
		Dataset: domain.DatasetProfile{Name: "store", Title: "Store"},
		Criteria: domain.Criteria{
			Dates:   &domain.DateRange{From: day("2024-01-01"), To: day("2024-01-31")},
			Regions: domain.Select("East", "West"),
		},
		Summary: &domain.Summary{
			KPIs: domain.KPIs{TotalSales: 1234.5, OrderCount: 2, AvgOrderValue: ptr(617.25), RowCount: 3},
			Monthly: []domain.MonthBucket{
				{Month: day("2024-01-01"), Sales: 1234.5},
			},
			ByRegion:    []domain.Group{{Key: "East", Sales: 1000}, {Null: true, Sales: 234.5}},
			TopProducts: []domain.Group{{Key: "Chair", Sales: 1234.5}},
			ByCategory:  []domain.Group{{Key: "Furniture", Sales: 1234.5}},
		},
		ParseWarnings: map[domain.Column]int{domain.ColumnSales: 1},
	}
}

func TestMapDashboardDomainToApi(t *testing.T) {
	got := MapDashboardDomainToApi(sampleDashboard())

	assert.Equal(t, api.Dataset{Name: "store", Title: "Store"}, got.Dataset)
	assert.Equal(t, api.Filters{
		From:    ptr("2024-01-01"),
		To:      ptr("2024-01-31"),
		Regions: []string{"East", "West"},
	}, got.Filters)
	assert.Equal(t, api.KPIs{TotalSales: 1234.5, OrderCount: 2, AvgOrderValue: ptr(617.25), RowCount: 3}, got.KPIs)
	assert.Equal(t, []api.MonthBucket{{Month: "2024-01", Sales: 1234.5}}, got.Monthly)
	assert.Equal(t, []api.Group{{Key: ptr("East"), Sales: 1000}, {Key: nil, Sales: 234.5}}, got.SalesByRegion)
	assert.Equal(t, map[string]int{"Sales": 1}, got.ParseWarnings)
}

func TestMapCriteriaDomainToApi_EmptySelection(t *testing.T) {
	got := MapCriteriaDomainToApi(domain.Criteria{Categories: domain.Select()})

	assert.Nil(t, got.Regions, "inactive selection is unfiltered")
	assert.NotNil(t, got.Categories, "empty selection stays distinguishable")
	assert.Empty(t, got.Categories)
	assert.Nil(t, got.From)
}

func TestMapFilterOptionsDomainToApi_EmptyTable(t *testing.T) {
	got := MapFilterOptionsDomainToApi(domain.FilterOptions{})

	assert.Equal(t, []string{}, got.Regions)
	assert.Nil(t, got.MinDate)
}

func TestMapDashboardToReport(t *testing.T) {
	report := MapDashboardToReport(sampleDashboard())

	assert.Equal(t, "Store", report.Title)
	require.NotNil(t, report.Period)
	assert.Equal(t, 31, report.Period.Duration)
	assert.Equal(t, []domain.ReportDetail{
		{Name: "Order Date", Value: "2024-01-01..2024-01-31"},
		{Name: "Region", Value: "East, West"},
	}, report.Filters)

	require.Len(t, report.Sections, 4)
	assert.Equal(t, "Sales over time", report.Sections[0].Title)
	assert.Equal(t, "2024-01", report.Sections[0].Details[0].Name)
	assert.Equal(t, "(blank)", report.Sections[1].Details[1].Name)
}

func TestMapDashboardToReport_NoOrders(t *testing.T) {
	d := sampleDashboard()
	d.Criteria = domain.Criteria{Categories: domain.Select()}
	d.Summary = &domain.Summary{}

	report := MapDashboardToReport(d)

	assert.Nil(t, report.Period)
	assert.Equal(t, []domain.ReportDetail{{Name: "Category", Value: "(none)"}}, report.Filters)
	assert.Equal(t, "n/a", FormatDetail(report.KPIs[2]))
}

func TestMapPeriod_CountsCalendarDays(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", day("2024-01-01"), day("2024-01-01"), 1},
		{"late start", time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), 2},
		{"late end", day("2024-01-01"), time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), 31},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapPeriod(domain.DateRange{From: tc.from, To: tc.to})
			assert.Equal(t, tc.want, got.Duration)
			assert.Equal(t, domain.StartOfDay(tc.from), got.Start)
			assert.Equal(t, domain.StartOfDay(tc.to), got.End)
		})
	}
}

func TestFormatDetail(t *testing.T) {
	assert.Equal(t, "1,234.50 USD", FormatDetail(domain.ReportDetail{Value: 1234.5, Unit: "USD"}))
	assert.Equal(t, "12,000", FormatDetail(domain.ReportDetail{Value: 12000}))
	assert.Equal(t, "East, West", FormatDetail(domain.ReportDetail{Value: "East, West"}))
}
