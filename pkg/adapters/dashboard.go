package adapters

import (
	"github.com/de-tools/sales-atlas/pkg/models/api"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
)

const monthLayout = "2006-01"

func MapDatasetDomainToApi(p domain.DatasetProfile) api.Dataset {
	return api.Dataset{
		Name:  p.Name,
		Title: p.Title,
	}
}

func MapDatasetsDomainToApi(profiles []domain.DatasetProfile) []api.Dataset {
	res := make([]api.Dataset, 0, len(profiles))
	for _, p := range profiles {
		res = append(res, MapDatasetDomainToApi(p))
	}
	return res
}

func MapFilterOptionsDomainToApi(o domain.FilterOptions) api.FilterOptions {
	return api.FilterOptions{
		Regions:    nonNil(o.Regions),
		Categories: nonNil(o.Categories),
		ShipModes:  nonNil(o.ShipModes),
		MinDate:    formatDate(o.MinDate),
		MaxDate:    formatDate(o.MaxDate),
	}
}

func MapCriteriaDomainToApi(c domain.Criteria) api.Filters {
	res := api.Filters{
		Regions:    selectionValues(c.Regions),
		Categories: selectionValues(c.Categories),
		ShipModes:  selectionValues(c.ShipModes),
	}
	if c.Dates != nil {
		res.From = formatDate(&c.Dates.From)
		res.To = formatDate(&c.Dates.To)
	}
	return res
}

func MapGroupsDomainToApi(groups []domain.Group) []api.Group {
	res := make([]api.Group, 0, len(groups))
	for _, g := range groups {
		group := api.Group{Sales: g.Sales}
		if !g.Null {
			key := g.Key
			group.Key = &key
		}
		res = append(res, group)
	}
	return res
}

func MapDashboardDomainToApi(d *dashboard.Dashboard) api.Dashboard {
	s := d.Summary
	res := api.Dashboard{
		Dataset: MapDatasetDomainToApi(d.Dataset),
		Filters: MapCriteriaDomainToApi(d.Criteria),
		KPIs: api.KPIs{
			TotalSales:    s.TotalSales,
			OrderCount:    s.OrderCount,
			AvgOrderValue: s.AvgOrderValue,
			RowCount:      s.RowCount,
		},
		Monthly:         make([]api.MonthBucket, 0, len(s.Monthly)),
		SalesByRegion:   MapGroupsDomainToApi(s.ByRegion),
		TopProducts:     MapGroupsDomainToApi(s.TopProducts),
		SalesByCategory: MapGroupsDomainToApi(s.ByCategory),
		Charts:          d.Charts,
	}
	for _, b := range s.Monthly {
		res.Monthly = append(res.Monthly, api.MonthBucket{
			Month: b.Month.Format(monthLayout),
			Sales: b.Sales,
		})
	}
	if len(d.ParseWarnings) > 0 {
		res.ParseWarnings = make(map[string]int, len(d.ParseWarnings))
		for col, n := range d.ParseWarnings {
			res.ParseWarnings[string(col)] = n
		}
	}
	return res
}

func MapPageDomainToApi(p *dashboard.Page) api.RecordsPage {
	return api.RecordsPage{
		Columns: p.Header,
		Rows:    p.Rows,
		Total:   p.Total,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}
}

func selectionValues(s domain.Selection) []string {
	if !s.Active() {
		return nil
	}
	return s.Values()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
