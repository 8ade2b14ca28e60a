// Package charts turns a dashboard summary into declarative chart
// specifications. The output follows the Vega-Lite single-view layout so a
// front end can hand each spec to its renderer unchanged.
package charts

import (
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

const (
	schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

	fieldMonth    = "Order Date"
	fieldSales    = "Sales"
	fieldRegion   = "Region"
	fieldProduct  = "Product Name"
	fieldCategory = "Category"

	// NullLabel stands in for the null group in chart data.
	NullLabel = "(blank)"
)

type ChartSpec struct {
	Schema   string     `json:"$schema"`
	Name     string     `json:"name"`
	Title    string     `json:"title"`
	Mark     Mark       `json:"mark"`
	Encoding Encoding   `json:"encoding"`
	Data     InlineData `json:"data"`
}

type Mark struct {
	Type  string `json:"type"`
	Point bool   `json:"point,omitempty"`
}

type Encoding struct {
	X Channel `json:"x"`
	Y Channel `json:"y"`
}

type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Sort  string `json:"sort,omitempty"`
}

type InlineData struct {
	Values []map[string]any `json:"values"`
}

// Build returns the four dashboard charts in display order: sales over
// time, by region, top products, by category.
func Build(s *domain.Summary) []ChartSpec {
	return []ChartSpec{
		SalesOverTime(s.Monthly),
		SalesByRegion(s.ByRegion),
		TopProducts(s.TopProducts),
		CategoryBreakdown(s.ByCategory),
	}
}

func SalesOverTime(buckets []domain.MonthBucket) ChartSpec {
	values := make([]map[string]any, 0, len(buckets))
	for _, b := range buckets {
		values = append(values, map[string]any{
			fieldMonth: b.Month.Format(domain.DateLayout),
			fieldSales: roundTo2(b.Sales),
		})
	}
	return ChartSpec{
		Schema: schemaURL,
		Name:   "sales_over_time",
		Title:  "Sales over time",
		Mark:   Mark{Type: "line", Point: true},
		Encoding: Encoding{
			X: Channel{Field: fieldMonth, Type: "temporal", Title: fieldMonth},
			Y: Channel{Field: fieldSales, Type: "quantitative", Title: fieldSales},
		},
		Data: InlineData{Values: values},
	}
}

func SalesByRegion(groups []domain.Group) ChartSpec {
	return horizontalBar("sales_by_region", "Sales by Region", fieldRegion, groups)
}

func TopProducts(groups []domain.Group) ChartSpec {
	return horizontalBar("top_products", "Top products", fieldProduct, groups)
}

func CategoryBreakdown(groups []domain.Group) ChartSpec {
	return ChartSpec{
		Schema: schemaURL,
		Name:   "sales_by_category",
		Title:  "Sales by Category",
		Mark:   Mark{Type: "bar"},
		Encoding: Encoding{
			X: Channel{Field: fieldCategory, Type: "nominal", Title: fieldCategory, Sort: "-y"},
			Y: Channel{Field: fieldSales, Type: "quantitative", Title: fieldSales},
		},
		Data: InlineData{Values: groupValues(fieldCategory, groups)},
	}
}

func horizontalBar(name, title, field string, groups []domain.Group) ChartSpec {
	return ChartSpec{
		Schema: schemaURL,
		Name:   name,
		Title:  title,
		Mark:   Mark{Type: "bar"},
		Encoding: Encoding{
			X: Channel{Field: fieldSales, Type: "quantitative"},
			Y: Channel{Field: field, Type: "nominal", Sort: "-x"},
		},
		Data: InlineData{Values: groupValues(field, groups)},
	}
}

func groupValues(field string, groups []domain.Group) []map[string]any {
	values := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		label := g.Key
		if g.Null {
			label = NullLabel
		}
		values = append(values, map[string]any{
			field:      label,
			fieldSales: roundTo2(g.Sales),
		})
	}
	return values
}

// roundTo2 rounds half away from zero on the shortest decimal form of v,
// so 1.005 becomes 1.01.
func roundTo2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
