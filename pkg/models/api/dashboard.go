package api

import (
	"github.com/de-tools/sales-atlas/pkg/services/charts"
)

type Dataset struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	ShipModes  []string `json:"ship_modes"`
	MinDate    *string  `json:"min_date"`
	MaxDate    *string  `json:"max_date"`
}

// Filters echoes the applied criteria. A nil dimension is unfiltered; an
// empty one matches nothing.
type Filters struct {
	From       *string  `json:"from"`
	To         *string  `json:"to"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	ShipModes  []string `json:"ship_modes"`
}

type KPIs struct {
	TotalSales    float64  `json:"total_sales"`
	OrderCount    int      `json:"order_count"`
	AvgOrderValue *float64 `json:"avg_order_value"`
	RowCount      int      `json:"row_count"`
}

type MonthBucket struct {
	Month string  `json:"month"`
	Sales float64 `json:"sales"`
}

// Group is one grouped total. Key is null for rows without a value.
type Group struct {
	Key   *string `json:"key"`
	Sales float64 `json:"sales"`
}

type Dashboard struct {
	Dataset         Dataset            `json:"dataset"`
	Filters         Filters            `json:"filters"`
	KPIs            KPIs               `json:"kpis"`
	Monthly         []MonthBucket      `json:"sales_over_time"`
	SalesByRegion   []Group            `json:"sales_by_region"`
	TopProducts     []Group            `json:"top_products"`
	SalesByCategory []Group            `json:"sales_by_category"`
	Charts          []charts.ChartSpec `json:"charts"`
	ParseWarnings   map[string]int     `json:"parse_warnings,omitempty"`
}

type RecordsPage struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}
