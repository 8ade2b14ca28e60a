// Package testutil builds sales tables for tests without going through the
// CSV loader.
package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

// Sale describes one row. Dates use the 2006-01-02 layout; an empty string
// is a null date.
type Sale struct {
	OrderID     string
	OrderDate   string
	ShipDate    string
	Region      string
	Category    string
	ShipMode    string
	ProductName string
	Sales       float64
}

// NewTable returns a table whose header holds every recognised column in
// canonical order.
func NewTable(t testing.TB, sales ...Sale) *domain.Table {
	t.Helper()

	header := make([]string, len(domain.Columns))
	present := make(map[domain.Column]int, len(domain.Columns))
	for i, col := range domain.Columns {
		header[i] = string(col)
		present[col] = i
	}

	table := &domain.Table{
		Header:        header,
		Records:       make([]*domain.Record, 0, len(sales)),
		Present:       present,
		ParseWarnings: map[domain.Column]int{},
		Fingerprint:   "testutil",
	}
	for _, s := range sales {
		table.Records = append(table.Records, &domain.Record{
			OrderID:     s.OrderID,
			OrderDate:   date(t, s.OrderDate),
			ShipDate:    date(t, s.ShipDate),
			Region:      s.Region,
			Category:    s.Category,
			ShipMode:    s.ShipMode,
			ProductName: s.ProductName,
			Sales:       s.Sales,
			Raw: []string{
				s.OrderID, s.OrderDate, s.ShipDate, s.Region, s.Category,
				s.ShipMode, s.ProductName, strconv.FormatFloat(s.Sales, 'f', -1, 64),
			},
		})
	}
	return table
}

// ScenarioTable is the three-row example: two lines of order A1 in January
// and one line of order A2 in February.
func ScenarioTable(t testing.TB) *domain.Table {
	t.Helper()
	return NewTable(t,
		Sale{OrderID: "A1", OrderDate: "2024-01-15", Region: "East", Category: "Furniture", ShipMode: "Standard Class", ProductName: "Chair", Sales: 100},
		Sale{OrderID: "A1", OrderDate: "2024-01-15", Region: "East", Category: "Technology", ShipMode: "Standard Class", ProductName: "Phone", Sales: 50},
		Sale{OrderID: "A2", OrderDate: "2024-02-01", Region: "West", Category: "Office Supplies", ShipMode: "First Class", ProductName: "Paper", Sales: 200},
	)
}

// StoreTable is a broader fixture with a gap in the monthly series, null
// dimension values and a null order date.
func StoreTable(t testing.TB) *domain.Table {
	t.Helper()
	return NewTable(t,
		Sale{OrderID: "O-1", OrderDate: "2023-11-03", ShipDate: "2023-11-05", Region: "West", Category: "Furniture", ShipMode: "Second Class", ProductName: "Bookcase", Sales: 261.96},
		Sale{OrderID: "O-1", OrderDate: "2023-11-03", ShipDate: "2023-11-05", Region: "West", Category: "Furniture", ShipMode: "Second Class", ProductName: "Chair", Sales: 731.94},
		Sale{OrderID: "O-2", OrderDate: "2023-11-20", ShipDate: "2023-11-24", Region: "South", Category: "Office Supplies", ShipMode: "Standard Class", ProductName: "Labels", Sales: 14.62},
		Sale{OrderID: "O-3", OrderDate: "2024-01-09", ShipDate: "2024-01-10", Region: "East", Category: "Technology", ShipMode: "First Class", ProductName: "Phone", Sales: 907.15},
		Sale{OrderID: "O-3", OrderDate: "2024-01-09", ShipDate: "2024-01-10", Region: "East", Category: "Office Supplies", ShipMode: "First Class", ProductName: "Binder", Sales: 18.5},
		Sale{OrderID: "O-4", OrderDate: "2024-01-31", ShipDate: "2024-02-02", Region: "Central", Category: "Technology", ShipMode: "Same Day", ProductName: "Phone", Sales: 100},
		Sale{OrderID: "O-5", OrderDate: "", ShipDate: "", Region: "", Category: "Furniture", ShipMode: "Standard Class", ProductName: "Table", Sales: 100},
		Sale{OrderID: "", OrderDate: "2024-02-14", ShipDate: "2024-02-20", Region: "South", Category: "", ShipMode: "Standard Class", ProductName: "", Sales: 0},
		Sale{OrderID: "O-6", OrderDate: "2024-03-01", ShipDate: "2024-03-04", Region: "Central", Category: "Office Supplies", ShipMode: "Second Class", ProductName: "Paper", Sales: 48.86},
	)
}

func date(t testing.TB, s string) *time.Time {
	t.Helper()
	if s == "" {
		return nil
	}
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("invalid fixture date %q: %v", s, err)
	}
	return &d
}
