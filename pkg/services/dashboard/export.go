package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

const (
	ExportFileName    = "filtered_sales.csv"
	ExportContentType = "text/csv; charset=utf-8"

	dateTimeLayout = "2006-01-02 15:04:05.999999999"
)

// WriteCSV renders table with its source header. Typed columns are written
// from their coerced values so a reload yields the same table; every other
// cell is written as read.
func WriteCSV(table *domain.Table) ([]byte, error) {
	format := newRowFormatter(table)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for n, rec := range table.Records {
		if err := w.Write(format(rec)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newRowFormatter returns a function rendering a record in header order.
func newRowFormatter(table *domain.Table) func(*domain.Record) []string {
	typed := make(map[int]domain.Column, 3)
	for _, col := range []domain.Column{domain.ColumnOrderDate, domain.ColumnShipDate, domain.ColumnSales} {
		if i, ok := table.Present[col]; ok {
			typed[i] = col
		}
	}

	return func(rec *domain.Record) []string {
		row := make([]string, len(table.Header))
		for i := range row {
			col, ok := typed[i]
			switch {
			case !ok:
				row[i] = cell(rec.Raw, i)
			case col == domain.ColumnSales:
				row[i] = strconv.FormatFloat(rec.Sales, 'f', -1, 64)
			default:
				row[i] = formatDate(dateOf(rec, col))
			}
		}
		return row
	}
}

func cell(raw []string, i int) string {
	if i < len(raw) {
		return raw[i]
	}
	return ""
}

func dateOf(rec *domain.Record, col domain.Column) *time.Time {
	if col == domain.ColumnShipDate {
		return rec.ShipDate
	}
	return rec.OrderDate
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Equal(domain.StartOfDay(*t)) {
		return t.Format(domain.DateLayout)
	}
	return t.Format(dateTimeLayout)
}
