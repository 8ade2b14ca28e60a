package domain

import "time"

type Column string

const (
	ColumnOrderID     Column = "Order ID"
	ColumnOrderDate   Column = "Order Date"
	ColumnShipDate    Column = "Ship Date"
	ColumnRegion      Column = "Region"
	ColumnCategory    Column = "Category"
	ColumnShipMode    Column = "Ship Mode"
	ColumnProductName Column = "Product Name"
	ColumnSales       Column = "Sales"
)

// Columns lists the recognised columns in their canonical order.
var Columns = []Column{
	ColumnOrderID,
	ColumnOrderDate,
	ColumnShipDate,
	ColumnRegion,
	ColumnCategory,
	ColumnShipMode,
	ColumnProductName,
	ColumnSales,
}

// CivilTime keeps the date and time of day of t as written and drops its
// zone. Record times are always held this way, located in UTC, so days and
// months never shift with an offset.
func CivilTime(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Record is one sales transaction. Empty strings are null values.
type Record struct {
	OrderID     string
	OrderDate   *time.Time
	ShipDate    *time.Time
	Region      string
	Category    string
	ShipMode    string
	ProductName string
	Sales       float64 // finite, >= 0

	// Raw holds the source cells in header order.
	Raw []string
}

// Value returns the string value of a dimension column.
func (r *Record) Value(col Column) string {
	switch col {
	case ColumnOrderID:
		return r.OrderID
	case ColumnRegion:
		return r.Region
	case ColumnCategory:
		return r.Category
	case ColumnShipMode:
		return r.ShipMode
	case ColumnProductName:
		return r.ProductName
	default:
		return ""
	}
}

// Table is an ordered, immutable set of records sharing one header.
// Filtered tables share Record pointers with the table they came from.
type Table struct {
	Header  []string
	Records []*Record

	// Present maps recognised columns to their header index.
	Present map[Column]int
	// ParseWarnings counts values per column that could not be typed.
	ParseWarnings map[Column]int
	// Fingerprint identifies the source content the table was loaded from.
	Fingerprint string
	// LoadedAt orders tables loaded from the same dataset.
	LoadedAt time.Time
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (t *Table) Has(col Column) bool {
	if t == nil {
		return false
	}
	_, ok := t.Present[col]
	return ok
}

// Derive returns a table with the same schema holding the given records.
func (t *Table) Derive(records []*Record) *Table {
	return &Table{
		Header:        t.Header,
		Records:       records,
		Present:       t.Present,
		ParseWarnings: t.ParseWarnings,
		Fingerprint:   t.Fingerprint,
		LoadedAt:      t.LoadedAt,
	}
}
