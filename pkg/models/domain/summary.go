package domain

import "time"

// Group is one entry of a grouped aggregate. Null marks the group of rows
// with no value for the grouping column.
type Group struct {
	Key   string
	Null  bool
	Sales float64
}

type MonthBucket struct {
	Month time.Time // first day of the month, UTC
	Sales float64
}

type KPIs struct {
	TotalSales    float64
	OrderCount    int
	AvgOrderValue *float64 // nil when there are no orders
	RowCount      int
}

type Summary struct {
	KPIs
	Monthly     []MonthBucket
	ByRegion    []Group
	TopProducts []Group
	ByCategory  []Group
}

type FilterOptions struct {
	Regions    []string
	Categories []string
	ShipModes  []string
	MinDate    *time.Time
	MaxDate    *time.Time
}
