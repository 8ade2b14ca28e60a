package filter

import (
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

// Apply returns the rows of table satisfying every predicate in criteria.
// Predicates are checked in one pass; the input table is not modified and
// row order is preserved.
func Apply(table *domain.Table, criteria domain.Criteria) *domain.Table {
	records := make([]*domain.Record, 0, table.Len())
	for _, rec := range table.Records {
		if Matches(rec, criteria) {
			records = append(records, rec)
		}
	}
	return table.Derive(records)
}

// Matches reports whether a single record satisfies criteria.
func Matches(rec *domain.Record, criteria domain.Criteria) bool {
	if criteria.Dates != nil {
		if rec.OrderDate == nil || !criteria.Dates.Contains(*rec.OrderDate) {
			return false
		}
	}
	return criteria.Regions.Matches(rec.Region) &&
		criteria.Categories.Matches(rec.Category) &&
		criteria.ShipModes.Matches(rec.ShipMode)
}

// Options lists the values a user can pick from: distinct non-null
// dimension values in first-seen order and the order date bounds.
func Options(table *domain.Table) domain.FilterOptions {
	opts := domain.FilterOptions{
		Regions:    distinct(table, domain.ColumnRegion),
		Categories: distinct(table, domain.ColumnCategory),
		ShipModes:  distinct(table, domain.ColumnShipMode),
	}

	for _, rec := range table.Records {
		if rec.OrderDate == nil {
			continue
		}
		d := *rec.OrderDate
		if opts.MinDate == nil || d.Before(*opts.MinDate) {
			opts.MinDate = &d
		}
		if opts.MaxDate == nil || d.After(*opts.MaxDate) {
			opts.MaxDate = &d
		}
	}
	return opts
}

// DefaultCriteria selects everything the options offer, the way the
// dashboard pre-populates its controls. Rows without an order date fall
// outside the default date range. The range covers whole days.
func DefaultCriteria(opts domain.FilterOptions) domain.Criteria {
	criteria := domain.Criteria{
		Regions:    domain.Select(opts.Regions...),
		Categories: domain.Select(opts.Categories...),
		ShipModes:  domain.Select(opts.ShipModes...),
	}
	if opts.MinDate != nil && opts.MaxDate != nil {
		criteria.Dates = &domain.DateRange{
			From: domain.StartOfDay(*opts.MinDate),
			To:   domain.StartOfDay(*opts.MaxDate),
		}
	}
	return criteria
}

// Bounded fills a missing end of a partially specified date range from the
// table's order date bounds. Both ends are truncated to their day.
func Bounded(from, to *time.Time, opts domain.FilterOptions) *domain.DateRange {
	if from == nil && to == nil {
		return nil
	}
	r := &domain.DateRange{}
	switch {
	case from != nil:
		r.From = *from
	case opts.MinDate != nil:
		r.From = *opts.MinDate
	}
	switch {
	case to != nil:
		r.To = *to
	case opts.MaxDate != nil:
		r.To = *opts.MaxDate
	default:
		r.To = r.From
	}
	if from == nil && opts.MinDate == nil {
		r.From = r.To
	}
	r.From = domain.StartOfDay(r.From)
	r.To = domain.StartOfDay(r.To)
	return r
}

func distinct(table *domain.Table, col domain.Column) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, rec := range table.Records {
		v := rec.Value(col)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
