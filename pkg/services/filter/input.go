package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

// Input is filter input as received from a query string or command line.
// An empty date is unset. A nil dimension is unfiltered; a non-nil one is
// a selection, even when empty. Values may be comma separated.
type Input struct {
	From       string
	To         string
	Regions    []string
	Categories []string
	ShipModes  []string
}

// ParseCriteria validates input. A single date bound leaves the other side
// of the range open.
func ParseCriteria(in Input) (domain.Criteria, error) {
	var criteria domain.Criteria

	from, err := parseDay("from", in.From)
	if err != nil {
		return criteria, err
	}
	to, err := parseDay("to", in.To)
	if err != nil {
		return criteria, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return criteria, &domain.CriteriaError{Msg: "'from' date must not be after 'to' date"}
	}
	if !from.IsZero() || !to.IsZero() {
		criteria.Dates = &domain.DateRange{From: from, To: to}
	}

	criteria.Regions = selection(in.Regions)
	criteria.Categories = selection(in.Categories)
	criteria.ShipModes = selection(in.ShipModes)
	return criteria, nil
}

// Resolve closes an open date range with the table's first or last order
// date so the applied range can be reported.
func Resolve(criteria domain.Criteria, table *domain.Table) domain.Criteria {
	d := criteria.Dates
	if d == nil || (!d.From.IsZero() && !d.To.IsZero()) {
		return criteria
	}
	var from, to *time.Time
	if !d.From.IsZero() {
		from = &d.From
	}
	if !d.To.IsZero() {
		to = &d.To
	}
	criteria.Dates = Bounded(from, to, Options(table))
	return criteria
}

func parseDay(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, &domain.CriteriaError{
			Msg: fmt.Sprintf("invalid '%s' date format. Expected format: YYYY-MM-DD", name),
		}
	}
	return t, nil
}

func selection(raw []string) domain.Selection {
	if raw == nil {
		return domain.Selection{}
	}
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return domain.Select(values...)
}
