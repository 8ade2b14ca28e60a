package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. A zero bound leaves
// that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls on a day within the range.
func (d DateRange) Contains(t time.Time) bool {
	day := StartOfDay(t)
	if !d.From.IsZero() && day.Before(StartOfDay(d.From)) {
		return false
	}
	return d.To.IsZero() || !day.After(StartOfDay(d.To))
}

func (d DateRange) String() string {
	return fmt.Sprintf("%s..%s", d.From.Format(DateLayout), d.To.Format(DateLayout))
}

// StartOfDay returns midnight of t's calendar day as written, in UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of t's calendar month as written, in UTC.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Selection is a membership filter on one dimension. The zero value does
// not filter; a selection built from no values matches nothing.
type Selection struct {
	active bool
	values map[string]struct{}
}

func Select(values ...string) Selection {
	s := Selection{active: true, values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[v] = struct{}{}
	}
	return s
}

func (s Selection) Active() bool {
	return s.active
}

// Matches reports whether v passes the selection. Null values never match
// an active selection.
func (s Selection) Matches(v string) bool {
	if !s.active {
		return true
	}
	if v == "" {
		return false
	}
	_, ok := s.values[v]
	return ok
}

// Values returns the selected values sorted.
func (s Selection) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s Selection) key() string {
	if !s.active {
		return "*"
	}
	return "[" + strings.Join(s.Values(), "\x1f") + "]"
}

// Criteria is the conjunction of user-selected constraints.
type Criteria struct {
	Dates      *DateRange
	Regions    Selection
	Categories Selection
	ShipModes  Selection
}

// Key renders the criteria canonically; equal criteria give equal keys.
func (c Criteria) Key() string {
	dates := "*"
	if c.Dates != nil {
		dates = c.Dates.String()
	}
	return strings.Join([]string{dates, c.Regions.key(), c.Categories.key(), c.ShipModes.key()}, "|")
}
