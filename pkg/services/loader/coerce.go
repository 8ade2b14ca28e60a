package loader

import (
	"math"
	"strings"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/spf13/cast"
)

// dateLayouts are tried before falling back to cast, which covers the RFC
// family but not the US slash formats common in sales exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// parseDate returns ok=false when s is not empty and cannot be read as a
// date. An empty cell is a null without a warning. Any offset in s is
// dropped and the written date and time are kept.
func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = domain.CivilTime(t)
			return &t, true
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return nil, false
	}
	t = domain.CivilTime(t)
	return &t, true
}

// parseSales coerces a sales cell into a finite, non-negative amount. An
// empty cell is 0 without a warning; anything else unusable is 0 with
// ok=false.
func parseSales(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
