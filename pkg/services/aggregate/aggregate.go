package aggregate

import (
	"slices"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
)

// DefaultTopN is the number of products in the top products ranking.
const DefaultTopN = 10

// TotalSales sums the sales amount over every row.
func TotalSales(t *domain.Table) float64 {
	var total float64
	for _, rec := range t.Records {
		total += rec.Sales
	}
	return total
}

// OrderCount counts distinct non-null order identifiers.
func OrderCount(t *domain.Table) int {
	return len(orderTotals(t))
}

// AvgOrderValue is the mean over distinct orders of each order's summed
// sales. ok is false when the table holds no orders.
func AvgOrderValue(t *domain.Table) (float64, bool) {
	totals := orderTotals(t)
	if len(totals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum / float64(len(totals)), true
}

func RowCount(t *domain.Table) int {
	return t.Len()
}

func orderTotals(t *domain.Table) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range t.Records {
		if rec.OrderID == "" {
			continue
		}
		totals[rec.OrderID] += rec.Sales
	}
	return totals
}

// MonthlySales buckets rows by the calendar month of their order date in
// ascending order. Rows with no order date are skipped.
func MonthlySales(t *domain.Table) []domain.MonthBucket {
	sums := make(map[time.Time]float64)
	for _, rec := range t.Records {
		if rec.OrderDate == nil {
			continue
		}
		sums[domain.StartOfMonth(*rec.OrderDate)] += rec.Sales
	}

	buckets := make([]domain.MonthBucket, 0, len(sums))
	for m, v := range sums {
		buckets = append(buckets, domain.MonthBucket{Month: m, Sales: v})
	}
	slices.SortFunc(buckets, func(a, b domain.MonthBucket) int {
		return a.Month.Compare(b.Month)
	})
	return FillMonths(buckets)
}

// FillMonths normalises ascending buckets to month starts and inserts a zero
// bucket for every month missing between the first and the last.
func FillMonths(buckets []domain.MonthBucket) []domain.MonthBucket {
	filled := make([]domain.MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		m := domain.StartOfMonth(b.Month)
		if n := len(filled); n > 0 {
			for next := filled[n-1].Month.AddDate(0, 1, 0); next.Before(m); next = next.AddDate(0, 1, 0) {
				filled = append(filled, domain.MonthBucket{Month: next})
			}
			if filled[len(filled)-1].Month.Equal(m) {
				filled[len(filled)-1].Sales += b.Sales
				continue
			}
		}
		filled = append(filled, domain.MonthBucket{Month: m, Sales: b.Sales})
	}
	return filled
}

// SalesByRegion ranks regions by summed sales.
func SalesByRegion(t *domain.Table) []domain.Group {
	return Ranking(t, domain.ColumnRegion, 0)
}

// SalesByCategory ranks categories by summed sales.
func SalesByCategory(t *domain.Table) []domain.Group {
	return Ranking(t, domain.ColumnCategory, 0)
}

// TopProducts ranks products by summed sales and keeps the first n.
func TopProducts(t *domain.Table, n int) []domain.Group {
	return Ranking(t, domain.ColumnProductName, n)
}

// Ranking groups rows by the literal value of col, null included, sums
// sales per group and sorts descending. Ties keep first-seen order. A limit
// of zero or less keeps every group.
func Ranking(t *domain.Table, col domain.Column, limit int) []domain.Group {
	index := make(map[string]int)
	groups := make([]domain.Group, 0)
	for _, rec := range t.Records {
		key := rec.Value(col)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.Group{Key: key, Null: key == ""})
		}
		groups[i].Sales += rec.Sales
	}

	slices.SortStableFunc(groups, func(a, b domain.Group) int {
		switch {
		case a.Sales > b.Sales:
			return -1
		case a.Sales < b.Sales:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// Summarize computes every dashboard aggregate over t.
func Summarize(t *domain.Table, topN int) *domain.Summary {
	s := &domain.Summary{
		KPIs: domain.KPIs{
			TotalSales: TotalSales(t),
			OrderCount: OrderCount(t),
			RowCount:   RowCount(t),
		},
		Monthly:     MonthlySales(t),
		ByRegion:    SalesByRegion(t),
		TopProducts: TopProducts(t, topN),
		ByCategory:  SalesByCategory(t),
	}
	if avg, ok := AvgOrderValue(t); ok {
		s.AvgOrderValue = &avg
	}
	return s
}
