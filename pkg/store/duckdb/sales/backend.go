package sales

import (
	"context"
	"fmt"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/aggregate"
)

// Backend summarises through DuckDB. It returns the same values as the
// in-memory aggregator, up to floating point summation order.
type Backend struct {
	store Store
}

var _ aggregate.Backend = (*Backend)(nil)

func NewBackend(store Store) *Backend {
	return &Backend{store: store}
}

func (b *Backend) Summarize(ctx context.Context, dataset string, table *domain.Table, criteria domain.Criteria, topN int) (*domain.Summary, error) {
	release, err := b.store.Acquire(ctx, dataset, table)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", dataset, err)
	}
	defer release()
	fp := table.Fingerprint

	kpis, err := b.store.KPIs(ctx, fp, criteria)
	if err != nil {
		return nil, err
	}
	monthly, err := b.store.MonthlySales(ctx, fp, criteria)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		KPIs:    *kpis,
		Monthly: aggregate.FillMonths(monthly),
	}
	for _, r := range []struct {
		col   domain.Column
		limit int
		dst   *[]domain.Group
	}{
		{domain.ColumnRegion, 0, &summary.ByRegion},
		{domain.ColumnProductName, topN, &summary.TopProducts},
		{domain.ColumnCategory, 0, &summary.ByCategory},
	} {
		groups, err := b.store.Ranking(ctx, fp, r.col, criteria, r.limit)
		if err != nil {
			return nil, err
		}
		*r.dst = groups
	}
	return summary, nil
}
