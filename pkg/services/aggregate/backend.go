package aggregate

import (
	"context"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/filter"
)

// Backend computes the dashboard summary for a table narrowed by criteria.
type Backend interface {
	Summarize(ctx context.Context, dataset string, table *domain.Table, criteria domain.Criteria, topN int) (*domain.Summary, error)
}

type MemoryBackend struct{}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (*MemoryBackend) Summarize(_ context.Context, _ string, table *domain.Table, criteria domain.Criteria, topN int) (*domain.Summary, error) {
	return Summarize(filter.Apply(table, criteria), topN), nil
}
