package dashboard

import (
	"context"
	"fmt"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/aggregate"
	"github.com/de-tools/sales-atlas/pkg/services/charts"
	"github.com/de-tools/sales-atlas/pkg/services/config"
	"github.com/de-tools/sales-atlas/pkg/services/filter"
	"github.com/de-tools/sales-atlas/pkg/services/loader"
	"github.com/de-tools/sales-atlas/pkg/store/cache"
	"github.com/rs/zerolog"
)

// Service runs the load, filter and aggregate pipeline for one dataset per
// call.
type Service interface {
	Datasets(ctx context.Context) ([]domain.DatasetProfile, error)
	Options(ctx context.Context, dataset string) (*domain.FilterOptions, error)
	Dashboard(ctx context.Context, dataset string, req Request) (*Dashboard, error)
	Records(ctx context.Context, dataset string, criteria domain.Criteria, limit, offset int) (*Page, error)
	Export(ctx context.Context, dataset string, criteria domain.Criteria) ([]byte, error)
}

// SourceResolver maps a profile path to a readable source.
type SourceResolver interface {
	Resolve(ctx context.Context, path string) (loader.Source, error)
}

// Request selects the rows and ranking size of a dashboard. A TopN of zero
// uses the configured default; a negative TopN ranks every product.
type Request struct {
	Criteria domain.Criteria
	TopN     int
}

type Dashboard struct {
	Dataset       domain.DatasetProfile
	Criteria      domain.Criteria
	Summary       *domain.Summary
	Charts        []charts.ChartSpec
	ParseWarnings map[domain.Column]int
}

// Page is a window over the filtered rows in source order. Rows holds the
// records rendered as they would be exported.
type Page struct {
	Header  []string
	Records []*domain.Record
	Rows    [][]string
	Total   int
	Limit   int
	Offset  int
}

type Settings struct {
	TopN         int
	CacheEnabled bool
	MaxEntries   int
}

type service struct {
	registry config.Registry
	resolver SourceResolver
	backend  aggregate.Backend
	topN     int
	tables   *cache.Memo[*domain.Table]
	exports  *cache.Memo[[]byte]
}

func NewService(registry config.Registry, resolver SourceResolver, backend aggregate.Backend, settings Settings) Service {
	topN := settings.TopN
	if topN == 0 {
		topN = aggregate.DefaultTopN
	}

	s := &service{
		registry: registry,
		resolver: resolver,
		backend:  backend,
		topN:     topN,
	}
	if settings.CacheEnabled {
		s.tables = cache.New[*domain.Table](settings.MaxEntries)
		s.exports = cache.New[[]byte](settings.MaxEntries)
	} else {
		s.tables = cache.Disabled[*domain.Table]()
		s.exports = cache.Disabled[[]byte]()
	}
	return s
}

func (s *service) Datasets(ctx context.Context) ([]domain.DatasetProfile, error) {
	return s.registry.GetProfiles(ctx)
}

func (s *service) Options(ctx context.Context, dataset string) (*domain.FilterOptions, error) {
	_, table, err := s.load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	opts := filter.Options(table)
	return &opts, nil
}

func (s *service) Dashboard(ctx context.Context, dataset string, req Request) (*Dashboard, error) {
	profile, table, err := s.load(ctx, dataset)
	if err != nil {
		return nil, err
	}

	topN := req.TopN
	if topN == 0 {
		topN = s.topN
	}
	criteria := filter.Resolve(req.Criteria, table)

	summary, err := s.backend.Summarize(ctx, profile.Name, table, criteria, topN)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", profile.Name, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("dataset", profile.Name).
		Str("criteria", criteria.Key()).
		Int("rows", summary.RowCount).
		Msg("dashboard computed")

	return &Dashboard{
		Dataset:       *profile,
		Criteria:      criteria,
		Summary:       summary,
		Charts:        charts.Build(summary),
		ParseWarnings: table.ParseWarnings,
	}, nil
}

// Records returns the filtered rows from offset on. A limit of zero or less
// returns every remaining row.
func (s *service) Records(ctx context.Context, dataset string, criteria domain.Criteria, limit, offset int) (*Page, error) {
	_, table, err := s.load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	filtered := filter.Apply(table, criteria)

	total := filtered.Len()
	offset = max(offset, 0)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}

	window := filtered.Records[start:end]
	format := newRowFormatter(filtered)
	rows := make([][]string, 0, len(window))
	for _, rec := range window {
		rows = append(rows, format(rec))
	}

	return &Page{
		Header:  filtered.Header,
		Records: window,
		Rows:    rows,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func (s *service) Export(ctx context.Context, dataset string, criteria domain.Criteria) ([]byte, error) {
	profile, table, err := s.load(ctx, dataset)
	if err != nil {
		return nil, err
	}

	criteria = filter.Resolve(criteria, table)
	key := cache.Key(profile.Name, table.Fingerprint, criteria.Key())
	return s.exports.Get(ctx, key, func(context.Context) ([]byte, error) {
		return WriteCSV(filter.Apply(table, criteria))
	})
}

func (s *service) load(ctx context.Context, dataset string) (*domain.DatasetProfile, *domain.Table, error) {
	profile, err := s.registry.GetProfile(ctx, dataset)
	if err != nil {
		return nil, nil, err
	}

	src, err := s.resolver.Resolve(ctx, profile.Path)
	if err != nil {
		return nil, nil, &domain.LoadError{Source: profile.Path, Err: err}
	}
	fingerprint, err := src.Fingerprint(ctx)
	if err != nil {
		return nil, nil, &domain.LoadError{Source: src.Name(), Err: err}
	}

	key := cache.Key(profile.Name, src.Name(), fingerprint)
	table, err := s.tables.Get(ctx, key, func(ctx context.Context) (*domain.Table, error) {
		return loader.Load(ctx, src, loader.Options{Delimiter: profile.Delimiter})
	})
	if err != nil {
		return nil, nil, err
	}
	return profile, table, nil
}
