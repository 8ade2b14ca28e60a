package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

// Store keeps one copy of each loaded dataset in DuckDB and answers the
// dashboard aggregates in SQL.
type Store interface {
	// Acquire ingests table for dataset and pins its rows until release is
	// called, so queries by its fingerprint see every row.
	Acquire(ctx context.Context, dataset string, table *domain.Table) (release func(), err error)
	Ingest(ctx context.Context, dataset string, table *domain.Table) error
	KPIs(ctx context.Context, fingerprint string, criteria domain.Criteria) (*domain.KPIs, error)
	MonthlySales(ctx context.Context, fingerprint string, criteria domain.Criteria) ([]domain.MonthBucket, error)
	Ranking(ctx context.Context, fingerprint string, col domain.Column, criteria domain.Criteria, limit int) ([]domain.Group, error)
}

var groupColumns = map[domain.Column]string{
	domain.ColumnRegion:      "region",
	domain.ColumnCategory:    "category",
	domain.ColumnShipMode:    "ship_mode",
	domain.ColumnProductName: "product_name",
}

type salesStore struct {
	db *sql.DB

	mu sync.Mutex
	// pins counts the callers still querying each fingerprint.
	pins map[string]int
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &salesStore{
		db:   db,
		pins: make(map[string]int),
	}, nil
}

// Ingest makes table the current content of dataset unless a newer load is
// already registered.
func (s *salesStore) Ingest(ctx context.Context, dataset string, table *domain.Table) error {
	release, err := s.Acquire(ctx, dataset, table)
	if err != nil {
		return err
	}
	release()
	return nil
}

// Acquire copies the rows of table unless they are already stored and
// registers it as the content of dataset. A table loaded before the one
// already registered keeps its rows only while pinned. Rows that are
// neither registered nor pinned are dropped.
func (s *salesStore) Acquire(ctx context.Context, dataset string, table *domain.Table) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ingest(ctx, dataset, table); err != nil {
		return nil, err
	}

	fp := table.Fingerprint
	s.pins[fp]++

	var once sync.Once
	return func() {
		once.Do(func() { s.release(ctx, fp) })
	}, nil
}

func (s *salesStore) release(ctx context.Context, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pins[fingerprint]--
	if s.pins[fingerprint] > 0 {
		return
	}
	delete(s.pins, fingerprint)

	_, err := s.db.ExecContext(context.WithoutCancel(ctx),
		`DELETE FROM sales WHERE fingerprint = ? AND fingerprint NOT IN (SELECT fingerprint FROM datasets)`,
		fingerprint,
	)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("fingerprint", fingerprint).
			Msg("failed to drop unreferenced rows")
	}
}

func (s *salesStore) ingest(ctx context.Context, dataset string, table *domain.Table) error {
	loadedAt := table.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	// TIMESTAMP keeps microseconds.
	loadedAt = loadedAt.UTC().Truncate(time.Microsecond)

	var (
		current   string
		currentAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, loaded_at FROM datasets WHERE name = ?`, dataset,
	).Scan(&current, &currentAt)
	switch {
	case err == nil && current == table.Fingerprint:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup dataset: %w", err)
	}
	registered := err == nil
	superseded := registered && loadedAt.Before(currentAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ctxWithTx := duckdb.WithTransaction(ctx, tx)
	if err := s.ensureRows(ctxWithTx, table); err != nil {
		return err
	}
	if !superseded {
		if err := s.register(ctxWithTx, dataset, table, loadedAt, registered); err != nil {
			return err
		}
	}
	if err := s.prune(ctxWithTx, table.Fingerprint); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("dataset", dataset).
		Str("fingerprint", table.Fingerprint).
		Int("rows", table.Len()).
		Bool("superseded", superseded).
		Msg("dataset ingested into duckdb")
	return nil
}

func (s *salesStore) ensureRows(ctx context.Context, table *domain.Table) error {
	var existing int
	err := duckdb.Conn(ctx, s.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE fingerprint = ?`, table.Fingerprint).
		Scan(&existing)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	if existing > 0 {
		return nil
	}
	return s.insertRows(ctx, table)
}

func (s *salesStore) register(ctx context.Context, dataset string, table *domain.Table, loadedAt time.Time, registered bool) error {
	conn := duckdb.Conn(ctx, s.db)

	var err error
	if registered {
		_, err = conn.ExecContext(ctx,
			`UPDATE datasets SET fingerprint = ?, row_count = ?, loaded_at = ? WHERE name = ?`,
			table.Fingerprint, table.Len(), loadedAt, dataset,
		)
	} else {
		_, err = conn.ExecContext(ctx,
			`INSERT INTO datasets (name, fingerprint, row_count, loaded_at) VALUES (?, ?, ?, ?)`,
			dataset, table.Fingerprint, table.Len(), loadedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("register dataset: %w", err)
	}
	return nil
}

// prune drops rows that no dataset refers to, except those of keep and of
// pinned fingerprints. The caller holds mu.
func (s *salesStore) prune(ctx context.Context, keep string) error {
	query, args := pruneQuery(append(slices.Sorted(maps.Keys(s.pins)), keep))
	if _, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("drop stale rows: %w", err)
	}
	return nil
}

func pruneQuery(keep []string) (string, []any) {
	placeholders := make([]string, 0, len(keep))
	args := make([]any, 0, len(keep))
	for _, fp := range keep {
		placeholders = append(placeholders, "?")
		args = append(args, fp)
	}
	return `DELETE FROM sales WHERE fingerprint NOT IN (SELECT fingerprint FROM datasets)` +
		` AND fingerprint NOT IN (` + strings.Join(placeholders, ", ") + `)`, args
}

func (s *salesStore) insertRows(ctx context.Context, table *domain.Table) error {
	stmt, err := duckdb.Conn(ctx, s.db).PrepareContext(ctx, `
		INSERT INTO sales (
			fingerprint, ordinal, order_id, order_date, region,
			category, ship_mode, product_name, sales
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?
		)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		_, err = stmt.ExecContext(ctx,
			table.Fingerprint,
			i,
			nullString(rec.OrderID),
			nullTime(rec.OrderDate),
			nullString(rec.Region),
			nullString(rec.Category),
			nullString(rec.ShipMode),
			nullString(rec.ProductName),
			rec.Sales,
		)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

func (s *salesStore) KPIs(ctx context.Context, fingerprint string, criteria domain.Criteria) (*domain.KPIs, error) {
	where, args := whereClause(fingerprint, criteria)

	kpis := &domain.KPIs{}
	query := `SELECT COALESCE(SUM(sales), 0), COUNT(DISTINCT order_id), COUNT(*) FROM sales WHERE ` + where
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&kpis.TotalSales, &kpis.OrderCount, &kpis.RowCount)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	var avg sql.NullFloat64
	query = `
		SELECT AVG(order_total) FROM (
			SELECT SUM(sales) AS order_total
			FROM sales
			WHERE ` + where + ` AND order_id IS NOT NULL
			GROUP BY order_id
		)`
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return nil, fmt.Errorf("query average order value: %w", err)
	}
	if avg.Valid {
		kpis.AvgOrderValue = &avg.Float64
	}
	return kpis, nil
}

// MonthlySales returns the months that hold at least one dated row.
func (s *salesStore) MonthlySales(ctx context.Context, fingerprint string, criteria domain.Criteria) ([]domain.MonthBucket, error) {
	where, args := whereClause(fingerprint, criteria)
	query := `
		SELECT date_trunc('month', order_date) AS bucket, SUM(sales)
		FROM sales
		WHERE ` + where + ` AND order_date IS NOT NULL
		GROUP BY bucket
		ORDER BY bucket`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	buckets := make([]domain.MonthBucket, 0)
	for rows.Next() {
		var (
			month time.Time
			total float64
		)
		if err := rows.Scan(&month, &total); err != nil {
			return nil, err
		}
		buckets = append(buckets, domain.MonthBucket{Month: domain.StartOfMonth(month), Sales: total})
	}
	return buckets, rows.Err()
}

// Ranking groups by col, null included, sorted by summed sales descending.
// Ties keep the order in which the group first appears in the table.
func (s *salesStore) Ranking(ctx context.Context, fingerprint string, col domain.Column, criteria domain.Criteria, limit int) ([]domain.Group, error) {
	column, ok := groupColumns[col]
	if !ok {
		return nil, fmt.Errorf("column %q cannot be grouped", col)
	}

	where, args := whereClause(fingerprint, criteria)
	query := fmt.Sprintf(`
		SELECT COALESCE(%[1]s, ''), %[1]s IS NULL, SUM(sales) AS total, MIN(ordinal) AS first_seen
		FROM sales
		WHERE %[2]s
		GROUP BY %[1]s
		ORDER BY total DESC, first_seen ASC`, column, where)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s ranking: %w", column, err)
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		var (
			g         domain.Group
			firstSeen int
		)
		if err := rows.Scan(&g.Key, &g.Null, &g.Sales, &firstSeen); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func whereClause(fingerprint string, criteria domain.Criteria) (string, []any) {
	conds := []string{"fingerprint = ?"}
	args := []any{fingerprint}

	if d := criteria.Dates; d != nil {
		conds = append(conds, "order_date IS NOT NULL")
		if !d.From.IsZero() {
			conds = append(conds, "order_date >= ?")
			args = append(args, domain.StartOfDay(d.From))
		}
		if !d.To.IsZero() {
			conds = append(conds, "order_date < ?")
			args = append(args, domain.StartOfDay(d.To).AddDate(0, 0, 1))
		}
	}

	for _, sel := range []struct {
		column    string
		selection domain.Selection
	}{
		{"region", criteria.Regions},
		{"category", criteria.Categories},
		{"ship_mode", criteria.ShipModes},
	} {
		if !sel.selection.Active() {
			continue
		}
		values := sel.selection.Values()
		if len(values) == 0 {
			conds = append(conds, "FALSE")
			continue
		}
		placeholders := make([]string, 0, len(values))
		for _, v := range values {
			placeholders = append(placeholders, "?")
			args = append(args, v)
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", sel.column, strings.Join(placeholders, ", ")))
	}

	return "(" + strings.Join(conds, ") AND (") + ")", args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.CivilTime(*t)
}
