package sales

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/aggregate"
	"github.com/de-tools/sales-atlas/pkg/services/loader"
	"github.com/de-tools/sales-atlas/pkg/store/duckdb"
	"github.com/de-tools/sales-atlas/pkg/testutil"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const delta = 1e-6

type fixture struct {
	db      *sql.DB
	store   Store
	backend *Backend
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	store, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:      db,
		store:   store,
		backend: NewBackend(store),
	}
}

func day(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertSummary(t *testing.T, want, got *domain.Summary) {
	t.Helper()
	assert.InDelta(t, want.TotalSales, got.TotalSales, delta)
	assert.Equal(t, want.OrderCount, got.OrderCount)
	assert.Equal(t, want.RowCount, got.RowCount)
	if want.AvgOrderValue == nil {
		assert.Nil(t, got.AvgOrderValue)
	} else if assert.NotNil(t, got.AvgOrderValue) {
		assert.InDelta(t, *want.AvgOrderValue, *got.AvgOrderValue, delta)
	}

	require.Len(t, got.Monthly, len(want.Monthly))
	for i := range want.Monthly {
		assert.True(t, want.Monthly[i].Month.Equal(got.Monthly[i].Month), "month %d: %v != %v", i, want.Monthly[i].Month, got.Monthly[i].Month)
		assert.InDelta(t, want.Monthly[i].Sales, got.Monthly[i].Sales, delta)
	}

	for name, pair := range map[string][2][]domain.Group{
		"region":   {want.ByRegion, got.ByRegion},
		"products": {want.TopProducts, got.TopProducts},
		"category": {want.ByCategory, got.ByCategory},
	} {
		require.Len(t, pair[1], len(pair[0]), name)
		for i := range pair[0] {
			assert.Equal(t, pair[0][i].Key, pair[1][i].Key, "%s key at %d", name, i)
			assert.Equal(t, pair[0][i].Null, pair[1][i].Null, "%s null at %d", name, i)
			assert.InDelta(t, pair[0][i].Sales, pair[1][i].Sales, delta, "%s sales at %d", name, i)
		}
	}
}

func TestBackend_MatchesMemoryBackend(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	table := testutil.StoreTable(t)
	memory := aggregate.NewMemoryBackend()

	tests := []struct {
		name     string
		criteria domain.Criteria
		topN     int
	}{
		{name: "unfiltered", criteria: domain.Criteria{}, topN: aggregate.DefaultTopN},
		{name: "top three", criteria: domain.Criteria{}, topN: 3},
		{
			name: "date range",
			criteria: domain.Criteria{
				Dates: &domain.DateRange{From: day("2023-11-20"), To: day("2024-01-31")},
			},
			topN: aggregate.DefaultTopN,
		},
		{
			name: "dimensions",
			criteria: domain.Criteria{
				Regions:   domain.Select("South", "Central", "East"),
				ShipModes: domain.Select("Standard Class", "Same Day", "First Class"),
			},
			topN: aggregate.DefaultTopN,
		},
		{
			name:     "empty selection",
			criteria: domain.Criteria{Categories: domain.Select()},
			topN:     aggregate.DefaultTopN,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want, err := memory.Summarize(ctx, "store", table, tc.criteria, tc.topN)
			require.NoError(t, err)

			got, err := f.backend.Summarize(ctx, "store", table, tc.criteria, tc.topN)
			require.NoError(t, err)

			assertSummary(t, want, got)
		})
	}
}

func TestBackend_Scenario(t *testing.T) {
	f := setupFixture(t)

	s, err := f.backend.Summarize(context.Background(), "scenario", testutil.ScenarioTable(t), domain.Criteria{}, aggregate.DefaultTopN)
	require.NoError(t, err)

	assert.Equal(t, 350.0, s.TotalSales)
	assert.Equal(t, 2, s.OrderCount)
	require.NotNil(t, s.AvgOrderValue)
	assert.Equal(t, 175.0, *s.AvgOrderValue)
	require.Len(t, s.Monthly, 2)
	assert.True(t, s.Monthly[0].Month.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 150.0, s.Monthly[0].Sales)
	assert.Equal(t, 200.0, s.Monthly[1].Sales)
}

func TestStore_Ingest(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	rows := func(fingerprint string) int {
		var n int
		require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM sales WHERE fingerprint = ?`, fingerprint).Scan(&n))
		return n
	}

	t.Run("same fingerprint is ingested once", func(t *testing.T) {
		table := testutil.StoreTable(t)
		require.NoError(t, f.store.Ingest(ctx, "a", table))
		require.NoError(t, f.store.Ingest(ctx, "a", table))
		require.NoError(t, f.store.Ingest(ctx, "b", table))

		assert.Equal(t, table.Len(), rows(table.Fingerprint))
	})

	t.Run("new content replaces stale rows", func(t *testing.T) {
		old := testutil.ScenarioTable(t)
		old.Fingerprint = "v1"
		next := testutil.ScenarioTable(t)
		next.Fingerprint = "v2"

		require.NoError(t, f.store.Ingest(ctx, "c", old))
		assert.Equal(t, 3, rows("v1"))

		require.NoError(t, f.store.Ingest(ctx, "c", next))
		assert.Equal(t, 0, rows("v1"))
		assert.Equal(t, 3, rows("v2"))

		var fingerprint string
		require.NoError(t, f.db.QueryRow(`SELECT fingerprint FROM datasets WHERE name = ?`, "c").Scan(&fingerprint))
		assert.Equal(t, "v2", fingerprint)
	})

	t.Run("pinned rows survive a replacement until released", func(t *testing.T) {
		old := testutil.ScenarioTable(t)
		old.Fingerprint = "p1"
		next := testutil.ScenarioTable(t)
		next.Fingerprint = "p2"

		release, err := f.store.Acquire(ctx, "d", old)
		require.NoError(t, err)
		require.NoError(t, f.store.Ingest(ctx, "d", next))

		kpis, err := f.store.KPIs(ctx, "p1", domain.Criteria{})
		require.NoError(t, err)
		assert.Equal(t, 3, kpis.RowCount)

		release()
		release()
		assert.Equal(t, 0, rows("p1"))
		assert.Equal(t, 3, rows("p2"))
	})

	t.Run("an older load does not replace a newer one", func(t *testing.T) {
		loadedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		older := testutil.ScenarioTable(t)
		older.Fingerprint = "s1"
		older.LoadedAt = loadedAt
		newer := testutil.NewTable(t,
			testutil.Sale{OrderID: "B1", OrderDate: "2024-03-01", Region: "East", Category: "Furniture", ShipMode: "Same Day", ProductName: "Desk", Sales: 10},
		)
		newer.Fingerprint = "s2"
		newer.LoadedAt = loadedAt.Add(time.Second)

		require.NoError(t, f.store.Ingest(ctx, "e", newer))

		s, err := f.backend.Summarize(ctx, "e", older, domain.Criteria{}, aggregate.DefaultTopN)
		require.NoError(t, err)
		assert.Equal(t, 3, s.RowCount, "the older table is still answered in full")

		var fingerprint string
		require.NoError(t, f.db.QueryRow(`SELECT fingerprint FROM datasets WHERE name = ?`, "e").Scan(&fingerprint))
		assert.Equal(t, "s2", fingerprint)
		assert.Equal(t, 0, rows("s1"))

		kpis, err := f.store.KPIs(ctx, "s2", domain.Criteria{})
		require.NoError(t, err)
		assert.Equal(t, 1, kpis.RowCount)
		assert.Equal(t, 10.0, kpis.TotalSales)
	})
}

func TestBackend_ConcurrentReloadsKeepRows(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	loadedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tables := make([]*domain.Table, 2)
	for i, fp := range []string{"r1", "r2"} {
		tables[i] = testutil.ScenarioTable(t)
		tables[i].Fingerprint = fp
		tables[i].LoadedAt = loadedAt.Add(time.Duration(i) * time.Second)
	}

	const calls = 40
	summaries := make([]*domain.Summary, calls)
	var g errgroup.Group
	for i := range calls {
		g.Go(func() error {
			s, err := f.backend.Summarize(ctx, "store", tables[i%2], domain.Criteria{}, aggregate.DefaultTopN)
			summaries[i] = s
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, s := range summaries {
		assert.Equal(t, 3, s.RowCount, "call %d", i)
		assert.Equal(t, 350.0, s.TotalSales, "call %d", i)
	}

	var remaining []string
	rows, err := f.db.Query(`SELECT DISTINCT fingerprint FROM sales ORDER BY fingerprint`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var fp string
		require.NoError(t, rows.Scan(&fp))
		remaining = append(remaining, fp)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"r2"}, remaining)
}

func TestBackend_OffsetTimestampsMatchMemoryBackend(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	input := "Order ID,Order Date,Region,Category,Ship Mode,Product Name,Sales\n" +
		"A1,2024-01-31T23:30:00-05:00,East,Furniture,Same Day,Chair,100\n" +
		"A2,2024-02-01T00:15:00+02:00,West,Technology,Same Day,Phone,50\n" +
		"A3,2024-02-29T22:00:00-08:00,West,Technology,Same Day,Phone,25\n"
	table, err := loader.Parse(ctx, strings.NewReader(input), loader.Options{})
	require.NoError(t, err)
	memory := aggregate.NewMemoryBackend()

	for name, criteria := range map[string]domain.Criteria{
		"unfiltered": {},
		"january":    {Dates: &domain.DateRange{From: day("2024-01-31"), To: day("2024-01-31")}},
		"february":   {Dates: &domain.DateRange{From: day("2024-02-01"), To: day("2024-02-29")}},
	} {
		t.Run(name, func(t *testing.T) {
			want, err := memory.Summarize(ctx, "offsets", table, criteria, aggregate.DefaultTopN)
			require.NoError(t, err)
			got, err := f.backend.Summarize(ctx, "offsets", table, criteria, aggregate.DefaultTopN)
			require.NoError(t, err)

			assertSummary(t, want, got)
		})
	}

	s, err := f.backend.Summarize(ctx, "offsets", table, domain.Criteria{}, aggregate.DefaultTopN)
	require.NoError(t, err)
	require.Len(t, s.Monthly, 2)
	assert.Equal(t, domain.MonthBucket{Month: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Sales: 100}, s.Monthly[0])
	assert.Equal(t, domain.MonthBucket{Month: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Sales: 75}, s.Monthly[1])
}

func TestStore_RankingRejectsUngroupedColumn(t *testing.T) {
	f := setupFixture(t)

	_, err := f.store.Ranking(context.Background(), "fp", domain.ColumnSales, domain.Criteria{}, 0)

	assert.ErrorContains(t, err, "cannot be grouped")
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStore_IngestErrors(t *testing.T) {
	table := testutil.ScenarioTable(t)
	table.Fingerprint = "fp"
	lookup := regexp.QuoteMeta(`SELECT fingerprint, loaded_at FROM datasets WHERE name = ?`)
	lookupColumns := []string{"fingerprint", "loaded_at"}

	t.Run("lookup fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookup).WithArgs("ds").WillReturnError(errors.New("catalog unavailable"))

		store, err := NewStore(db)
		require.NoError(t, err)
		err = store.Ingest(context.Background(), "ds", table)

		assert.ErrorContains(t, err, "lookup dataset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookup).WithArgs("ds").WillReturnRows(sqlmock.NewRows(lookupColumns))
		mock.ExpectBegin().WillReturnError(errors.New("locked"))

		store, err := NewStore(db)
		require.NoError(t, err)
		err = store.Ingest(context.Background(), "ds", table)

		assert.ErrorContains(t, err, "begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert fails and rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookup).WithArgs("ds").WillReturnRows(sqlmock.NewRows(lookupColumns))
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM sales WHERE fingerprint = ?`)).
			WithArgs("fp").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO sales`)).
			ExpectExec().
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		store, err := NewStore(db)
		require.NoError(t, err)
		err = store.Ingest(context.Background(), "ds", table)

		assert.ErrorContains(t, err, "insert row 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("current fingerprint skips work", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookup).WithArgs("ds").WillReturnRows(sqlmock.NewRows(lookupColumns).AddRow("fp", time.Now()))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sales WHERE fingerprint = ?`)).
			WithArgs("fp").
			WillReturnResult(sqlmock.NewResult(0, 0))

		store, err := NewStore(db)
		require.NoError(t, err)

		assert.NoError(t, store.Ingest(context.Background(), "ds", table))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBackend_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT fingerprint, loaded_at FROM datasets WHERE name = ?`)).
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "loaded_at"}).AddRow("fp", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(sales), 0)`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sales WHERE fingerprint = ?`)).
		WithArgs("fp").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewStore(db)
	require.NoError(t, err)
	table := testutil.ScenarioTable(t)
	table.Fingerprint = "fp"

	_, err = NewBackend(store).Summarize(context.Background(), "ds", table, domain.Criteria{}, aggregate.DefaultTopN)

	assert.ErrorContains(t, err, "query totals")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhereClause_OpenRange(t *testing.T) {
	where, args := whereClause("fp", domain.Criteria{Dates: &domain.DateRange{To: day("2024-01-31")}})

	assert.Equal(t, "(fingerprint = ?) AND (order_date IS NOT NULL) AND (order_date < ?)", where)
	assert.Equal(t, []any{"fp", day("2024-02-01")}, args)
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause("fp", domain.Criteria{
		Dates:      &domain.DateRange{From: day("2024-01-01"), To: day("2024-01-31")},
		Regions:    domain.Select("West", "East"),
		Categories: domain.Select(),
	})

	assert.Equal(t,
		"(fingerprint = ?) AND (order_date IS NOT NULL) AND (order_date >= ?) AND (order_date < ?) AND (region IN (?, ?)) AND (FALSE)",
		where)
	assert.Equal(t, []any{"fp", day("2024-01-01"), day("2024-02-01"), "East", "West"}, args)
}
