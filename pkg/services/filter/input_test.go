package filter

import (
	"testing"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriteria(t *testing.T) {
	t.Run("empty input filters nothing", func(t *testing.T) {
		c, err := ParseCriteria(Input{})
		require.NoError(t, err)
		assert.Equal(t, "*|*|*|*", c.Key())
	})

	t.Run("dates and comma separated values", func(t *testing.T) {
		c, err := ParseCriteria(Input{
			From:    "2024-01-01",
			To:      "2024-01-31",
			Regions: []string{"East, West", "South"},
		})
		require.NoError(t, err)

		assert.Equal(t, &domain.DateRange{From: day("2024-01-01"), To: day("2024-01-31")}, c.Dates)
		assert.Equal(t, []string{"East", "South", "West"}, c.Regions.Values())
		assert.False(t, c.Categories.Active())
	})

	t.Run("present but empty dimension selects nothing", func(t *testing.T) {
		c, err := ParseCriteria(Input{Categories: []string{""}})
		require.NoError(t, err)

		assert.True(t, c.Categories.Active())
		assert.Empty(t, c.Categories.Values())
	})

	t.Run("single bound stays open", func(t *testing.T) {
		c, err := ParseCriteria(Input{To: "2024-01-31"})
		require.NoError(t, err)

		require.NotNil(t, c.Dates)
		assert.True(t, c.Dates.From.IsZero())
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseCriteria(Input{From: "01-07-2025"})

		assert.ErrorIs(t, err, domain.ErrInvalidCriteria)
		assert.EqualError(t, err, "invalid 'from' date format. Expected format: YYYY-MM-DD")
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := ParseCriteria(Input{From: "2024-02-01", To: "2024-01-01"})

		assert.ErrorIs(t, err, domain.ErrInvalidCriteria)
	})
}

func TestOpenRangeMatchesResolvedRange(t *testing.T) {
	table := testutil.StoreTable(t)
	open, err := ParseCriteria(Input{From: "2024-01-09"})
	require.NoError(t, err)

	closed := Resolve(open, table)

	assert.Equal(t, &domain.DateRange{From: day("2024-01-09"), To: day("2024-03-01")}, closed.Dates)
	assert.Equal(t, orderIDs(Apply(table, closed)), orderIDs(Apply(table, open)))
	assert.Equal(t, []string{"O-3/Phone", "O-3/Binder", "O-4/Phone", "/", "O-6/Paper"}, orderIDs(Apply(table, open)))
}
