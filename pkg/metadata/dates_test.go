package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleTime(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)

	t.Run("date only is pinned to local noon", func(t *testing.T) {
		got, err := ParseFlexibleTime("2026-03-09", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 12, 0, 0, 0, loc), got)
		assert.Equal(t, 9, got.UTC().Day())
	})

	t.Run("rfc3339 keeps its offset", func(t *testing.T) {
		got, err := ParseFlexibleTime("2026-03-09T23:30:00Z", loc)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)))
	})

	t.Run("naive timestamp uses location", func(t *testing.T) {
		got, err := ParseFlexibleTime("2026-03-09 08:15:00", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 8, 15, 0, 0, loc), got)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseFlexibleTime("09/03/2026", loc)
		assert.Error(t, err)
		_, err = ParseFlexibleTime("  ", loc)
		assert.Error(t, err)
	})
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2026-12", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = MonthRange("December", time.UTC)
	assert.Error(t, err)
}
