package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	loc := time.UTC

	r, err := ParseDateRange("2026-03-01", "2026-03-31", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), *r.From)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), *r.To)

	assert.True(t, r.Contains(time.Date(2026, 3, 31, 23, 59, 0, 0, loc)))
	assert.False(t, r.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, loc)))
	assert.False(t, r.Contains(time.Date(2026, 2, 28, 12, 0, 0, 0, loc)))

	open, err := ParseDateRange("", "", loc)
	require.NoError(t, err)
	assert.True(t, open.Contains(time.Now()))

	_, err = ParseDateRange("2026-04-01", "2026-03-01", loc)
	assert.Error(t, err)

	_, err = ParseDateRange("yesterday", "", loc)
	assert.Error(t, err)
}

func TestDeliveryTotalCost(t *testing.T) {
	d := Delivery{Quantity: 3}
	d.UnitCost = mustDecimal(t, "12.50")
	assert.Equal(t, "37.50", d.TotalCost().StringFixed(2))
}
