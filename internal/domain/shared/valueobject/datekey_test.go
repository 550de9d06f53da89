package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateKey(t *testing.T) {
	k, err := ParseDateKey("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, DateKey("2025-01-10"), k)

	for _, bad := range []string{"", "2025-1-10", "2025-02-30", "10/01/2025", "2025-01-10T00:00:00Z"} {
		_, err := ParseDateKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateKeyOf(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	instant := time.Date(2025, 1, 11, 1, 30, 0, 0, time.UTC)

	assert.Equal(t, DateKey("2025-01-11"), DateKeyOf(instant, time.UTC))
	assert.Equal(t, DateKey("2025-01-10"), DateKeyOf(instant, saoPaulo))
	assert.Equal(t, DateKey("2025-01-11"), DateKeyOf(instant, nil))
}

func TestDateKey_AddMonths(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2025-01-10", 1, "2025-02-10"},
		{"2025-01-10", 3, "2025-04-10"},
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-11-15", 2, "2026-01-15"},
		{"2025-03-31", -1, "2025-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, DateKey(tt.want), MustParseDateKey(tt.from).AddMonths(tt.months))
		})
	}
}

func TestDateKey_AddYears(t *testing.T) {
	assert.Equal(t, DateKey("2025-02-28"), MustParseDateKey("2024-02-29").AddYears(1))
	assert.Equal(t, DateKey("2026-01-01"), MustParseDateKey("2025-01-01").AddYears(1))
}

func TestDateKey_AddDays(t *testing.T) {
	assert.Equal(t, DateKey("2025-01-31"), MustParseDateKey("2025-02-01").AddDays(-1))
	assert.Equal(t, DateKey("2025-03-01"), MustParseDateKey("2025-02-22").AddDays(7))
	assert.Equal(t, DateKey("2024-12-31"), MustParseDateKey("2025-01-01").AddDays(-1))
}

func TestDateKey_Compare(t *testing.T) {
	a := MustParseDateKey("2025-01-09")
	b := MustParseDateKey("2025-01-10")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
	assert.True(t, DateKey("").IsZero())
	assert.False(t, DateKey("nope").Valid())
}
