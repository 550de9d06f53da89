package finance

import (
	"math/rand"
	"testing"

	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cents(values ...int64) []valueobject.Cents {
	out := make([]valueobject.Cents, len(values))
	for i, v := range values {
		out[i] = valueobject.Cents(v)
	}
	return out
}

func TestSplitCents_Examples(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  []valueobject.Cents
	}{
		{"front-loaded remainder", 100, 3, cents(34, 33, 33)},
		{"two extra cents", 10, 4, cents(3, 3, 2, 2)},
		{"even split", 30000, 3, cents(10000, 10000, 10000)},
		{"single installment", 999, 1, cents(999)},
		{"zero total", 0, 3, cents(0, 0, 0)},
		{"fewer cents than slots", 2, 5, cents(1, 1, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitCents(valueobject.Cents(tt.total), tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCents_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		total := valueobject.Cents(rng.Int63n(10_000_000))
		n := 1 + rng.Intn(36)

		parts, err := SplitCents(total, n)
		require.NoError(t, err)
		require.Len(t, parts, n)

		assert.Equal(t, total, valueobject.SumCents(parts...))

		lo, hi := parts[0], parts[0]
		for j, p := range parts {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
			if j > 0 {
				assert.LessOrEqual(t, p, parts[j-1], "larger slots come first")
			}
		}
		assert.LessOrEqual(t, hi-lo, valueobject.Cents(1))
	}
}

func TestSplitCents_InvalidArguments(t *testing.T) {
	_, err := SplitCents(100, 0)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = SplitCents(-1, 2)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
}

func TestNetOfFees(t *testing.T) {
	assert.Equal(t, cents(9700, 9700, 9700), NetOfFees(cents(10000, 10000, 10000), cents(300, 300, 300)))
	assert.Equal(t, cents(0, 5), NetOfFees(cents(3, 10), cents(4, 5)))
	assert.Equal(t, cents(7), NetOfFees(cents(7), nil))
}
