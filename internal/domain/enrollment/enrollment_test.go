package enrollment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollment_DeactivateFrom(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	e, err := NewEnrollment(uuid.New(), uuid.New(), uuid.New(), time.Monday, "2025-01-06", now)
	require.NoError(t, err)
	require.True(t, e.Active)

	assert.True(t, e.DeactivateFrom("2025-01-10", now))
	assert.False(t, e.Active)
	assert.Equal(t, valueobject.DateKey("2025-01-10"), e.EndDateKey)

	assert.False(t, e.DeactivateFrom("2025-01-11", now), "second call is a no-op")
	assert.Equal(t, valueobject.DateKey("2025-01-10"), e.EndDateKey)
}

func TestEnrollment_DeactivateBeforeStart(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	e, err := NewEnrollment(uuid.New(), uuid.New(), uuid.New(), time.Friday, "2025-02-07", now)
	require.NoError(t, err)

	assert.True(t, e.DeactivateFrom("2025-01-10", now))
	assert.Equal(t, valueobject.DateKey("2025-02-07"), e.EndDateKey)
}

func TestNewEnrollment_Validation(t *testing.T) {
	now := time.Now()
	_, err := NewEnrollment(uuid.Nil, uuid.New(), uuid.New(), time.Monday, "2025-01-06", now)
	assert.Error(t, err)
	_, err = NewEnrollment(uuid.New(), uuid.New(), uuid.New(), time.Monday, "06/01/2025", now)
	assert.Error(t, err)
}
