package ledger

import (
	"time"

	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Calendar resolves the current instant and the current date key in the
// academy's timezone. "Today" drives membership activation and end dates.
type Calendar struct {
	clock shared.Clock
	loc   *time.Location
}

// NewCalendar creates a Calendar. A nil location means UTC.
func NewCalendar(clock shared.Clock, loc *time.Location) Calendar {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{clock: clock, loc: loc}
}

// Now returns the current instant
func (c Calendar) Now() time.Time {
	return c.clock.Now()
}

// Today returns the current calendar date in the configured timezone
func (c Calendar) Today() valueobject.DateKey {
	return valueobject.DateKeyOf(c.clock.Now(), c.loc)
}
