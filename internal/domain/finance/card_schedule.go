package finance

import (
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// CardScheduleInput describes one card payment to be broken into installments
type CardScheduleInput struct {
	GrossCents   valueobject.Cents
	FeeCents     valueobject.Cents
	Installments int
	SaleDate     valueobject.DateKey
	Anticipated  bool
}

// CardInstallment is one line of a card payment schedule
type CardInstallment struct {
	Number     int
	Total      int
	GrossCents valueobject.Cents
	FeesCents  valueobject.Cents
	NetCents   valueobject.Cents
	DueDate    valueobject.DateKey
}

// BuildCardSchedule splits gross and fee independently and dates each
// installment. Anticipated payments are all due on the sale date; otherwise
// installment i is due i months after the sale date. A zero amount payment
// yields no installments.
func BuildCardSchedule(in CardScheduleInput) ([]CardInstallment, error) {
	if in.GrossCents.IsNegative() || in.FeeCents.IsNegative() {
		return nil, shared.NewInvalidArgument("card amounts cannot be negative")
	}
	if !in.SaleDate.Valid() {
		return nil, shared.NewInvalidArgument("card schedule requires a valid sale date")
	}
	if in.GrossCents == 0 {
		return nil, nil
	}

	gross, err := SplitCents(in.GrossCents, in.Installments)
	if err != nil {
		return nil, err
	}
	fees, err := SplitCents(in.FeeCents, in.Installments)
	if err != nil {
		return nil, err
	}
	net := NetOfFees(gross, fees)

	schedule := make([]CardInstallment, in.Installments)
	for i := range schedule {
		number := i + 1
		due := in.SaleDate
		if !in.Anticipated {
			due = in.SaleDate.AddMonths(number)
		}
		schedule[i] = CardInstallment{
			Number:     number,
			Total:      in.Installments,
			GrossCents: gross[i],
			FeesCents:  fees[i],
			NetCents:   net[i],
			DueDate:    due,
		}
	}
	return schedule, nil
}
