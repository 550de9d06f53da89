package finance

import (
	"fmt"

	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// SplitCents distributes total across n installments without losing a cent.
// Every slot gets total/n; the first total%n slots get one extra cent, so
// the result is deterministic and sums exactly to total.
func SplitCents(total valueobject.Cents, n int) ([]valueobject.Cents, error) {
	if n < 1 {
		return nil, shared.NewInvalidArgument(fmt.Sprintf("installment count must be at least 1, got %d", n))
	}
	if total.IsNegative() {
		return nil, shared.NewInvalidArgument("amount to split cannot be negative")
	}

	base := total / valueobject.Cents(n)
	remainder := int(total % valueobject.Cents(n))

	parts := make([]valueobject.Cents, n)
	for i := range parts {
		parts[i] = base
		if i < remainder {
			parts[i]++
		}
	}
	return parts, nil
}

// NetOfFees pairs gross and fee splits slot by slot. A slot never goes below
// zero even if its fee share exceeds its gross share.
func NetOfFees(gross, fees []valueobject.Cents) []valueobject.Cents {
	net := make([]valueobject.Cents, len(gross))
	for i := range gross {
		var fee valueobject.Cents
		if i < len(fees) {
			fee = fees[i]
		}
		net[i] = (gross[i] - fee).ClampZero()
	}
	return net
}
