package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// ReceivableStatus represents the status of a receivable
type ReceivableStatus string

const (
	ReceivableStatusPending  ReceivableStatus = "pending"
	ReceivableStatusPaid     ReceivableStatus = "paid"
	ReceivableStatusOverdue  ReceivableStatus = "overdue"
	ReceivableStatusCanceled ReceivableStatus = "canceled"
)

// IsValid checks if the status is a valid ReceivableStatus
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPaid, ReceivableStatusOverdue, ReceivableStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of ReceivableStatus
func (s ReceivableStatus) String() string {
	return string(s)
}

// IsOpen returns true while the receivable still accepts payments
func (s ReceivableStatus) IsOpen() bool {
	return s == ReceivableStatusPending || s == ReceivableStatusOverdue
}

// ReceivableKind is the discriminator persisted alongside the terms
type ReceivableKind string

const (
	ReceivableKindManual          ReceivableKind = "manual"
	ReceivableKindCardInstallment ReceivableKind = "card_installment"
)

// IsValid checks if the kind is known
func (k ReceivableKind) IsValid() bool {
	return k == ReceivableKindManual || k == ReceivableKindCardInstallment
}

// ReceivableTerms is the kind-specific payload of a receivable. It is a closed
// set: ManualTerms or CardInstallmentTerms.
type ReceivableTerms interface {
	Kind() ReceivableKind
	sealedTerms()
}

// ManualTerms is an obligation the client settles directly with the academy
// (deferred cash, pix or transfer). Manual receivables feed the client's debt.
type ManualTerms struct{}

// Kind returns ReceivableKindManual
func (ManualTerms) Kind() ReceivableKind { return ReceivableKindManual }

func (ManualTerms) sealedTerms() {}

// CardInstallmentTerms is one installment of a card payment, settled by the
// acquirer. Its amount is the net of fees.
type CardInstallmentTerms struct {
	InstallmentNumber int
	TotalInstallments int
	GrossCents        valueobject.Cents
	FeesCents         valueobject.Cents
	NetCents          valueobject.Cents
	Anticipated       bool
	Acquirer          string
}

// Kind returns ReceivableKindCardInstallment
func (CardInstallmentTerms) Kind() ReceivableKind { return ReceivableKindCardInstallment }

func (CardInstallmentTerms) sealedTerms() {}

// Receivable is one payment obligation derived from a sale
type Receivable struct {
	shared.TenantAggregateRoot
	BranchID        uuid.UUID
	SaleID          *uuid.UUID
	ClientID        uuid.UUID
	ConsultantID    *uuid.UUID
	Terms           ReceivableTerms
	AmountCents     valueobject.Cents
	AmountPaidCents valueobject.Cents
	DueDate         valueobject.DateKey
	Status          ReceivableStatus
	PaidAt          *time.Time
}

// ReceivableOrigin identifies who owes and where the obligation came from
type ReceivableOrigin struct {
	TenantID     uuid.UUID
	BranchID     uuid.UUID
	SaleID       *uuid.UUID
	ClientID     uuid.UUID
	ConsultantID *uuid.UUID
}

func (o ReceivableOrigin) validate() error {
	if o.TenantID == uuid.Nil {
		return shared.NewInvalidArgument("tenant ID cannot be empty")
	}
	if o.ClientID == uuid.Nil {
		return shared.NewInvalidArgument("client ID cannot be empty")
	}
	return nil
}

func newReceivable(origin ReceivableOrigin, terms ReceivableTerms, amount valueobject.Cents, due valueobject.DateKey, now time.Time) *Receivable {
	r := &Receivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(origin.TenantID, now),
		BranchID:            origin.BranchID,
		SaleID:              origin.SaleID,
		ClientID:            origin.ClientID,
		ConsultantID:        origin.ConsultantID,
		Terms:               terms,
		AmountCents:         amount,
		DueDate:             due,
		Status:              ReceivableStatusPending,
	}
	r.AddDomainEvent(NewReceivableCreatedEvent(r, now))
	return r
}

// NewManualReceivable creates a pending manual receivable
func NewManualReceivable(origin ReceivableOrigin, amount valueobject.Cents, due valueobject.DateKey, now time.Time) (*Receivable, error) {
	if err := origin.validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewInvalidArgument("manual receivable amount must be positive")
	}
	if !due.Valid() {
		return nil, shared.NewInvalidArgument("manual receivable requires a valid due date")
	}
	return newReceivable(origin, ManualTerms{}, amount, due, now), nil
}

// NewCardInstallmentReceivable creates a pending receivable for one card installment
func NewCardInstallmentReceivable(origin ReceivableOrigin, inst CardInstallment, anticipated bool, acquirer string, now time.Time) (*Receivable, error) {
	if err := origin.validate(); err != nil {
		return nil, err
	}
	if inst.Number < 1 || inst.Number > inst.Total {
		return nil, shared.NewInvalidArgument(fmt.Sprintf("installment %d of %d is out of range", inst.Number, inst.Total))
	}
	terms := CardInstallmentTerms{
		InstallmentNumber: inst.Number,
		TotalInstallments: inst.Total,
		GrossCents:        inst.GrossCents,
		FeesCents:         inst.FeesCents,
		NetCents:          inst.NetCents,
		Anticipated:       anticipated,
		Acquirer:          acquirer,
	}
	return newReceivable(origin, terms, inst.NetCents, inst.DueDate, now), nil
}

// Kind returns the discriminator of the receivable's terms
func (r *Receivable) Kind() ReceivableKind {
	return r.Terms.Kind()
}

// RemainingCents is what is still owed
func (r *Receivable) RemainingCents() valueobject.Cents {
	return (r.AmountCents - r.AmountPaidCents).ClampZero()
}

// PaymentOutcome reports what ApplyPayment actually did
type PaymentOutcome struct {
	AppliedCents valueobject.Cents
	Settled      bool
}

// ApplyPayment applies up to amount to the receivable. Overpayment is capped
// to the remaining balance; a fully paid receivable applies nothing and stays
// unchanged. PaidAt is only stamped on the transition into paid.
func (r *Receivable) ApplyPayment(amount valueobject.Cents, paidAt time.Time) (PaymentOutcome, error) {
	if !amount.IsPositive() {
		return PaymentOutcome{}, shared.NewInvalidArgument("payment amount must be positive")
	}
	if r.Status == ReceivableStatusCanceled {
		return PaymentOutcome{}, shared.NewDomainError(shared.CodeInvalidState, "cannot apply payment to a canceled receivable")
	}

	applied := r.RemainingCents().Min(amount)
	if applied == 0 {
		return PaymentOutcome{}, nil
	}

	r.AmountPaidCents += applied
	outcome := PaymentOutcome{AppliedCents: applied}
	if r.AmountPaidCents >= r.AmountCents && !r.IsPaid() {
		r.Status = ReceivableStatusPaid
		at := paidAt
		r.PaidAt = &at
		outcome.Settled = true
	}
	r.Touch(paidAt)
	r.IncrementVersion()

	r.AddDomainEvent(NewReceivablePaymentAppliedEvent(r, applied, paidAt))
	if outcome.Settled {
		r.AddDomainEvent(NewReceivableSettledEvent(r, paidAt))
	}
	return outcome, nil
}

// MarkOverdue flips a pending receivable whose due date is before asOf.
// It returns false when nothing changed.
func (r *Receivable) MarkOverdue(asOf valueobject.DateKey, now time.Time) bool {
	if r.Status != ReceivableStatusPending || !r.DueDate.Before(asOf) {
		return false
	}
	r.Status = ReceivableStatusOverdue
	r.Touch(now)
	r.IncrementVersion()
	r.AddDomainEvent(NewReceivableOverdueEvent(r, asOf, now))
	return true
}

// IsPaid returns true if the receivable is settled
func (r *Receivable) IsPaid() bool {
	return r.Status == ReceivableStatusPaid
}
