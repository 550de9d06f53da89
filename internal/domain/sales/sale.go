package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusOpen     SaleStatus = "open"
	SaleStatusPaid     SaleStatus = "paid"
	SaleStatusCanceled SaleStatus = "canceled"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusOpen, SaleStatusPaid, SaleStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// ItemType is what a sale line sells
type ItemType string

const (
	ItemTypeMembership ItemType = "membership"
	ItemTypeProduct    ItemType = "product"
	ItemTypeService    ItemType = "service"
)

// IsValid checks if the item type is known
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeMembership, ItemTypeProduct, ItemTypeService:
		return true
	}
	return false
}

// PaymentMethod is how a sale payment was made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodPix      PaymentMethod = "pix"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCredit   PaymentMethod = "credit"
	PaymentMethodDebit    PaymentMethod = "debit"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodPix, PaymentMethodTransfer, PaymentMethodCredit, PaymentMethodDebit:
		return true
	}
	return false
}

// IsCard returns true for credit and debit
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCredit || m == PaymentMethodDebit
}

// SaleItem is one line of a sale
type SaleItem struct {
	ID             uuid.UUID
	Type           ItemType
	ReferenceID    *uuid.UUID
	Description    string
	Quantity       int
	UnitPriceCents valueobject.Cents
	TotalCents     valueobject.Cents
}

// SalePayment is a payment taken at the point of sale. Card fields are only
// meaningful for credit and debit.
type SalePayment struct {
	Method           PaymentMethod
	AmountCents      valueobject.Cents
	CardInstallments int
	CardFeeCents     valueobject.Cents
	Acquirer         string
	Anticipated      bool
}

// Installments returns the number of card installments (1 for debit)
func (p SalePayment) Installments() int {
	if p.Method == PaymentMethodDebit {
		return 1
	}
	return p.CardInstallments
}

func (p SalePayment) validate(index int) error {
	if !p.Method.IsValid() {
		return shared.NewInvalidArgument(fmt.Sprintf("payment %d: invalid method %q", index, p.Method))
	}
	if p.AmountCents.IsNegative() {
		return shared.NewInvalidArgument(fmt.Sprintf("payment %d: amount cannot be negative", index))
	}
	if !p.Method.IsCard() {
		return nil
	}
	if p.Method == PaymentMethodCredit && p.CardInstallments < 1 {
		return shared.NewInvalidArgument(fmt.Sprintf("payment %d: credit payments need at least 1 installment", index))
	}
	if p.CardFeeCents.IsNegative() {
		return shared.NewInvalidArgument(fmt.Sprintf("payment %d: card fee cannot be negative", index))
	}
	if p.CardFeeCents > p.AmountCents {
		return shared.NewInvalidArgument(fmt.Sprintf("payment %d: card fee exceeds payment amount", index))
	}
	return nil
}

// Sale is one purchase event at the front desk
type Sale struct {
	shared.TenantAggregateRoot
	BranchID          uuid.UUID
	ClientID          uuid.UUID
	ConsultantID      *uuid.UUID
	SaleDate          valueobject.DateKey
	Items             []SaleItem
	Payments          []SalePayment
	GrossTotalCents   valueobject.Cents
	DiscountCents     valueobject.Cents
	NetTotalCents     valueobject.Cents
	PaidTotalCents    valueobject.Cents
	NetPaidTotalCents valueobject.Cents
	RemainingCents    valueobject.Cents
	Status            SaleStatus
	Notes             string
}

// ItemInput describes a line to be sold
type ItemInput struct {
	Type           ItemType
	ReferenceID    *uuid.UUID
	Description    string
	Quantity       int
	UnitPriceCents valueobject.Cents
}

// NewSaleParams holds everything needed to open a sale
type NewSaleParams struct {
	TenantID      uuid.UUID
	BranchID      uuid.UUID
	ClientID      uuid.UUID
	ConsultantID  *uuid.UUID
	SaleDate      valueobject.DateKey
	Items         []ItemInput
	DiscountCents valueobject.Cents
	Payments      []SalePayment
	Notes         string
}

// NewSale validates the input and computes the sale totals. Every payment
// taken at the point of sale counts as paid; card payments are settled later
// by the acquirer through their installment receivables.
func NewSale(p NewSaleParams, now time.Time) (*Sale, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewInvalidArgument("tenant ID cannot be empty")
	}
	if p.ClientID == uuid.Nil {
		return nil, shared.NewInvalidArgument("client ID cannot be empty")
	}
	if !p.SaleDate.Valid() {
		return nil, shared.NewInvalidArgument("sale date must be a valid YYYY-MM-DD date")
	}
	if len(p.Items) == 0 {
		return nil, shared.NewInvalidArgument("sale must have at least one item")
	}
	if p.DiscountCents.IsNegative() {
		return nil, shared.NewInvalidArgument("discount cannot be negative")
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID, now),
		BranchID:            p.BranchID,
		ClientID:            p.ClientID,
		ConsultantID:        p.ConsultantID,
		SaleDate:            p.SaleDate,
		DiscountCents:       p.DiscountCents,
		Notes:               p.Notes,
	}

	for i, in := range p.Items {
		if !in.Type.IsValid() {
			return nil, shared.NewInvalidArgument(fmt.Sprintf("item %d: invalid type %q", i, in.Type))
		}
		if in.Quantity < 1 {
			return nil, shared.NewInvalidArgument(fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if in.UnitPriceCents.IsNegative() {
			return nil, shared.NewInvalidArgument(fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		item := SaleItem{
			ID:             uuid.New(),
			Type:           in.Type,
			ReferenceID:    in.ReferenceID,
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitPriceCents: in.UnitPriceCents,
			TotalCents:     in.UnitPriceCents * valueobject.Cents(in.Quantity),
		}
		sale.Items = append(sale.Items, item)
		sale.GrossTotalCents += item.TotalCents
	}

	if p.DiscountCents > sale.GrossTotalCents {
		return nil, shared.NewInvalidArgument("discount cannot exceed the gross total")
	}
	sale.NetTotalCents = sale.GrossTotalCents - p.DiscountCents

	for i, pay := range p.Payments {
		if err := pay.validate(i); err != nil {
			return nil, err
		}
		if pay.Method == PaymentMethodDebit {
			pay.CardInstallments = 1
		}
		if !pay.Method.IsCard() {
			pay.CardInstallments = 0
			pay.CardFeeCents = 0
			pay.Anticipated = false
			sale.NetPaidTotalCents += pay.AmountCents
		}
		sale.Payments = append(sale.Payments, pay)
		sale.PaidTotalCents += pay.AmountCents
	}

	sale.RemainingCents = (sale.NetTotalCents - sale.PaidTotalCents).ClampZero()
	sale.Status = SaleStatusOpen
	if sale.RemainingCents == 0 {
		sale.Status = SaleStatusPaid
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale, now))
	return sale, nil
}

// MembershipItem returns the first membership line, if any
func (s *Sale) MembershipItem() (SaleItem, bool) {
	for _, it := range s.Items {
		if it.Type == ItemTypeMembership {
			return it, true
		}
	}
	return SaleItem{}, false
}

// CardPayments returns the credit and debit payments with a positive amount
func (s *Sale) CardPayments() []SalePayment {
	var out []SalePayment
	for _, p := range s.Payments {
		if p.Method.IsCard() && p.AmountCents.IsPositive() {
			out = append(out, p)
		}
	}
	return out
}

// ApplyReceivablePayment propagates a receivable payment to the sale.
// manual is true when the receivable was a manual one; only those count
// towards NetPaidTotalCents.
func (s *Sale) ApplyReceivablePayment(applied valueobject.Cents, manual bool, now time.Time) error {
	if applied.IsNegative() {
		return shared.NewInvalidArgument("applied amount cannot be negative")
	}
	if applied == 0 {
		return nil
	}

	wasPaid := s.Status == SaleStatusPaid
	s.PaidTotalCents += applied
	if manual {
		s.NetPaidTotalCents += applied
	}
	s.RemainingCents = (s.RemainingCents - applied).ClampZero()
	if s.Status != SaleStatusCanceled {
		if s.RemainingCents == 0 {
			s.Status = SaleStatusPaid
		} else {
			s.Status = SaleStatusOpen
		}
	}
	s.Touch(now)
	s.IncrementVersion()

	if !wasPaid && s.Status == SaleStatusPaid {
		s.AddDomainEvent(NewSalePaidEvent(s, now))
	}
	return nil
}
