package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// SaleModel is the persistence model for the Sale aggregate root
type SaleModel struct {
	TenantAggregateModel
	BranchID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	ClientID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	ConsultantID      *uuid.UUID         `gorm:"type:uuid"`
	SaleDate          string             `gorm:"type:varchar(10);not null;index"`
	Items             []SaleItemModel    `gorm:"foreignKey:SaleID;references:ID"`
	Payments          []SalePaymentModel `gorm:"foreignKey:SaleID;references:ID"`
	GrossTotalCents   int64              `gorm:"not null"`
	DiscountCents     int64              `gorm:"not null"`
	NetTotalCents     int64              `gorm:"not null"`
	PaidTotalCents    int64              `gorm:"not null"`
	NetPaidTotalCents int64              `gorm:"not null"`
	RemainingCents    int64              `gorm:"not null"`
	Status            sales.SaleStatus   `gorm:"type:varchar(20);not null"`
	Notes             string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		BranchID:            m.BranchID,
		ClientID:            m.ClientID,
		ConsultantID:        m.ConsultantID,
		SaleDate:            valueobject.DateKey(m.SaleDate),
		GrossTotalCents:     valueobject.Cents(m.GrossTotalCents),
		DiscountCents:       valueobject.Cents(m.DiscountCents),
		NetTotalCents:       valueobject.Cents(m.NetTotalCents),
		PaidTotalCents:      valueobject.Cents(m.PaidTotalCents),
		NetPaidTotalCents:   valueobject.Cents(m.NetPaidTotalCents),
		RemainingCents:      valueobject.Cents(m.RemainingCents),
		Status:              m.Status,
		Notes:               m.Notes,
		Items:               make([]sales.SaleItem, len(m.Items)),
		Payments:            make([]sales.SalePayment, len(m.Payments)),
	}
	for i, item := range m.Items {
		s.Items[i] = item.ToDomain()
	}
	for i, p := range m.Payments {
		s.Payments[i] = p.ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.BranchID = s.BranchID
	m.ClientID = s.ClientID
	m.ConsultantID = s.ConsultantID
	m.SaleDate = s.SaleDate.String()
	m.GrossTotalCents = s.GrossTotalCents.Int64()
	m.DiscountCents = s.DiscountCents.Int64()
	m.NetTotalCents = s.NetTotalCents.Int64()
	m.PaidTotalCents = s.PaidTotalCents.Int64()
	m.NetPaidTotalCents = s.NetPaidTotalCents.Int64()
	m.RemainingCents = s.RemainingCents.Int64()
	m.Status = s.Status
	m.Notes = s.Notes
	m.Items = make([]SaleItemModel, len(s.Items))
	for i, item := range s.Items {
		m.Items[i] = SaleItemModelFromDomain(s, item)
	}
	m.Payments = make([]SalePaymentModel, len(s.Payments))
	for i, p := range s.Payments {
		m.Payments[i] = SalePaymentModelFromDomain(s, i, p)
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleItemModel is one line of a sale
type SaleItemModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SaleID         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type           sales.ItemType `gorm:"type:varchar(20);not null"`
	ReferenceID    *uuid.UUID     `gorm:"type:uuid"`
	Description    string         `gorm:"type:varchar(200)"`
	Quantity       int            `gorm:"not null"`
	UnitPriceCents int64          `gorm:"not null"`
	TotalCents     int64          `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem
func (m *SaleItemModel) ToDomain() sales.SaleItem {
	return sales.SaleItem{
		ID:             m.ID,
		Type:           m.Type,
		ReferenceID:    m.ReferenceID,
		Description:    m.Description,
		Quantity:       m.Quantity,
		UnitPriceCents: valueobject.Cents(m.UnitPriceCents),
		TotalCents:     valueobject.Cents(m.TotalCents),
	}
}

// SaleItemModelFromDomain maps a sale line
func SaleItemModelFromDomain(s *sales.Sale, item sales.SaleItem) SaleItemModel {
	return SaleItemModel{
		ID:             item.ID,
		SaleID:         s.ID,
		Type:           item.Type,
		ReferenceID:    item.ReferenceID,
		Description:    item.Description,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents.Int64(),
		TotalCents:     item.TotalCents.Int64(),
		CreatedAt:      s.CreatedAt,
	}
}

// SalePaymentModel is a payment taken at the point of sale
type SalePaymentModel struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SaleID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position         int                 `gorm:"not null"`
	Method           sales.PaymentMethod `gorm:"type:varchar(20);not null"`
	AmountCents      int64               `gorm:"not null"`
	CardInstallments int                 `gorm:"not null"`
	CardFeeCents     int64               `gorm:"not null"`
	Acquirer         string              `gorm:"type:varchar(100)"`
	Anticipated      bool                `gorm:"not null"`
	CreatedAt        time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalePaymentModel) TableName() string {
	return "sale_payments"
}

// ToDomain converts the persistence model to a domain SalePayment
func (m *SalePaymentModel) ToDomain() sales.SalePayment {
	return sales.SalePayment{
		Method:           m.Method,
		AmountCents:      valueobject.Cents(m.AmountCents),
		CardInstallments: m.CardInstallments,
		CardFeeCents:     valueobject.Cents(m.CardFeeCents),
		Acquirer:         m.Acquirer,
		Anticipated:      m.Anticipated,
	}
}

// SalePaymentModelFromDomain maps the payment at position i of the sale
func SalePaymentModelFromDomain(s *sales.Sale, i int, p sales.SalePayment) SalePaymentModel {
	return SalePaymentModel{
		ID:               uuid.New(),
		SaleID:           s.ID,
		Position:         i,
		Method:           p.Method,
		AmountCents:      p.AmountCents.Int64(),
		CardInstallments: p.CardInstallments,
		CardFeeCents:     p.CardFeeCents.Int64(),
		Acquirer:         p.Acquirer,
		Anticipated:      p.Anticipated,
		CreatedAt:        s.CreatedAt,
	}
}
