package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// ReceivableModel stores both receivable kinds in one table. Kind selects which
// of the card_* columns are meaningful; they stay zero for manual receivables.
type ReceivableModel struct {
	TenantAggregateModel
	BranchID              uuid.UUID                `gorm:"type:uuid;not null;index"`
	SaleID                *uuid.UUID               `gorm:"type:uuid;index"`
	ClientID              uuid.UUID                `gorm:"type:uuid;not null;index:idx_receivable_client_kind,priority:1"`
	ConsultantID          *uuid.UUID               `gorm:"type:uuid"`
	Kind                  finance.ReceivableKind   `gorm:"type:varchar(20);not null;index:idx_receivable_client_kind,priority:2"`
	AmountCents           int64                    `gorm:"not null"`
	AmountPaidCents       int64                    `gorm:"not null"`
	DueDate               string                   `gorm:"type:varchar(10);not null;index:idx_receivable_status_due,priority:2"`
	Status                finance.ReceivableStatus `gorm:"type:varchar(20);not null;index:idx_receivable_status_due,priority:1"`
	PaidAt                *time.Time
	CardInstallmentNumber int    `gorm:"not null"`
	CardTotalInstallments int    `gorm:"not null"`
	CardGrossCents        int64  `gorm:"not null"`
	CardFeesCents         int64  `gorm:"not null"`
	CardNetCents          int64  `gorm:"not null"`
	CardAnticipated       bool   `gorm:"not null"`
	CardAcquirer          string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable. An unknown
// kind is a data error and is reported rather than guessed.
func (m *ReceivableModel) ToDomain() (*finance.Receivable, error) {
	r := &finance.Receivable{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		BranchID:            m.BranchID,
		SaleID:              m.SaleID,
		ClientID:            m.ClientID,
		ConsultantID:        m.ConsultantID,
		AmountCents:         valueobject.Cents(m.AmountCents),
		AmountPaidCents:     valueobject.Cents(m.AmountPaidCents),
		DueDate:             valueobject.DateKey(m.DueDate),
		Status:              m.Status,
		PaidAt:              m.PaidAt,
	}
	switch m.Kind {
	case finance.ReceivableKindManual:
		r.Terms = finance.ManualTerms{}
	case finance.ReceivableKindCardInstallment:
		r.Terms = finance.CardInstallmentTerms{
			InstallmentNumber: m.CardInstallmentNumber,
			TotalInstallments: m.CardTotalInstallments,
			GrossCents:        valueobject.Cents(m.CardGrossCents),
			FeesCents:         valueobject.Cents(m.CardFeesCents),
			NetCents:          valueobject.Cents(m.CardNetCents),
			Anticipated:       m.CardAnticipated,
			Acquirer:          m.CardAcquirer,
		}
	default:
		return nil, fmt.Errorf("receivable %s has unknown kind %q", m.ID, m.Kind)
	}
	return r, nil
}

// FromDomain populates the persistence model from a domain Receivable
func (m *ReceivableModel) FromDomain(r *finance.Receivable) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.BranchID = r.BranchID
	m.SaleID = r.SaleID
	m.ClientID = r.ClientID
	m.ConsultantID = r.ConsultantID
	m.Kind = r.Kind()
	m.AmountCents = r.AmountCents.Int64()
	m.AmountPaidCents = r.AmountPaidCents.Int64()
	m.DueDate = r.DueDate.String()
	m.Status = r.Status
	m.PaidAt = r.PaidAt
	if card, ok := r.Terms.(finance.CardInstallmentTerms); ok {
		m.CardInstallmentNumber = card.InstallmentNumber
		m.CardTotalInstallments = card.TotalInstallments
		m.CardGrossCents = card.GrossCents.Int64()
		m.CardFeesCents = card.FeesCents.Int64()
		m.CardNetCents = card.NetCents.Int64()
		m.CardAnticipated = card.Anticipated
		m.CardAcquirer = card.Acquirer
	}
}

// ReceivableModelFromDomain creates a new persistence model from a domain Receivable
func ReceivableModelFromDomain(r *finance.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}
