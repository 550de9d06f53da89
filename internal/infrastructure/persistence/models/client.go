package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// ClientModel stores the ledger projection of a gym client
type ClientModel struct {
	TenantAggregateModel
	BranchID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name                  string     `gorm:"type:varchar(200);not null"`
	DebtCents             int64      `gorm:"not null"`
	DebtSaleID            *uuid.UUID `gorm:"type:uuid"`
	ActiveMembershipID    *uuid.UUID `gorm:"type:uuid"`
	ActiveSaleID          *uuid.UUID `gorm:"type:uuid"`
	ScheduledMembershipID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		TenantAggregateRoot:   m.ToDomainTenantAggregateRoot(),
		BranchID:              m.BranchID,
		Name:                  m.Name,
		DebtCents:             valueobject.Cents(m.DebtCents),
		DebtSaleID:            m.DebtSaleID,
		ActiveMembershipID:    m.ActiveMembershipID,
		ActiveSaleID:          m.ActiveSaleID,
		ScheduledMembershipID: m.ScheduledMembershipID,
	}
}

// FromDomain populates the persistence model from a domain Client
func (m *ClientModel) FromDomain(c *client.Client) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.BranchID = c.BranchID
	m.Name = c.Name
	m.DebtCents = c.DebtCents.Int64()
	m.DebtSaleID = c.DebtSaleID
	m.ActiveMembershipID = c.ActiveMembershipID
	m.ActiveSaleID = c.ActiveSaleID
	m.ScheduledMembershipID = c.ScheduledMembershipID
}

// ClientModelFromDomain creates a new persistence model from a domain Client
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// EnrollmentModel is a weekly class booking
type EnrollmentModel struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollment_client_active,priority:1"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollment_client_active,priority:2"`
	ClassID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Weekday      int       `gorm:"not null"`
	StartDateKey string    `gorm:"type:varchar(10);not null"`
	EndDateKey   string    `gorm:"type:varchar(10)"`
	Active       bool      `gorm:"not null;index:idx_enrollment_client_active,priority:3"`
}

// TableName returns the table name for GORM
func (EnrollmentModel) TableName() string {
	return "class_enrollments"
}

// ToDomain converts the persistence model to a domain Enrollment
func (m *EnrollmentModel) ToDomain() *enrollment.Enrollment {
	return &enrollment.Enrollment{
		BaseEntity:   shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:     m.TenantID,
		ClientID:     m.ClientID,
		ClassID:      m.ClassID,
		Weekday:      time.Weekday(m.Weekday),
		StartDateKey: valueobject.DateKey(m.StartDateKey),
		EndDateKey:   valueobject.DateKey(m.EndDateKey),
		Active:       m.Active,
	}
}

// EnrollmentModelFromDomain creates a new persistence model from a domain Enrollment
func EnrollmentModelFromDomain(e *enrollment.Enrollment) *EnrollmentModel {
	m := &EnrollmentModel{
		TenantID:     e.TenantID,
		ClientID:     e.ClientID,
		ClassID:      e.ClassID,
		Weekday:      int(e.Weekday),
		StartDateKey: e.StartDateKey.String(),
		EndDateKey:   e.EndDateKey.String(),
		Active:       e.Active,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
