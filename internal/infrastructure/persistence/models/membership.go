package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// MembershipModel is the persistence model for the Membership aggregate root
type MembershipModel struct {
	TenantAggregateModel
	ClientID             uuid.UUID               `gorm:"type:uuid;not null;index"`
	BranchID             uuid.UUID               `gorm:"type:uuid;not null;index:idx_membership_branch_end,priority:1"`
	PlanID               *uuid.UUID              `gorm:"type:uuid"`
	PlanName             string                  `gorm:"type:varchar(200)"`
	PriceCents           int64                   `gorm:"not null"`
	StartAt              string                  `gorm:"type:varchar(10);not null"`
	DurationType         membership.DurationType `gorm:"type:varchar(10);not null"`
	Duration             int                     `gorm:"not null"`
	EndAt                string                  `gorm:"type:varchar(10);not null;index:idx_membership_branch_end,priority:2"`
	Status               membership.Status       `gorm:"type:varchar(20);not null"`
	StatusDateKey        string                  `gorm:"type:varchar(10)"`
	PreviousMembershipID *uuid.UUID              `gorm:"type:uuid"`
	NextMembershipID     *uuid.UUID              `gorm:"type:uuid"`
	SaleID               *uuid.UUID              `gorm:"type:uuid;index"`
	SuspensionDaysUsed   int                     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "memberships"
}

// ToDomain converts the persistence model to a domain Membership
func (m *MembershipModel) ToDomain() *membership.Membership {
	return &membership.Membership{
		TenantAggregateRoot:  m.ToDomainTenantAggregateRoot(),
		ClientID:             m.ClientID,
		BranchID:             m.BranchID,
		PlanID:               m.PlanID,
		PlanName:             m.PlanName,
		PriceCents:           valueobject.Cents(m.PriceCents),
		StartAt:              valueobject.DateKey(m.StartAt),
		DurationType:         m.DurationType,
		Duration:             m.Duration,
		EndAt:                valueobject.DateKey(m.EndAt),
		Status:               m.Status,
		StatusDateKey:        valueobject.DateKey(m.StatusDateKey),
		PreviousMembershipID: m.PreviousMembershipID,
		NextMembershipID:     m.NextMembershipID,
		SaleID:               m.SaleID,
		SuspensionDaysUsed:   m.SuspensionDaysUsed,
	}
}

// FromDomain populates the persistence model from a domain Membership
func (m *MembershipModel) FromDomain(ms *membership.Membership) {
	m.FromDomainTenantAggregateRoot(ms.TenantAggregateRoot)
	m.ClientID = ms.ClientID
	m.BranchID = ms.BranchID
	m.PlanID = ms.PlanID
	m.PlanName = ms.PlanName
	m.PriceCents = ms.PriceCents.Int64()
	m.StartAt = ms.StartAt.String()
	m.DurationType = ms.DurationType
	m.Duration = ms.Duration
	m.EndAt = ms.EndAt.String()
	m.Status = ms.Status
	m.StatusDateKey = ms.StatusDateKey.String()
	m.PreviousMembershipID = ms.PreviousMembershipID
	m.NextMembershipID = ms.NextMembershipID
	m.SaleID = ms.SaleID
	m.SuspensionDaysUsed = ms.SuspensionDaysUsed
}

// MembershipModelFromDomain creates a new persistence model from a domain Membership
func MembershipModelFromDomain(ms *membership.Membership) *MembershipModel {
	m := &MembershipModel{}
	m.FromDomain(ms)
	return m
}

// MembershipSuspensionModel is an append-only suspension record
type MembershipSuspensionModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	MembershipID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate     string    `gorm:"type:varchar(10);not null"`
	EndDate       string    `gorm:"type:varchar(10);not null"`
	Days          int       `gorm:"not null"`
	Reason        string    `gorm:"type:varchar(500)"`
	PreviousEndAt string    `gorm:"type:varchar(10);not null"`
	NewEndAt      string    `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MembershipSuspensionModel) TableName() string {
	return "membership_suspensions"
}

// ToDomain converts the persistence model to a domain Suspension
func (m *MembershipSuspensionModel) ToDomain() membership.Suspension {
	return membership.Suspension{
		ID:            m.ID,
		TenantID:      m.TenantID,
		MembershipID:  m.MembershipID,
		StartDate:     valueobject.DateKey(m.StartDate),
		EndDate:       valueobject.DateKey(m.EndDate),
		Days:          m.Days,
		Reason:        m.Reason,
		PreviousEndAt: valueobject.DateKey(m.PreviousEndAt),
		NewEndAt:      valueobject.DateKey(m.NewEndAt),
		CreatedAt:     m.CreatedAt,
	}
}

// MembershipSuspensionModelFromDomain maps a suspension record
func MembershipSuspensionModelFromDomain(s *membership.Suspension) *MembershipSuspensionModel {
	return &MembershipSuspensionModel{
		ID:            s.ID,
		TenantID:      s.TenantID,
		MembershipID:  s.MembershipID,
		StartDate:     s.StartDate.String(),
		EndDate:       s.EndDate.String(),
		Days:          s.Days,
		Reason:        s.Reason,
		PreviousEndAt: s.PreviousEndAt.String(),
		NewEndAt:      s.NewEndAt.String(),
		CreatedAt:     s.CreatedAt,
	}
}

// MembershipAdjustmentModel is an append-only manual end date change
type MembershipAdjustmentModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	MembershipID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Days          int       `gorm:"not null"`
	Reason        string    `gorm:"type:varchar(500)"`
	PreviousEndAt string    `gorm:"type:varchar(10);not null"`
	NewEndAt      string    `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MembershipAdjustmentModel) TableName() string {
	return "membership_adjustments"
}

// ToDomain converts the persistence model to a domain Adjustment
func (m *MembershipAdjustmentModel) ToDomain() membership.Adjustment {
	return membership.Adjustment{
		ID:            m.ID,
		TenantID:      m.TenantID,
		MembershipID:  m.MembershipID,
		Days:          m.Days,
		Reason:        m.Reason,
		PreviousEndAt: valueobject.DateKey(m.PreviousEndAt),
		NewEndAt:      valueobject.DateKey(m.NewEndAt),
		CreatedAt:     m.CreatedAt,
	}
}

// MembershipAdjustmentModelFromDomain maps an adjustment record
func MembershipAdjustmentModelFromDomain(a *membership.Adjustment) *MembershipAdjustmentModel {
	return &MembershipAdjustmentModel{
		ID:            a.ID,
		TenantID:      a.TenantID,
		MembershipID:  a.MembershipID,
		Days:          a.Days,
		Reason:        a.Reason,
		PreviousEndAt: a.PreviousEndAt.String(),
		NewEndAt:      a.NewEndAt.String(),
		CreatedAt:     a.CreatedAt,
	}
}
