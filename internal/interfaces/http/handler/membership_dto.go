package handler

import (
	"time"

	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/membership"
)

// UpdateMembershipStatusRequest is the body of PUT .../memberships/{id}/status
type UpdateMembershipStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending active paused canceled expired" example:"canceled"`
}

// UpdateMembershipStatusResponse reports the applied transition. CascadeError
// is set when enrollments could not be deactivated inline; the outbox retries it.
type UpdateMembershipStatusResponse struct {
	MembershipID  string `json:"membership_id"`
	From          string `json:"from" example:"active"`
	To            string `json:"to" example:"canceled"`
	Changed       bool   `json:"changed"`
	EndAt         string `json:"end_at"`
	StatusDateKey string `json:"status_date_key"`
	CascadeError  string `json:"cascade_error,omitempty"`
}

func toUpdateStatusResponse(r *ledger.UpdateStatusResult) UpdateMembershipStatusResponse {
	resp := UpdateMembershipStatusResponse{
		MembershipID:  r.MembershipID.String(),
		From:          r.From.String(),
		To:            r.To.String(),
		Changed:       r.Changed,
		EndAt:         r.EndAt.String(),
		StatusDateKey: r.StatusDateKey.String(),
	}
	if r.CascadeError != nil {
		resp.CascadeError = r.CascadeError.Error()
	}
	return resp
}

// SuspendMembershipRequest is the body of POST .../memberships/{id}/suspensions
type SuspendMembershipRequest struct {
	StartDate string `json:"start_date" binding:"required,datekey" example:"2025-01-15"`
	Days      int    `json:"days" binding:"required,min=1,max=365" example:"10"`
	Reason    string `json:"reason" binding:"max=255" example:"travel"`
}

// AdjustMembershipRequest is the body of POST .../memberships/{id}/adjustments.
// Negative days shorten the membership.
type AdjustMembershipRequest struct {
	Days   int    `json:"days" binding:"required,min=-365,max=365" example:"7"`
	Reason string `json:"reason" binding:"max=255" example:"courtesy week"`
}

// EndingMembershipsQuery selects memberships ending in a date range
type EndingMembershipsQuery struct {
	Start string `form:"start" binding:"required" example:"2025-01-01"`
	End   string `form:"end" binding:"required" example:"2025-01-31"`
}

// SuspensionResponse is one suspension of a membership
type SuspensionResponse struct {
	ID            string    `json:"id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Days          int       `json:"days"`
	Reason        string    `json:"reason,omitempty"`
	PreviousEndAt string    `json:"previous_end_at"`
	NewEndAt      string    `json:"new_end_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSuspensionResponse(s *membership.Suspension) SuspensionResponse {
	return SuspensionResponse{
		ID:            s.ID.String(),
		StartDate:     s.StartDate.String(),
		EndDate:       s.EndDate.String(),
		Days:          s.Days,
		Reason:        s.Reason,
		PreviousEndAt: s.PreviousEndAt.String(),
		NewEndAt:      s.NewEndAt.String(),
		CreatedAt:     s.CreatedAt,
	}
}

// AdjustmentResponse is one manual change of a membership end date
type AdjustmentResponse struct {
	ID            string    `json:"id"`
	Days          int       `json:"days"`
	Reason        string    `json:"reason,omitempty"`
	PreviousEndAt string    `json:"previous_end_at"`
	NewEndAt      string    `json:"new_end_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAdjustmentResponse(a *membership.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:            a.ID.String(),
		Days:          a.Days,
		Reason:        a.Reason,
		PreviousEndAt: a.PreviousEndAt.String(),
		NewEndAt:      a.NewEndAt.String(),
		CreatedAt:     a.CreatedAt,
	}
}

// MembershipResponse is a membership and, on detail reads, its history
type MembershipResponse struct {
	ID                   string               `json:"id"`
	ClientID             string               `json:"client_id"`
	BranchID             string               `json:"branch_id"`
	PlanID               *string              `json:"plan_id,omitempty"`
	PlanName             string               `json:"plan_name"`
	PriceCents           int64                `json:"price_cents"`
	StartAt              string               `json:"start_at"`
	DurationType         string               `json:"duration_type"`
	Duration             int                  `json:"duration"`
	EndAt                string               `json:"end_at"`
	Status               string               `json:"status"`
	StatusDateKey        string               `json:"status_date_key"`
	PreviousMembershipID *string              `json:"previous_membership_id,omitempty"`
	NextMembershipID     *string              `json:"next_membership_id,omitempty"`
	SaleID               *string              `json:"sale_id,omitempty"`
	SuspensionDaysUsed   int                  `json:"suspension_days_used"`
	Version              int                  `json:"version"`
	Suspensions          []SuspensionResponse `json:"suspensions,omitempty"`
	Adjustments          []AdjustmentResponse `json:"adjustments,omitempty"`
}

func toMembershipResponse(m *membership.Membership) MembershipResponse {
	return MembershipResponse{
		ID:                   m.ID.String(),
		ClientID:             m.ClientID.String(),
		BranchID:             m.BranchID.String(),
		PlanID:               uuidPtrString(m.PlanID),
		PlanName:             m.PlanName,
		PriceCents:           m.PriceCents.Int64(),
		StartAt:              m.StartAt.String(),
		DurationType:         string(m.DurationType),
		Duration:             m.Duration,
		EndAt:                m.EndAt.String(),
		Status:               m.Status.String(),
		StatusDateKey:        m.StatusDateKey.String(),
		PreviousMembershipID: uuidPtrString(m.PreviousMembershipID),
		NextMembershipID:     uuidPtrString(m.NextMembershipID),
		SaleID:               uuidPtrString(m.SaleID),
		SuspensionDaysUsed:   m.SuspensionDaysUsed,
		Version:              m.Version,
	}
}
