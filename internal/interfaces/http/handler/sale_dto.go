package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// SaleItemRequest is one line of a new sale
type SaleItemRequest struct {
	Type           string `json:"type" binding:"required,oneof=membership product service" example:"membership"`
	ReferenceID    string `json:"reference_id,omitempty" binding:"omitempty,uuid"`
	Description    string `json:"description" binding:"max=200" example:"Monthly plan"`
	Quantity       int    `json:"quantity" binding:"required,min=1" example:"1"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"gte=0" example:"15000"`
}

// SalePaymentRequest is a payment taken at the counter
type SalePaymentRequest struct {
	Method           string `json:"method" binding:"required,oneof=cash pix transfer credit debit" example:"credit"`
	AmountCents      int64  `json:"amount_cents" binding:"gte=0" example:"15000"`
	CardInstallments int    `json:"card_installments,omitempty" binding:"omitempty,min=1,max=24" example:"3"`
	CardFeeCents     int64  `json:"card_fee_cents,omitempty" binding:"gte=0" example:"450"`
	Acquirer         string `json:"acquirer,omitempty" binding:"max=50" example:"stone"`
	Anticipated      bool   `json:"anticipated,omitempty"`
}

// SaleMembershipRequest describes the membership sold with the sale
type SaleMembershipRequest struct {
	PlanID               string `json:"plan_id,omitempty" binding:"omitempty,uuid"`
	PlanName             string `json:"plan_name" binding:"max=100" example:"Monthly"`
	StartAt              string `json:"start_at" binding:"required,datekey" example:"2025-01-10"`
	DurationType         string `json:"duration_type" binding:"required,oneof=day week month year" example:"month"`
	Duration             int    `json:"duration" binding:"required,min=1" example:"1"`
	PreviousMembershipID string `json:"previous_membership_id,omitempty" binding:"omitempty,uuid"`
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	BranchID      string                 `json:"branch_id" binding:"required,uuid"`
	ClientID      string                 `json:"client_id" binding:"required,uuid"`
	ConsultantID  string                 `json:"consultant_id,omitempty" binding:"omitempty,uuid"`
	SaleDate      string                 `json:"sale_date,omitempty" binding:"omitempty,datekey" example:"2025-01-10"`
	Items         []SaleItemRequest      `json:"items" binding:"required,min=1,dive"`
	DiscountCents int64                  `json:"discount_cents,omitempty" binding:"gte=0"`
	Payments      []SalePaymentRequest   `json:"payments,omitempty" binding:"omitempty,dive"`
	Membership    *SaleMembershipRequest `json:"membership,omitempty"`
	ManualDueDate string                 `json:"manual_due_date,omitempty" binding:"omitempty,datekey" example:"2025-02-10"`
	Notes         string                 `json:"notes,omitempty" binding:"max=500"`
}

// toCommand converts the validated body into the service request
func (r CreateSaleRequest) toCommand(tenantID uuid.UUID, createdBy *uuid.UUID) ledger.CreateSaleRequest {
	cmd := ledger.CreateSaleRequest{
		TenantID:      tenantID,
		BranchID:      uuid.MustParse(r.BranchID),
		ClientID:      uuid.MustParse(r.ClientID),
		ConsultantID:  optionalUUID(r.ConsultantID),
		CreatedBy:     createdBy,
		SaleDate:      valueobject.DateKey(r.SaleDate),
		DiscountCents: valueobject.Cents(r.DiscountCents),
		ManualDueDate: valueobject.DateKey(r.ManualDueDate),
		Notes:         r.Notes,
		Items:         make([]sales.ItemInput, len(r.Items)),
		Payments:      make([]sales.SalePayment, len(r.Payments)),
	}
	for i, item := range r.Items {
		cmd.Items[i] = sales.ItemInput{
			Type:           sales.ItemType(item.Type),
			ReferenceID:    optionalUUID(item.ReferenceID),
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: valueobject.Cents(item.UnitPriceCents),
		}
	}
	for i, p := range r.Payments {
		cmd.Payments[i] = sales.SalePayment{
			Method:           sales.PaymentMethod(p.Method),
			AmountCents:      valueobject.Cents(p.AmountCents),
			CardInstallments: p.CardInstallments,
			CardFeeCents:     valueobject.Cents(p.CardFeeCents),
			Acquirer:         p.Acquirer,
			Anticipated:      p.Anticipated,
		}
	}
	if m := r.Membership; m != nil {
		cmd.Membership = &ledger.MembershipIntent{
			PlanID:               optionalUUID(m.PlanID),
			PlanName:             m.PlanName,
			StartAt:              valueobject.DateKey(m.StartAt),
			DurationType:         membership.DurationType(m.DurationType),
			Duration:             m.Duration,
			PreviousMembershipID: optionalUUID(m.PreviousMembershipID),
		}
	}
	return cmd
}

// CreateSaleResponse summarizes the recorded sale
type CreateSaleResponse struct {
	SaleID         string   `json:"sale_id"`
	Status         string   `json:"status" example:"open"`
	NetTotalCents  int64    `json:"net_total_cents" example:"15000"`
	RemainingCents int64    `json:"remaining_cents" example:"5000"`
	ReceivableIDs  []string `json:"receivable_ids"`
	MembershipID   *string  `json:"membership_id,omitempty"`
}

func toCreateSaleResponse(r *ledger.CreateSaleResult) CreateSaleResponse {
	return CreateSaleResponse{
		SaleID:         r.SaleID.String(),
		Status:         r.Status.String(),
		NetTotalCents:  r.NetTotalCents.Int64(),
		RemainingCents: r.RemainingCents.Int64(),
		ReceivableIDs:  uuidStrings(r.ReceivableIDs),
		MembershipID:   uuidPtrString(r.MembershipID),
	}
}

// SaleItemResponse is one line of a sale
type SaleItemResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	ReferenceID    *string `json:"reference_id,omitempty"`
	Description    string  `json:"description"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents"`
}

// SalePaymentResponse is a payment taken at the counter
type SalePaymentResponse struct {
	Method           string `json:"method"`
	AmountCents      int64  `json:"amount_cents"`
	CardInstallments int    `json:"card_installments,omitempty"`
	CardFeeCents     int64  `json:"card_fee_cents,omitempty"`
	Acquirer         string `json:"acquirer,omitempty"`
	Anticipated      bool   `json:"anticipated,omitempty"`
}

// SaleResponse is a recorded sale with its totals
type SaleResponse struct {
	ID                string                `json:"id"`
	BranchID          string                `json:"branch_id"`
	ClientID          string                `json:"client_id"`
	ConsultantID      *string               `json:"consultant_id,omitempty"`
	SaleDate          string                `json:"sale_date" example:"2025-01-10"`
	Items             []SaleItemResponse    `json:"items"`
	Payments          []SalePaymentResponse `json:"payments"`
	GrossTotalCents   int64                 `json:"gross_total_cents"`
	DiscountCents     int64                 `json:"discount_cents"`
	NetTotalCents     int64                 `json:"net_total_cents"`
	PaidTotalCents    int64                 `json:"paid_total_cents"`
	NetPaidTotalCents int64                 `json:"net_paid_total_cents"`
	RemainingCents    int64                 `json:"remaining_cents"`
	Status            string                `json:"status"`
	Notes             string                `json:"notes,omitempty"`
	Version           int                   `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func toSaleResponse(s *sales.Sale) SaleResponse {
	resp := SaleResponse{
		ID:                s.ID.String(),
		BranchID:          s.BranchID.String(),
		ClientID:          s.ClientID.String(),
		ConsultantID:      uuidPtrString(s.ConsultantID),
		SaleDate:          s.SaleDate.String(),
		Items:             make([]SaleItemResponse, len(s.Items)),
		Payments:          make([]SalePaymentResponse, len(s.Payments)),
		GrossTotalCents:   s.GrossTotalCents.Int64(),
		DiscountCents:     s.DiscountCents.Int64(),
		NetTotalCents:     s.NetTotalCents.Int64(),
		PaidTotalCents:    s.PaidTotalCents.Int64(),
		NetPaidTotalCents: s.NetPaidTotalCents.Int64(),
		RemainingCents:    s.RemainingCents.Int64(),
		Status:            s.Status.String(),
		Notes:             s.Notes,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for i, item := range s.Items {
		resp.Items[i] = SaleItemResponse{
			ID:             item.ID.String(),
			Type:           string(item.Type),
			ReferenceID:    uuidPtrString(item.ReferenceID),
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents.Int64(),
			TotalCents:     item.TotalCents.Int64(),
		}
	}
	for i, p := range s.Payments {
		resp.Payments[i] = SalePaymentResponse{
			Method:           string(p.Method),
			AmountCents:      p.AmountCents.Int64(),
			CardInstallments: p.CardInstallments,
			CardFeeCents:     p.CardFeeCents.Int64(),
			Acquirer:         p.Acquirer,
			Anticipated:      p.Anticipated,
		}
	}
	return resp
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
