package handler

import (
	"time"

	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/finance"
)

// CardInstallmentResponse carries the card terms of a card installment receivable
type CardInstallmentResponse struct {
	InstallmentNumber int    `json:"installment_number" example:"1"`
	TotalInstallments int    `json:"total_installments" example:"3"`
	GrossCents        int64  `json:"gross_cents"`
	FeesCents         int64  `json:"fees_cents"`
	NetCents          int64  `json:"net_cents"`
	Anticipated       bool   `json:"anticipated"`
	Acquirer          string `json:"acquirer,omitempty"`
}

// ReceivableResponse is a receivable with its remaining balance
type ReceivableResponse struct {
	ID              string                   `json:"id"`
	BranchID        string                   `json:"branch_id"`
	SaleID          *string                  `json:"sale_id,omitempty"`
	ClientID        string                   `json:"client_id"`
	ConsultantID    *string                  `json:"consultant_id,omitempty"`
	Kind            string                   `json:"kind" example:"manual"`
	Card            *CardInstallmentResponse `json:"card,omitempty"`
	AmountCents     int64                    `json:"amount_cents"`
	AmountPaidCents int64                    `json:"amount_paid_cents"`
	RemainingCents  int64                    `json:"remaining_cents"`
	DueDate         string                   `json:"due_date" example:"2025-02-10"`
	Status          string                   `json:"status" example:"pending"`
	PaidAt          *time.Time               `json:"paid_at,omitempty"`
	Version         int                      `json:"version"`
}

func toReceivableResponse(r *finance.Receivable) ReceivableResponse {
	resp := ReceivableResponse{
		ID:              r.ID.String(),
		BranchID:        r.BranchID.String(),
		SaleID:          uuidPtrString(r.SaleID),
		ClientID:        r.ClientID.String(),
		ConsultantID:    uuidPtrString(r.ConsultantID),
		Kind:            string(r.Kind()),
		AmountCents:     r.AmountCents.Int64(),
		AmountPaidCents: r.AmountPaidCents.Int64(),
		RemainingCents:  r.RemainingCents().Int64(),
		DueDate:         r.DueDate.String(),
		Status:          r.Status.String(),
		PaidAt:          r.PaidAt,
		Version:         r.Version,
	}
	if card, ok := r.Terms.(finance.CardInstallmentTerms); ok {
		resp.Card = &CardInstallmentResponse{
			InstallmentNumber: card.InstallmentNumber,
			TotalInstallments: card.TotalInstallments,
			GrossCents:        card.GrossCents.Int64(),
			FeesCents:         card.FeesCents.Int64(),
			NetCents:          card.NetCents.Int64(),
			Anticipated:       card.Anticipated,
			Acquirer:          card.Acquirer,
		}
	}
	return resp
}

func toReceivableResponses(list []finance.Receivable) []ReceivableResponse {
	out := make([]ReceivableResponse, len(list))
	for i := range list {
		out[i] = toReceivableResponse(&list[i])
	}
	return out
}

// ApplyPaymentRequest is the body of POST /receivables/{id}/payments
type ApplyPaymentRequest struct {
	// ClientID, when set, must be the receivable's client
	ClientID    string     `json:"client_id,omitempty" binding:"omitempty,uuid"`
	AmountCents int64      `json:"amount_cents" binding:"required,gt=0" example:"5000"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// ApplyPaymentResponse reports how much of the payment was applied
type ApplyPaymentResponse struct {
	ReceivableID     string  `json:"receivable_id"`
	Kind             string  `json:"kind"`
	RequestedCents   int64   `json:"requested_cents"`
	AppliedCents     int64   `json:"applied_cents"`
	ReceivableStatus string  `json:"receivable_status"`
	RemainingCents   int64   `json:"remaining_cents"`
	SaleID           *string `json:"sale_id,omitempty"`
	SaleStatus       string  `json:"sale_status,omitempty"`
	ClientDebtCents  *int64  `json:"client_debt_cents,omitempty"`
	AlreadySettled   bool    `json:"already_settled"`
}

func toApplyPaymentResponse(r *ledger.ApplyPaymentResult) ApplyPaymentResponse {
	resp := ApplyPaymentResponse{
		ReceivableID:     r.ReceivableID.String(),
		Kind:             string(r.Kind),
		RequestedCents:   r.RequestedCents.Int64(),
		AppliedCents:     r.AppliedCents.Int64(),
		ReceivableStatus: r.ReceivableStatus.String(),
		RemainingCents:   r.RemainingCents.Int64(),
		SaleID:           uuidPtrString(r.SaleID),
		SaleStatus:       string(r.SaleStatus),
		AlreadySettled:   r.AlreadySettled,
	}
	if r.ClientDebtCents != nil {
		debt := r.ClientDebtCents.Int64()
		resp.ClientDebtCents = &debt
	}
	return resp
}

// MarkOverdueRequest is the body of POST /receivables/overdue-sweep
type MarkOverdueRequest struct {
	// AsOf defaults to today in the academy timezone
	AsOf string `json:"as_of,omitempty" binding:"omitempty,datekey" example:"2025-01-10"`
}

// DebtReportResponse compares the client's debt with its open receivables
type DebtReportResponse struct {
	ClientID        string  `json:"client_id"`
	DebtSaleID      *string `json:"debt_sale_id,omitempty"`
	RecordedCents   int64   `json:"recorded_cents"`
	ExpectedCents   int64   `json:"expected_cents"`
	DriftCents      int64   `json:"drift_cents"`
	OpenReceivables int     `json:"open_receivables"`
	InSync          bool    `json:"in_sync"`
	Repaired        bool    `json:"repaired"`
}

func toDebtReportResponse(r *ledger.DebtReport) DebtReportResponse {
	return DebtReportResponse{
		ClientID:        r.ClientID.String(),
		DebtSaleID:      uuidPtrString(r.DebtSaleID),
		RecordedCents:   r.RecordedCents.Int64(),
		ExpectedCents:   r.ExpectedCents.Int64(),
		DriftCents:      r.DriftCents.Int64(),
		OpenReceivables: r.OpenReceivables,
		InSync:          r.InSync(),
		Repaired:        r.Repaired,
	}
}
