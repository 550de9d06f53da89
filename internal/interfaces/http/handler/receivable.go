package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
)

// ReceivableHandler handles receivable reads, payments and the overdue sweep
type ReceivableHandler struct {
	BaseHandler
	receivableService *ledger.ReceivableService
	paymentService    *ledger.PaymentService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(receivableService *ledger.ReceivableService, paymentService *ledger.PaymentService) *ReceivableHandler {
	return &ReceivableHandler{
		receivableService: receivableService,
		paymentService:    paymentService,
	}
}

// GetReceivable godoc
// @ID           getReceivable
// @Summary      Get a receivable
// @Tags         receivables
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} APIResponse[ReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/{id} [get]
func (h *ReceivableHandler) GetReceivable(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "receivable")
	if !ok {
		return
	}

	receivable, err := h.receivableService.GetReceivable(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.CanAccessBranch(c, receivable.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	h.Success(c, toReceivableResponse(receivable))
}

// ApplyPayment godoc
// @ID           applyReceivablePayment
// @Summary      Pay a receivable
// @Description  Applies a payment to a receivable. Overpayment is capped at the open balance. The owning sale and, for manual receivables, the client debt are updated in the same transaction.
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Param        request body ApplyPaymentRequest true "Payment"
// @Success      200 {object} APIResponse[ApplyPaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/{id}/payments [post]
func (h *ReceivableHandler) ApplyPayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "receivable")
	if !ok {
		return
	}
	var req ApplyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	receivable, err := h.receivableService.GetReceivable(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.CanAccessBranch(c, receivable.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	cmd := ledger.ApplyPaymentRequest{
		TenantID:     tenantID,
		ReceivableID: id,
		AmountCents:  valueobject.Cents(req.AmountCents),
	}
	if clientID := optionalUUID(req.ClientID); clientID != nil {
		cmd.ClientID = *clientID
	}
	if req.PaidAt != nil {
		cmd.PaidAt = *req.PaidAt
	}

	result, err := h.paymentService.ApplyReceivablePayment(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toApplyPaymentResponse(result))
}

// MarkOverdueResponse reports how many receivables the sweep flipped
type MarkOverdueResponse struct {
	AsOf    string `json:"as_of,omitempty"`
	Updated int    `json:"updated"`
}

// MarkOverdue godoc
// @ID           markReceivablesOverdue
// @Summary      Flag overdue receivables
// @Description  Marks every pending receivable of the tenant due before as_of (default today) as overdue
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body MarkOverdueRequest false "Sweep date"
// @Success      200 {object} APIResponse[MarkOverdueResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/overdue-sweep [post]
func (h *ReceivableHandler) MarkOverdue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req MarkOverdueRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.receivableService.MarkOverdue(c.Request.Context(), tenantID, valueobject.DateKey(req.AsOf))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MarkOverdueResponse{AsOf: req.AsOf, Updated: updated})
}
