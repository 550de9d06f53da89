package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/application/ledger"
)

// ClientDebtHandler exposes the client debt reconciliation
type ClientDebtHandler struct {
	BaseHandler
	reconciliationService *ledger.ReconciliationService
}

// NewClientDebtHandler creates a new ClientDebtHandler
func NewClientDebtHandler(reconciliationService *ledger.ReconciliationService) *ClientDebtHandler {
	return &ClientDebtHandler{reconciliationService: reconciliationService}
}

// Reconcile godoc
// @ID           reconcileClientDebt
// @Summary      Reconcile a client's debt
// @Description  Compares the client's recorded debt with the open balance of its manual receivables. With repair=true a drifted value is rewritten.
// @Tags         clients
// @Produce      json
// @Param        client_id path string true "Client ID" format(uuid)
// @Param        repair query bool false "Rewrite a drifted debt" default(false)
// @Success      200 {object} APIResponse[DebtReportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{client_id}/debt/reconcile [post]
func (h *ClientDebtHandler) Reconcile(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	clientID, ok := h.pathUUID(c, "client_id", "client")
	if !ok {
		return
	}
	repair := false
	if raw := c.Query("repair"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "repair must be true or false")
			return
		}
		repair = parsed
	}

	report, err := h.reconciliationService.ReconcileClientDebt(c.Request.Context(), tenantID, clientID, repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDebtReportResponse(report))
}
