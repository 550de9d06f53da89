package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
)

// SaleHandler handles point-of-sale HTTP requests
type SaleHandler struct {
	BaseHandler
	saleService       *ledger.SaleService
	receivableService *ledger.ReceivableService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *ledger.SaleService, receivableService *ledger.ReceivableService) *SaleHandler {
	return &SaleHandler{
		saleService:       saleService,
		receivableService: receivableService,
	}
}

// CreateSale godoc
// @ID           createSale
// @Summary      Record a sale
// @Description  Records a sale with its items and counter payments. Card payments are split into installment receivables and any balance left becomes a manual receivable. A membership item creates the membership and links it to the client.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body CreateSaleRequest true "Sale"
// @Success      201 {object} APIResponse[CreateSaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cmd := req.toCommand(tenantID, middleware.CurrentUserID(c))
	if !middleware.CanAccessBranch(c, cmd.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	result, err := h.saleService.CreateSale(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toCreateSaleResponse(result))
}

// GetSale godoc
// @ID           getSale
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.CanAccessBranch(c, sale.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	h.Success(c, toSaleResponse(sale))
}

// ListSaleReceivables godoc
// @ID           listSaleReceivables
// @Summary      List the receivables of a sale
// @Description  Returns the card installments and the manual receivable of a sale, earliest due first
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[[]ReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receivables [get]
func (h *SaleHandler) ListSaleReceivables(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id", "sale")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.CanAccessBranch(c, sale.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	receivables, err := h.receivableService.ListBySale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toReceivableResponses(receivables))
}
