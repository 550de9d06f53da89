package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
)

// MembershipHandler handles membership lifecycle HTTP requests
type MembershipHandler struct {
	BaseHandler
	membershipService *ledger.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService *ledger.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// clientMembershipIDs parses the client and membership path parameters
func (h *MembershipHandler) clientMembershipIDs(c *gin.Context) (tenantID, clientID, membershipID uuid.UUID, ok bool) {
	if tenantID, ok = h.tenantID(c); !ok {
		return
	}
	if clientID, ok = h.pathUUID(c, "client_id", "client"); !ok {
		return
	}
	membershipID, ok = h.pathUUID(c, "id", "membership")
	return
}

// UpdateStatus godoc
// @ID           updateMembershipStatus
// @Summary      Change a membership status
// @Description  Moves a membership through pending, active and paused, or terminates it as canceled or expired. Terminating releases the client's active membership and deactivates class enrollments from today.
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        client_id path string true "Client ID" format(uuid)
// @Param        id path string true "Membership ID" format(uuid)
// @Param        request body UpdateMembershipStatusRequest true "Target status"
// @Success      200 {object} APIResponse[UpdateMembershipStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{client_id}/memberships/{id}/status [put]
func (h *MembershipHandler) UpdateStatus(c *gin.Context) {
	tenantID, clientID, membershipID, ok := h.clientMembershipIDs(c)
	if !ok {
		return
	}
	var req UpdateMembershipStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.authorizeMembership(c, tenantID, membershipID) {
		return
	}

	result, err := h.membershipService.UpdateMembershipStatus(c.Request.Context(), ledger.UpdateStatusRequest{
		TenantID:     tenantID,
		ClientID:     clientID,
		MembershipID: membershipID,
		TargetStatus: membership.Status(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUpdateStatusResponse(result))
}

// Suspend godoc
// @ID           suspendMembership
// @Summary      Suspend a membership
// @Description  Records a suspension of the given number of days and pushes the end date forward by the same amount
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        client_id path string true "Client ID" format(uuid)
// @Param        id path string true "Membership ID" format(uuid)
// @Param        request body SuspendMembershipRequest true "Suspension"
// @Success      201 {object} APIResponse[SuspensionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{client_id}/memberships/{id}/suspensions [post]
func (h *MembershipHandler) Suspend(c *gin.Context) {
	tenantID, clientID, membershipID, ok := h.clientMembershipIDs(c)
	if !ok {
		return
	}
	var req SuspendMembershipRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.authorizeMembership(c, tenantID, membershipID) {
		return
	}

	suspension, err := h.membershipService.SuspendMembership(c.Request.Context(), ledger.SuspendRequest{
		TenantID:     tenantID,
		ClientID:     clientID,
		MembershipID: membershipID,
		StartDate:    valueobject.DateKey(req.StartDate),
		Days:         req.Days,
		Reason:       req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toSuspensionResponse(suspension))
}

// Adjust godoc
// @ID           adjustMembershipEnd
// @Summary      Move a membership end date
// @Description  Extends (positive days) or shortens (negative days) a membership and records the adjustment
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        client_id path string true "Client ID" format(uuid)
// @Param        id path string true "Membership ID" format(uuid)
// @Param        request body AdjustMembershipRequest true "Adjustment"
// @Success      201 {object} APIResponse[AdjustmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{client_id}/memberships/{id}/adjustments [post]
func (h *MembershipHandler) Adjust(c *gin.Context) {
	tenantID, clientID, membershipID, ok := h.clientMembershipIDs(c)
	if !ok {
		return
	}
	var req AdjustMembershipRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.authorizeMembership(c, tenantID, membershipID) {
		return
	}

	adjustment, err := h.membershipService.AdjustMembershipEnd(c.Request.Context(), ledger.AdjustRequest{
		TenantID:     tenantID,
		ClientID:     clientID,
		MembershipID: membershipID,
		Days:         req.Days,
		Reason:       req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toAdjustmentResponse(adjustment))
}

// GetMembership godoc
// @ID           getMembership
// @Summary      Get a membership
// @Description  Returns a membership with its suspensions and end date adjustments
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Membership ID" format(uuid)
// @Success      200 {object} APIResponse[MembershipResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /memberships/{id} [get]
func (h *MembershipHandler) GetMembership(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "membership")
	if !ok {
		return
	}

	m, suspensions, adjustments, err := h.membershipService.GetMembership(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.CanAccessBranch(c, m.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return
	}

	resp := toMembershipResponse(m)
	for i := range suspensions {
		resp.Suspensions = append(resp.Suspensions, toSuspensionResponse(&suspensions[i]))
	}
	for i := range adjustments {
		resp.Adjustments = append(resp.Adjustments, toAdjustmentResponse(&adjustments[i]))
	}
	h.Success(c, resp)
}

// ListEnding godoc
// @ID           listEndingMemberships
// @Summary      List memberships ending in a date range
// @Description  Returns the branch's memberships whose end date lies between start and end, both inclusive, earliest end first
// @Tags         memberships
// @Produce      json
// @Param        branch_id path string true "Branch ID" format(uuid)
// @Param        start query string true "First end date (YYYY-MM-DD)"
// @Param        end query string true "Last end date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]MembershipResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{branch_id}/memberships/ending [get]
func (h *MembershipHandler) ListEnding(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	branchID, ok := h.pathUUID(c, "branch_id", "branch")
	if !ok {
		return
	}
	var query EndingMembershipsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	memberships, err := h.membershipService.FetchMembershipsByEndRange(c.Request.Context(), tenantID, branchID, query.Start, query.End)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		resp[i] = toMembershipResponse(&memberships[i])
	}
	h.Success(c, resp)
}

// authorizeMembership checks branch access for writes. Tokens without a
// branch restriction skip the lookup.
func (h *MembershipHandler) authorizeMembership(c *gin.Context, tenantID, membershipID uuid.UUID) bool {
	claims := middleware.GetJWTClaims(c)
	if claims == nil || len(claims.BranchIDs) == 0 {
		return true
	}
	m, _, _, err := h.membershipService.GetMembership(c.Request.Context(), tenantID, membershipID)
	if err != nil {
		h.HandleError(c, err)
		return false
	}
	if !claims.CanAccessBranch(m.BranchID) {
		h.Forbidden(c, "No access to this branch")
		return false
	}
	return true
}
