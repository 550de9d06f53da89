package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/application/event"
)

// OutboxHandler lets operators follow ledger event delivery. Dead letters
// can be narrowed to one event type ("membership.terminated") or a family
// ("receivable.*") and redelivered the same way. Stats report the backlog
// per family and for the enrollment cascade.
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// EventTypeQuery narrows a dead letter operation to one ledger event type or
// family
type EventTypeQuery struct {
	EventType string `form:"event_type,omitempty" binding:"omitempty,max=255" example:"receivable.*"`
}

// GetDeadLetterEntries godoc
// @ID           getOutboxDeadLetterEntries
// @Summary      List dead ledger events
// @Description  Ledger events whose delivery exhausted its retries, newest first. event_type takes an exact type such as membership.terminated or a family such as receivable.*
// @Tags         outbox
// @Produce      json
// @Param        event_type query string false "Event type or family wildcard" example(membership.terminated)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[OutboxListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead [get]
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]OutboxEntryResponse, len(result.Entries))
	for i := range result.Entries {
		entries[i] = toOutboxEntryResponse(&result.Entries[i])
	}
	h.Success(c, OutboxListResponse{
		EventType:  filter.EventType,
		Entries:    entries,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// GetEntry godoc
// @ID           getOutboxEntry
// @Summary      Get a ledger event delivery
// @Description  Delivery state of one outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox Entry ID" format(uuid)
// @Success      200 {object} APIResponse[OutboxEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/{id} [get]
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outboxService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOutboxEntryResponse(entry))
}

// RetryDeadEntry godoc
// @ID           retryDeadEntryOutbox
// @Summary      Redeliver a dead ledger event
// @Description  Moves a dead entry back to pending with a fresh retry budget
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox Entry ID" format(uuid)
// @Success      200 {object} APIResponse[OutboxEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/{id}/retry [post]
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOutboxEntryResponse(entry))
}

// RetryAllDeadEntries godoc
// @ID           retryAllDeadEntriesOutbox
// @Summary      Redeliver dead ledger events
// @Description  Moves every dead entry of the given event type or family back to pending, all of them without event_type
// @Tags         outbox
// @Produce      json
// @Param        event_type query string false "Event type or family wildcard" example(membership.terminated)
// @Success      200 {object} APIResponse[RetryAllResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead/retry-all [post]
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	var query EventTypeQuery
	if !h.bindQuery(c, &query) {
		return
	}

	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context(), query.EventType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RetryAllResponse{EventType: query.EventType, Count: count})
}

// GetStats godoc
// @ID           getOutboxStats
// @Summary      Ledger event delivery backlog
// @Description  Entry counts per status overall and per event family, plus the membership terminations still waiting to cascade
// @Tags         outbox
// @Produce      json
// @Success      200 {object} APIResponse[OutboxStatsResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/stats [get]
func (h *OutboxHandler) GetStats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	families := make(map[string]OutboxStatusCountsResponse, len(stats.Families))
	for family, counts := range stats.Families {
		families[family] = OutboxStatusCountsResponse(counts)
	}
	h.Success(c, OutboxStatsResponse{
		OutboxStatusCountsResponse: OutboxStatusCountsResponse(stats.OutboxStatusCounts),
		Families:                   families,
		Cascade: CascadeBacklogResponse{
			EventType:   stats.Cascade.EventType,
			Undelivered: stats.Cascade.Undelivered,
			Dead:        stats.Cascade.Dead,
		},
	})
}

// OutboxEntryResponse is the delivery state of one ledger event
type OutboxEntryResponse struct {
	ID            string  `json:"id"`
	TenantID      string  `json:"tenant_id"`
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type" example:"membership.terminated"`
	EventFamily   string  `json:"event_family" example:"membership"`
	AggregateID   string  `json:"aggregate_id"`
	AggregateType string  `json:"aggregate_type" example:"Membership"`
	Status        string  `json:"status" example:"DEAD"`
	RetryCount    int     `json:"retry_count"`
	MaxRetries    int     `json:"max_retries"`
	LastError     string  `json:"last_error,omitempty"`
	NextRetryAt   *string `json:"next_retry_at,omitempty"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// OutboxListResponse is a page of dead ledger events
type OutboxListResponse struct {
	EventType  string                `json:"event_type,omitempty"`
	Entries    []OutboxEntryResponse `json:"entries"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// OutboxStatusCountsResponse counts entries per delivery status
type OutboxStatusCountsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// CascadeBacklogResponse counts membership terminations whose enrollment
// cascade has not run yet
type CascadeBacklogResponse struct {
	EventType   string `json:"event_type" example:"membership.terminated"`
	Undelivered int64  `json:"undelivered"`
	Dead        int64  `json:"dead"`
}

// OutboxStatsResponse is the delivery backlog of the ledger
type OutboxStatsResponse struct {
	OutboxStatusCountsResponse
	Families map[string]OutboxStatusCountsResponse `json:"families"`
	Cascade  CascadeBacklogResponse                `json:"cascade"`
}

// RetryAllResponse reports how many dead entries went back to pending
type RetryAllResponse struct {
	EventType string `json:"event_type,omitempty"`
	Count     int64  `json:"count"`
}

func toOutboxEntryResponse(entry *event.OutboxEntryDTO) OutboxEntryResponse {
	resp := OutboxEntryResponse{
		ID:            entry.ID.String(),
		TenantID:      entry.TenantID.String(),
		EventID:       entry.EventID.String(),
		EventType:     entry.EventType,
		EventFamily:   entry.EventFamily,
		AggregateID:   entry.AggregateID.String(),
		AggregateType: entry.AggregateType,
		Status:        entry.Status,
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.NextRetryAt != nil {
		t := entry.NextRetryAt.Format(time.RFC3339)
		resp.NextRetryAt = &t
	}
	if entry.ProcessedAt != nil {
		t := entry.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &t
	}
	return resp
}
