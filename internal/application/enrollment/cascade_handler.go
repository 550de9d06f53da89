package enrollment

import (
	"context"
	"fmt"

	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CascadeHandler consumes membership.terminated events from the outbox and
// deactivates the client's enrollments from the termination date.
type CascadeHandler struct {
	deactivator enrollment.Deactivator
	logger      *zap.Logger
}

// NewCascadeHandler creates a new CascadeHandler
func NewCascadeHandler(deactivator enrollment.Deactivator, logger *zap.Logger) *CascadeHandler {
	return &CascadeHandler{deactivator: deactivator, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *CascadeHandler) EventTypes() []string {
	return []string{membership.EventTypeMembershipTerminated}
}

// Handle processes a MembershipTerminatedEvent. Returning an error leaves
// the outbox entry to be retried.
func (h *CascadeHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	terminated, ok := event.(*membership.MembershipTerminatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", membership.EventTypeMembershipTerminated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			membership.EventTypeMembershipTerminated, event.EventType())
	}

	count, err := h.deactivator.DeactivateClientEnrollmentsFromDate(ctx, event.TenantID(), terminated.ClientID, terminated.EffectiveDate)
	if err != nil {
		h.logger.Warn("enrollment cascade failed, will retry",
			zap.String("event_id", event.EventID().String()),
			zap.String("membership_id", terminated.MembershipID.String()),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("enrollment cascade delivered",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("membership_id", terminated.MembershipID.String()),
		zap.String("client_id", terminated.ClientID.String()),
		zap.String("status", terminated.Status.String()),
		zap.Int("deactivated", count),
	)
	return nil
}
