package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Client is the ledger's view of an academy client: the denormalized debt
// total and the pointers to the client's current and upcoming memberships.
type Client struct {
	shared.TenantAggregateRoot
	BranchID              uuid.UUID
	Name                  string
	DebtCents             valueobject.Cents
	ActiveMembershipID    *uuid.UUID
	ActiveSaleID          *uuid.UUID
	ScheduledMembershipID *uuid.UUID
	// DebtSaleID is the sale whose remaining balance last set DebtCents
	DebtSaleID *uuid.UUID
}

// NewClient registers a client in a branch
func NewClient(tenantID, branchID uuid.UUID, name string, now time.Time) (*Client, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewInvalidArgument("tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewInvalidArgument("client name cannot be empty")
	}
	return &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, now),
		BranchID:            branchID,
		Name:                name,
	}, nil
}

func (c *Client) changed(now time.Time) {
	c.Touch(now)
	c.IncrementVersion()
}

// ActivateMembership points the client at a membership that is active now
func (c *Client) ActivateMembership(membershipID uuid.UUID, saleID *uuid.UUID, now time.Time) {
	c.ActiveMembershipID = &membershipID
	c.ActiveSaleID = saleID
	if c.ScheduledMembershipID != nil && *c.ScheduledMembershipID == membershipID {
		c.ScheduledMembershipID = nil
	}
	c.changed(now)
}

// ScheduleMembership records a future-dated membership
func (c *Client) ScheduleMembership(membershipID uuid.UUID, now time.Time) {
	c.ScheduledMembershipID = &membershipID
	c.changed(now)
}

// ReleaseMembership clears any pointer to membershipID. It returns false if
// the client did not reference it.
func (c *Client) ReleaseMembership(membershipID uuid.UUID, now time.Time) bool {
	released := false
	if c.ActiveMembershipID != nil && *c.ActiveMembershipID == membershipID {
		c.ActiveMembershipID = nil
		c.ActiveSaleID = nil
		released = true
	}
	if c.ScheduledMembershipID != nil && *c.ScheduledMembershipID == membershipID {
		c.ScheduledMembershipID = nil
		released = true
	}
	if released {
		c.changed(now)
	}
	return released
}

// RecordMembershipSale points the client at a membership sold by saleID and
// resets the debt to that sale's remaining balance, as one change.
func (c *Client) RecordMembershipSale(membershipID, saleID uuid.UUID, activeNow bool, remaining valueobject.Cents, now time.Time) {
	if activeNow {
		c.ActiveMembershipID = &membershipID
		c.ActiveSaleID = &saleID
		if c.ScheduledMembershipID != nil && *c.ScheduledMembershipID == membershipID {
			c.ScheduledMembershipID = nil
		}
	} else {
		c.ScheduledMembershipID = &membershipID
	}
	c.DebtCents = remaining.ClampZero()
	c.DebtSaleID = &saleID
	c.changed(now)
}

// CorrectDebt rewrites DebtCents after reconciliation. It returns false
// when the projection already holds amount.
func (c *Client) CorrectDebt(amount valueobject.Cents, now time.Time) bool {
	amount = amount.ClampZero()
	if c.DebtCents == amount {
		return false
	}
	c.DebtCents = amount
	c.changed(now)
	return true
}

// ReduceDebt subtracts a manual receivable payment from the debt, never below zero
func (c *Client) ReduceDebt(applied valueobject.Cents, now time.Time) error {
	if applied.IsNegative() {
		return shared.NewInvalidArgument("applied amount cannot be negative")
	}
	if applied == 0 {
		return nil
	}
	c.DebtCents = (c.DebtCents - applied).ClampZero()
	c.changed(now)
	return nil
}
