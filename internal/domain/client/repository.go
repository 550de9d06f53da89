package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the client ledger aggregate
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	Create(ctx context.Context, c *Client) error
	SaveWithLock(ctx context.Context, c *Client) error
}
