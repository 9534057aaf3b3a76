package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// SalesOrderFilter defines filtering options for sales order queries
type SalesOrderFilter struct {
	shared.Filter
	CustomerID     *uuid.UUID      // Filter by customer
	TicketID       *uuid.UUID      // Filter by service ticket
	Status         *OrderStatus    // Filter by lifecycle status
	ApprovalStatus *ApprovalStatus // Filter by approval position
	FromDate       *time.Time      // Filter by creation date range start
	ToDate         *time.Time      // Filter by creation date range end
}

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID finds a sales order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByIDForTenant finds a sales order by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)

	// FindByOrderNumber finds by order number for a tenant
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*SalesOrder, error)

	// FindByTicket finds sales orders raised against a ticket
	FindByTicket(ctx context.Context, tenantID, ticketID uuid.UUID) ([]SalesOrder, error)

	// FindAllForTenant finds all sales orders for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) ([]SalesOrder, error)

	// FindPendingApproval finds orders awaiting an approval decision
	FindPendingApproval(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) ([]SalesOrder, error)

	// Save creates or updates a sales order
	Save(ctx context.Context, order *SalesOrder) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *SalesOrder) error

	// DeleteForTenant soft deletes a draft sales order for a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts sales orders for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) (int64, error)

	// CountByStatus counts sales orders by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status OrderStatus) (int64, error)

	// ExistsByOrderNumber checks if an order number exists for a tenant
	ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique order number for a tenant
	GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
