package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID       // Filter by customer
	Status     *InvoiceStatus   // Filter by status
	FromDate   *time.Time       // Filter by creation date range start
	ToDate     *time.Time       // Filter by creation date range end
	DueFrom    *time.Time       // Filter by due date range start
	DueTo      *time.Time       // Filter by due date range end
	Overdue    *bool            // Filter only overdue invoices
	MinBalance *decimal.Decimal // Filter by minimum balance due
	MaxBalance *decimal.Decimal // Filter by maximum balance due
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForTenant finds an invoice by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNumber finds by invoice number for a tenant
	FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindByCustomer finds invoices for a customer
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindOutstanding finds all invoices with an open balance for a customer
	FindOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]Invoice, error)

	// FindOverdue finds all overdue invoices for a tenant
	FindOverdue(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// DeleteForTenant soft deletes a draft invoice for a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// CountByStatus counts invoices by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status InvoiceStatus) (int64, error)

	// SumOutstandingForTenant calculates total balance due across a tenant
	SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// SumOverdueForTenant calculates total overdue balance for a tenant
	SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// ExistsByInvoiceNumber checks if an invoice number exists for a tenant
	ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)

	// GenerateInvoiceNumber generates a unique invoice number for a tenant
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// CreditNoteFilter defines filtering options for credit note queries
type CreditNoteFilter struct {
	shared.Filter
	CustomerID        *uuid.UUID        // Filter by customer
	OriginalInvoiceID *uuid.UUID        // Filter by the credited invoice
	Status            *CreditNoteStatus // Filter by status
	FromDate          *time.Time        // Filter by creation date range start
	ToDate            *time.Time        // Filter by creation date range end
}

// CreditNoteRepository defines the interface for credit note persistence
type CreditNoteRepository interface {
	// FindByID finds a credit note by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CreditNote, error)

	// FindByIDForTenant finds a credit note by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CreditNote, error)

	// FindByCreditNoteNumber finds by credit note number for a tenant
	FindByCreditNoteNumber(ctx context.Context, tenantID uuid.UUID, creditNoteNumber string) (*CreditNote, error)

	// FindAllForTenant finds all credit notes for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CreditNoteFilter) ([]CreditNote, error)

	// FindByOriginalInvoice finds credit notes issued against an invoice
	FindByOriginalInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]CreditNote, error)

	// FindWithRemainingCredit finds applicable credit notes for a customer
	FindWithRemainingCredit(ctx context.Context, tenantID, customerID uuid.UUID) ([]CreditNote, error)

	// Save creates or updates a credit note
	Save(ctx context.Context, creditNote *CreditNote) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, creditNote *CreditNote) error

	// CountForTenant counts credit notes for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CreditNoteFilter) (int64, error)

	// SumRemainingByCustomer calculates total unapplied credit for a customer
	SumRemainingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error)

	// ExistsByCreditNoteNumber checks if a credit note number exists for a tenant
	ExistsByCreditNoteNumber(ctx context.Context, tenantID uuid.UUID, creditNoteNumber string) (bool, error)

	// GenerateCreditNoteNumber generates a unique credit note number for a tenant
	GenerateCreditNoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
