package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// AccountRepository defines the interface for chart-of-accounts persistence
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)

	// FindAllForTenant returns the full chart of accounts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// ExistsByCode checks if an account code exists for a tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// SeedDefaults creates the default chart of accounts for a tenant,
	// skipping codes that already exist
	SeedDefaults(ctx context.Context, tenantID uuid.UUID) error
}

// JournalEntryFilter defines filtering options for journal queries
type JournalEntryFilter struct {
	shared.Filter
	SourceType *SourceType // Filter by originating document type
	SourceID   *uuid.UUID  // Filter by originating document
	FromDate   *time.Time  // Filter by entry date range start
	ToDate     *time.Time  // Filter by entry date range end
}

// JournalEntryRepository defines the interface for journal persistence.
// Entries are append-only; corrections go through reversal entries.
type JournalEntryRepository interface {
	// FindByID finds a journal entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// FindAllForTenant finds journal entries for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) ([]JournalEntry, error)

	// FindBySource finds entries produced by a specific document
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) ([]JournalEntry, error)

	// FindAsOf finds all entries dated on or before the cutoff, reading a
	// consistent snapshot for trial balance computation
	FindAsOf(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time) ([]JournalEntry, error)

	// Save persists a journal entry
	Save(ctx context.Context, entry *JournalEntry) error

	// CountForTenant counts journal entries for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) (int64, error)

	// GenerateEntryNumber generates a unique entry number for a tenant
	GenerateEntryNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
