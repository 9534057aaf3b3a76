package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the chart-of-accounts Account.
type AccountModel struct {
	TenantAggregateModel
	Code        string             `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name        string             `gorm:"type:varchar(200);not null"`
	Type        ledger.AccountType `gorm:"column:account_type;type:varchar(20);not null;index"`
	Description string             `gorm:"type:text"`
	IsActive    bool               `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Code:        m.Code,
		Name:        m.Name,
		Type:        m.Type,
		Description: m.Description,
		IsActive:    m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.Description = a.Description
	m.IsActive = a.IsActive
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// JournalEntryModel is the persistence model for the JournalEntry aggregate
// root. Journal entries are append-only; there is no update path.
type JournalEntryModel struct {
	TenantAggregateModel
	EntryNumber string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_journal_tenant_number,priority:2"`
	EntryDate   time.Time           `gorm:"not null;index"`
	Description string              `gorm:"type:varchar(500)"`
	SourceType  ledger.SourceType   `gorm:"type:varchar(30);not null;index"`
	SourceID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Lines       ledger.JournalLines `gorm:"type:jsonb;default:'[]'"`
	TotalDebit  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	TotalCredit decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry entity.
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	return &ledger.JournalEntry{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		EntryNumber: m.EntryNumber,
		EntryDate:   m.EntryDate,
		Description: m.Description,
		SourceType:  m.SourceType,
		SourceID:    m.SourceID,
		Lines:       m.Lines,
		TotalDebit:  m.TotalDebit,
		TotalCredit: m.TotalCredit,
	}
}

// FromDomain populates the persistence model from a domain JournalEntry entity.
func (m *JournalEntryModel) FromDomain(e *ledger.JournalEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.EntryNumber = e.EntryNumber
	m.EntryDate = e.EntryDate
	m.Description = e.Description
	m.SourceType = e.SourceType
	m.SourceID = e.SourceID
	m.Lines = e.Lines
	m.TotalDebit = e.TotalDebit
	m.TotalCredit = e.TotalCredit
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(e)
	return m
}
