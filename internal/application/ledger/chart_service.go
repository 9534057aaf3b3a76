package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// ChartService provides chart-of-accounts and journal read operations
type ChartService struct {
	accountRepo ledger.AccountRepository
	journalRepo ledger.JournalEntryRepository
	logger      *zap.Logger
}

// NewChartService creates a new ChartService
func NewChartService(
	accountRepo ledger.AccountRepository,
	journalRepo ledger.JournalEntryRepository,
	logger *zap.Logger,
) *ChartService {
	return &ChartService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// CreateAccountRequest adds an account to the chart
type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Description string `json:"description"`
}

// AccountResponse represents a ledger account in API responses
type AccountResponse struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JournalLineResponse is one posting line in API responses
type JournalLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID          uuid.UUID             `json:"id"`
	TenantID    uuid.UUID             `json:"tenant_id"`
	EntryNumber string                `json:"entry_number"`
	EntryDate   time.Time             `json:"entry_date"`
	Description string                `json:"description"`
	SourceType  string                `json:"source_type"`
	SourceID    uuid.UUID             `json:"source_id"`
	Lines       []JournalLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	CreatedAt   time.Time             `json:"created_at"`
}

// JournalEntryListFilter defines filtering options for journal queries
type JournalEntryListFilter struct {
	SourceType string     `form:"source_type"`
	SourceID   *uuid.UUID `form:"source_id"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

func toAccountResponse(a *ledger.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		TenantID:    a.TenantID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		Description: a.Description,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toJournalEntryResponse(e *ledger.JournalEntry) *JournalEntryResponse {
	return &JournalEntryResponse{
		ID:          e.ID,
		TenantID:    e.TenantID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		SourceType:  string(e.SourceType),
		SourceID:    e.SourceID,
		Lines: lo.Map(e.Lines, func(l ledger.JournalLine, _ int) JournalLineResponse {
			return JournalLineResponse{
				ID:          l.ID,
				AccountID:   l.AccountID,
				AccountCode: l.AccountCode,
				Debit:       l.Debit,
				Credit:      l.Credit,
				Memo:        l.Memo,
			}
		}),
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		CreatedAt:   e.CreatedAt,
	}
}

// CreateAccount adds an account to the tenant's chart
func (s *ChartService) CreateAccount(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	exists, err := s.accountRepo.ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.ErrCodeAlreadyExists, "Account code already exists")
	}

	account, err := ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountType(req.Type))
	if err != nil {
		return nil, err
	}
	account.Description = req.Description
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("ledger account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", account.Code),
		zap.String("type", string(account.Type)))
	return toAccountResponse(account), nil
}

// ListAccounts returns the tenant's full chart of accounts
func (s *ChartService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]AccountResponse, error) {
	accounts, err := s.accountRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return lo.Map(accounts, func(a ledger.Account, _ int) AccountResponse {
		return *toAccountResponse(&a)
	}), nil
}

// SeedDefaultAccounts creates the standard chart of accounts for a tenant.
// Codes that already exist are left untouched.
func (s *ChartService) SeedDefaultAccounts(ctx context.Context, tenantID uuid.UUID) ([]AccountResponse, error) {
	if err := s.accountRepo.SeedDefaults(ctx, tenantID); err != nil {
		return nil, err
	}
	s.logger.Info("default chart of accounts seeded", zap.String("tenant_id", tenantID.String()))
	return s.ListAccounts(ctx, tenantID)
}

// ListJournalEntries lists journal entries with filtering
func (s *ChartService) ListJournalEntries(ctx context.Context, tenantID uuid.UUID, filter JournalEntryListFilter) ([]JournalEntryResponse, int64, error) {
	domainFilter := ledger.JournalEntryFilter{
		SourceID: filter.SourceID,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	if filter.SourceType != "" {
		sourceType := ledger.SourceType(filter.SourceType)
		domainFilter.SourceType = &sourceType
	}

	entries, err := s.journalRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.journalRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := lo.Map(entries, func(e ledger.JournalEntry, _ int) JournalEntryResponse {
		return *toJournalEntryResponse(&e)
	})
	return responses, total, nil
}

// GetJournalEntry retrieves one journal entry scoped to the tenant
func (s *ChartService) GetJournalEntry(ctx context.Context, tenantID, entryID uuid.UUID) (*JournalEntryResponse, error) {
	entry, err := s.journalRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.TenantID != tenantID {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound, "Journal entry not found")
	}
	return toJournalEntryResponse(entry), nil
}
