package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chartAccounts(t *testing.T, tenantID uuid.UUID) ([]ledger.Account, map[string]*ledger.Account) {
	t.Helper()
	byCode := make(map[string]*ledger.Account)
	accounts := make([]ledger.Account, 0)
	for _, seed := range ledger.DefaultChartOfAccounts() {
		account, err := ledger.NewAccount(tenantID, seed.Code, seed.Name, seed.Type)
		require.NoError(t, err)
		byCode[seed.Code] = account
		accounts = append(accounts, *account)
	}
	return accounts, byCode
}

func postedEntry(t *testing.T, tenantID uuid.UUID, byCode map[string]*ledger.Account, entryDate time.Time, debits, credits map[string]int64) ledger.JournalEntry {
	t.Helper()
	lines := make([]ledger.JournalLine, 0)
	for code, amount := range debits {
		acc := byCode[code]
		lines = append(lines, ledger.NewDebitLine(acc.ID, acc.Code, decimal.NewFromInt(amount), ""))
	}
	for code, amount := range credits {
		acc := byCode[code]
		lines = append(lines, ledger.NewCreditLine(acc.ID, acc.Code, decimal.NewFromInt(amount), ""))
	}
	entry, err := ledger.NewJournalEntry(tenantID, "JE-TEST", entryDate, "test entry",
		ledger.SourceTypeManual, uuid.New(), lines)
	require.NoError(t, err)
	return *entry
}

func newTrialBalanceFixture(tenantID uuid.UUID) (*MockAccountRepository, *MockJournalEntryRepository, *TrialBalanceService) {
	accountRepo := new(MockAccountRepository)
	journalRepo := new(MockJournalEntryRepository)
	service := NewTrialBalanceService(accountRepo, journalRepo, zap.NewNop())
	return accountRepo, journalRepo, service
}

func TestTrialBalanceService_GetTrialBalance_AggregatesPostings(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accounts, byCode := chartAccounts(t, tenantID)
	accountRepo, journalRepo, service := newTrialBalanceFixture(tenantID)

	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	entries := []ledger.JournalEntry{
		// invoice sent: Dr AR 2360 / Cr Revenue 2000, Cr Tax 360
		postedEntry(t, tenantID, byCode, asOf.AddDate(0, -1, 0),
			map[string]int64{ledger.AccountCodeReceivable: 2360},
			map[string]int64{ledger.AccountCodeSalesRevenue: 2000, ledger.AccountCodeTaxPayable: 360}),
		// payment: Dr Cash 2360 / Cr AR 2360
		postedEntry(t, tenantID, byCode, asOf.AddDate(0, 0, -5),
			map[string]int64{ledger.AccountCodeCash: 2360},
			map[string]int64{ledger.AccountCodeReceivable: 2360}),
	}

	accountRepo.On("FindAllForTenant", ctx, tenantID).Return(accounts, nil)
	journalRepo.On("FindAsOf", ctx, tenantID, asOf).Return(entries, nil)

	report, err := service.GetTrialBalance(ctx, tenantID, asOf)

	require.NoError(t, err)
	assert.Equal(t, "2026-03-31", report.AsOfDate)
	assert.True(t, report.Totals.IsBalanced)
	assert.Equal(t, "4720", report.Totals.TotalDebit.String())
	assert.Equal(t, "4720", report.Totals.TotalCredit.String())

	rowByCode := make(map[string]TrialBalanceRowResponse)
	for _, row := range report.Accounts {
		rowByCode[row.AccountCode] = row
	}
	assert.Equal(t, "2360", rowByCode[ledger.AccountCodeCash].Balance.String())
	assert.Equal(t, "0", rowByCode[ledger.AccountCodeReceivable].Balance.String())
	assert.Equal(t, "2000", rowByCode[ledger.AccountCodeSalesRevenue].Balance.String())
	assert.Equal(t, "360", rowByCode[ledger.AccountCodeTaxPayable].Balance.String())

	// every chart account appears, even with no postings
	assert.Len(t, report.Accounts, len(accounts))
}

func TestTrialBalanceService_GetTrialBalance_ReportsImbalance(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accounts, byCode := chartAccounts(t, tenantID)
	accountRepo, journalRepo, service := newTrialBalanceFixture(tenantID)

	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	// hand-built corrupt entry bypassing the balanced constructor
	cash := byCode[ledger.AccountCodeCash]
	equity := byCode[ledger.AccountCodeOwnersEquity]
	corrupt := ledger.JournalEntry{
		EntryNumber: "JE-CORRUPT",
		EntryDate:   asOf.AddDate(0, 0, -1),
		SourceType:  ledger.SourceTypeManual,
		Lines: ledger.JournalLines{
			ledger.NewDebitLine(cash.ID, cash.Code, decimal.NewFromInt(110), ""),
			ledger.NewCreditLine(equity.ID, equity.Code, decimal.NewFromInt(100), ""),
		},
	}

	accountRepo.On("FindAllForTenant", ctx, tenantID).Return(accounts, nil)
	journalRepo.On("FindAsOf", ctx, tenantID, asOf).Return([]ledger.JournalEntry{corrupt}, nil)

	report, err := service.GetTrialBalance(ctx, tenantID, asOf)

	require.NoError(t, err, "an unbalanced ledger is reported, not rejected")
	assert.False(t, report.Totals.IsBalanced)
	assert.Equal(t, "10", report.Totals.Difference.String())
}

func TestTrialBalanceService_ExportCSV_GroupsAndTotals(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accounts, byCode := chartAccounts(t, tenantID)
	accountRepo, journalRepo, service := newTrialBalanceFixture(tenantID)

	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	entries := []ledger.JournalEntry{
		postedEntry(t, tenantID, byCode, asOf.AddDate(0, 0, -10),
			map[string]int64{ledger.AccountCodeCash: 50000},
			map[string]int64{ledger.AccountCodeOwnersEquity: 50000}),
	}

	accountRepo.On("FindAllForTenant", ctx, tenantID).Return(accounts, nil)
	journalRepo.On("FindAsOf", ctx, tenantID, asOf).Return(entries, nil)

	csv, err := service.ExportTrialBalanceCSV(ctx, tenantID, asOf)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	assert.Equal(t, "account_code,account_name,account_type,debit,credit,balance", lines[0])
	assert.Contains(t, csv, "1000,Cash and Bank,ASSET,50000.00,0.00,50000.00")
	assert.Contains(t, csv, "Subtotal ASSET")
	assert.Contains(t, csv, "Subtotal EQUITY")
	assert.Contains(t, csv, ",Total,,50000.00,50000.00,0.00")

	// account types appear in fixed statement order
	assetIdx := strings.Index(csv, "Subtotal ASSET")
	liabilityIdx := strings.Index(csv, "Subtotal LIABILITY")
	incomeIdx := strings.Index(csv, "Subtotal INCOME")
	expenseIdx := strings.Index(csv, "Subtotal EXPENSE")
	assert.True(t, assetIdx < liabilityIdx && liabilityIdx < incomeIdx && incomeIdx < expenseIdx)
}
