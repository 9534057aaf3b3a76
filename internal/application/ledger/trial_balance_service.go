package ledger

import (
	"context"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TrialBalanceService computes trial balance reports over posted journal
// entries. Read-only; it may run concurrently with document mutations and
// reads a snapshot bounded by the requested as-of date.
type TrialBalanceService struct {
	accountRepo ledger.AccountRepository
	journalRepo ledger.JournalEntryRepository
	logger      *zap.Logger
}

// NewTrialBalanceService creates a new TrialBalanceService
func NewTrialBalanceService(
	accountRepo ledger.AccountRepository,
	journalRepo ledger.JournalEntryRepository,
	logger *zap.Logger,
) *TrialBalanceService {
	return &TrialBalanceService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// TrialBalanceRowResponse is one account row in the report
type TrialBalanceRowResponse struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceTotalsResponse is the report-wide verification block
type TrialBalanceTotalsResponse struct {
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	IsBalanced  bool            `json:"is_balanced"`
	Difference  decimal.Decimal `json:"difference"`
}

// TrialBalanceResponse is the full trial balance report
type TrialBalanceResponse struct {
	AsOfDate    string                     `json:"as_of_date"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Accounts    []TrialBalanceRowResponse  `json:"accounts"`
	Totals      TrialBalanceTotalsResponse `json:"totals"`
}

// GetTrialBalance computes the trial balance as of the given date.
// An imbalance is reported in the totals, never corrected; it is also
// logged since it indicates a defective posting path.
func (s *TrialBalanceService) GetTrialBalance(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time) (*TrialBalanceResponse, error) {
	accounts, err := s.accountRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	entries, err := s.journalRepo.FindAsOf(ctx, tenantID, asOfDate)
	if err != nil {
		return nil, err
	}

	tb := ledger.BuildTrialBalance(tenantID, asOfDate, accounts, entries)
	if !tb.Totals.IsBalanced {
		s.logger.Error("trial balance is unbalanced",
			zap.String("tenant_id", tenantID.String()),
			zap.Time("as_of_date", asOfDate),
			zap.String("difference", tb.Totals.Difference.String()))
	}

	rows := lo.Map(tb.Rows, func(row ledger.TrialBalanceRow, _ int) TrialBalanceRowResponse {
		return TrialBalanceRowResponse{
			AccountID:   row.AccountID,
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			AccountType: row.AccountType.String(),
			DebitTotal:  row.DebitTotal,
			CreditTotal: row.CreditTotal,
			Balance:     row.Balance(),
		}
	})

	return &TrialBalanceResponse{
		AsOfDate:    asOfDate.Format("2006-01-02"),
		GeneratedAt: tb.GeneratedAt,
		Accounts:    rows,
		Totals: TrialBalanceTotalsResponse{
			TotalDebit:  tb.Totals.TotalDebit,
			TotalCredit: tb.Totals.TotalCredit,
			IsBalanced:  tb.Totals.IsBalanced,
			Difference:  tb.Totals.Difference,
		},
	}, nil
}

// trialBalanceCSVRow is one exported CSV line. Subtotal and grand total rows
// reuse the same shape with the code column blank.
type trialBalanceCSVRow struct {
	AccountCode string `csv:"account_code"`
	AccountName string `csv:"account_name"`
	AccountType string `csv:"account_type"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Balance     string `csv:"balance"`
}

// ExportTrialBalanceCSV renders the trial balance as CSV: one row per
// account, a subtotal row per account-type group, and a grand total row.
func (s *TrialBalanceService) ExportTrialBalanceCSV(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time) (string, error) {
	report, err := s.GetTrialBalance(ctx, tenantID, asOfDate)
	if err != nil {
		return "", err
	}

	grouped := lo.PartitionBy(report.Accounts, func(row TrialBalanceRowResponse) string {
		return row.AccountType
	})

	rows := make([]trialBalanceCSVRow, 0, len(report.Accounts)+len(grouped)+1)
	for _, group := range grouped {
		groupDebit := decimal.Zero
		groupCredit := decimal.Zero
		for _, row := range group {
			rows = append(rows, trialBalanceCSVRow{
				AccountCode: row.AccountCode,
				AccountName: row.AccountName,
				AccountType: row.AccountType,
				Debit:       row.DebitTotal.StringFixed(2),
				Credit:      row.CreditTotal.StringFixed(2),
				Balance:     row.Balance.StringFixed(2),
			})
			groupDebit = groupDebit.Add(row.DebitTotal)
			groupCredit = groupCredit.Add(row.CreditTotal)
		}
		rows = append(rows, trialBalanceCSVRow{
			AccountName: "Subtotal " + group[0].AccountType,
			AccountType: group[0].AccountType,
			Debit:       groupDebit.StringFixed(2),
			Credit:      groupCredit.StringFixed(2),
			Balance:     groupDebit.Sub(groupCredit).StringFixed(2),
		})
	}
	rows = append(rows, trialBalanceCSVRow{
		AccountName: "Total",
		Debit:       report.Totals.TotalDebit.StringFixed(2),
		Credit:      report.Totals.TotalCredit.StringFixed(2),
		Balance:     report.Totals.Difference.StringFixed(2),
	})

	return gocsv.MarshalString(&rows)
}
