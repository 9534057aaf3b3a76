package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's aggregated position as of the report date
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// Balance returns the row's net balance on the account's normal side.
// Debit-normal accounts report debits minus credits; the rest the inverse.
func (r TrialBalanceRow) Balance() decimal.Decimal {
	if r.AccountType.IsDebitNormal() {
		return r.DebitTotal.Sub(r.CreditTotal)
	}
	return r.CreditTotal.Sub(r.DebitTotal)
}

// TrialBalanceTotals is the ledger-wide debit/credit verification
type TrialBalanceTotals struct {
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	IsBalanced  bool            `json:"is_balanced"`
	Difference  decimal.Decimal `json:"difference"`
}

// TrialBalance is the report over all entries dated on or before AsOfDate.
// An imbalance is reported, never corrected.
type TrialBalance struct {
	TenantID    uuid.UUID          `json:"tenant_id"`
	AsOfDate    time.Time          `json:"as_of_date"`
	GeneratedAt time.Time          `json:"generated_at"`
	Rows        []TrialBalanceRow  `json:"accounts"`
	Totals      TrialBalanceTotals `json:"totals"`
}

// BuildTrialBalance aggregates posted journal entries per account as of the
// given date. Rows are ordered by the fixed account-type order (Asset,
// Liability, Equity, Income, Expense), then by account code. Accounts with
// no postings appear with zero totals so the chart reads complete.
func BuildTrialBalance(tenantID uuid.UUID, asOfDate time.Time, accounts []Account, entries []JournalEntry) TrialBalance {
	rowsByAccount := make(map[uuid.UUID]*TrialBalanceRow, len(accounts))
	for _, acc := range accounts {
		rowsByAccount[acc.ID] = &TrialBalanceRow{
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			AccountName: acc.Name,
			AccountType: acc.Type,
			DebitTotal:  decimal.Zero,
			CreditTotal: decimal.Zero,
		}
	}

	cutoff := asOfDate
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range entries {
		if entries[i].EntryDate.After(cutoff) {
			continue
		}
		for _, line := range entries[i].Lines {
			row, ok := rowsByAccount[line.AccountID]
			if !ok {
				// Posting to an account missing from the chart still counts
				// toward the totals so the imbalance surfaces.
				row = &TrialBalanceRow{
					AccountID:   line.AccountID,
					AccountCode: line.AccountCode,
					AccountName: line.AccountCode,
					AccountType: AccountType("UNKNOWN"),
				}
				rowsByAccount[line.AccountID] = row
			}
			row.DebitTotal = row.DebitTotal.Add(line.Debit)
			row.CreditTotal = row.CreditTotal.Add(line.Credit)
			totalDebit = totalDebit.Add(line.Debit)
			totalCredit = totalCredit.Add(line.Credit)
		}
	}

	rows := make([]TrialBalanceRow, 0, len(rowsByAccount))
	for _, row := range rowsByAccount {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccountType.SortOrder() != rows[j].AccountType.SortOrder() {
			return rows[i].AccountType.SortOrder() < rows[j].AccountType.SortOrder()
		}
		return rows[i].AccountCode < rows[j].AccountCode
	})

	return TrialBalance{
		TenantID:    tenantID,
		AsOfDate:    asOfDate,
		GeneratedAt: time.Now(),
		Rows:        rows,
		Totals: TrialBalanceTotals{
			TotalDebit:  totalDebit,
			TotalCredit: totalCredit,
			IsBalanced:  totalDebit.Equal(totalCredit),
			Difference:  totalDebit.Sub(totalCredit),
		},
	}
}
