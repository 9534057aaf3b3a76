package ledger

import (
	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// AccountType classifies a ledger account. Reporting order is fixed:
// Asset, Liability, Equity, Income, Expense.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the type is a valid AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// SortOrder returns the position of the type in trial balance reports
func (t AccountType) SortOrder() int {
	switch t {
	case AccountTypeAsset:
		return 0
	case AccountTypeLiability:
		return 1
	case AccountTypeEquity:
		return 2
	case AccountTypeIncome:
		return 3
	case AccountTypeExpense:
		return 4
	}
	return 5
}

// IsDebitNormal returns true for types whose balance grows on the debit side
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a chart-of-accounts entry. Accounts are referenced by journal
// lines and never deleted once posted to; they are deactivated instead.
type Account struct {
	shared.TenantAggregateRoot
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
}

// NewAccount creates a new ledger account
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Invalid account type")
	}

	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		IsActive:            true,
	}, nil
}

// Deactivate marks the account inactive for new postings
func (a *Account) Deactivate() {
	a.IsActive = false
	a.IncrementVersion()
}

// Well-known account codes seeded for every tenant. Posting code paths
// reference accounts by these codes.
const (
	AccountCodeCash            = "1000"
	AccountCodeReceivable      = "1100"
	AccountCodeTaxPayable      = "2100"
	AccountCodeCustomerCredits = "2200"
	AccountCodeOwnersEquity    = "3000"
	AccountCodeSalesRevenue    = "4000"
	AccountCodeSalesReturns    = "4100"
	AccountCodeFreightIncome   = "4200"
	AccountCodeBadDebtExpense  = "5100"
)

// SeedAccount describes one default chart-of-accounts entry
type SeedAccount struct {
	Code string
	Name string
	Type AccountType
}

// DefaultChartOfAccounts returns the accounts seeded for a new tenant
func DefaultChartOfAccounts() []SeedAccount {
	return []SeedAccount{
		{AccountCodeCash, "Cash and Bank", AccountTypeAsset},
		{AccountCodeReceivable, "Accounts Receivable", AccountTypeAsset},
		{AccountCodeTaxPayable, "Tax Payable", AccountTypeLiability},
		{AccountCodeCustomerCredits, "Customer Credits", AccountTypeLiability},
		{AccountCodeOwnersEquity, "Owner's Equity", AccountTypeEquity},
		{AccountCodeSalesRevenue, "Sales Revenue", AccountTypeIncome},
		{AccountCodeSalesReturns, "Sales Returns", AccountTypeIncome},
		{AccountCodeFreightIncome, "Freight Income", AccountTypeIncome},
		{AccountCodeBadDebtExpense, "Bad Debt Expense", AccountTypeExpense},
	}
}
