package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SourceType identifies the document that produced a journal entry
type SourceType string

const (
	SourceTypeInvoice    SourceType = "INVOICE"
	SourceTypePayment    SourceType = "PAYMENT"
	SourceTypeReversal   SourceType = "REVERSAL"
	SourceTypeCreditNote SourceType = "CREDIT_NOTE"
	SourceTypeRefund     SourceType = "REFUND"
	SourceTypeWriteOff   SourceType = "WRITE_OFF"
	SourceTypeManual     SourceType = "MANUAL"
)

// IsValid checks if the source type is valid
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeInvoice, SourceTypePayment, SourceTypeReversal,
		SourceTypeCreditNote, SourceTypeRefund, SourceTypeWriteOff, SourceTypeManual:
		return true
	}
	return false
}

// String returns the string representation
func (t SourceType) String() string {
	return string(t)
}

// JournalLine is a single debit or credit posting. Exactly one side is
// positive; the other is zero.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// NewDebitLine creates a debit posting to an account
func NewDebitLine(accountID uuid.UUID, accountCode string, amount decimal.Decimal, memo string) JournalLine {
	return JournalLine{
		ID:          uuid.New(),
		AccountID:   accountID,
		AccountCode: accountCode,
		Debit:       amount,
		Credit:      decimal.Zero,
		Memo:        memo,
	}
}

// NewCreditLine creates a credit posting to an account
func NewCreditLine(accountID uuid.UUID, accountCode string, amount decimal.Decimal, memo string) JournalLine {
	return JournalLine{
		ID:          uuid.New(),
		AccountID:   accountID,
		AccountCode: accountCode,
		Debit:       decimal.Zero,
		Credit:      amount,
		Memo:        memo,
	}
}

func (l JournalLine) validate() error {
	if l.AccountID == uuid.Nil {
		return shared.NewDomainError(shared.ErrCodeValidation, "Journal line account ID cannot be empty")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Journal line amounts cannot be negative")
	}
	if l.Debit.IsPositive() && l.Credit.IsPositive() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Journal line cannot carry both a debit and a credit")
	}
	if l.Debit.IsZero() && l.Credit.IsZero() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Journal line must carry a debit or a credit")
	}
	return nil
}

// JournalLines implements GORM Scanner/Valuer for JSONB storage
type JournalLines []JournalLine

// Value implements driver.Valuer
func (l JournalLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *JournalLines) Scan(value interface{}) error {
	if value == nil {
		*l = JournalLines{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONB column: unsupported type")
	}
	if len(bytes) == 0 {
		*l = JournalLines{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// JournalEntry is one balanced financial event: a batch of debit/credit
// lines whose sums match exactly, compared at full precision and never
// rounded. An unbalanced batch indicates a defect in the posting code path
// and is rejected as a hard failure.
type JournalEntry struct {
	shared.TenantAggregateRoot
	EntryNumber string          `json:"entry_number"`
	EntryDate   time.Time       `json:"entry_date"`
	Description string          `json:"description"`
	SourceType  SourceType      `json:"source_type"`
	SourceID    uuid.UUID       `json:"source_id"`
	Lines       JournalLines    `json:"lines"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// NewJournalEntry creates a balanced journal entry.
// Fails with UNBALANCED_ENTRY when the debit and credit sums differ.
func NewJournalEntry(
	tenantID uuid.UUID,
	entryNumber string,
	entryDate time.Time,
	description string,
	sourceType SourceType,
	sourceID uuid.UUID,
	lines []JournalLine,
) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Entry number cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Invalid journal source type")
	}
	if len(lines) < 2 {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Journal entry requires at least two lines")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		if err := line.validate(); err != nil {
			return nil, err
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	// Exact comparison, not tolerance-based. Surfacing the imbalance is the
	// whole point of the check.
	if !totalDebit.Equal(totalCredit) {
		return nil, shared.NewDomainError(shared.ErrCodeUnbalancedEntry,
			fmt.Sprintf("Journal entry is unbalanced: debits %s, credits %s", totalDebit, totalCredit))
	}

	return &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryNumber:         entryNumber,
		EntryDate:           entryDate,
		Description:         description,
		SourceType:          sourceType,
		SourceID:            sourceID,
		Lines:               lines,
		TotalDebit:          totalDebit,
		TotalCredit:         totalCredit,
	}, nil
}

// Reverse builds the mirror entry: every debit becomes a credit and vice
// versa, dated at reversalDate.
func (e *JournalEntry) Reverse(entryNumber string, reversalDate time.Time, description string) (*JournalEntry, error) {
	reversed := make([]JournalLine, 0, len(e.Lines))
	for _, line := range e.Lines {
		if line.Debit.IsPositive() {
			reversed = append(reversed, NewCreditLine(line.AccountID, line.AccountCode, line.Debit, line.Memo))
		} else {
			reversed = append(reversed, NewDebitLine(line.AccountID, line.AccountCode, line.Credit, line.Memo))
		}
	}
	return NewJournalEntry(e.TenantID, entryNumber, reversalDate, description, SourceTypeReversal, e.ID, reversed)
}
