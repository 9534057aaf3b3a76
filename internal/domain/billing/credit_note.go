package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CreditNoteStatus represents the status of a credit note
type CreditNoteStatus string

const (
	CreditNoteStatusIssued   CreditNoteStatus = "ISSUED"   // Created, credit fully available
	CreditNoteStatusPartial  CreditNoteStatus = "PARTIAL"  // Some credit consumed
	CreditNoteStatusApplied  CreditNoteStatus = "APPLIED"  // Credit fully consumed
	CreditNoteStatusRefunded CreditNoteStatus = "REFUNDED" // Remainder returned as cash, terminal
)

// IsValid checks if the status is a valid CreditNoteStatus
func (s CreditNoteStatus) IsValid() bool {
	switch s {
	case CreditNoteStatusIssued, CreditNoteStatusPartial, CreditNoteStatusApplied, CreditNoteStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation
func (s CreditNoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the credit note is in a terminal state
func (s CreditNoteStatus) IsTerminal() bool {
	return s == CreditNoteStatusApplied || s == CreditNoteStatusRefunded
}

// CanApply returns true if credit can still be applied in this status
func (s CreditNoteStatus) CanApply() bool {
	return s == CreditNoteStatusIssued || s == CreditNoteStatusPartial
}

// CreditLineInput is one requested credit line, referencing a line on the
// original invoice. Quantity and rate are capped by that original line.
type CreditLineInput struct {
	OriginalLineID uuid.UUID       `json:"original_line_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Rate           decimal.Decimal `json:"rate"`
}

// CreditNoteApplication records credit consumed against a target document
type CreditNoteApplication struct {
	ID               uuid.UUID       `json:"id"`
	CreditNoteID     uuid.UUID       `json:"credit_note_id"`
	TargetDocumentID uuid.UUID       `json:"target_document_id"`
	Amount           decimal.Decimal `json:"amount"`
	AppliedAt        time.Time       `json:"applied_at"`
}

// CreditNoteApplications implements GORM Scanner/Valuer for JSONB storage
type CreditNoteApplications []CreditNoteApplication

// Value implements driver.Valuer
func (a CreditNoteApplications) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *CreditNoteApplications) Scan(value interface{}) error {
	return scanJSONB(value, a, func() { *a = CreditNoteApplications{} })
}

// CreditNote is the aggregate root for a credit issued against an invoice.
// A credit note only ever reduces the original sale: every credited line is
// capped by the corresponding original line, and the total is capped by the
// invoice's remaining creditable amount at issuance.
type CreditNote struct {
	shared.TenantAggregateRoot
	CreditNoteNumber  string                 `json:"credit_note_number"`
	OriginalInvoiceID uuid.UUID              `json:"original_invoice_id"`
	CustomerID        uuid.UUID              `json:"customer_id"`
	Reason            string                 `json:"reason"`
	Items             LineItems              `json:"line_items"`
	SubTotal          decimal.Decimal        `json:"sub_total"`
	TaxTotal          decimal.Decimal        `json:"tax_total"`
	Total             decimal.Decimal        `json:"total"`
	CreditsRemaining  decimal.Decimal        `json:"credits_remaining"`
	AppliedAmount     decimal.Decimal        `json:"applied_amount"`
	Status            CreditNoteStatus       `json:"status"`
	Applications      CreditNoteApplications `json:"applications"`
	RefundedAt        *time.Time             `json:"refunded_at,omitempty"`
	RefundMethod      string                 `json:"refund_method,omitempty"`
}

// NewCreditNote issues a credit note against an invoice. Each requested line
// is validated against the original line's quantity/rate ceiling and the
// note total against the invoice's remaining creditable amount.
func NewCreditNote(
	tenantID uuid.UUID,
	creditNoteNumber string,
	invoice *Invoice,
	reason string,
	lines []CreditLineInput,
) (*CreditNote, error) {
	if creditNoteNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Credit note number cannot be empty")
	}
	if invoice == nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Original invoice is required")
	}
	if reason == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Credit note reason is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Credit note requires at least one line")
	}
	if invoice.Status == InvoiceStatusDraft || invoice.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot issue credit note against invoice in %s status", invoice.Status))
	}

	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		orig := invoice.FindLineItem(line.OriginalLineID)
		if orig == nil {
			return nil, shared.NewDomainError(shared.ErrCodeNotFound,
				fmt.Sprintf("Line %s does not exist on invoice %s", line.OriginalLineID, invoice.InvoiceNumber))
		}
		if line.Quantity.IsNegative() || line.Rate.IsNegative() {
			return nil, shared.NewDomainError(shared.ErrCodeValidation, "Credited quantity and rate cannot be negative")
		}
		if line.Quantity.GreaterThan(orig.Quantity) {
			return nil, shared.NewDomainError(shared.ErrCodeExceedsCreditable,
				fmt.Sprintf("Credited quantity %s exceeds original quantity %s for %q", line.Quantity, orig.Quantity, orig.Name))
		}
		if line.Rate.GreaterThan(orig.Rate) {
			return nil, shared.NewDomainError(shared.ErrCodeExceedsCreditable,
				fmt.Sprintf("Credited rate %s exceeds original rate %s for %q", line.Rate, orig.Rate, orig.Name))
		}
		item, err := NewLineItem(orig.Name, orig.Description, orig.HSNCode, line.Quantity, line.Rate, orig.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	totals, err := CalculateTotals(items, NoDiscount(), decimal.Zero)
	if err != nil {
		return nil, err
	}
	creditable := invoice.GrandTotal.Sub(invoice.CreditsApplied)
	if totals.GrandTotal.GreaterThan(creditable) {
		return nil, shared.NewDomainError(shared.ErrCodeExceedsCreditable,
			fmt.Sprintf("Credit note total %s exceeds remaining creditable amount %s", totals.GrandTotal.StringFixed(2), creditable.StringFixed(2)))
	}
	if !totals.GrandTotal.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Credit note total must be positive")
	}

	cn := &CreditNote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CreditNoteNumber:    creditNoteNumber,
		OriginalInvoiceID:   invoice.ID,
		CustomerID:          invoice.CustomerID,
		Reason:              reason,
		Items:               items,
		SubTotal:            totals.SubTotal,
		TaxTotal:            totals.TaxTotal,
		Total:               totals.GrandTotal,
		CreditsRemaining:    totals.GrandTotal,
		AppliedAmount:       decimal.Zero,
		Status:              CreditNoteStatusIssued,
		Applications:        CreditNoteApplications{},
	}
	cn.AddDomainEvent(NewCreditNoteIssuedEvent(cn))
	return cn, nil
}

// Apply consumes credit against a target document.
// Fails with INSUFFICIENT_CREDIT when amount exceeds the remaining credit.
func (cn *CreditNote) Apply(targetDocumentID uuid.UUID, amount valueobject.Money) (*CreditNoteApplication, error) {
	if !cn.Status.CanApply() {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot apply credit note in %s status", cn.Status))
	}
	if targetDocumentID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Target document ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Application amount must be positive")
	}
	if amount.Amount().GreaterThan(cn.CreditsRemaining) {
		return nil, shared.NewDomainError(shared.ErrCodeInsufficientCredit,
			fmt.Sprintf("Application %s exceeds remaining credit %s", amount.StringFixed(2), cn.CreditsRemaining.StringFixed(2)))
	}

	application := CreditNoteApplication{
		ID:               uuid.New(),
		CreditNoteID:     cn.ID,
		TargetDocumentID: targetDocumentID,
		Amount:           amount.Amount(),
		AppliedAt:        time.Now(),
	}
	cn.Applications = append(cn.Applications, application)
	cn.AppliedAmount = cn.AppliedAmount.Add(amount.Amount())
	cn.CreditsRemaining = cn.Total.Sub(cn.AppliedAmount)

	if cn.CreditsRemaining.IsZero() {
		cn.Status = CreditNoteStatusApplied
		cn.AddDomainEvent(NewCreditNoteFullyAppliedEvent(cn))
	} else {
		cn.Status = CreditNoteStatusPartial
	}
	cn.UpdatedAt = time.Now()
	cn.IncrementVersion()
	return &application, nil
}

// Refund closes the credit note by returning the remaining credit as cash.
// Terminal; legal while any credit remains unconsumed.
func (cn *CreditNote) Refund(method string) (decimal.Decimal, error) {
	if !cn.Status.CanApply() {
		return decimal.Zero, shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot refund credit note in %s status", cn.Status))
	}
	if method == "" {
		return decimal.Zero, shared.NewDomainError(shared.ErrCodeValidation, "Refund method is required")
	}
	if !cn.CreditsRemaining.IsPositive() {
		return decimal.Zero, shared.NewDomainError(shared.ErrCodeValidation, "No remaining credit to refund")
	}

	refunded := cn.CreditsRemaining
	now := time.Now()
	cn.Status = CreditNoteStatusRefunded
	cn.RefundedAt = &now
	cn.RefundMethod = method
	cn.AppliedAmount = cn.Total
	cn.CreditsRemaining = decimal.Zero
	cn.UpdatedAt = now
	cn.IncrementVersion()
	cn.AddDomainEvent(NewCreditNoteRefundedEvent(cn, refunded))
	return refunded, nil
}

// ApplicationCount returns the number of recorded applications
func (cn *CreditNote) ApplicationCount() int {
	return len(cn.Applications)
}
