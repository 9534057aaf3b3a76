package billing

import (
	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreditNoteIssuedEvent is raised when a credit note is issued.
// Carries the totals breakdown so the posting listener can build the
// journal entry without reloading the aggregate.
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID      uuid.UUID       `json:"credit_note_id"`
	CreditNoteNumber  string          `json:"credit_note_number"`
	OriginalInvoiceID uuid.UUID       `json:"original_invoice_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	SubTotal          decimal.Decimal `json:"sub_total"`
	TaxTotal          decimal.Decimal `json:"tax_total"`
	Total             decimal.Decimal `json:"total"`
}

// EventType returns the event type name
func (e *CreditNoteIssuedEvent) EventType() string {
	return "CreditNoteIssued"
}

// NewCreditNoteIssuedEvent creates a new CreditNoteIssuedEvent
func NewCreditNoteIssuedEvent(cn *CreditNote) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("CreditNoteIssued", "CreditNote", cn.ID, cn.TenantID),
		CreditNoteID:      cn.ID,
		CreditNoteNumber:  cn.CreditNoteNumber,
		OriginalInvoiceID: cn.OriginalInvoiceID,
		CustomerID:        cn.CustomerID,
		SubTotal:          cn.SubTotal,
		TaxTotal:          cn.TaxTotal,
		Total:             cn.Total,
	}
}

// CreditNoteFullyAppliedEvent is raised when the remaining credit reaches zero
type CreditNoteFullyAppliedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID     uuid.UUID       `json:"credit_note_id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	AppliedAmount    decimal.Decimal `json:"applied_amount"`
}

// EventType returns the event type name
func (e *CreditNoteFullyAppliedEvent) EventType() string {
	return "CreditNoteFullyApplied"
}

// NewCreditNoteFullyAppliedEvent creates a new CreditNoteFullyAppliedEvent
func NewCreditNoteFullyAppliedEvent(cn *CreditNote) *CreditNoteFullyAppliedEvent {
	return &CreditNoteFullyAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CreditNoteFullyApplied", "CreditNote", cn.ID, cn.TenantID),
		CreditNoteID:     cn.ID,
		CreditNoteNumber: cn.CreditNoteNumber,
		AppliedAmount:    cn.AppliedAmount,
	}
}

// CreditNoteRefundedEvent is raised when the remaining credit is refunded as cash
type CreditNoteRefundedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID     uuid.UUID       `json:"credit_note_id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	RefundedAmount   decimal.Decimal `json:"refunded_amount"`
	RefundMethod     string          `json:"refund_method"`
}

// EventType returns the event type name
func (e *CreditNoteRefundedEvent) EventType() string {
	return "CreditNoteRefunded"
}

// NewCreditNoteRefundedEvent creates a new CreditNoteRefundedEvent
func NewCreditNoteRefundedEvent(cn *CreditNote, refunded decimal.Decimal) *CreditNoteRefundedEvent {
	return &CreditNoteRefundedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CreditNoteRefunded", "CreditNote", cn.ID, cn.TenantID),
		CreditNoteID:     cn.ID,
		CreditNoteNumber: cn.CreditNoteNumber,
		RefundedAmount:   refunded,
		RefundMethod:     cn.RefundMethod,
	}
}
