package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		GrandTotal:      inv.GrandTotal,
		DueDate:         inv.DueDate,
	}
}

// InvoiceSentEvent is raised when an invoice is sent to the customer
type InvoiceSentEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	DiscountAmt   decimal.Decimal `json:"discount_amount"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Shipping      decimal.Decimal `json:"shipping_charge"`
}

// EventType returns the event type name
func (e *InvoiceSentEvent) EventType() string {
	return "InvoiceSent"
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(inv *Invoice) *InvoiceSentEvent {
	return &InvoiceSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceSent", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		GrandTotal:      inv.GrandTotal,
		SubTotal:        inv.SubTotal,
		DiscountAmt:     inv.DiscountAmount,
		TaxTotal:        inv.TaxTotal,
		Shipping:        inv.ShippingCharge,
	}
}

// PaymentRecordedEvent is raised when a payment is applied to an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   string          `json:"payment_mode"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		PaymentMode:     p.PaymentMode,
		BalanceDue:      inv.BalanceDue,
	}
}

// PaymentDeletedEvent is raised when a payment is removed from an invoice
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
}

// EventType returns the event type name
func (e *PaymentDeletedEvent) EventType() string {
	return "PaymentDeleted"
}

// NewPaymentDeletedEvent creates a new PaymentDeletedEvent
func NewPaymentDeletedEvent(inv *Invoice, p *Payment) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentDeleted", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		BalanceDue:      inv.BalanceDue,
	}
}

// InvoicePaidEvent is raised when the balance due reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	CreditsApplied decimal.Decimal `json:"credits_applied"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		GrandTotal:      inv.GrandTotal,
		AmountPaid:      inv.AmountPaid,
		CreditsApplied:  inv.CreditsApplied,
	}
}

// CreditAppliedToInvoiceEvent is raised when credit-note value is consumed by an invoice
type CreditAppliedToInvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	CreditNoteID uuid.UUID       `json:"credit_note_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
}

// EventType returns the event type name
func (e *CreditAppliedToInvoiceEvent) EventType() string {
	return "CreditAppliedToInvoice"
}

// NewCreditAppliedToInvoiceEvent creates a new CreditAppliedToInvoiceEvent
func NewCreditAppliedToInvoiceEvent(inv *Invoice, creditNoteID uuid.UUID, amount decimal.Decimal) *CreditAppliedToInvoiceEvent {
	return &CreditAppliedToInvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditAppliedToInvoice", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		CreditNoteID:    creditNoteID,
		Amount:          amount,
		BalanceDue:      inv.BalanceDue,
	}
}

// InvoiceVoidedEvent is raised when an invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	VoidReason    string    `json:"void_reason,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceVoidedEvent) EventType() string {
	return "InvoiceVoided"
}

// NewInvoiceVoidedEvent creates a new InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceVoided", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		VoidReason:      inv.VoidReason,
	}
}

// InvoiceWrittenOffEvent is raised when an invoice remainder is written off
type InvoiceWrittenOffEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceWrittenOffEvent) EventType() string {
	return "InvoiceWrittenOff"
}

// NewInvoiceWrittenOffEvent creates a new InvoiceWrittenOffEvent
func NewInvoiceWrittenOffEvent(inv *Invoice, amount decimal.Decimal) *InvoiceWrittenOffEvent {
	return &InvoiceWrittenOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceWrittenOff", "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Amount:          amount,
		Reason:          inv.WriteOffReason,
	}
}
