package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "DRAFT"       // Created, not yet sent to the customer
	InvoiceStatusSent       InvoiceStatus = "SENT"        // Sent or marked sent
	InvoiceStatusViewed     InvoiceStatus = "VIEWED"      // Customer opened the invoice
	InvoiceStatusPartial    InvoiceStatus = "PARTIAL"     // 0 < balance_due < grand_total
	InvoiceStatusPaid       InvoiceStatus = "PAID"        // balance_due = 0
	InvoiceStatusVoid       InvoiceStatus = "VOID"        // Cancelled before full payment
	InvoiceStatusWrittenOff InvoiceStatus = "WRITTEN_OFF" // Remainder deemed uncollectible
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusVoid, InvoiceStatusWrittenOff:
		return true
	}
	return false
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further mutation is allowed in this status
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusVoid || s == InvoiceStatusWrittenOff
}

// CanAcceptPayment returns true if payments or credits can be applied in this status
func (s InvoiceStatus) CanAcceptPayment() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed || s == InvoiceStatusPartial
}

// CanVoid returns true if the invoice may be voided from this status.
// Paid invoices cannot be voided; the receipt must be reversed first.
func (s InvoiceStatus) CanVoid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartial:
		return true
	}
	return false
}

// Payment represents a payment received against an invoice.
// It is owned exclusively by its invoice and stored as JSONB.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     string          `json:"payment_mode"`
	PaymentDate     time.Time       `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Payments is a slice of Payment implementing GORM Scanner/Valuer for JSONB storage
type Payments []Payment

// Value implements driver.Valuer
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *Payments) Scan(value interface{}) error {
	return scanJSONB(value, p, func() { *p = Payments{} })
}

// CreditApplication records credit-note value consumed by this invoice, stored as JSONB
type CreditApplication struct {
	ID           uuid.UUID       `json:"id"`
	CreditNoteID uuid.UUID       `json:"credit_note_id"`
	Amount       decimal.Decimal `json:"amount"`
	AppliedAt    time.Time       `json:"applied_at"`
}

// CreditApplications is a slice of CreditApplication implementing GORM Scanner/Valuer
type CreditApplications []CreditApplication

// Value implements driver.Valuer
func (c CreditApplications) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *CreditApplications) Scan(value interface{}) error {
	return scanJSONB(value, c, func() { *c = CreditApplications{} })
}

// HistoryEntry is one line of the append-only invoice audit log
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
}

// History is an append-only audit log implementing GORM Scanner/Valuer
type History []HistoryEntry

// Value implements driver.Valuer
func (h History) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner
func (h *History) Scan(value interface{}) error {
	return scanJSONB(value, h, func() { *h = History{} })
}

// LineItems is a slice of LineItem implementing GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LineItems) Scan(value interface{}) error {
	return scanJSONB(value, l, func() { *l = LineItems{} })
}

func scanJSONB(value interface{}, dest interface{}, reset func()) error {
	if value == nil {
		reset()
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
		reset()
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// Invoice is the aggregate root for a customer invoice. All monetary
// invariants (balance_due = grand_total - amount_paid - credits_applied,
// balance_due >= 0) are re-derived on every mutation.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string             `json:"invoice_number"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	Status         InvoiceStatus      `json:"status"`
	Items          LineItems          `json:"line_items"`
	DiscountType   DiscountType       `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	ShippingCharge decimal.Decimal    `json:"shipping_charge"`
	SubTotal       decimal.Decimal    `json:"sub_total"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	GrandTotal     decimal.Decimal    `json:"grand_total"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	CreditsApplied decimal.Decimal    `json:"credits_applied"`
	BalanceDue     decimal.Decimal    `json:"balance_due"`
	Payments       Payments           `json:"payments"`
	CreditRecords  CreditApplications `json:"credit_records"`
	History        History            `json:"history"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	ViewedAt       *time.Time         `json:"viewed_at,omitempty"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	VoidedAt       *time.Time         `json:"voided_at,omitempty"`
	VoidReason     string             `json:"void_reason,omitempty"`
	WrittenOffAt   *time.Time         `json:"written_off_at,omitempty"`
	WriteOffReason string             `json:"write_off_reason,omitempty"`
}

// NewInvoice creates a draft invoice with computed totals.
// At least one line item must have positive quantity and rate.
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	customerID uuid.UUID,
	items []LineItem,
	discount DiscountPolicy,
	shippingCharge decimal.Decimal,
	dueDate *time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Customer ID cannot be empty")
	}
	hasValue := false
	for i := range items {
		if items[i].HasValue() {
			hasValue = true
			break
		}
	}
	if !hasValue {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Invoice requires at least one line item with positive quantity and rate")
	}

	totals, err := CalculateTotals(items, discount, shippingCharge)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		Status:              InvoiceStatusDraft,
		Items:               items,
		DiscountType:        discount.Type,
		DiscountValue:       discount.Value,
		ShippingCharge:      totals.ShippingCharge,
		SubTotal:            totals.SubTotal,
		DiscountAmount:      totals.DiscountAmount,
		TaxTotal:            totals.TaxTotal,
		GrandTotal:          totals.GrandTotal,
		AmountPaid:          decimal.Zero,
		CreditsApplied:      decimal.Zero,
		BalanceDue:          totals.GrandTotal,
		Payments:            Payments{},
		CreditRecords:       CreditApplications{},
		History:             History{},
		DueDate:             dueDate,
	}
	inv.appendHistory("created", fmt.Sprintf("Invoice %s created with grand total %s", invoiceNumber, totals.GrandTotal.StringFixed(2)))
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Send transitions the invoice from DRAFT to SENT
func (inv *Invoice) Send() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.appendHistory("sent", "Invoice sent to customer")
	inv.touch()
	inv.AddDomainEvent(NewInvoiceSentEvent(inv))
	return nil
}

// MarkViewed records the customer-side viewed event. Only meaningful on a
// sent invoice; once payments start the viewed signal is dropped silently.
func (inv *Invoice) MarkViewed() error {
	if inv.Status != InvoiceStatusSent && inv.Status != InvoiceStatusViewed {
		if inv.Status.CanAcceptPayment() {
			return nil
		}
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot mark invoice viewed in %s status", inv.Status))
	}
	if inv.Status == InvoiceStatusViewed {
		return nil
	}
	now := time.Now()
	inv.Status = InvoiceStatusViewed
	inv.ViewedAt = &now
	inv.appendHistory("viewed", "Invoice viewed by customer")
	inv.touch()
	return nil
}

// RecordPayment appends a payment and re-derives balances and status.
// Fails with OVERPAYMENT when amount exceeds the current balance due.
func (inv *Invoice) RecordPayment(amount valueobject.Money, mode string, date time.Time, reference string) (*Payment, error) {
	if !inv.Status.CanAcceptPayment() {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot record payment on invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Payment amount must be positive")
	}
	if mode == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Payment mode cannot be empty")
	}
	if amount.Amount().GreaterThan(inv.BalanceDue) {
		return nil, shared.NewDomainError(shared.ErrCodeOverpayment,
			fmt.Sprintf("Payment %s exceeds balance due %s", amount.StringFixed(2), inv.BalanceDue.StringFixed(2)))
	}

	payment := Payment{
		ID:              uuid.New(),
		InvoiceID:       inv.ID,
		Amount:          amount.Amount(),
		PaymentMode:     mode,
		PaymentDate:     date,
		ReferenceNumber: reference,
		CreatedAt:       time.Now(),
	}
	inv.Payments = append(inv.Payments, payment)
	inv.AmountPaid = inv.AmountPaid.Add(payment.Amount)
	inv.rederiveBalance()
	inv.appendHistory("payment_recorded", fmt.Sprintf("Payment %s via %s (ref %s)", amount.StringFixed(2), mode, reference))
	inv.touch()
	inv.AddDomainEvent(NewPaymentRecordedEvent(inv, &payment))
	if inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	}
	return &payment, nil
}

// DeletePayment removes a payment and re-derives balances, reverting the
// status toward SENT. Deleting a payment from a PAID invoice reopens a
// settled document and therefore requires the explicit reversal flag.
// Returns the removed payment so the caller can post the reversing entry.
func (inv *Invoice) DeletePayment(paymentID uuid.UUID, explicitReversal bool) (*Payment, error) {
	if inv.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot delete payment from invoice in %s status", inv.Status))
	}
	if inv.Status == InvoiceStatusPaid && !explicitReversal {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition, "Deleting a payment from a paid invoice requires an explicit reversal")
	}

	idx := -1
	for i := range inv.Payments {
		if inv.Payments[i].ID == paymentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound, "Payment does not belong to this invoice")
	}

	removed := inv.Payments[idx]
	inv.Payments = append(inv.Payments[:idx], inv.Payments[idx+1:]...)
	inv.AmountPaid = inv.AmountPaid.Sub(removed.Amount)
	inv.PaidAt = nil
	inv.rederiveBalance()
	inv.appendHistory("payment_deleted", fmt.Sprintf("Payment %s (ref %s) removed", removed.Amount.StringFixed(2), removed.ReferenceNumber))
	inv.touch()
	inv.AddDomainEvent(NewPaymentDeletedEvent(inv, &removed))
	return &removed, nil
}

// ApplyCredit consumes credit-note value against this invoice's balance
func (inv *Invoice) ApplyCredit(creditNoteID uuid.UUID, amount valueobject.Money) error {
	if !inv.Status.CanAcceptPayment() {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot apply credit to invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Credit amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.BalanceDue) {
		return shared.NewDomainError(shared.ErrCodeOverpayment,
			fmt.Sprintf("Credit %s exceeds balance due %s", amount.StringFixed(2), inv.BalanceDue.StringFixed(2)))
	}

	inv.CreditRecords = append(inv.CreditRecords, CreditApplication{
		ID:           uuid.New(),
		CreditNoteID: creditNoteID,
		Amount:       amount.Amount(),
		AppliedAt:    time.Now(),
	})
	inv.CreditsApplied = inv.CreditsApplied.Add(amount.Amount())
	inv.rederiveBalance()
	inv.appendHistory("credit_applied", fmt.Sprintf("Credit %s applied from credit note %s", amount.StringFixed(2), creditNoteID))
	inv.touch()
	inv.AddDomainEvent(NewCreditAppliedToInvoiceEvent(inv, creditNoteID, amount.Amount()))
	if inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	}
	return nil
}

// Void cancels the invoice, zeroing the remaining obligation.
// Not allowed once paid or already terminal.
func (inv *Invoice) Void(reason string) error {
	if !inv.Status.CanVoid() {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot void invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusVoid
	inv.VoidedAt = &now
	inv.VoidReason = reason
	inv.BalanceDue = decimal.Zero
	inv.appendHistory("voided", reason)
	inv.touch()
	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv))
	return nil
}

// WriteOff marks the unpaid remainder as uncollectible. Terminal.
func (inv *Invoice) WriteOff(reason string) error {
	if !inv.Status.CanAcceptPayment() {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, fmt.Sprintf("Cannot write off invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Write-off reason is required")
	}
	writtenOff := inv.BalanceDue
	now := time.Now()
	inv.Status = InvoiceStatusWrittenOff
	inv.WrittenOffAt = &now
	inv.WriteOffReason = reason
	inv.BalanceDue = decimal.Zero
	inv.appendHistory("written_off", fmt.Sprintf("Balance %s written off: %s", writtenOff.StringFixed(2), reason))
	inv.touch()
	inv.AddDomainEvent(NewInvoiceWrittenOffEvent(inv, writtenOff))
	return nil
}

// Clone produces a new draft invoice with identical line items and zeroed
// payment/credit history. The source invoice is never mutated.
func (inv *Invoice) Clone(newNumber string) (*Invoice, error) {
	items := make([]LineItem, len(inv.Items))
	for i, li := range inv.Items {
		li.ID = uuid.New()
		li.CreatedAt = time.Now()
		items[i] = li
	}
	clone, err := NewInvoice(
		inv.TenantID,
		newNumber,
		inv.CustomerID,
		items,
		DiscountPolicy{Type: inv.DiscountType, Value: inv.DiscountValue},
		inv.ShippingCharge,
		nil,
	)
	if err != nil {
		return nil, err
	}
	clone.appendHistory("cloned", fmt.Sprintf("Cloned from invoice %s", inv.InvoiceNumber))
	return clone, nil
}

// IsOverdue reports whether the invoice is past due with an open balance.
// Overdue is derived, never persisted.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status.IsTerminal() || inv.Status == InvoiceStatusPaid || inv.Status == InvoiceStatusDraft {
		return false
	}
	if inv.DueDate == nil {
		return false
	}
	return inv.DueDate.Before(now) && inv.BalanceDue.IsPositive()
}

// FindLineItem returns the line item with the given ID, or nil
func (inv *Invoice) FindLineItem(lineID uuid.UUID) *LineItem {
	for i := range inv.Items {
		if inv.Items[i].ID == lineID {
			return &inv.Items[i]
		}
	}
	return nil
}

// PaymentByID returns the payment with the given ID, or nil
func (inv *Invoice) PaymentByID(paymentID uuid.UUID) *Payment {
	for i := range inv.Payments {
		if inv.Payments[i].ID == paymentID {
			return &inv.Payments[i]
		}
	}
	return nil
}

// rederiveBalance recomputes balance_due and the payment-derived status.
// balance_due = grand_total - amount_paid - credits_applied, never negative
// because every application is guarded against the fresh balance.
func (inv *Invoice) rederiveBalance() {
	inv.BalanceDue = inv.GrandTotal.Sub(inv.AmountPaid).Sub(inv.CreditsApplied)

	settled := inv.AmountPaid.Add(inv.CreditsApplied)
	switch {
	case inv.BalanceDue.IsZero() && settled.IsPositive():
		if inv.Status != InvoiceStatusPaid {
			now := time.Now()
			inv.PaidAt = &now
		}
		inv.Status = InvoiceStatusPaid
	case settled.IsPositive():
		inv.Status = InvoiceStatusPartial
	default:
		// All payments removed: fall back to SENT
		inv.Status = InvoiceStatusSent
	}
}

func (inv *Invoice) appendHistory(action, details string) {
	inv.History = append(inv.History, HistoryEntry{
		Timestamp: time.Now(),
		Action:    action,
		Details:   details,
	})
}

func (inv *Invoice) touch() {
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}
