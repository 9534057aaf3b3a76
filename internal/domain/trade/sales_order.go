package trade

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle status of a sales order
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "DRAFT"            // Being assembled
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL" // Submitted for approval
	OrderStatusApproved        OrderStatus = "APPROVED"         // Passed both approval levels
	OrderStatusInvoiced        OrderStatus = "INVOICED"         // Converted to an invoice
	OrderStatusCompleted       OrderStatus = "COMPLETED"        // Work delivered and closed
	OrderStatusRejected        OrderStatus = "REJECTED"         // Approval rejected, terminal
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPendingApproval, OrderStatusApproved,
		OrderStatusInvoiced, OrderStatusCompleted, OrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that allow no further transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusRejected
}

// ApprovalStatus represents the position in the two-stage approval gate
type ApprovalStatus string

const (
	ApprovalStatusPending        ApprovalStatus = "PENDING"
	ApprovalStatusLevel1Approved ApprovalStatus = "LEVEL1_APPROVED"
	ApprovalStatusLevel2Approved ApprovalStatus = "LEVEL2_APPROVED"
	ApprovalStatusRejected       ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusLevel1Approved,
		ApprovalStatusLevel2Approved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the gate has fully passed or rejected
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusLevel2Approved || s == ApprovalStatusRejected
}

// CanTransitionTo enforces the strictly ordered approval gate. Level 2 is
// reachable only through level 1; rejection is reachable from any
// non-terminal position and is final.
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	switch s {
	case ApprovalStatusPending:
		return target == ApprovalStatusLevel1Approved || target == ApprovalStatusRejected
	case ApprovalStatusLevel1Approved:
		return target == ApprovalStatusLevel2Approved || target == ApprovalStatusRejected
	case ApprovalStatusLevel2Approved, ApprovalStatusRejected:
		return false // Terminal states
	}
	return false
}

// ServiceLine is one service performed on the ticket
type ServiceLine struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	HSNCode     string          `json:"hsn_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// PartLine is one part or material consumed on the ticket
type PartLine struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	PartCode string          `json:"part_code,omitempty"`
	HSNCode  string          `json:"hsn_code,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
}

// ServiceLines implements GORM Scanner/Valuer for JSONB storage
type ServiceLines []ServiceLine

// Value implements driver.Valuer
func (l ServiceLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *ServiceLines) Scan(value interface{}) error {
	return scanJSONB(value, l, func() { *l = ServiceLines{} })
}

// PartLines implements GORM Scanner/Valuer for JSONB storage
type PartLines []PartLine

// Value implements driver.Valuer
func (l PartLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *PartLines) Scan(value interface{}) error {
	return scanJSONB(value, l, func() { *l = PartLines{} })
}

// ApprovalRecord is one decision taken on the order's approval gate
type ApprovalRecord struct {
	ID        uuid.UUID      `json:"id"`
	FromState ApprovalStatus `json:"from_state"`
	ToState   ApprovalStatus `json:"to_state"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Comment   string         `json:"comment,omitempty"`
	DecidedAt time.Time      `json:"decided_at"`
}

// ApprovalRecords implements GORM Scanner/Valuer for JSONB storage
type ApprovalRecords []ApprovalRecord

// Value implements driver.Valuer
func (r ApprovalRecords) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *ApprovalRecords) Scan(value interface{}) error {
	return scanJSONB(value, r, func() { *r = ApprovalRecords{} })
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

// SalesOrder is the aggregate root for a service work order raised against a
// ticket. It carries service lines, part lines and labor charges, and must
// pass the two-stage approval gate before converting to an invoice.
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber     string          `json:"order_number"`
	TicketID        uuid.UUID       `json:"ticket_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Services        ServiceLines    `json:"services"`
	Parts           PartLines       `json:"parts"`
	LaborCharges    decimal.Decimal `json:"labor_charges"`
	LaborTaxRate    decimal.Decimal `json:"labor_tax_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Status          OrderStatus     `json:"status"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	Approvals       ApprovalRecords `json:"approvals"`
	InvoiceID       *uuid.UUID      `json:"invoice_id,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	InvoicedAt      *time.Time      `json:"invoiced_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Remark          string          `json:"remark,omitempty"`
}

// NewSalesOrder creates a draft sales order for a service ticket
func NewSalesOrder(
	tenantID uuid.UUID,
	orderNumber string,
	ticketID uuid.UUID,
	customerID uuid.UUID,
) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Order number cannot be empty")
	}
	if ticketID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Ticket ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Customer ID cannot be empty")
	}

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		TicketID:            ticketID,
		CustomerID:          customerID,
		Services:            ServiceLines{},
		Parts:               PartLines{},
		LaborCharges:        decimal.Zero,
		LaborTaxRate:        decimal.Zero,
		DiscountPercent:     decimal.Zero,
		Status:              OrderStatusDraft,
		ApprovalStatus:      ApprovalStatusPending,
		Approvals:           ApprovalRecords{},
	}
	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))
	return order, nil
}

// AddService appends a service line. Draft only.
func (o *SalesOrder) AddService(name, description, hsnCode string, quantity, rate, taxRate decimal.Decimal) (*ServiceLine, error) {
	if err := o.ensureEditable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Service name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Service quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Service rate cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Tax rate must be between 0 and 100")
	}

	line := ServiceLine{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		HSNCode:     hsnCode,
		Quantity:    quantity,
		Rate:        rate,
		TaxRate:     taxRate,
	}
	o.Services = append(o.Services, line)
	o.touch()
	return &line, nil
}

// AddPart appends a part line. Draft only.
func (o *SalesOrder) AddPart(name, partCode, hsnCode string, quantity, rate, taxRate decimal.Decimal) (*PartLine, error) {
	if err := o.ensureEditable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Part name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Part quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Part rate cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Tax rate must be between 0 and 100")
	}

	line := PartLine{
		ID:       uuid.New(),
		Name:     name,
		PartCode: partCode,
		HSNCode:  hsnCode,
		Quantity: quantity,
		Rate:     rate,
		TaxRate:  taxRate,
	}
	o.Parts = append(o.Parts, line)
	o.touch()
	return &line, nil
}

// SetLaborCharges sets the flat labor charge and its tax rate. Draft only.
func (o *SalesOrder) SetLaborCharges(amount, taxRate decimal.Decimal) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Labor charges cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError(shared.ErrCodeValidation, "Tax rate must be between 0 and 100")
	}
	o.LaborCharges = amount
	o.LaborTaxRate = taxRate
	o.touch()
	return nil
}

// SetDiscountPercent sets the whole-order percentage discount. Draft only.
func (o *SalesOrder) SetDiscountPercent(percent decimal.Decimal) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError(shared.ErrCodeValidation, "Discount percent must be between 0 and 100")
	}
	o.DiscountPercent = percent
	o.touch()
	return nil
}

// Submit moves the order from DRAFT into the approval pipeline.
// At least one billable line (service, part or labor) is required.
func (o *SalesOrder) Submit() error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot submit sales order in %s status", o.Status))
	}
	if len(o.Services) == 0 && len(o.Parts) == 0 && !o.LaborCharges.IsPositive() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Sales order has no billable lines")
	}
	now := time.Now()
	o.Status = OrderStatusPendingApproval
	o.SubmittedAt = &now
	o.touch()
	o.AddDomainEvent(NewSalesOrderSubmittedEvent(o))
	return nil
}

// TransitionApproval advances the approval gate to the target state.
// Out-of-order requests (skipping level 1, moving out of a terminal state)
// fail with INVALID_APPROVAL_TRANSITION. A rejected order stays rejected;
// it must be recreated, not resurrected.
func (o *SalesOrder) TransitionApproval(target ApprovalStatus, actorID uuid.UUID, comment string) error {
	if o.Status != OrderStatusPendingApproval {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot approve sales order in %s status", o.Status))
	}
	if !target.IsValid() || target == ApprovalStatusPending {
		return shared.NewDomainError(shared.ErrCodeValidation,
			fmt.Sprintf("Invalid approval target %q", target))
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError(shared.ErrCodeValidation, "Approval actor is required")
	}
	if !o.ApprovalStatus.CanTransitionTo(target) {
		return shared.NewDomainError(shared.ErrCodeInvalidApproval,
			fmt.Sprintf("Cannot transition approval from %s to %s", o.ApprovalStatus, target))
	}

	record := ApprovalRecord{
		ID:        uuid.New(),
		FromState: o.ApprovalStatus,
		ToState:   target,
		ActorID:   actorID,
		Comment:   comment,
		DecidedAt: time.Now(),
	}
	o.Approvals = append(o.Approvals, record)
	o.ApprovalStatus = target

	switch target {
	case ApprovalStatusLevel2Approved:
		o.Status = OrderStatusApproved
		o.AddDomainEvent(NewSalesOrderApprovedEvent(o, actorID))
	case ApprovalStatusRejected:
		o.Status = OrderStatusRejected
		o.AddDomainEvent(NewSalesOrderRejectedEvent(o, actorID, comment))
	}
	o.touch()
	return nil
}

// BillableLineItems flattens services, parts and labor into invoice line
// items, in that order. Labor is emitted as a single quantity-one line.
func (o *SalesOrder) BillableLineItems() ([]billing.LineItem, error) {
	items := make([]billing.LineItem, 0, len(o.Services)+len(o.Parts)+1)
	for _, svc := range o.Services {
		item, err := billing.NewLineItem(svc.Name, svc.Description, svc.HSNCode, svc.Quantity, svc.Rate, svc.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	for _, part := range o.Parts {
		item, err := billing.NewLineItem(part.Name, part.PartCode, part.HSNCode, part.Quantity, part.Rate, part.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if o.LaborCharges.IsPositive() {
		item, err := billing.NewLineItem("Labor charges", "", "", decimal.NewFromInt(1), o.LaborCharges, o.LaborTaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// MarkInvoiced records the conversion to an invoice.
// Only a fully approved order may convert.
func (o *SalesOrder) MarkInvoiced(invoiceID uuid.UUID) error {
	if o.Status != OrderStatusApproved || o.ApprovalStatus != ApprovalStatusLevel2Approved {
		return shared.NewDomainError(shared.ErrCodeInvalidApproval,
			fmt.Sprintf("Cannot convert sales order with approval status %s", o.ApprovalStatus))
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError(shared.ErrCodeValidation, "Invoice ID cannot be empty")
	}
	now := time.Now()
	o.Status = OrderStatusInvoiced
	o.InvoiceID = &invoiceID
	o.InvoicedAt = &now
	o.touch()
	o.AddDomainEvent(NewSalesOrderInvoicedEvent(o, invoiceID))
	return nil
}

// Complete closes an invoiced order once the work is delivered
func (o *SalesOrder) Complete() error {
	if o.Status != OrderStatusInvoiced {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot complete sales order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.touch()
	return nil
}

// CanConvert reports whether the order is eligible for invoice conversion
func (o *SalesOrder) CanConvert() bool {
	return o.Status == OrderStatusApproved && o.ApprovalStatus == ApprovalStatusLevel2Approved
}

func (o *SalesOrder) ensureEditable() error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot modify sales order in %s status", o.Status))
	}
	return nil
}

func (o *SalesOrder) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
