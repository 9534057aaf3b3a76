package trade

import (
	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// SalesOrderCreatedEvent is raised when a sales order is created
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TicketID    uuid.UUID `json:"ticket_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

// EventType returns the event type name
func (e *SalesOrderCreatedEvent) EventType() string {
	return "SalesOrderCreated"
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(order *SalesOrder) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesOrderCreated", "SalesOrder", order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		TicketID:        order.TicketID,
		CustomerID:      order.CustomerID,
	}
}

// SalesOrderSubmittedEvent is raised when a sales order enters the approval pipeline
type SalesOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// EventType returns the event type name
func (e *SalesOrderSubmittedEvent) EventType() string {
	return "SalesOrderSubmitted"
}

// NewSalesOrderSubmittedEvent creates a new SalesOrderSubmittedEvent
func NewSalesOrderSubmittedEvent(order *SalesOrder) *SalesOrderSubmittedEvent {
	return &SalesOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesOrderSubmitted", "SalesOrder", order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
	}
}

// SalesOrderApprovedEvent is raised when the second approval level passes
type SalesOrderApprovedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ApprovedBy  uuid.UUID `json:"approved_by"`
}

// EventType returns the event type name
func (e *SalesOrderApprovedEvent) EventType() string {
	return "SalesOrderApproved"
}

// NewSalesOrderApprovedEvent creates a new SalesOrderApprovedEvent
func NewSalesOrderApprovedEvent(order *SalesOrder, actorID uuid.UUID) *SalesOrderApprovedEvent {
	return &SalesOrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesOrderApproved", "SalesOrder", order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		ApprovedBy:      actorID,
	}
}

// SalesOrderRejectedEvent is raised when an approver rejects the order
type SalesOrderRejectedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	RejectedBy  uuid.UUID `json:"rejected_by"`
	Reason      string    `json:"reason,omitempty"`
}

// EventType returns the event type name
func (e *SalesOrderRejectedEvent) EventType() string {
	return "SalesOrderRejected"
}

// NewSalesOrderRejectedEvent creates a new SalesOrderRejectedEvent
func NewSalesOrderRejectedEvent(order *SalesOrder, actorID uuid.UUID, reason string) *SalesOrderRejectedEvent {
	return &SalesOrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesOrderRejected", "SalesOrder", order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		RejectedBy:      actorID,
		Reason:          reason,
	}
}

// SalesOrderInvoicedEvent is raised when the order converts to an invoice
type SalesOrderInvoicedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
}

// EventType returns the event type name
func (e *SalesOrderInvoicedEvent) EventType() string {
	return "SalesOrderInvoiced"
}

// NewSalesOrderInvoicedEvent creates a new SalesOrderInvoicedEvent
func NewSalesOrderInvoicedEvent(order *SalesOrder, invoiceID uuid.UUID) *SalesOrderInvoicedEvent {
	return &SalesOrderInvoicedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesOrderInvoiced", "SalesOrder", order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		InvoiceID:       invoiceID,
	}
}
