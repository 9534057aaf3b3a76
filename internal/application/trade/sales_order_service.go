package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/trade"
	"github.com/servicebooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalesOrderService provides application-level sales order operations,
// including the two-step approval workflow and conversion to an invoice.
type SalesOrderService struct {
	orderRepo   trade.SalesOrderRepository
	invoiceRepo billing.InvoiceRepository
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	orderRepo trade.SalesOrderRepository,
	invoiceRepo billing.InvoiceRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *SalesOrderService {
	return &SalesOrderService{
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// ServiceLineRequest is one requested service line
type ServiceLineRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	HSNCode     string          `json:"hsn_code"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Rate        decimal.Decimal `json:"rate" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// PartLineRequest is one requested part line
type PartLineRequest struct {
	Name     string          `json:"name" binding:"required"`
	PartCode string          `json:"part_code"`
	HSNCode  string          `json:"hsn_code"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Rate     decimal.Decimal `json:"rate" binding:"required"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
}

// CreateSalesOrderRequest creates a draft sales order for a service ticket
type CreateSalesOrderRequest struct {
	TicketID        uuid.UUID            `json:"ticket_id" binding:"required"`
	CustomerID      uuid.UUID            `json:"customer_id" binding:"required"`
	Services        []ServiceLineRequest `json:"services" binding:"dive"`
	Parts           []PartLineRequest    `json:"parts" binding:"dive"`
	LaborCharges    decimal.Decimal      `json:"labor_charges"`
	LaborTaxRate    decimal.Decimal      `json:"labor_tax_rate"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	Remark          string               `json:"remark"`
	ActorID         uuid.UUID            `json:"-"`
}

// UpdateSalesOrderLinesRequest replaces a draft order's billable lines
type UpdateSalesOrderLinesRequest struct {
	Services        []ServiceLineRequest `json:"services" binding:"dive"`
	Parts           []PartLineRequest    `json:"parts" binding:"dive"`
	LaborCharges    decimal.Decimal      `json:"labor_charges"`
	LaborTaxRate    decimal.Decimal      `json:"labor_tax_rate"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
}

// ApprovalDecisionRequest records one approver's decision
type ApprovalDecisionRequest struct {
	Decision string    `json:"decision" binding:"required,oneof=LEVEL1_APPROVED LEVEL2_APPROVED REJECTED"`
	ActorID  uuid.UUID `json:"actor_id" binding:"required"`
	Comment  string    `json:"comment"`
}

// ApprovalRecordResponse is one entry in the order's approval audit trail
type ApprovalRecordResponse struct {
	ID        uuid.UUID `json:"id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	ActorID   uuid.UUID `json:"actor_id"`
	Comment   string    `json:"comment,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID              uuid.UUID                `json:"id"`
	TenantID        uuid.UUID                `json:"tenant_id"`
	OrderNumber     string                   `json:"order_number"`
	TicketID        uuid.UUID                `json:"ticket_id"`
	CustomerID      uuid.UUID                `json:"customer_id"`
	Status          string                   `json:"status"`
	ApprovalStatus  string                   `json:"approval_status"`
	Services        []trade.ServiceLine      `json:"services"`
	Parts           []trade.PartLine         `json:"parts"`
	LaborCharges    decimal.Decimal          `json:"labor_charges"`
	LaborTaxRate    decimal.Decimal          `json:"labor_tax_rate"`
	DiscountPercent decimal.Decimal          `json:"discount_percent"`
	Approvals       []ApprovalRecordResponse `json:"approvals"`
	InvoiceID       *uuid.UUID               `json:"invoice_id,omitempty"`
	SubmittedAt     *time.Time               `json:"submitted_at,omitempty"`
	InvoicedAt      *time.Time               `json:"invoiced_at,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	Remark          string                   `json:"remark,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Version         int                      `json:"version"`
}

// SalesOrderListFilter defines filtering options for sales order list queries
type SalesOrderListFilter struct {
	Search         string     `form:"search"`
	CustomerID     *uuid.UUID `form:"customer_id"`
	TicketID       *uuid.UUID `form:"ticket_id"`
	Status         string     `form:"status"`
	ApprovalStatus string     `form:"approval_status"`
	Page           int        `form:"page"`
	PageSize       int        `form:"page_size"`
}

func toSalesOrderResponse(o *trade.SalesOrder) *SalesOrderResponse {
	return &SalesOrderResponse{
		ID:              o.ID,
		TenantID:        o.TenantID,
		OrderNumber:     o.OrderNumber,
		TicketID:        o.TicketID,
		CustomerID:      o.CustomerID,
		Status:          o.Status.String(),
		ApprovalStatus:  o.ApprovalStatus.String(),
		Services:        o.Services,
		Parts:           o.Parts,
		LaborCharges:    o.LaborCharges,
		LaborTaxRate:    o.LaborTaxRate,
		DiscountPercent: o.DiscountPercent,
		Approvals: lo.Map(o.Approvals, func(r trade.ApprovalRecord, _ int) ApprovalRecordResponse {
			return ApprovalRecordResponse{
				ID:        r.ID,
				FromState: r.FromState.String(),
				ToState:   r.ToState.String(),
				ActorID:   r.ActorID,
				Comment:   r.Comment,
				DecidedAt: r.DecidedAt,
			}
		}),
		InvoiceID:   o.InvoiceID,
		SubmittedAt: o.SubmittedAt,
		InvoicedAt:  o.InvoicedAt,
		CompletedAt: o.CompletedAt,
		Remark:      o.Remark,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Version:     o.Version,
	}
}

func applyLines(order *trade.SalesOrder, services []ServiceLineRequest, parts []PartLineRequest, labor, laborTax, discount decimal.Decimal) error {
	for _, sl := range services {
		if _, err := order.AddService(sl.Name, sl.Description, sl.HSNCode, sl.Quantity, sl.Rate, sl.TaxRate); err != nil {
			return err
		}
	}
	for _, pl := range parts {
		if _, err := order.AddPart(pl.Name, pl.PartCode, pl.HSNCode, pl.Quantity, pl.Rate, pl.TaxRate); err != nil {
			return err
		}
	}
	if labor.IsPositive() {
		if err := order.SetLaborCharges(labor, laborTax); err != nil {
			return err
		}
	}
	if err := order.SetDiscountPercent(discount); err != nil {
		return err
	}
	return nil
}

// CreateSalesOrder creates a draft sales order with its billable lines
func (s *SalesOrderService) CreateSalesOrder(ctx context.Context, tenantID uuid.UUID, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := trade.NewSalesOrder(tenantID, orderNumber, req.TicketID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	order.Remark = req.Remark
	if req.ActorID != uuid.Nil {
		order.SetCreatedBy(req.ActorID)
	}
	if err := applyLines(order, req.Services, req.Parts, req.LaborCharges, req.LaborTaxRate, req.DiscountPercent); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("sales order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("ticket_id", order.TicketID.String()))
	return toSalesOrderResponse(order), nil
}

// GetSalesOrderByID gets a sales order by ID
func (s *SalesOrderService) GetSalesOrderByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.loadOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toSalesOrderResponse(order), nil
}

// ListSalesOrders lists sales orders with filtering
func (s *SalesOrderService) ListSalesOrders(ctx context.Context, tenantID uuid.UUID, filter SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	domainFilter := trade.SalesOrderFilter{
		CustomerID: filter.CustomerID,
		TicketID:   filter.TicketID,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := trade.OrderStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.ApprovalStatus != "" {
		approval := trade.ApprovalStatus(filter.ApprovalStatus)
		domainFilter.ApprovalStatus = &approval
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := lo.Map(orders, func(o trade.SalesOrder, _ int) SalesOrderResponse {
		return *toSalesOrderResponse(&o)
	})
	return responses, total, nil
}

// UpdateSalesOrderLines replaces a draft order's billable lines
func (s *SalesOrderService) UpdateSalesOrderLines(ctx context.Context, tenantID, orderID uuid.UUID, req UpdateSalesOrderLinesRequest) (*SalesOrderResponse, error) {
	order, err := s.loadOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != trade.OrderStatusDraft {
		return nil, shared.NewDomainError(shared.ErrCodeInvalidTransition, "Only draft orders can be edited")
	}
	order.Services = trade.ServiceLines{}
	order.Parts = trade.PartLines{}
	order.LaborCharges = decimal.Zero
	order.LaborTaxRate = decimal.Zero
	if err := applyLines(order, req.Services, req.Parts, req.LaborCharges, req.LaborTaxRate, req.DiscountPercent); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return toSalesOrderResponse(order), nil
}

// SubmitSalesOrder moves a draft order into the approval queue
func (s *SalesOrderService) SubmitSalesOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.loadOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Submit(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("sales order submitted for approval",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.OrderNumber))
	return toSalesOrderResponse(order), nil
}

// DecideApproval records one approver's decision. Level ordering is enforced
// by the aggregate; a skipped level is rejected before any state changes.
func (s *SalesOrderService) DecideApproval(ctx context.Context, tenantID, orderID uuid.UUID, req ApprovalDecisionRequest) (*SalesOrderResponse, error) {
	target := trade.ApprovalStatus(req.Decision)

	var response *SalesOrderResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		order, err := s.loadOrder(txCtx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.TransitionApproval(target, req.ActorID, req.Comment); err != nil {
			return err
		}
		if err := s.orderRepo.SaveWithLock(txCtx, order); err != nil {
			return err
		}
		response = toSalesOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales order approval decided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("decision", req.Decision))
	return response, nil
}

// ConvertToInvoice turns a fully approved order into a draft invoice. The
// invoice starts in DRAFT, so no journal entry is posted until it is sent.
func (s *SalesOrderService) ConvertToInvoice(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "convert_to_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSalesOrderID, orderID)

	var response *SalesOrderResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		order, err := s.loadOrder(txCtx, tenantID, orderID)
		if err != nil {
			return err
		}
		if !order.CanConvert() {
			return shared.NewDomainError(shared.ErrCodeInvalidApproval,
				"Sales order must pass both approval levels before invoicing")
		}
		items, err := order.BillableLineItems()
		if err != nil {
			return err
		}
		discount := billing.NoDiscount()
		if order.DiscountPercent.IsPositive() {
			discount = billing.DiscountPolicy{
				Type:  billing.DiscountTypePercentage,
				Value: order.DiscountPercent,
			}
		}

		invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(txCtx, tenantID)
		if err != nil {
			return err
		}
		invoice, err := billing.NewInvoice(tenantID, invoiceNumber, order.CustomerID, items, discount, decimal.Zero, nil)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
			return err
		}
		if err := order.MarkInvoiced(invoice.ID); err != nil {
			return err
		}
		if err := s.orderRepo.SaveWithLock(txCtx, order); err != nil {
			return err
		}
		telemetry.AddEvent(span, "order_invoiced",
			telemetry.SpanAttrInvoiceID, invoice.ID,
			telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber)
		response = toSalesOrderResponse(order)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("sales order converted to invoice",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("invoice_id", response.InvoiceID.String()))
	return response, nil
}

// CompleteSalesOrder closes an invoiced order
func (s *SalesOrderService) CompleteSalesOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.loadOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Complete(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return toSalesOrderResponse(order), nil
}

func (s *SalesOrderService) loadOrder(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound, "Sales order not found")
	}
	return order, nil
}
