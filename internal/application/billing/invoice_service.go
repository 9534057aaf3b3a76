package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	ledgerapp "github.com/servicebooks/backend/internal/application/ledger"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/shared/valueobject"
	"github.com/servicebooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService provides application-level invoice operations. Every
// read-then-write on a balance runs under a per-document lock and inside a
// transaction shared with its journal posting.
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	poster      *ledgerapp.PostingService
	txManager   shared.TransactionManager
	locker      shared.DocumentLocker
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	poster *ledgerapp.PostingService,
	txManager shared.TransactionManager,
	locker shared.DocumentLocker,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		poster:      poster,
		txManager:   txManager,
		locker:      locker,
		logger:      logger,
	}
}

// LineItemRequest is one requested invoice line
type LineItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	HSNCode     string          `json:"hsn_code"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Rate        decimal.Decimal `json:"rate" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest creates a draft invoice
type CreateInvoiceRequest struct {
	CustomerID     uuid.UUID         `json:"customer_id" binding:"required"`
	LineItems      []LineItemRequest `json:"line_items" binding:"required,min=1,dive"`
	DiscountType   string            `json:"discount_type"`
	DiscountValue  decimal.Decimal   `json:"discount_value"`
	ShippingCharge decimal.Decimal   `json:"shipping_charge"`
	DueDate        *time.Time        `json:"due_date"`
}

// RecordPaymentRequest records a payment against an invoice
type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMode     string          `json:"payment_mode" binding:"required"`
	PaymentDate     time.Time       `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number"`
}

// VoidInvoiceRequest voids an invoice with a reason
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// WriteOffInvoiceRequest writes off an invoice's open balance
type WriteOffInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DeletePaymentRequest carries the explicit-reversal confirmation required
// to reopen a paid invoice
type DeletePaymentRequest struct {
	ExplicitReversal bool `json:"explicit_reversal"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     string          `json:"payment_mode"`
	PaymentDate     time.Time       `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InvoiceResponse represents an invoice in API responses.
// Mutations return the fully updated document so callers never need a
// separate read to observe the new state.
type InvoiceResponse struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	InvoiceNumber  string             `json:"invoice_number"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	Status         string             `json:"status"`
	LineItems      []billing.LineItem `json:"line_items"`
	DiscountType   string             `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	ShippingCharge decimal.Decimal    `json:"shipping_charge"`
	SubTotal       decimal.Decimal    `json:"sub_total"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	GrandTotal     decimal.Decimal    `json:"grand_total"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	CreditsApplied decimal.Decimal    `json:"credits_applied"`
	BalanceDue     decimal.Decimal    `json:"balance_due"`
	Payments       []PaymentResponse  `json:"payments"`
	IsOverdue      bool               `json:"is_overdue"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	VoidReason     string             `json:"void_reason,omitempty"`
	WriteOffReason string             `json:"write_off_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int                `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Overdue    *bool      `form:"overdue"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// InvoiceSummary aggregates a tenant's invoicing position
type InvoiceSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	DraftCount       int64           `json:"draft_count"`
	OpenCount        int64           `json:"open_count"`
	PaidCount        int64           `json:"paid_count"`
	OverdueCount     int64           `json:"overdue_count"`
}

func toPaymentResponse(p billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		Amount:          p.Amount,
		PaymentMode:     p.PaymentMode,
		PaymentDate:     p.PaymentDate,
		ReferenceNumber: p.ReferenceNumber,
		CreatedAt:       p.CreatedAt,
	}
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:             inv.ID,
		TenantID:       inv.TenantID,
		InvoiceNumber:  inv.InvoiceNumber,
		CustomerID:     inv.CustomerID,
		Status:         inv.Status.String(),
		LineItems:      inv.Items,
		DiscountType:   string(inv.DiscountType),
		DiscountValue:  inv.DiscountValue,
		ShippingCharge: inv.ShippingCharge,
		SubTotal:       inv.SubTotal,
		DiscountAmount: inv.DiscountAmount,
		TaxTotal:       inv.TaxTotal,
		GrandTotal:     inv.GrandTotal,
		AmountPaid:     inv.AmountPaid,
		CreditsApplied: inv.CreditsApplied,
		BalanceDue:     inv.BalanceDue,
		Payments:       lo.Map(inv.Payments, func(p billing.Payment, _ int) PaymentResponse { return toPaymentResponse(p) }),
		IsOverdue:      inv.IsOverdue(time.Now()),
		DueDate:        inv.DueDate,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		VoidReason:     inv.VoidReason,
		WriteOffReason: inv.WriteOffReason,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		Version:        inv.Version,
	}
}

func invoiceLockKey(id uuid.UUID) string {
	return "doc:invoice:" + id.String()
}

// CreateInvoice creates a draft invoice with computed totals
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, req.CustomerID)

	items := make([]billing.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		item, err := billing.NewLineItem(li.Name, li.Description, li.HSNCode, li.Quantity, li.Rate, li.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	discount := billing.NoDiscount()
	if req.DiscountType != "" {
		discount = billing.DiscountPolicy{
			Type:  billing.DiscountType(req.DiscountType),
			Value: req.DiscountValue,
		}
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inv, err := billing.NewInvoice(tenantID, invoiceNumber, req.CustomerID, items, discount, req.ShippingCharge, req.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID,
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber)
	s.logger.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("grand_total", inv.GrandTotal.StringFixed(2)))
	return toInvoiceResponse(inv), nil
}

// GetInvoiceByID gets an invoice by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{
		CustomerID: filter.CustomerID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		Overdue:    filter.Overdue,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		domainFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := lo.Map(invoices, func(inv billing.Invoice, _ int) InvoiceResponse {
		return *toInvoiceResponse(&inv)
	})
	return responses, total, nil
}

// GetInvoiceSummary aggregates the tenant's invoicing position
func (s *InvoiceService) GetInvoiceSummary(ctx context.Context, tenantID uuid.UUID) (*InvoiceSummary, error) {
	totalOutstanding, err := s.invoiceRepo.SumOutstandingForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	totalOverdue, err := s.invoiceRepo.SumOverdueForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	draftCount, err := s.invoiceRepo.CountByStatus(ctx, tenantID, billing.InvoiceStatusDraft)
	if err != nil {
		return nil, err
	}
	paidCount, err := s.invoiceRepo.CountByStatus(ctx, tenantID, billing.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}
	openCount := int64(0)
	for _, status := range []billing.InvoiceStatus{billing.InvoiceStatusSent, billing.InvoiceStatusViewed, billing.InvoiceStatusPartial} {
		n, err := s.invoiceRepo.CountByStatus(ctx, tenantID, status)
		if err != nil {
			return nil, err
		}
		openCount += n
	}
	overdue := true
	overdueCount, err := s.invoiceRepo.CountForTenant(ctx, tenantID, billing.InvoiceFilter{Overdue: &overdue})
	if err != nil {
		return nil, err
	}

	return &InvoiceSummary{
		TotalOutstanding: totalOutstanding,
		TotalOverdue:     totalOverdue,
		DraftCount:       draftCount,
		OpenCount:        openCount,
		PaidCount:        paidCount,
		OverdueCount:     overdueCount,
	}, nil
}

// SendInvoice transitions a draft invoice to SENT and posts the revenue
// recognition entry in the same transaction.
func (s *InvoiceService) SendInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var response *InvoiceResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.loadInvoice(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.Send(); err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveWithLock(txCtx, inv); err != nil {
			return err
		}
		_, err = s.poster.PostInvoiceSent(txCtx, tenantID, ledgerapp.InvoiceSentPosting{
			InvoiceID:      inv.ID,
			InvoiceNumber:  inv.InvoiceNumber,
			EntryDate:      *inv.SentAt,
			GrandTotal:     inv.GrandTotal,
			NetRevenue:     inv.SubTotal.Sub(inv.DiscountAmount),
			TaxTotal:       inv.TaxTotal,
			ShippingCharge: inv.ShippingCharge,
		})
		if err != nil {
			return err
		}
		response = toInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// MarkInvoiceViewed records the customer-side viewed signal
func (s *InvoiceService) MarkInvoiceViewed(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkViewed(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// RecordPayment records a payment under the invoice's document lock. The
// overpayment guard always runs against freshly loaded state, and the
// balance mutation commits atomically with its journal entry.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoiceID,
		telemetry.SpanAttrPaymentMethod, req.PaymentMode,
		telemetry.SpanAttrAmount, req.Amount)

	amount := valueobject.NewMoneyINR(req.Amount)
	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	var response *InvoiceResponse
	err := s.locker.WithDocumentLock(ctx, invoiceLockKey(invoiceID), func(lockCtx context.Context) error {
		return s.txManager.InTransaction(lockCtx, func(txCtx context.Context) error {
			inv, err := s.loadInvoice(txCtx, tenantID, invoiceID)
			if err != nil {
				return err
			}
			payment, err := inv.RecordPayment(amount, req.PaymentMode, paymentDate, req.ReferenceNumber)
			if err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(txCtx, inv); err != nil {
				return err
			}
			if _, err := s.poster.PostPaymentReceived(txCtx, tenantID, payment.ID, inv.InvoiceNumber, payment.Amount, paymentDate); err != nil {
				return err
			}
			telemetry.AddEvent(span, "payment_applied",
				telemetry.SpanAttrPaymentID, payment.ID,
				telemetry.SpanAttrInvoiceStatus, string(inv.Status))
			response = toInvoiceResponse(inv)
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("new_balance", response.BalanceDue.StringFixed(2)))
	return response, nil
}

// DeletePayment removes a payment under the invoice's document lock and
// posts the reversing journal entry atomically with the balance change.
func (s *InvoiceService) DeletePayment(ctx context.Context, tenantID, invoiceID, paymentID uuid.UUID, req DeletePaymentRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse
	err := s.locker.WithDocumentLock(ctx, invoiceLockKey(invoiceID), func(lockCtx context.Context) error {
		return s.txManager.InTransaction(lockCtx, func(txCtx context.Context) error {
			inv, err := s.loadInvoice(txCtx, tenantID, invoiceID)
			if err != nil {
				return err
			}
			removed, err := inv.DeletePayment(paymentID, req.ExplicitReversal)
			if err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(txCtx, inv); err != nil {
				return err
			}
			if _, err := s.poster.PostPaymentReversal(txCtx, tenantID, removed.ID, inv.InvoiceNumber, removed.Amount, time.Now()); err != nil {
				return err
			}
			response = toInvoiceResponse(inv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// VoidInvoice cancels an invoice. No journal entry accompanies a void of an
// unsent draft; voiding a sent invoice reverses the revenue recognition.
func (s *InvoiceService) VoidInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, req VoidInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "void")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID)

	var response *InvoiceResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.loadInvoice(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		wasSent := inv.SentAt != nil
		netRevenue := inv.SubTotal.Sub(inv.DiscountAmount)
		taxTotal := inv.TaxTotal
		shipping := inv.ShippingCharge
		openBalance := inv.BalanceDue
		settled := inv.AmountPaid.Add(inv.CreditsApplied)

		if err := inv.Void(req.Reason); err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveWithLock(txCtx, inv); err != nil {
			return err
		}
		if wasSent {
			_, err = s.poster.PostInvoiceVoid(txCtx, tenantID, ledgerapp.InvoiceVoidPosting{
				InvoiceID:      inv.ID,
				InvoiceNumber:  inv.InvoiceNumber,
				EntryDate:      time.Now(),
				NetRevenue:     netRevenue,
				TaxTotal:       taxTotal,
				ShippingCharge: shipping,
				OpenBalance:    openBalance,
				AmountSettled:  settled,
			})
			if err != nil {
				return err
			}
		}
		telemetry.AddEvent(span, "invoice_voided",
			telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
			"reversed_in_ledger", wasSent)
		response = toInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// WriteOffInvoice marks the open balance uncollectible and posts
// Dr Bad Debt Expense / Cr Accounts Receivable for the remainder.
func (s *InvoiceService) WriteOffInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, req WriteOffInvoiceRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.loadInvoice(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		writtenOff := inv.BalanceDue
		if err := inv.WriteOff(req.Reason); err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveWithLock(txCtx, inv); err != nil {
			return err
		}
		if _, err := s.poster.PostWriteOff(txCtx, tenantID, inv.ID, inv.InvoiceNumber, writtenOff, time.Now()); err != nil {
			return err
		}
		response = toInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// CloneInvoice produces a fresh draft copy of an invoice
func (s *InvoiceService) CloneInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	newNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	clone, err := inv.Clone(newNumber)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, clone); err != nil {
		return nil, err
	}
	return toInvoiceResponse(clone), nil
}

// DeleteDraftInvoice removes a draft invoice that was never sent
func (s *InvoiceService) DeleteDraftInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.loadInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != billing.InvoiceStatusDraft {
		return shared.NewDomainError(shared.ErrCodeInvalidTransition, "Only draft invoices can be deleted")
	}
	return s.invoiceRepo.DeleteForTenant(ctx, tenantID, invoiceID)
}

func (s *InvoiceService) loadInvoice(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound, "Invoice not found")
	}
	return inv, nil
}
