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

// CreditNoteService provides application-level credit note operations.
// Applying a note to an invoice mutates two documents in one transaction,
// so the target invoice's document lock is held for the whole operation.
type CreditNoteService struct {
	creditNoteRepo billing.CreditNoteRepository
	invoiceRepo    billing.InvoiceRepository
	poster         *ledgerapp.PostingService
	txManager      shared.TransactionManager
	locker         shared.DocumentLocker
	logger         *zap.Logger
}

// NewCreditNoteService creates a new CreditNoteService
func NewCreditNoteService(
	creditNoteRepo billing.CreditNoteRepository,
	invoiceRepo billing.InvoiceRepository,
	poster *ledgerapp.PostingService,
	txManager shared.TransactionManager,
	locker shared.DocumentLocker,
	logger *zap.Logger,
) *CreditNoteService {
	return &CreditNoteService{
		creditNoteRepo: creditNoteRepo,
		invoiceRepo:    invoiceRepo,
		poster:         poster,
		txManager:      txManager,
		locker:         locker,
		logger:         logger,
	}
}

// CreditLineRequest references one original invoice line and the portion
// being credited
type CreditLineRequest struct {
	OriginalLineID uuid.UUID       `json:"original_line_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Rate           decimal.Decimal `json:"rate" binding:"required"`
}

// CreateCreditNoteRequest issues a credit note against an invoice
type CreateCreditNoteRequest struct {
	InvoiceID uuid.UUID           `json:"invoice_id" binding:"required"`
	Reason    string              `json:"reason" binding:"required"`
	Lines     []CreditLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ApplyCreditNoteRequest applies part of a note's remaining credit to an invoice
type ApplyCreditNoteRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// RefundCreditNoteRequest pays out a note's remaining credit
type RefundCreditNoteRequest struct {
	RefundMethod string `json:"refund_method" binding:"required"`
}

// CreditNoteApplicationResponse represents one application of a credit note
type CreditNoteApplicationResponse struct {
	ID               uuid.UUID       `json:"id"`
	TargetDocumentID uuid.UUID       `json:"target_document_id"`
	Amount           decimal.Decimal `json:"amount"`
	AppliedAt        time.Time       `json:"applied_at"`
}

// CreditNoteResponse represents a credit note in API responses
type CreditNoteResponse struct {
	ID                uuid.UUID                       `json:"id"`
	TenantID          uuid.UUID                       `json:"tenant_id"`
	CreditNoteNumber  string                          `json:"credit_note_number"`
	OriginalInvoiceID uuid.UUID                       `json:"original_invoice_id"`
	CustomerID        uuid.UUID                       `json:"customer_id"`
	Reason            string                          `json:"reason"`
	Status            string                          `json:"status"`
	LineItems         []billing.LineItem              `json:"line_items"`
	SubTotal          decimal.Decimal                 `json:"sub_total"`
	TaxTotal          decimal.Decimal                 `json:"tax_total"`
	Total             decimal.Decimal                 `json:"total"`
	AppliedAmount     decimal.Decimal                 `json:"applied_amount"`
	CreditsRemaining  decimal.Decimal                 `json:"credits_remaining"`
	Applications      []CreditNoteApplicationResponse `json:"applications"`
	RefundedAt        *time.Time                      `json:"refunded_at,omitempty"`
	RefundMethod      string                          `json:"refund_method,omitempty"`
	CreatedAt         time.Time                       `json:"created_at"`
	UpdatedAt         time.Time                       `json:"updated_at"`
	Version           int                             `json:"version"`
}

// CreditNoteListFilter defines filtering options for credit note list queries
type CreditNoteListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	InvoiceID  *uuid.UUID `form:"invoice_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

func toCreditNoteResponse(cn *billing.CreditNote) *CreditNoteResponse {
	return &CreditNoteResponse{
		ID:                cn.ID,
		TenantID:          cn.TenantID,
		CreditNoteNumber:  cn.CreditNoteNumber,
		OriginalInvoiceID: cn.OriginalInvoiceID,
		CustomerID:        cn.CustomerID,
		Reason:            cn.Reason,
		Status:            cn.Status.String(),
		LineItems:         cn.Items,
		SubTotal:          cn.SubTotal,
		TaxTotal:          cn.TaxTotal,
		Total:             cn.Total,
		AppliedAmount:     cn.AppliedAmount,
		CreditsRemaining:  cn.CreditsRemaining,
		Applications: lo.Map(cn.Applications, func(a billing.CreditNoteApplication, _ int) CreditNoteApplicationResponse {
			return CreditNoteApplicationResponse{
				ID:               a.ID,
				TargetDocumentID: a.TargetDocumentID,
				Amount:           a.Amount,
				AppliedAt:        a.AppliedAt,
			}
		}),
		RefundedAt:   cn.RefundedAt,
		RefundMethod: cn.RefundMethod,
		CreatedAt:    cn.CreatedAt,
		UpdatedAt:    cn.UpdatedAt,
		Version:      cn.Version,
	}
}

// CreateCreditNote issues a credit note against an invoice and posts
// Dr Sales Returns, Dr Tax Payable / Cr Customer Credits atomically.
func (s *CreditNoteService) CreateCreditNote(ctx context.Context, tenantID uuid.UUID, req CreateCreditNoteRequest) (*CreditNoteResponse, error) {
	lines := lo.Map(req.Lines, func(l CreditLineRequest, _ int) billing.CreditLineInput {
		return billing.CreditLineInput{
			OriginalLineID: l.OriginalLineID,
			Quantity:       l.Quantity,
			Rate:           l.Rate,
		}
	})

	var response *CreditNoteResponse
	err := s.locker.WithDocumentLock(ctx, invoiceLockKey(req.InvoiceID), func(lockCtx context.Context) error {
		return s.txManager.InTransaction(lockCtx, func(txCtx context.Context) error {
			invoice, err := s.invoiceRepo.FindByIDForTenant(txCtx, tenantID, req.InvoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return shared.NewDomainError(shared.ErrCodeNotFound, "Invoice not found")
			}

			noteNumber, err := s.creditNoteRepo.GenerateCreditNoteNumber(txCtx, tenantID)
			if err != nil {
				return err
			}
			cn, err := billing.NewCreditNote(tenantID, noteNumber, invoice, req.Reason, lines)
			if err != nil {
				return err
			}
			if err := s.creditNoteRepo.Save(txCtx, cn); err != nil {
				return err
			}
			_, err = s.poster.PostCreditNoteIssued(txCtx, tenantID, ledgerapp.CreditNotePosting{
				CreditNoteID:     cn.ID,
				CreditNoteNumber: cn.CreditNoteNumber,
				EntryDate:        cn.CreatedAt,
				SubTotal:         cn.SubTotal,
				TaxTotal:         cn.TaxTotal,
				Total:            cn.Total,
			})
			if err != nil {
				return err
			}
			response = toCreditNoteResponse(cn)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit note issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("credit_note_number", response.CreditNoteNumber),
		zap.String("total", response.Total.StringFixed(2)))
	return response, nil
}

// GetCreditNoteByID gets a credit note by ID
func (s *CreditNoteService) GetCreditNoteByID(ctx context.Context, tenantID, id uuid.UUID) (*CreditNoteResponse, error) {
	cn, err := s.loadCreditNote(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toCreditNoteResponse(cn), nil
}

// ListCreditNotes lists credit notes with filtering
func (s *CreditNoteService) ListCreditNotes(ctx context.Context, tenantID uuid.UUID, filter CreditNoteListFilter) ([]CreditNoteResponse, int64, error) {
	domainFilter := billing.CreditNoteFilter{
		CustomerID:        filter.CustomerID,
		OriginalInvoiceID: filter.InvoiceID,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := billing.CreditNoteStatus(filter.Status)
		domainFilter.Status = &status
	}

	notes, err := s.creditNoteRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.creditNoteRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := lo.Map(notes, func(cn billing.CreditNote, _ int) CreditNoteResponse {
		return *toCreditNoteResponse(&cn)
	})
	return responses, total, nil
}

// ApplyCreditNote applies part of a note's remaining credit to an invoice.
// Both documents are loaded fresh under the invoice's lock, mutated, and
// saved with the journal entry in one transaction.
func (s *CreditNoteService) ApplyCreditNote(ctx context.Context, tenantID, creditNoteID uuid.UUID, req ApplyCreditNoteRequest) (*CreditNoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_note", "apply")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCreditNoteID, creditNoteID,
		telemetry.SpanAttrInvoiceID, req.InvoiceID,
		telemetry.SpanAttrAmount, req.Amount)

	amount := valueobject.NewMoneyINR(req.Amount)

	var response *CreditNoteResponse
	err := s.locker.WithDocumentLock(ctx, invoiceLockKey(req.InvoiceID), func(lockCtx context.Context) error {
		return s.txManager.InTransaction(lockCtx, func(txCtx context.Context) error {
			cn, err := s.loadCreditNote(txCtx, tenantID, creditNoteID)
			if err != nil {
				return err
			}
			invoice, err := s.invoiceRepo.FindByIDForTenant(txCtx, tenantID, req.InvoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return shared.NewDomainError(shared.ErrCodeNotFound, "Invoice not found")
			}

			application, err := cn.Apply(invoice.ID, amount)
			if err != nil {
				return err
			}
			if err := invoice.ApplyCredit(cn.ID, amount); err != nil {
				return err
			}
			if err := s.creditNoteRepo.SaveWithLock(txCtx, cn); err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(txCtx, invoice); err != nil {
				return err
			}
			if _, err := s.poster.PostCreditApplied(txCtx, tenantID, application.ID, cn.CreditNoteNumber, application.Amount, application.AppliedAt); err != nil {
				return err
			}
			telemetry.AddEvent(span, "credit_applied",
				telemetry.SpanAttrDocumentNumber, cn.CreditNoteNumber,
				telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber)
			response = toCreditNoteResponse(cn)
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("credit note applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("credit_note_id", creditNoteID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("amount", req.Amount.StringFixed(2)))
	return response, nil
}

// RefundCreditNote pays out a note's remaining credit and posts
// Dr Customer Credits / Cr Cash and Bank.
func (s *CreditNoteService) RefundCreditNote(ctx context.Context, tenantID, creditNoteID uuid.UUID, req RefundCreditNoteRequest) (*CreditNoteResponse, error) {
	var response *CreditNoteResponse
	err := s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		cn, err := s.loadCreditNote(txCtx, tenantID, creditNoteID)
		if err != nil {
			return err
		}
		refunded, err := cn.Refund(req.RefundMethod)
		if err != nil {
			return err
		}
		if err := s.creditNoteRepo.SaveWithLock(txCtx, cn); err != nil {
			return err
		}
		if _, err := s.poster.PostCreditRefunded(txCtx, tenantID, cn.ID, cn.CreditNoteNumber, refunded, *cn.RefundedAt); err != nil {
			return err
		}
		response = toCreditNoteResponse(cn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (s *CreditNoteService) loadCreditNote(ctx context.Context, tenantID, id uuid.UUID) (*billing.CreditNote, error) {
	cn, err := s.creditNoteRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cn == nil {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound, "Credit note not found")
	}
	return cn, nil
}
