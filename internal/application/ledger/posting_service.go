package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostingService translates financial document events into balanced journal
// entries. Every method is expected to run inside the same transaction as
// the document mutation it accompanies; the caller owns the atomic unit.
type PostingService struct {
	accountRepo ledger.AccountRepository
	journalRepo ledger.JournalEntryRepository
	logger      *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(
	accountRepo ledger.AccountRepository,
	journalRepo ledger.JournalEntryRepository,
	logger *zap.Logger,
) *PostingService {
	return &PostingService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

func (s *PostingService) account(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	acc, err := s.accountRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, shared.NewDomainError(shared.ErrCodeNotFound,
			fmt.Sprintf("Ledger account %s is not seeded for this tenant", code))
	}
	return acc, nil
}

func (s *PostingService) post(
	ctx context.Context,
	tenantID uuid.UUID,
	entryDate time.Time,
	description string,
	sourceType ledger.SourceType,
	sourceID uuid.UUID,
	lines []ledger.JournalLine,
) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "post_entry")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSourceType, sourceType.String(),
		telemetry.SpanAttrSourceID, sourceID)

	entryNumber, err := s.journalRepo.GenerateEntryNumber(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	entry, err := ledger.NewJournalEntry(tenantID, entryNumber, entryDate, description, sourceType, sourceID, lines)
	if err != nil {
		// An unbalanced batch out of our own posting paths is a defect,
		// not a user error. Log loudly and halt the operation.
		s.logger.Error("journal entry construction failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("source_type", sourceType.String()),
			zap.String("source_id", sourceID.String()),
			zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.journalRepo.Save(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrEntryNumber, entry.EntryNumber)
	return entry, nil
}

// InvoiceSentPosting carries the totals breakdown of a sent invoice
type InvoiceSentPosting struct {
	InvoiceID      uuid.UUID
	InvoiceNumber  string
	EntryDate      time.Time
	GrandTotal     decimal.Decimal
	NetRevenue     decimal.Decimal // sub_total minus discount
	TaxTotal       decimal.Decimal
	ShippingCharge decimal.Decimal
}

// PostInvoiceSent records the revenue recognition for a sent invoice:
// Dr Accounts Receivable / Cr Sales Revenue, Cr Tax Payable, Cr Freight Income.
func (s *PostingService) PostInvoiceSent(ctx context.Context, tenantID uuid.UUID, p InvoiceSentPosting) (*ledger.JournalEntry, error) {
	ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
	if err != nil {
		return nil, err
	}
	revenue, err := s.account(ctx, tenantID, ledger.AccountCodeSalesRevenue)
	if err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("Invoice %s sent", p.InvoiceNumber)
	lines := []ledger.JournalLine{
		ledger.NewDebitLine(ar.ID, ar.Code, p.GrandTotal, memo),
		ledger.NewCreditLine(revenue.ID, revenue.Code, p.NetRevenue, memo),
	}
	if p.TaxTotal.IsPositive() {
		tax, err := s.account(ctx, tenantID, ledger.AccountCodeTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewCreditLine(tax.ID, tax.Code, p.TaxTotal, memo))
	}
	if p.ShippingCharge.IsPositive() {
		freight, err := s.account(ctx, tenantID, ledger.AccountCodeFreightIncome)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewCreditLine(freight.ID, freight.Code, p.ShippingCharge, memo))
	}
	return s.post(ctx, tenantID, p.EntryDate, memo, ledger.SourceTypeInvoice, p.InvoiceID, lines)
}

// InvoiceVoidPosting carries the reversal breakdown for a voided invoice.
// OpenBalance and AmountSettled split the grand total: only the open
// balance relieves receivables, amounts already collected become a
// customer credit owed back.
type InvoiceVoidPosting struct {
	InvoiceID      uuid.UUID
	InvoiceNumber  string
	EntryDate      time.Time
	NetRevenue     decimal.Decimal
	TaxTotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	OpenBalance    decimal.Decimal
	AmountSettled  decimal.Decimal
}

// PostInvoiceVoid reverses the revenue recognition of a previously sent
// invoice: Dr Sales Revenue, Dr Tax Payable, Dr Freight Income / Cr
// Accounts Receivable for the open balance, Cr Customer Credits for
// amounts already settled.
func (s *PostingService) PostInvoiceVoid(ctx context.Context, tenantID uuid.UUID, p InvoiceVoidPosting) (*ledger.JournalEntry, error) {
	revenue, err := s.account(ctx, tenantID, ledger.AccountCodeSalesRevenue)
	if err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("Invoice %s voided", p.InvoiceNumber)
	lines := []ledger.JournalLine{
		ledger.NewDebitLine(revenue.ID, revenue.Code, p.NetRevenue, memo),
	}
	if p.TaxTotal.IsPositive() {
		tax, err := s.account(ctx, tenantID, ledger.AccountCodeTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewDebitLine(tax.ID, tax.Code, p.TaxTotal, memo))
	}
	if p.ShippingCharge.IsPositive() {
		freight, err := s.account(ctx, tenantID, ledger.AccountCodeFreightIncome)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewDebitLine(freight.ID, freight.Code, p.ShippingCharge, memo))
	}
	if p.OpenBalance.IsPositive() {
		ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewCreditLine(ar.ID, ar.Code, p.OpenBalance, memo))
	}
	if p.AmountSettled.IsPositive() {
		credits, err := s.account(ctx, tenantID, ledger.AccountCodeCustomerCredits)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewCreditLine(credits.ID, credits.Code, p.AmountSettled, memo))
	}
	return s.post(ctx, tenantID, p.EntryDate, memo, ledger.SourceTypeReversal, p.InvoiceID, lines)
}

// PostPaymentReceived records a customer receipt:
// Dr Cash and Bank / Cr Accounts Receivable.
func (s *PostingService) PostPaymentReceived(ctx context.Context, tenantID, paymentID uuid.UUID, invoiceNumber string, amount decimal.Decimal, entryDate time.Time) (*ledger.JournalEntry, error) {
	cash, err := s.account(ctx, tenantID, ledger.AccountCodeCash)
	if err != nil {
		return nil, err
	}
	ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Payment received against invoice %s", invoiceNumber)
	return s.post(ctx, tenantID, entryDate, memo, ledger.SourceTypePayment, paymentID, []ledger.JournalLine{
		ledger.NewDebitLine(cash.ID, cash.Code, amount, memo),
		ledger.NewCreditLine(ar.ID, ar.Code, amount, memo),
	})
}

// PostPaymentReversal mirrors a deleted payment:
// Dr Accounts Receivable / Cr Cash and Bank.
func (s *PostingService) PostPaymentReversal(ctx context.Context, tenantID, paymentID uuid.UUID, invoiceNumber string, amount decimal.Decimal, entryDate time.Time) (*ledger.JournalEntry, error) {
	cash, err := s.account(ctx, tenantID, ledger.AccountCodeCash)
	if err != nil {
		return nil, err
	}
	ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Payment reversed on invoice %s", invoiceNumber)
	return s.post(ctx, tenantID, entryDate, memo, ledger.SourceTypeReversal, paymentID, []ledger.JournalLine{
		ledger.NewDebitLine(ar.ID, ar.Code, amount, memo),
		ledger.NewCreditLine(cash.ID, cash.Code, amount, memo),
	})
}

// CreditNotePosting carries the totals breakdown of an issued credit note
type CreditNotePosting struct {
	CreditNoteID     uuid.UUID
	CreditNoteNumber string
	EntryDate        time.Time
	SubTotal         decimal.Decimal
	TaxTotal         decimal.Decimal
	Total            decimal.Decimal
}

// PostCreditNoteIssued records the sale reduction for an issued credit note:
// Dr Sales Returns, Dr Tax Payable / Cr Customer Credits.
func (s *PostingService) PostCreditNoteIssued(ctx context.Context, tenantID uuid.UUID, p CreditNotePosting) (*ledger.JournalEntry, error) {
	returns, err := s.account(ctx, tenantID, ledger.AccountCodeSalesReturns)
	if err != nil {
		return nil, err
	}
	credits, err := s.account(ctx, tenantID, ledger.AccountCodeCustomerCredits)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Credit note %s issued", p.CreditNoteNumber)
	lines := []ledger.JournalLine{
		ledger.NewDebitLine(returns.ID, returns.Code, p.SubTotal, memo),
	}
	if p.TaxTotal.IsPositive() {
		tax, err := s.account(ctx, tenantID, ledger.AccountCodeTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.NewDebitLine(tax.ID, tax.Code, p.TaxTotal, memo))
	}
	lines = append(lines, ledger.NewCreditLine(credits.ID, credits.Code, p.Total, memo))
	return s.post(ctx, tenantID, p.EntryDate, memo, ledger.SourceTypeCreditNote, p.CreditNoteID, lines)
}

// PostCreditApplied records credit consumed against an invoice:
// Dr Customer Credits / Cr Accounts Receivable.
func (s *PostingService) PostCreditApplied(ctx context.Context, tenantID, applicationID uuid.UUID, creditNoteNumber string, amount decimal.Decimal, entryDate time.Time) (*ledger.JournalEntry, error) {
	credits, err := s.account(ctx, tenantID, ledger.AccountCodeCustomerCredits)
	if err != nil {
		return nil, err
	}
	ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Credit note %s applied", creditNoteNumber)
	return s.post(ctx, tenantID, entryDate, memo, ledger.SourceTypeCreditNote, applicationID, []ledger.JournalLine{
		ledger.NewDebitLine(credits.ID, credits.Code, amount, memo),
		ledger.NewCreditLine(ar.ID, ar.Code, amount, memo),
	})
}

// PostCreditRefunded records a cash refund of remaining credit:
// Dr Customer Credits / Cr Cash and Bank.
func (s *PostingService) PostCreditRefunded(ctx context.Context, tenantID, creditNoteID uuid.UUID, creditNoteNumber string, amount decimal.Decimal, entryDate time.Time) (*ledger.JournalEntry, error) {
	credits, err := s.account(ctx, tenantID, ledger.AccountCodeCustomerCredits)
	if err != nil {
		return nil, err
	}
	cash, err := s.account(ctx, tenantID, ledger.AccountCodeCash)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Credit note %s refunded", creditNoteNumber)
	return s.post(ctx, tenantID, entryDate, memo, ledger.SourceTypeRefund, creditNoteID, []ledger.JournalLine{
		ledger.NewDebitLine(credits.ID, credits.Code, amount, memo),
		ledger.NewCreditLine(cash.ID, cash.Code, amount, memo),
	})
}

// PostWriteOff records an uncollectible balance:
// Dr Bad Debt Expense / Cr Accounts Receivable.
func (s *PostingService) PostWriteOff(ctx context.Context, tenantID, invoiceID uuid.UUID, invoiceNumber string, amount decimal.Decimal, entryDate time.Time) (*ledger.JournalEntry, error) {
	badDebt, err := s.account(ctx, tenantID, ledger.AccountCodeBadDebtExpense)
	if err != nil {
		return nil, err
	}
	ar, err := s.account(ctx, tenantID, ledger.AccountCodeReceivable)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Invoice %s written off", invoiceNumber)
	return s.post(ctx, tenantID, entryDate, memo, ledger.SourceTypeWriteOff, invoiceID, []ledger.JournalLine{
		ledger.NewDebitLine(badDebt.ID, badDebt.Code, amount, memo),
		ledger.NewCreditLine(ar.ID, ar.Code, amount, memo),
	})
}

// ManualEntryLine is one caller-supplied posting line
type ManualEntryLine struct {
	AccountCode string          `json:"account_code" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

// PostManualEntryRequest is a caller-supplied journal entry batch
type PostManualEntryRequest struct {
	EntryDate   time.Time         `json:"entry_date"`
	Description string            `json:"description" binding:"required"`
	Lines       []ManualEntryLine `json:"lines" binding:"required,min=2,dive"`
}

// PostManualEntry posts a caller-supplied batch. The batch is rejected with
// UNBALANCED_ENTRY when the debit and credit sums differ.
func (s *PostingService) PostManualEntry(ctx context.Context, tenantID uuid.UUID, req PostManualEntryRequest) (*ledger.JournalEntry, error) {
	lines := make([]ledger.JournalLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		acc, err := s.account(ctx, tenantID, l.AccountCode)
		if err != nil {
			return nil, err
		}
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			return nil, shared.NewDomainError(shared.ErrCodeValidation, "Journal line cannot carry both a debit and a credit")
		}
		switch {
		case l.Debit.IsPositive():
			lines = append(lines, ledger.NewDebitLine(acc.ID, acc.Code, l.Debit, l.Memo))
		case l.Credit.IsPositive():
			lines = append(lines, ledger.NewCreditLine(acc.ID, acc.Code, l.Credit, l.Memo))
		default:
			return nil, shared.NewDomainError(shared.ErrCodeValidation, "Journal line must carry a debit or a credit")
		}
	}
	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}
	return s.post(ctx, tenantID, entryDate, req.Description, ledger.SourceTypeManual, uuid.New(), lines)
}
