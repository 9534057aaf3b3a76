// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the ledger system.
// It tracks document issuance, payment activity, and receivables health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	documentIssuedTotal     *Counter
	documentAmountTotal     *Counter
	paymentRecordedTotal    *Counter
	paymentAmountTotal      *Counter
	journalEntryPostedTotal *Counter

	// Gauge metrics (point-in-time values)
	receivablesOutstanding *Gauge
	invoicesOverdueCount   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	receivablesProvider ReceivablesMetricsProvider
}

// ReceivablesMetricsProvider provides receivables data for periodic metrics
// collection. This interface allows the telemetry layer to query invoice state
// without depending on the billing domain directly.
type ReceivablesMetricsProvider interface {
	// GetOutstandingBalance returns the total unpaid balance across open invoices for a tenant
	GetOutstandingBalance(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// GetOverdueCount returns the number of open invoices past their due date for a tenant
	GetOverdueCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ReceivablesProvider ReceivablesMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		receivablesProvider: cfg.ReceivablesProvider,
	}

	// Initialize counter metrics
	var err error

	// Document metrics
	bm.documentIssuedTotal, err = NewCounter(
		cfg.Meter,
		"ledger_document_issued_total",
		"Total number of financial documents issued",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	bm.documentAmountTotal, err = NewCounter(
		cfg.Meter,
		"ledger_document_amount_total",
		"Total issued document amount in paise",
		"{paise}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentRecordedTotal, err = NewCounter(
		cfg.Meter,
		"ledger_payment_recorded_total",
		"Total number of payments recorded against invoices",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentAmountTotal, err = NewCounter(
		cfg.Meter,
		"ledger_payment_amount_total",
		"Total payment amount in paise",
		"{paise}",
	)
	if err != nil {
		return nil, err
	}

	// Journal metrics
	bm.journalEntryPostedTotal, err = NewCounter(
		cfg.Meter,
		"ledger_journal_entry_posted_total",
		"Total number of journal entries posted",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	// Receivables gauge metrics
	bm.receivablesOutstanding, err = NewGauge(
		cfg.Meter,
		"ledger_receivables_outstanding_paise",
		"Current outstanding receivables balance in paise",
		"{paise}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoicesOverdueCount, err = NewGauge(
		cfg.Meter,
		"ledger_invoices_overdue_count",
		"Number of open invoices past their due date",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Document Metrics
// =============================================================================

// DocumentType represents the type of financial document for metrics labeling.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "invoice"
	DocumentTypeCreditNote DocumentType = "credit_note"
	DocumentTypeSalesOrder DocumentType = "sales_order"
)

// RecordDocumentIssued records a document issuance event.
// This should be called from the application layer when a document leaves draft.
func (bm *BusinessMetrics) RecordDocumentIssued(ctx context.Context, tenantID uuid.UUID, docType DocumentType) {
	bm.documentIssuedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(string(docType)),
	)
}

// RecordDocumentAmount records the document amount.
// Amount should be in the smallest currency unit (paise).
func (bm *BusinessMetrics) RecordDocumentAmount(ctx context.Context, tenantID uuid.UUID, docType DocumentType, amountPaise int64) {
	bm.documentAmountTotal.Add(ctx, amountPaise,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(string(docType)),
	)
}

// RecordDocumentWithAmount is a convenience method that records both document count and amount.
func (bm *BusinessMetrics) RecordDocumentWithAmount(ctx context.Context, tenantID uuid.UUID, docType DocumentType, amount decimal.Decimal) {
	bm.RecordDocumentIssued(ctx, tenantID, docType)

	// Convert to paise (multiply by 100)
	amountPaise := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordDocumentAmount(ctx, tenantID, docType, amountPaise)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// RecordPayment records a payment applied to an invoice.
// This should be called when a payment is recorded against an invoice.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, paymentMethod string, amount decimal.Decimal) {
	bm.paymentRecordedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
	)

	amountPaise := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.paymentAmountTotal.Add(ctx, amountPaise,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
	)
}

// =============================================================================
// Journal Metrics
// =============================================================================

// RecordJournalEntryPosted records a posted journal entry.
func (bm *BusinessMetrics) RecordJournalEntryPosted(ctx context.Context, tenantID uuid.UUID, sourceType string) {
	bm.journalEntryPostedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSourceType.String(sourceType),
	)
}

// =============================================================================
// Receivables Metrics
// =============================================================================

// RecordOutstandingBalance records the current outstanding receivables balance.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOutstandingBalance(ctx context.Context, tenantID uuid.UUID, balancePaise int64) {
	bm.receivablesOutstanding.Record(ctx, balancePaise,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOverdueCount records the number of open invoices past their due date.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOverdueCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.invoicesOverdueCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects receivables metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectReceivablesMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivablesMetrics(ctx, tenantProvider)
		}
	}
}

// collectReceivablesMetrics collects receivables gauge metrics for all tenants.
func (bm *BusinessMetrics) collectReceivablesMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivablesProvider == nil {
		bm.logger.Debug("No receivables provider configured, skipping receivables metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantReceivablesMetrics(ctx, tenantID)
	}
}

// collectTenantReceivablesMetrics collects receivables metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantReceivablesMetrics(ctx context.Context, tenantID uuid.UUID) {
	// Collect outstanding balance
	outstanding, err := bm.receivablesProvider.GetOutstandingBalance(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get outstanding balance for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOutstandingBalance(ctx, tenantID, outstanding.Mul(decimal.NewFromInt(100)).IntPart())
	}

	// Collect overdue invoice count
	overdueCount, err := bm.receivablesProvider.GetOverdueCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get overdue invoice count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOverdueCount(ctx, tenantID, overdueCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
