// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// openInvoiceStatuses are the invoice states that still carry a collectible balance.
var openInvoiceStatuses = []string{"SENT", "VIEWED", "PARTIAL"}

// GormReceivablesMetricsProvider implements ReceivablesMetricsProvider using GORM.
// It queries the invoices table directly for aggregated metrics.
type GormReceivablesMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivablesMetricsProvider creates a new GormReceivablesMetricsProvider.
func NewGormReceivablesMetricsProvider(db *gorm.DB) *GormReceivablesMetricsProvider {
	return &GormReceivablesMetricsProvider{db: db}
}

// GetOutstandingBalance returns the total unpaid balance across open invoices for a tenant.
func (p *GormReceivablesMetricsProvider) GetOutstandingBalance(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	type result struct {
		Total decimal.Decimal `gorm:"column:total"`
	}

	var r result
	err := p.db.WithContext(ctx).
		Table("invoices").
		Select("COALESCE(SUM(balance_due), 0) as total").
		Where("tenant_id = ? AND status IN ?", tenantID, openInvoiceStatuses).
		Scan(&r).Error

	if err != nil {
		return decimal.Zero, err
	}

	return r.Total, nil
}

// GetOverdueCount returns the number of open invoices past their due date for a tenant.
func (p *GormReceivablesMetricsProvider) GetOverdueCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("invoices").
		Where("tenant_id = ? AND status IN ?", tenantID, openInvoiceStatuses).
		Where("due_date IS NOT NULL AND due_date < NOW()").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
// Active tenants are those that have issued at least one invoice.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs with at least one invoice.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("invoices").
		Distinct("tenant_id").
		Find(&ids).Error

	return ids, err
}
