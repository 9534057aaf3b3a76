package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// creditNoteApplicableStatuses are the statuses with unconsumed credit
var creditNoteApplicableStatuses = []billing.CreditNoteStatus{
	billing.CreditNoteStatusIssued,
	billing.CreditNoteStatusPartial,
}

// GormCreditNoteRepository implements CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

func (r *GormCreditNoteRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a credit note by its ID
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.conn(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a credit note by ID for a specific tenant
func (r *GormCreditNoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCreditNoteNumber finds by credit note number for a tenant
func (r *GormCreditNoteRepository) FindByCreditNoteNumber(ctx context.Context, tenantID uuid.UUID, creditNoteNumber string) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND credit_note_number = ?", tenantID, creditNoteNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all credit notes for a tenant with filtering
func (r *GormCreditNoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.CreditNoteFilter) ([]billing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	query := r.conn(ctx).Model(&models.CreditNoteModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCreditNoteFilter(query, filter)

	if err := query.Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]billing.CreditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// FindByOriginalInvoice finds credit notes issued against an invoice
func (r *GormCreditNoteRepository) FindByOriginalInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND original_invoice_id = ?", tenantID, invoiceID).
		Order("created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]billing.CreditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// FindWithRemainingCredit finds applicable credit notes for a customer
func (r *GormCreditNoteRepository) FindWithRemainingCredit(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID, creditNoteApplicableStatuses).
		Order("created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]billing.CreditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// Save creates or updates a credit note
func (r *GormCreditNoteRepository) Save(ctx context.Context, creditNote *billing.CreditNote) error {
	model := models.CreditNoteModelFromDomain(creditNote)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Map-based updates so
// cleared pointer fields are written back as NULL.
func (r *GormCreditNoteRepository) SaveWithLock(ctx context.Context, creditNote *billing.CreditNote) error {
	model := models.CreditNoteModelFromDomain(creditNote)
	result := r.conn(ctx).
		Model(&models.CreditNoteModel{}).
		Where("id = ? AND version = ?", creditNote.ID, creditNote.Version-1).
		Updates(map[string]interface{}{
			"reason":            model.Reason,
			"items":             model.Items,
			"sub_total":         model.SubTotal,
			"tax_total":         model.TaxTotal,
			"total":             model.Total,
			"credits_remaining": model.CreditsRemaining,
			"applied_amount":    model.AppliedAmount,
			"status":            model.Status,
			"applications":      model.Applications,
			"refunded_at":       model.RefundedAt,
			"refund_method":     model.RefundMethod,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts credit notes for a tenant
func (r *GormCreditNoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.CreditNoteFilter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&models.CreditNoteModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCreditNoteFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumRemainingByCustomer calculates total unapplied credit for a customer
func (r *GormCreditNoteRepository) SumRemainingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.conn(ctx).
		Model(&models.CreditNoteModel{}).
		Select("COALESCE(SUM(credits_remaining), 0) as total").
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID, creditNoteApplicableStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ExistsByCreditNoteNumber checks if a credit note number exists
func (r *GormCreditNoteRepository) ExistsByCreditNoteNumber(ctx context.Context, tenantID uuid.UUID, creditNoteNumber string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&models.CreditNoteModel{}).
		Where("tenant_id = ? AND credit_note_number = ?", tenantID, creditNoteNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateCreditNoteNumber generates a unique credit note number
func (r *GormCreditNoteRepository) GenerateCreditNoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: CN-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("CN-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := r.conn(ctx).
		Model(&models.CreditNoteModel{}).
		Select("credit_note_number").
		Where("tenant_id = ? AND credit_note_number LIKE ?", tenantID, prefix+"%").
		Order("credit_note_number DESC").
		Limit(1).
		Pluck("credit_note_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyCreditNoteFilter applies filter options to the query
func (r *GormCreditNoteRepository) applyCreditNoteFilter(query *gorm.DB, filter billing.CreditNoteFilter) *gorm.DB {
	query = r.applyCreditNoteFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, CreditNoteSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyCreditNoteFilterWithoutPagination applies filter options without pagination
func (r *GormCreditNoteRepository) applyCreditNoteFilterWithoutPagination(query *gorm.DB, filter billing.CreditNoteFilter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("credit_note_number ILIKE ? OR reason ILIKE ?", searchPattern, searchPattern)
	}

	// Apply specific filters
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.OriginalInvoiceID != nil {
		query = query.Where("original_invoice_id = ?", *filter.OriginalInvoiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormCreditNoteRepository implements CreditNoteRepository
var _ billing.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
