package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/ledger"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM.
// The journal is append-only: Save inserts, there is no update or delete path.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

func (r *GormJournalEntryRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a journal entry by its ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.conn(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds journal entries for a tenant with filtering
func (r *GormJournalEntryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) ([]ledger.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	query := r.conn(ctx).Model(&models.JournalEntryModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyJournalFilter(query, filter)

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.JournalEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindBySource finds entries produced by a specific document
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType ledger.SourceType, sourceID uuid.UUID) ([]ledger.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.JournalEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindAsOf finds all entries dated on or before the cutoff
func (r *GormJournalEntryRepository) FindAsOf(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time) ([]ledger.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	if err := r.conn(ctx).
		Where("tenant_id = ? AND entry_date <= ?", tenantID, asOfDate).
		Order("entry_date ASC, entry_number ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.JournalEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Save persists a journal entry
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	return r.conn(ctx).Create(model).Error
}

// CountForTenant counts journal entries for a tenant
func (r *GormJournalEntryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&models.JournalEntryModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyJournalFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateEntryNumber generates a unique entry number
func (r *GormJournalEntryRepository) GenerateEntryNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: JE-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("JE-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := r.conn(ctx).
		Model(&models.JournalEntryModel{}).
		Select("entry_number").
		Where("tenant_id = ? AND entry_number LIKE ?", tenantID, prefix+"%").
		Order("entry_number DESC").
		Limit(1).
		Pluck("entry_number", &maxNumber).Error; err != nil {
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

// applyJournalFilter applies filter options to the query
func (r *GormJournalEntryRepository) applyJournalFilter(query *gorm.DB, filter ledger.JournalEntryFilter) *gorm.DB {
	query = r.applyJournalFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, JournalEntrySortFields, "entry_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyJournalFilterWithoutPagination applies filter options without pagination
func (r *GormJournalEntryRepository) applyJournalFilterWithoutPagination(query *gorm.DB, filter ledger.JournalEntryFilter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("entry_number ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}

	// Apply specific filters
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
