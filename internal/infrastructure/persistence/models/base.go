package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
)

// TenantAggregateModel carries the persistence fields shared by every
// aggregate in this service. All documents and ledger records are
// tenant-scoped, so tenant ID and the optimistic-lock version live here
// rather than in separate embedding layers.
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	Version   int        `gorm:"not null;default:1"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainTenantAggregateRoot copies identity, audit and locking fields
// from a domain aggregate root into the persistence model.
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.Version = t.Version
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}
