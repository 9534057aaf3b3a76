package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	TenantAggregateModel
	OrderNumber     string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_order_tenant_number,priority:2"`
	TicketID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	Services        trade.ServiceLines    `gorm:"type:jsonb;default:'[]'"`
	Parts           trade.PartLines       `gorm:"type:jsonb;default:'[]'"`
	LaborCharges    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LaborTaxRate    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status          trade.OrderStatus     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ApprovalStatus  trade.ApprovalStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Approvals       trade.ApprovalRecords `gorm:"type:jsonb;default:'[]'"`
	InvoiceID       *uuid.UUID            `gorm:"type:uuid;index"`
	SubmittedAt     *time.Time
	InvoicedAt      *time.Time
	CompletedAt     *time.Time
	Remark          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder entity.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	return &trade.SalesOrder{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		OrderNumber:     m.OrderNumber,
		TicketID:        m.TicketID,
		CustomerID:      m.CustomerID,
		Services:        m.Services,
		Parts:           m.Parts,
		LaborCharges:    m.LaborCharges,
		LaborTaxRate:    m.LaborTaxRate,
		DiscountPercent: m.DiscountPercent,
		Status:          m.Status,
		ApprovalStatus:  m.ApprovalStatus,
		Approvals:       m.Approvals,
		InvoiceID:       m.InvoiceID,
		SubmittedAt:     m.SubmittedAt,
		InvoicedAt:      m.InvoicedAt,
		CompletedAt:     m.CompletedAt,
		Remark:          m.Remark,
	}
}

// FromDomain populates the persistence model from a domain SalesOrder entity.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.TicketID = o.TicketID
	m.CustomerID = o.CustomerID
	m.Services = o.Services
	m.Parts = o.Parts
	m.LaborCharges = o.LaborCharges
	m.LaborTaxRate = o.LaborTaxRate
	m.DiscountPercent = o.DiscountPercent
	m.Status = o.Status
	m.ApprovalStatus = o.ApprovalStatus
	m.Approvals = o.Approvals
	m.InvoiceID = o.InvoiceID
	m.SubmittedAt = o.SubmittedAt
	m.InvoicedAt = o.InvoicedAt
	m.CompletedAt = o.CompletedAt
	m.Remark = o.Remark
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}
