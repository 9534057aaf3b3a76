package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string                     `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	CustomerID     uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Status         billing.InvoiceStatus      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Items          billing.LineItems          `gorm:"type:jsonb;default:'[]'"`
	DiscountType   billing.DiscountType       `gorm:"type:varchar(20);not null;default:'AMOUNT'"`
	DiscountValue  decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	ShippingCharge decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	SubTotal       decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	TaxTotal       decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	GrandTotal     decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	AmountPaid     decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	CreditsApplied decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	BalanceDue     decimal.Decimal            `gorm:"type:decimal(18,4);not null;index"`
	Payments       billing.Payments           `gorm:"type:jsonb;default:'[]'"`
	CreditRecords  billing.CreditApplications `gorm:"type:jsonb;default:'[]'"`
	History        billing.History            `gorm:"type:jsonb;default:'[]'"`
	DueDate        *time.Time                 `gorm:"index"`
	SentAt         *time.Time
	ViewedAt       *time.Time
	PaidAt         *time.Time
	VoidedAt       *time.Time
	VoidReason     string `gorm:"type:varchar(500)"`
	WrittenOffAt   *time.Time
	WriteOffReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
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
		InvoiceNumber:  m.InvoiceNumber,
		CustomerID:     m.CustomerID,
		Status:         m.Status,
		Items:          m.Items,
		DiscountType:   m.DiscountType,
		DiscountValue:  m.DiscountValue,
		ShippingCharge: m.ShippingCharge,
		SubTotal:       m.SubTotal,
		DiscountAmount: m.DiscountAmount,
		TaxTotal:       m.TaxTotal,
		GrandTotal:     m.GrandTotal,
		AmountPaid:     m.AmountPaid,
		CreditsApplied: m.CreditsApplied,
		BalanceDue:     m.BalanceDue,
		Payments:       m.Payments,
		CreditRecords:  m.CreditRecords,
		History:        m.History,
		DueDate:        m.DueDate,
		SentAt:         m.SentAt,
		ViewedAt:       m.ViewedAt,
		PaidAt:         m.PaidAt,
		VoidedAt:       m.VoidedAt,
		VoidReason:     m.VoidReason,
		WrittenOffAt:   m.WrittenOffAt,
		WriteOffReason: m.WriteOffReason,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.Status = inv.Status
	m.Items = inv.Items
	m.DiscountType = inv.DiscountType
	m.DiscountValue = inv.DiscountValue
	m.ShippingCharge = inv.ShippingCharge
	m.SubTotal = inv.SubTotal
	m.DiscountAmount = inv.DiscountAmount
	m.TaxTotal = inv.TaxTotal
	m.GrandTotal = inv.GrandTotal
	m.AmountPaid = inv.AmountPaid
	m.CreditsApplied = inv.CreditsApplied
	m.BalanceDue = inv.BalanceDue
	m.Payments = inv.Payments
	m.CreditRecords = inv.CreditRecords
	m.History = inv.History
	m.DueDate = inv.DueDate
	m.SentAt = inv.SentAt
	m.ViewedAt = inv.ViewedAt
	m.PaidAt = inv.PaidAt
	m.VoidedAt = inv.VoidedAt
	m.VoidReason = inv.VoidReason
	m.WrittenOffAt = inv.WrittenOffAt
	m.WriteOffReason = inv.WriteOffReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// CreditNoteModel is the persistence model for the CreditNote aggregate root.
type CreditNoteModel struct {
	TenantAggregateModel
	CreditNoteNumber  string                         `gorm:"type:varchar(50);not null;uniqueIndex:idx_credit_note_tenant_number,priority:2"`
	OriginalInvoiceID uuid.UUID                      `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Reason            string                         `gorm:"type:varchar(500);not null"`
	Items             billing.LineItems              `gorm:"type:jsonb;default:'[]'"`
	SubTotal          decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	TaxTotal          decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	Total             decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	CreditsRemaining  decimal.Decimal                `gorm:"type:decimal(18,4);not null;index"`
	AppliedAmount     decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	Status            billing.CreditNoteStatus       `gorm:"type:varchar(20);not null;default:'ISSUED';index"`
	Applications      billing.CreditNoteApplications `gorm:"type:jsonb;default:'[]'"`
	RefundedAt        *time.Time
	RefundMethod      string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// ToDomain converts the persistence model to a domain CreditNote entity.
func (m *CreditNoteModel) ToDomain() *billing.CreditNote {
	return &billing.CreditNote{
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
		CreditNoteNumber:  m.CreditNoteNumber,
		OriginalInvoiceID: m.OriginalInvoiceID,
		CustomerID:        m.CustomerID,
		Reason:            m.Reason,
		Items:             m.Items,
		SubTotal:          m.SubTotal,
		TaxTotal:          m.TaxTotal,
		Total:             m.Total,
		CreditsRemaining:  m.CreditsRemaining,
		AppliedAmount:     m.AppliedAmount,
		Status:            m.Status,
		Applications:      m.Applications,
		RefundedAt:        m.RefundedAt,
		RefundMethod:      m.RefundMethod,
	}
}

// FromDomain populates the persistence model from a domain CreditNote entity.
func (m *CreditNoteModel) FromDomain(cn *billing.CreditNote) {
	m.FromDomainTenantAggregateRoot(cn.TenantAggregateRoot)
	m.CreditNoteNumber = cn.CreditNoteNumber
	m.OriginalInvoiceID = cn.OriginalInvoiceID
	m.CustomerID = cn.CustomerID
	m.Reason = cn.Reason
	m.Items = cn.Items
	m.SubTotal = cn.SubTotal
	m.TaxTotal = cn.TaxTotal
	m.Total = cn.Total
	m.CreditsRemaining = cn.CreditsRemaining
	m.AppliedAmount = cn.AppliedAmount
	m.Status = cn.Status
	m.Applications = cn.Applications
	m.RefundedAt = cn.RefundedAt
	m.RefundMethod = cn.RefundMethod
}

// CreditNoteModelFromDomain creates a new persistence model from a domain CreditNote.
func CreditNoteModelFromDomain(cn *billing.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{}
	m.FromDomain(cn)
	return m
}
