package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ shared.DomainEvent = (*CreditNoteIssuedEvent)(nil)
	_ shared.DomainEvent = (*CreditNoteFullyAppliedEvent)(nil)
	_ shared.DomainEvent = (*CreditNoteRefundedEvent)(nil)
)

func TestCreditNoteEvents_Issued(t *testing.T) {
	inv := createTestInvoice(t)
	cn := createTestCreditNote(t, inv, fullCreditLines(inv))

	events := cn.GetDomainEvents()
	require.Len(t, events, 1)

	issued, ok := events[0].(*CreditNoteIssuedEvent)
	require.True(t, ok)
	assert.Equal(t, "CreditNoteIssued", issued.EventType())
	assert.Equal(t, cn.ID, issued.AggregateID())
	assert.Equal(t, "CreditNote", issued.AggregateType())
	assert.Equal(t, cn.TenantID, issued.TenantID())
	assert.Equal(t, inv.ID, issued.OriginalInvoiceID)
	assert.True(t, issued.Total.Equal(cn.Total))
	assert.NotEqual(t, uuid.Nil, issued.EventID())
	assert.False(t, issued.OccurredAt().IsZero())
}

func TestCreditNoteEvents_FullyApplied(t *testing.T) {
	inv := createTestInvoice(t)
	cn := createTestCreditNote(t, inv, fullCreditLines(inv))
	cn.ClearDomainEvents()

	_, err := cn.Apply(uuid.New(), valueobject.NewMoneyINR(cn.Total))
	require.NoError(t, err)

	events := cn.GetDomainEvents()
	require.Len(t, events, 1)

	applied, ok := events[0].(*CreditNoteFullyAppliedEvent)
	require.True(t, ok)
	assert.Equal(t, "CreditNoteFullyApplied", applied.EventType())
	assert.Equal(t, cn.ID, applied.AggregateID())
	assert.Equal(t, cn.TenantID, applied.TenantID())
	assert.True(t, applied.AppliedAmount.Equal(cn.Total))
}

func TestCreditNoteEvents_Refunded(t *testing.T) {
	inv := createTestInvoice(t)
	cn := createTestCreditNote(t, inv, fullCreditLines(inv))
	cn.ClearDomainEvents()

	refunded, err := cn.Refund("bank_transfer")
	require.NoError(t, err)

	events := cn.GetDomainEvents()
	require.Len(t, events, 1)

	event, ok := events[0].(*CreditNoteRefundedEvent)
	require.True(t, ok)
	assert.Equal(t, "CreditNoteRefunded", event.EventType())
	assert.Equal(t, cn.ID, event.AggregateID())
	assert.Equal(t, cn.TenantID, event.TenantID())
	assert.True(t, event.RefundedAmount.Equal(refunded))
	assert.Equal(t, "bank_transfer", event.RefundMethod)
}
