package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/servicebooks/backend/internal/application/billing"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// Create creates a draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// List lists invoices with filtering and pagination
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// GetByID retrieves an invoice by ID
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetSummary aggregates the tenant's invoicing position
func (h *InvoiceHandler) GetSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	summary, err := h.invoiceService.GetInvoiceSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Send transitions a draft invoice to SENT and posts revenue recognition
func (h *InvoiceHandler) Send(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// MarkViewed records the customer-side viewed signal
func (h *InvoiceHandler) MarkViewed(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkInvoiceViewed(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RecordPayment records a payment against an invoice
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req billingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// DeletePayment removes a payment and posts the reversing entry
func (h *InvoiceHandler) DeletePayment(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	// The reversal confirmation travels in the body; an empty body means
	// no explicit confirmation.
	var req billingapp.DeletePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	invoice, err := h.invoiceService.DeletePayment(c.Request.Context(), tenantID, invoiceID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Void cancels an invoice
func (h *InvoiceHandler) Void(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req billingapp.VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.VoidInvoice(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// WriteOff marks the invoice's open balance uncollectible
func (h *InvoiceHandler) WriteOff(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req billingapp.WriteOffInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.WriteOffInvoice(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Clone produces a fresh draft copy of an invoice
func (h *InvoiceHandler) Clone(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.CloneInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// DeleteDraft removes a draft invoice that was never sent
func (h *InvoiceHandler) DeleteDraft(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteDraftInvoice(c.Request.Context(), tenantID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *InvoiceHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, invoiceID, true
}
