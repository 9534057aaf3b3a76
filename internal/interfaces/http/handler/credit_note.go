package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/servicebooks/backend/internal/application/billing"
)

// CreditNoteHandler handles credit note-related API endpoints
type CreditNoteHandler struct {
	BaseHandler
	creditNoteService *billingapp.CreditNoteService
}

// NewCreditNoteHandler creates a new CreditNoteHandler
func NewCreditNoteHandler(creditNoteService *billingapp.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{
		creditNoteService: creditNoteService,
	}
}

// Create issues a credit note against an invoice
func (h *CreditNoteHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreateCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.creditNoteService.CreateCreditNote(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, note)
}

// List lists credit notes with filtering and pagination
func (h *CreditNoteHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter billingapp.CreditNoteListFilter
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

	notes, total, err := h.creditNoteService.ListCreditNotes(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, notes, total, filter.Page, filter.PageSize)
}

// GetByID retrieves a credit note by ID
func (h *CreditNoteHandler) GetByID(c *gin.Context) {
	tenantID, noteID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	note, err := h.creditNoteService.GetCreditNoteByID(c.Request.Context(), tenantID, noteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, note)
}

// Apply applies part of the note's remaining credit to an invoice
func (h *CreditNoteHandler) Apply(c *gin.Context) {
	tenantID, noteID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req billingapp.ApplyCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.creditNoteService.ApplyCreditNote(c.Request.Context(), tenantID, noteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, note)
}

// Refund pays out the note's remaining credit
func (h *CreditNoteHandler) Refund(c *gin.Context) {
	tenantID, noteID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req billingapp.RefundCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.creditNoteService.RefundCreditNote(c.Request.Context(), tenantID, noteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, note)
}

func (h *CreditNoteHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit note ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, noteID, true
}
