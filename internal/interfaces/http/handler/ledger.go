package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/servicebooks/backend/internal/application/ledger"
)

// LedgerHandler handles chart-of-accounts and journal API endpoints
type LedgerHandler struct {
	BaseHandler
	chartService   *ledgerapp.ChartService
	postingService *ledgerapp.PostingService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(chartService *ledgerapp.ChartService, postingService *ledgerapp.PostingService) *LedgerHandler {
	return &LedgerHandler{
		chartService:   chartService,
		postingService: postingService,
	}
}

// CreateAccount adds an account to the tenant's chart
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.chartService.CreateAccount(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// ListAccounts returns the tenant's full chart of accounts
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	accounts, err := h.chartService.ListAccounts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accounts)
}

// SeedAccounts creates the standard chart of accounts for the tenant
func (h *LedgerHandler) SeedAccounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	accounts, err := h.chartService.SeedDefaultAccounts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accounts)
}

// ListJournalEntries lists journal entries with filtering
func (h *LedgerHandler) ListJournalEntries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter ledgerapp.JournalEntryListFilter
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

	entries, total, err := h.chartService.ListJournalEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// GetJournalEntry retrieves one journal entry
func (h *LedgerHandler) GetJournalEntry(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal entry ID format")
		return
	}

	entry, err := h.chartService.GetJournalEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// PostManualEntry posts a caller-supplied journal batch
func (h *LedgerHandler) PostManualEntry(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.PostManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.postingService.PostManualEntry(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}
