package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/servicebooks/backend/internal/application/ledger"
)

// TrialBalanceHandler handles trial balance report endpoints
type TrialBalanceHandler struct {
	BaseHandler
	trialBalanceService *ledgerapp.TrialBalanceService
}

// NewTrialBalanceHandler creates a new TrialBalanceHandler
func NewTrialBalanceHandler(trialBalanceService *ledgerapp.TrialBalanceService) *TrialBalanceHandler {
	return &TrialBalanceHandler{
		trialBalanceService: trialBalanceService,
	}
}

// asOfDate reads the as_of_date query parameter, defaulting to today
func (h *TrialBalanceHandler) asOfDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of_date")
	if raw == "" {
		return time.Now(), true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.BadRequest(c, "Invalid as_of_date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	// Include the whole report day
	return asOf.Add(24*time.Hour - time.Nanosecond), true
}

// Get computes the trial balance as of the given date
func (h *TrialBalanceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	asOf, ok := h.asOfDate(c)
	if !ok {
		return
	}

	report, err := h.trialBalanceService.GetTrialBalance(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// ExportCSV streams the trial balance as a CSV attachment
func (h *TrialBalanceHandler) ExportCSV(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	asOf, ok := h.asOfDate(c)
	if !ok {
		return
	}

	csvContent, err := h.trialBalanceService.ExportTrialBalanceCSV(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := "trial-balance-" + asOf.Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvContent))
}
