package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/servicebooks/backend/internal/application/trade"
)

// SalesOrderHandler handles sales order-related API endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService *tradeapp.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *tradeapp.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{
		orderService: orderService,
	}
}

// TransitionRequest carries one approver's decision. The acting user comes
// from the authenticated context, never from the body.
type TransitionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=LEVEL1_APPROVED LEVEL2_APPROVED REJECTED"`
	Comment  string `json:"comment"`
}

// Create creates a draft sales order for a service ticket
func (h *SalesOrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tradeapp.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if actorID, err := getUserID(c); err == nil {
		req.ActorID = actorID
	}

	order, err := h.orderService.CreateSalesOrder(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// List lists sales orders with filtering and pagination
func (h *SalesOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter tradeapp.SalesOrderListFilter
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

	orders, total, err := h.orderService.ListSalesOrders(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID retrieves a sales order by ID
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetSalesOrderByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateLines replaces a draft order's billable lines
func (h *SalesOrderHandler) UpdateLines(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req tradeapp.UpdateSalesOrderLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.UpdateSalesOrderLines(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Submit sends a draft order into the approval pipeline
func (h *SalesOrderHandler) Submit(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	order, err := h.orderService.SubmitSalesOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Transition records one approver's decision on an order
func (h *SalesOrderHandler) Transition(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not found in context")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.DecideApproval(c.Request.Context(), tenantID, orderID, tradeapp.ApprovalDecisionRequest{
		Decision: req.Decision,
		ActorID:  actorID,
		Comment:  req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Convert turns a fully approved order into a draft invoice
func (h *SalesOrderHandler) Convert(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ConvertToInvoice(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Complete closes an invoiced order
func (h *SalesOrderHandler) Complete(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	order, err := h.orderService.CompleteSalesOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

func (h *SalesOrderHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sales order ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, orderID, true
}
