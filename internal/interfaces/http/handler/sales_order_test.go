package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tradeapp "github.com/servicebooks/backend/internal/application/trade"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/trade"
)

// MockSalesOrderRepository implements trade.SalesOrderRepository for testing
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByTicket(ctx context.Context, tenantID, ticketID uuid.UUID) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, ticketID)
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindPendingApproval(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status trade.OrderStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalesOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

var _ trade.SalesOrderRepository = (*MockSalesOrderRepository)(nil)

// MockOrderInvoiceRepository implements billing.InvoiceRepository for the
// order conversion path
type MockOrderInvoiceRepository struct {
	mock.Mock
}

func (m *MockOrderInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockOrderInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockOrderInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockOrderInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockOrderInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderInvoiceRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderInvoiceRepository) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

var _ billing.InvoiceRepository = (*MockOrderInvoiceRepository)(nil)

// noopTxManager runs the function directly without a transaction
type noopTxManager struct{}

func (noopTxManager) InTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Test helpers

var (
	orderTestTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	orderTestUserID   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func setupSalesOrderTestRouter() (*gin.Engine, *MockSalesOrderRepository, *MockOrderInvoiceRepository, *SalesOrderHandler) {
	gin.SetMode(gin.TestMode)

	orderRepo := new(MockSalesOrderRepository)
	invoiceRepo := new(MockOrderInvoiceRepository)
	service := tradeapp.NewSalesOrderService(orderRepo, invoiceRepo, noopTxManager{}, zap.NewNop())
	handler := NewSalesOrderHandler(service)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, orderTestTenantID, orderTestUserID)
		c.Next()
	})

	return router, orderRepo, invoiceRepo, handler
}

func draftOrderFixture(t *testing.T) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(orderTestTenantID, "SO-2026-0001", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = order.AddService("AC servicing", "Split AC deep clean", "9987",
		decimal.NewFromInt(1), decimal.NewFromInt(1500), decimal.NewFromInt(18))
	require.NoError(t, err)
	_, err = order.AddPart("Capacitor", "CAP-45", "8532",
		decimal.NewFromInt(2), decimal.NewFromInt(450), decimal.NewFromInt(18))
	require.NoError(t, err)
	require.NoError(t, order.SetLaborCharges(decimal.NewFromInt(800), decimal.NewFromInt(18)))
	return order
}

func submittedOrderFixture(t *testing.T) *trade.SalesOrder {
	t.Helper()
	order := draftOrderFixture(t)
	require.NoError(t, order.Submit())
	return order
}

func approvedOrderFixture(t *testing.T) *trade.SalesOrder {
	t.Helper()
	order := submittedOrderFixture(t)
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel1Approved, uuid.New(), "level 1 ok"))
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel2Approved, uuid.New(), "level 2 ok"))
	return order
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// Tests

func TestSalesOrderHandler_Create(t *testing.T) {
	t.Run("should create sales order successfully", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders", handler.Create)

		orderRepo.On("GenerateOrderNumber", mock.Anything, orderTestTenantID).
			Return("SO-2026-0042", nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)

		reqBody := tradeapp.CreateSalesOrderRequest{
			TicketID:   uuid.New(),
			CustomerID: uuid.New(),
			Services: []tradeapp.ServiceLineRequest{
				{
					Name:     "AC servicing",
					Quantity: decimal.NewFromInt(1),
					Rate:     decimal.NewFromInt(1500),
					TaxRate:  decimal.NewFromInt(18),
				},
			},
			Remark: "Walk-in job",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		response := decodeEnvelope(t, w)
		assert.True(t, response["success"].(bool))

		orderRepo.AssertExpectations(t)
	})

	t.Run("should return error for missing ticket ID", func(t *testing.T) {
		router, _, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders", handler.Create)

		reqBody := map[string]interface{}{
			"customer_id": uuid.New().String(),
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return error when tenant context is missing", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		orderRepo := new(MockSalesOrderRepository)
		invoiceRepo := new(MockOrderInvoiceRepository)
		service := tradeapp.NewSalesOrderService(orderRepo, invoiceRepo, noopTxManager{}, zap.NewNop())
		handler := NewSalesOrderHandler(service)

		router := gin.New()
		router.POST("/sales-orders", handler.Create)

		body, _ := json.Marshal(tradeapp.CreateSalesOrderRequest{
			TicketID:   uuid.New(),
			CustomerID: uuid.New(),
		})
		req, _ := http.NewRequest(http.MethodPost, "/sales-orders", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSalesOrderHandler_List(t *testing.T) {
	t.Run("should list sales orders with pagination meta", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.GET("/sales-orders", handler.List)

		order := draftOrderFixture(t)
		orderRepo.On("FindAllForTenant", mock.Anything, orderTestTenantID, mock.AnythingOfType("trade.SalesOrderFilter")).
			Return([]trade.SalesOrder{*order}, nil)
		orderRepo.On("CountForTenant", mock.Anything, orderTestTenantID, mock.AnythingOfType("trade.SalesOrderFilter")).
			Return(int64(1), nil)

		req, _ := http.NewRequest(http.MethodGet, "/sales-orders?page=1&page_size=10", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		assert.True(t, response["success"].(bool))
		meta := response["meta"].(map[string]interface{})
		assert.Equal(t, float64(1), meta["total"])

		orderRepo.AssertExpectations(t)
	})
}

func TestSalesOrderHandler_GetByID(t *testing.T) {
	t.Run("should get sales order by ID", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.GET("/sales-orders/:id", handler.GetByID)

		order := draftOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)

		req, _ := http.NewRequest(http.MethodGet, "/sales-orders/"+order.ID.String(), nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		assert.True(t, response["success"].(bool))

		orderRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for non-existent order", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.GET("/sales-orders/:id", handler.GetByID)

		orderID := uuid.New()
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, orderID).
			Return(nil, nil)

		req, _ := http.NewRequest(http.MethodGet, "/sales-orders/"+orderID.String(), nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		response := decodeEnvelope(t, w)
		errBody := response["error"].(map[string]interface{})
		assert.Equal(t, shared.ErrCodeNotFound, errBody["code"])

		orderRepo.AssertExpectations(t)
	})

	t.Run("should return error for invalid order ID", func(t *testing.T) {
		router, _, _, handler := setupSalesOrderTestRouter()
		router.GET("/sales-orders/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/sales-orders/not-a-uuid", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSalesOrderHandler_Submit(t *testing.T) {
	t.Run("should submit draft order for approval", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/submit", handler.Submit)

		order := draftOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/submit", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "PENDING", data["approval_status"])

		orderRepo.AssertExpectations(t)
	})

	t.Run("should reject submit of an already submitted order", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/submit", handler.Submit)

		order := submittedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/submit", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		response := decodeEnvelope(t, w)
		errBody := response["error"].(map[string]interface{})
		assert.Equal(t, shared.ErrCodeInvalidTransition, errBody["code"])
	})
}

func TestSalesOrderHandler_Transition(t *testing.T) {
	t.Run("should record level 1 approval with actor from context", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/transition", handler.Transition)

		order := submittedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)

		body, _ := json.Marshal(TransitionRequest{
			Decision: "LEVEL1_APPROVED",
			Comment:  "estimate verified",
		})
		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "LEVEL1_APPROVED", data["approval_status"])

		approvals := data["approvals"].([]interface{})
		require.Len(t, approvals, 1)
		record := approvals[0].(map[string]interface{})
		assert.Equal(t, orderTestUserID.String(), record["actor_id"])

		orderRepo.AssertExpectations(t)
	})

	t.Run("should reject skipping approval levels", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/transition", handler.Transition)

		order := submittedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)

		body, _ := json.Marshal(TransitionRequest{Decision: "LEVEL2_APPROVED"})
		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		response := decodeEnvelope(t, w)
		errBody := response["error"].(map[string]interface{})
		assert.Equal(t, shared.ErrCodeInvalidApproval, errBody["code"])
	})

	t.Run("should return error for unknown decision", func(t *testing.T) {
		router, _, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/transition", handler.Transition)

		body, _ := json.Marshal(map[string]string{"decision": "MAYBE"})
		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+uuid.New().String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 401 when acting user is missing from context", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		orderRepo := new(MockSalesOrderRepository)
		invoiceRepo := new(MockOrderInvoiceRepository)
		service := tradeapp.NewSalesOrderService(orderRepo, invoiceRepo, noopTxManager{}, zap.NewNop())
		handler := NewSalesOrderHandler(service)

		router := gin.New()
		// Tenant is present but no authenticated user
		router.Use(func(c *gin.Context) {
			c.Set("jwt_tenant_id", orderTestTenantID.String())
			c.Next()
		})
		router.POST("/sales-orders/:id/transition", handler.Transition)

		body, _ := json.Marshal(TransitionRequest{Decision: "LEVEL1_APPROVED"})
		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+uuid.New().String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSalesOrderHandler_Convert(t *testing.T) {
	t.Run("should convert approved order to draft invoice", func(t *testing.T) {
		router, orderRepo, invoiceRepo, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/convert", handler.Convert)

		order := approvedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)
		invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, orderTestTenantID).
			Return("INV-2026-0007", nil)
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).
			Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/convert", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "INVOICED", data["status"])
		assert.NotEmpty(t, data["invoice_id"])

		orderRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("should reject conversion before both approval levels pass", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/convert", handler.Convert)

		order := submittedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/convert", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		response := decodeEnvelope(t, w)
		errBody := response["error"].(map[string]interface{})
		assert.Equal(t, shared.ErrCodeInvalidApproval, errBody["code"])
	})
}

func TestSalesOrderHandler_Complete(t *testing.T) {
	t.Run("should complete an invoiced order", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.POST("/sales-orders/:id/complete", handler.Complete)

		order := approvedOrderFixture(t)
		invoiceID := uuid.New()
		require.NoError(t, order.MarkInvoiced(invoiceID))

		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/sales-orders/"+order.ID.String()+"/complete", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", data["status"])

		orderRepo.AssertExpectations(t)
	})
}

func TestSalesOrderHandler_UpdateLines(t *testing.T) {
	t.Run("should replace draft order lines", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.PUT("/sales-orders/:id/lines", handler.UpdateLines)

		order := draftOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).
			Return(nil)

		body, _ := json.Marshal(tradeapp.UpdateSalesOrderLinesRequest{
			Services: []tradeapp.ServiceLineRequest{
				{
					Name:     "Compressor replacement",
					Quantity: decimal.NewFromInt(1),
					Rate:     decimal.NewFromInt(5200),
					TaxRate:  decimal.NewFromInt(18),
				},
			},
		})
		req, _ := http.NewRequest(http.MethodPut, "/sales-orders/"+order.ID.String()+"/lines", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		assert.True(t, response["success"].(bool))

		orderRepo.AssertExpectations(t)
	})

	t.Run("should reject line update on a submitted order", func(t *testing.T) {
		router, orderRepo, _, handler := setupSalesOrderTestRouter()
		router.PUT("/sales-orders/:id/lines", handler.UpdateLines)

		order := submittedOrderFixture(t)
		orderRepo.On("FindByIDForTenant", mock.Anything, orderTestTenantID, order.ID).
			Return(order, nil)

		body, _ := json.Marshal(tradeapp.UpdateSalesOrderLinesRequest{})
		req, _ := http.NewRequest(http.MethodPut, "/sales-orders/"+order.ID.String()+"/lines", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
