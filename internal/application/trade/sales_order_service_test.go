package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockSalesOrderRepository is a mock implementation of trade.SalesOrderRepository
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

// MockInvoiceRepositoryForOrders is a mock implementation of
// billing.InvoiceRepository for sales order conversion tests
type MockInvoiceRepositoryForOrders struct {
	mock.Mock
}

func (m *MockInvoiceRepositoryForOrders) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) FindOverdue(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepositoryForOrders) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepositoryForOrders) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepositoryForOrders) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepositoryForOrders) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// =============================================================================
// Test Infrastructure
// =============================================================================

// passthroughTxManager runs the function directly without a transaction
type passthroughTxManager struct{}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func assertOrderErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

type orderServiceFixture struct {
	orderRepo   *MockSalesOrderRepository
	invoiceRepo *MockInvoiceRepositoryForOrders
	service     *SalesOrderService
}

func newOrderServiceFixture() *orderServiceFixture {
	orderRepo := new(MockSalesOrderRepository)
	invoiceRepo := new(MockInvoiceRepositoryForOrders)
	service := NewSalesOrderService(orderRepo, invoiceRepo, passthroughTxManager{}, zap.NewNop())
	return &orderServiceFixture{
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		service:     service,
	}
}

func submittedTestOrder(t *testing.T, tenantID uuid.UUID) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(tenantID, "SO-2026-0001", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = order.AddService("AC servicing", "", "9987",
		decimal.NewFromInt(1), decimal.NewFromInt(1500), decimal.NewFromInt(18))
	require.NoError(t, err)
	_, err = order.AddPart("Capacitor", "CAP-45", "8532",
		decimal.NewFromInt(2), decimal.NewFromInt(450), decimal.NewFromInt(18))
	require.NoError(t, err)
	require.NoError(t, order.SetLaborCharges(decimal.NewFromInt(800), decimal.NewFromInt(18)))
	require.NoError(t, order.Submit())
	return order
}

func approvedTestOrder(t *testing.T, tenantID uuid.UUID) *trade.SalesOrder {
	t.Helper()
	order := submittedTestOrder(t, tenantID)
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel1Approved, uuid.New(), "looks good"))
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel2Approved, uuid.New(), "approved"))
	return order
}

// =============================================================================
// CreateSalesOrder
// =============================================================================

func TestSalesOrderService_CreateSalesOrder_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()

	fx.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("SO-2026-0031", nil)
	fx.orderRepo.On("Save", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	result, err := fx.service.CreateSalesOrder(ctx, tenantID, CreateSalesOrderRequest{
		TicketID:   uuid.New(),
		CustomerID: uuid.New(),
		Services: []ServiceLineRequest{
			{Name: "Compressor repair", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(2500), TaxRate: decimal.NewFromInt(18)},
		},
		LaborCharges: decimal.NewFromInt(500),
		LaborTaxRate: decimal.NewFromInt(18),
	})

	require.NoError(t, err)
	assert.Equal(t, "SO-2026-0031", result.OrderNumber)
	assert.Equal(t, "DRAFT", result.Status)
	assert.Equal(t, "PENDING", result.ApprovalStatus)
	assert.Len(t, result.Services, 1)
	assert.Equal(t, "500", result.LaborCharges.String())
	fx.orderRepo.AssertExpectations(t)
}

func TestSalesOrderService_CreateSalesOrder_StampsActor(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	actorID := uuid.New()
	fx := newOrderServiceFixture()

	var saved *trade.SalesOrder
	fx.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("SO-2026-0040", nil)
	fx.orderRepo.On("Save", ctx, mock.AnythingOfType("*trade.SalesOrder")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*trade.SalesOrder) }).
		Return(nil)

	_, err := fx.service.CreateSalesOrder(ctx, tenantID, CreateSalesOrderRequest{
		TicketID:   uuid.New(),
		CustomerID: uuid.New(),
		ActorID:    actorID,
	})

	require.NoError(t, err)
	require.NotNil(t, saved.CreatedBy)
	assert.Equal(t, actorID, *saved.CreatedBy)
}

func TestSalesOrderService_CreateSalesOrder_InvalidLine(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()

	fx.orderRepo.On("GenerateOrderNumber", ctx, tenantID).Return("SO-2026-0032", nil)

	result, err := fx.service.CreateSalesOrder(ctx, tenantID, CreateSalesOrderRequest{
		TicketID:   uuid.New(),
		CustomerID: uuid.New(),
		Services: []ServiceLineRequest{
			{Name: "Negative rate", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(-10)},
		},
	})

	assert.Nil(t, result)
	assertOrderErrorCode(t, err, shared.ErrCodeValidation)
	fx.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// =============================================================================
// UpdateSalesOrderLines
// =============================================================================

func TestSalesOrderService_UpdateSalesOrderLines_ClearsDiscount(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()

	order, err := trade.NewSalesOrder(tenantID, "SO-2026-0040", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = order.AddService("Brake overhaul", "", "9987",
		decimal.NewFromInt(1), decimal.NewFromInt(3000), decimal.NewFromInt(18))
	require.NoError(t, err)
	require.NoError(t, order.SetDiscountPercent(decimal.NewFromInt(10)))

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	fx.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	result, err := fx.service.UpdateSalesOrderLines(ctx, tenantID, order.ID, UpdateSalesOrderLinesRequest{
		Services: []ServiceLineRequest{
			{Name: "Brake overhaul", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(3000), TaxRate: decimal.NewFromInt(18)},
		},
		DiscountPercent: decimal.Zero,
	})

	require.NoError(t, err)
	assert.True(t, result.DiscountPercent.IsZero())
	assert.True(t, order.DiscountPercent.IsZero())
	fx.orderRepo.AssertExpectations(t)
}

// =============================================================================
// Approval Workflow
// =============================================================================

func TestSalesOrderService_DecideApproval_OrderedLevels(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := submittedTestOrder(t, tenantID)
	approver := uuid.New()

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	fx.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	result, err := fx.service.DecideApproval(ctx, tenantID, order.ID, ApprovalDecisionRequest{
		Decision: "LEVEL1_APPROVED",
		ActorID:  approver,
		Comment:  "parts verified",
	})

	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", result.Status)
	assert.Equal(t, "LEVEL1_APPROVED", result.ApprovalStatus)
	require.Len(t, result.Approvals, 1)
	assert.Equal(t, approver, result.Approvals[0].ActorID)
	assert.Equal(t, "parts verified", result.Approvals[0].Comment)
}

func TestSalesOrderService_DecideApproval_SkippedLevelRejected(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := submittedTestOrder(t, tenantID)

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

	result, err := fx.service.DecideApproval(ctx, tenantID, order.ID, ApprovalDecisionRequest{
		Decision: "LEVEL2_APPROVED",
		ActorID:  uuid.New(),
	})

	assert.Nil(t, result)
	assertOrderErrorCode(t, err, shared.ErrCodeInvalidApproval)
	assert.Equal(t, trade.ApprovalStatusPending, order.ApprovalStatus)
	assert.Empty(t, order.Approvals)
	fx.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSalesOrderService_DecideApproval_RejectionIsFinal(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := submittedTestOrder(t, tenantID)
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusRejected, uuid.New(), "too expensive"))

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

	result, err := fx.service.DecideApproval(ctx, tenantID, order.ID, ApprovalDecisionRequest{
		Decision: "LEVEL1_APPROVED",
		ActorID:  uuid.New(),
	})

	assert.Nil(t, result)
	assertOrderErrorCode(t, err, shared.ErrCodeInvalidTransition)
}

// =============================================================================
// ConvertToInvoice
// =============================================================================

func TestSalesOrderService_ConvertToInvoice_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := approvedTestOrder(t, tenantID)

	var savedInvoice *billing.Invoice
	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	fx.invoiceRepo.On("GenerateInvoiceNumber", ctx, tenantID).Return("INV-2026-0051", nil)
	fx.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).
		Run(func(args mock.Arguments) {
			savedInvoice = args.Get(1).(*billing.Invoice)
		}).Return(nil)
	fx.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	result, err := fx.service.ConvertToInvoice(ctx, tenantID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, "INVOICED", result.Status)
	require.NotNil(t, result.InvoiceID)
	require.NotNil(t, savedInvoice)
	assert.Equal(t, *result.InvoiceID, savedInvoice.ID)
	assert.Equal(t, billing.InvoiceStatusDraft, savedInvoice.Status)
	assert.Equal(t, order.CustomerID, savedInvoice.CustomerID)
	// service 1500 + parts 2x450 + labor 800 = 3200, all at 18%
	assert.Equal(t, "3200", savedInvoice.SubTotal.String())
	assert.Equal(t, "3776", savedInvoice.GrandTotal.String())
	require.Len(t, savedInvoice.Items, 3)
	fx.orderRepo.AssertExpectations(t)
	fx.invoiceRepo.AssertExpectations(t)
}

func TestSalesOrderService_ConvertToInvoice_RequiresFullApproval(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := submittedTestOrder(t, tenantID)
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel1Approved, uuid.New(), ""))

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

	result, err := fx.service.ConvertToInvoice(ctx, tenantID, order.ID)

	assert.Nil(t, result)
	assertOrderErrorCode(t, err, shared.ErrCodeInvalidApproval)
	fx.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	fx.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSalesOrderService_ConvertToInvoice_AppliesOrderDiscount(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order, err := trade.NewSalesOrder(tenantID, "SO-2026-0002", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = order.AddService("Deep cleaning", "", "",
		decimal.NewFromInt(1), decimal.NewFromInt(1000), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, order.SetDiscountPercent(decimal.NewFromInt(10)))
	require.NoError(t, order.Submit())
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel1Approved, uuid.New(), ""))
	require.NoError(t, order.TransitionApproval(trade.ApprovalStatusLevel2Approved, uuid.New(), ""))

	var savedInvoice *billing.Invoice
	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	fx.invoiceRepo.On("GenerateInvoiceNumber", ctx, tenantID).Return("INV-2026-0053", nil)
	fx.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).
		Run(func(args mock.Arguments) {
			savedInvoice = args.Get(1).(*billing.Invoice)
		}).Return(nil)
	fx.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	_, err = fx.service.ConvertToInvoice(ctx, tenantID, order.ID)

	require.NoError(t, err)
	require.NotNil(t, savedInvoice)
	assert.Equal(t, billing.DiscountTypePercentage, savedInvoice.DiscountType)
	assert.Equal(t, "100", savedInvoice.DiscountAmount.String())
	assert.Equal(t, "900", savedInvoice.GrandTotal.String())
}

// =============================================================================
// Submit and Complete
// =============================================================================

func TestSalesOrderService_SubmitSalesOrder(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order, err := trade.NewSalesOrder(tenantID, "SO-2026-0003", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = order.AddService("Inspection", "", "",
		decimal.NewFromInt(1), decimal.NewFromInt(300), decimal.Zero)
	require.NoError(t, err)

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	fx.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

	result, err := fx.service.SubmitSalesOrder(ctx, tenantID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", result.Status)
	assert.NotNil(t, result.SubmittedAt)
}

func TestSalesOrderService_CompleteSalesOrder_RequiresInvoiced(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := newOrderServiceFixture()
	order := approvedTestOrder(t, tenantID)

	fx.orderRepo.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

	result, err := fx.service.CompleteSalesOrder(ctx, tenantID, order.ID)

	assert.Nil(t, result)
	assertOrderErrorCode(t, err, shared.ErrCodeInvalidTransition)
}
