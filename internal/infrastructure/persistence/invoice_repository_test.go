package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/billing"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/servicebooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockInvoiceRepository creates a GormInvoiceRepository with a mocked SQL connection
func newMockInvoiceRepository(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

func invoiceRows(invoiceID, tenantID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "version", "invoice_number", "customer_id", "status",
		"items", "payments", "credit_records", "history",
		"grand_total", "amount_paid", "credits_applied", "balance_due",
	}).AddRow(
		invoiceID, tenantID, 1, "INV-20260831-00001", uuid.New(), "SENT",
		"[]", "[]", "[]", "[]",
		decimal.RequireFromString("2360"), decimal.Zero, decimal.Zero, decimal.RequireFromString("2360"),
	)
}

func TestNewGormInvoiceRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormInvoiceRepository_FindByID(t *testing.T) {
	t.Run("finds existing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnRows(invoiceRows(invoiceID, tenantID))

		invoice, err := repo.FindByID(context.Background(), invoiceID)

		assert.NoError(t, err)
		assert.NotNil(t, invoice)
		assert.Equal(t, invoiceID, invoice.ID)
		assert.Equal(t, "INV-20260831-00001", invoice.InvoiceNumber)
		assert.Equal(t, billing.InvoiceStatusSent, invoice.Status)
		assert.True(t, invoice.BalanceDue.Equal(decimal.RequireFromString("2360")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByID(context.Background(), invoiceID)

		assert.Error(t, err)
		assert.Nil(t, invoice)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds invoice within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, invoiceID, 1).
			WillReturnRows(invoiceRows(invoiceID, tenantID))

		invoice, err := repo.FindByIDForTenant(context.Background(), tenantID, invoiceID)

		assert.NoError(t, err)
		assert.NotNil(t, invoice)
		assert.Equal(t, tenantID, invoice.TenantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not leak invoices across tenants", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		otherTenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(otherTenantID, invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByIDForTenant(context.Background(), otherTenantID, invoiceID)

		assert.Nil(t, invoice)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_CountByStatus(t *testing.T) {
	t.Run("counts invoices in a status", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE tenant_id = \$1 AND status = \$2`).
			WithArgs(tenantID, "PAID").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByStatus(context.Background(), tenantID, billing.InvoiceStatusPaid)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SumOutstandingForTenant(t *testing.T) {
	t.Run("sums open balances", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(balance_due\), 0\) as total FROM "invoices"`).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(decimal.RequireFromString("12345.67")))

		total, err := repo.SumOutstandingForTenant(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("12345.67")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when no open invoices", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(balance_due\), 0\) as total FROM "invoices"`).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(decimal.Zero))

		total, err := repo.SumOutstandingForTenant(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_ExistsByInvoiceNumber(t *testing.T) {
	t.Run("returns true for existing number", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE tenant_id = \$1 AND invoice_number = \$2`).
			WithArgs(tenantID, "INV-20260831-00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByInvoiceNumber(context.Background(), tenantID, "INV-20260831-00001")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false for unknown number", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE tenant_id = \$1 AND invoice_number = \$2`).
			WithArgs(tenantID, "INV-20260831-99999").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByInvoiceNumber(context.Background(), tenantID, "INV-20260831-99999")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_GenerateInvoiceNumber(t *testing.T) {
	t.Run("starts at 00001 for a fresh day", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT "invoice_number" FROM "invoices"`).
			WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}))

		number, err := repo.GenerateInvoiceNumber(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.Regexp(t, `^INV-\d{8}-00001$`, number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments the daily sequence", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT "invoice_number" FROM "invoices"`).
			WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-20260831-00041"))

		number, err := repo.GenerateInvoiceNumber(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.Regexp(t, `-00042$`, number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("returns concurrency conflict on stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		invoice := mustBuildInvoice(t, tenantID)
		invoice.IncrementVersion()

		mock.ExpectExec(`UPDATE "invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), invoice)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("writes cleared paid_at back as NULL after payment deletion", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		invoice := mustBuildInvoice(t, tenantID)
		require.NoError(t, invoice.Send())
		payment, err := invoice.RecordPayment(
			valueobject.NewMoneyINR(invoice.GrandTotal), "upi", time.Now(), "TXN-1")
		require.NoError(t, err)
		require.Equal(t, billing.InvoiceStatusPaid, invoice.Status)
		require.NotNil(t, invoice.PaidAt)

		_, err = invoice.DeletePayment(payment.ID, true)
		require.NoError(t, err)
		require.Nil(t, invoice.PaidAt)

		mock.ExpectExec(`UPDATE "invoices" SET .*"paid_at"=\$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), invoice)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func mustBuildInvoice(t *testing.T, tenantID uuid.UUID) *billing.Invoice {
	t.Helper()
	item, err := billing.NewLineItem("Service call", "", "9987", decimal.NewFromInt(1), decimal.NewFromInt(2000), decimal.NewFromInt(18))
	require.NoError(t, err)
	invoice, err := billing.NewInvoice(tenantID, "INV-20260831-00001", uuid.New(),
		[]billing.LineItem{*item}, billing.NoDiscount(), decimal.Zero, nil)
	require.NoError(t, err)
	return invoice
}
