package billing

import (
	"testing"

	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testLineItem(t *testing.T, qty, rate, taxRate string) LineItem {
	t.Helper()
	li, err := NewLineItem("Engine oil service", "", "2710", dec(qty), dec(rate), dec(taxRate))
	require.NoError(t, err)
	return *li
}

func TestNewLineItem_Validation(t *testing.T) {
	tests := []struct {
		name    string
		qty     string
		rate    string
		taxRate string
		wantErr bool
	}{
		{"valid", "2", "1000", "18", false},
		{"zero quantity allowed", "0", "1000", "18", false},
		{"negative quantity", "-1", "1000", "18", true},
		{"negative rate", "1", "-50", "18", true},
		{"tax rate over 100", "1", "100", "101", true},
		{"negative tax rate", "1", "100", "-1", true},
		{"tax rate boundary 100", "1", "100", "100", false},
		{"tax rate boundary 0", "1", "100", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLineItem("item", "", "", dec(tt.qty), dec(tt.rate), dec(tt.taxRate))
			if tt.wantErr {
				require.Error(t, err)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, shared.ErrCodeValidation, domainErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCalculateTotals_SingleLine(t *testing.T) {
	// qty=2, rate=1000, tax=18% -> sub 2000, tax 360, grand 2360
	items := []LineItem{testLineItem(t, "2", "1000", "18")}

	totals, err := CalculateTotals(items, NoDiscount(), decimal.Zero)
	require.NoError(t, err)

	assert.True(t, totals.SubTotal.Equal(dec("2000")), "sub_total = %s", totals.SubTotal)
	assert.True(t, totals.TaxTotal.Equal(dec("360")), "tax_total = %s", totals.TaxTotal)
	assert.True(t, totals.GrandTotal.Equal(dec("2360")), "grand_total = %s", totals.GrandTotal)
}

func TestCalculateTotals_PercentageDiscountAndShipping(t *testing.T) {
	items := []LineItem{
		testLineItem(t, "2", "1000", "18"),
		testLineItem(t, "1", "500", "0"),
	}
	discount := DiscountPolicy{Type: DiscountTypePercentage, Value: dec("10")}

	totals, err := CalculateTotals(items, discount, dec("100"))
	require.NoError(t, err)

	// sub 2500, discount 250, tax 360, shipping 100 -> 2710
	assert.True(t, totals.SubTotal.Equal(dec("2500")))
	assert.True(t, totals.DiscountAmount.Equal(dec("250")))
	assert.True(t, totals.TaxTotal.Equal(dec("360")))
	assert.True(t, totals.GrandTotal.Equal(dec("2710")))
}

func TestCalculateTotals_AmountDiscount(t *testing.T) {
	items := []LineItem{testLineItem(t, "1", "1000", "0")}
	discount := DiscountPolicy{Type: DiscountTypeAmount, Value: dec("300")}

	totals, err := CalculateTotals(items, discount, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.Equal(dec("700")))
}

func TestCalculateTotals_DiscountExceedsSubtotal(t *testing.T) {
	items := []LineItem{testLineItem(t, "1", "100", "0")}
	discount := DiscountPolicy{Type: DiscountTypeAmount, Value: dec("200")}

	_, err := CalculateTotals(items, discount, decimal.Zero)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeValidation, domainErr.Code)
}

func TestCalculateTotals_RoundHalfUp(t *testing.T) {
	// 3 * 33.335 = 100.005 -> rounds to 100.01
	items := []LineItem{testLineItem(t, "3", "33.335", "0")}

	totals, err := CalculateTotals(items, NoDiscount(), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "100.01", totals.GrandTotal.StringFixed(2))
}

func TestCalculateTotals_Idempotent(t *testing.T) {
	items := []LineItem{
		testLineItem(t, "2", "1000", "18"),
		testLineItem(t, "3", "749.99", "12"),
	}
	discount := DiscountPolicy{Type: DiscountTypePercentage, Value: dec("5")}

	first, err := CalculateTotals(items, discount, dec("50"))
	require.NoError(t, err)
	second, err := CalculateTotals(items, discount, dec("50"))
	require.NoError(t, err)

	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.True(t, first.TaxTotal.Equal(second.TaxTotal))
}

func TestCalculateTotals_InvalidInputs(t *testing.T) {
	items := []LineItem{testLineItem(t, "1", "100", "0")}

	_, err := CalculateTotals(items, DiscountPolicy{Type: "BOGUS", Value: decimal.Zero}, decimal.Zero)
	assert.Error(t, err)

	_, err = CalculateTotals(items, NoDiscount(), dec("-10"))
	assert.Error(t, err)

	_, err = CalculateTotals(items, DiscountPolicy{Type: DiscountTypePercentage, Value: dec("120")}, decimal.Zero)
	assert.Error(t, err)

	bad := items[0]
	bad.Quantity = dec("-1")
	_, err = CalculateTotals([]LineItem{bad}, NoDiscount(), decimal.Zero)
	assert.Error(t, err)
}

func TestCalculateTotals_EmptyItems(t *testing.T) {
	totals, err := CalculateTotals(nil, NoDiscount(), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.IsZero())
}
