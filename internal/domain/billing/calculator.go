package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountType represents how a document-level discount is expressed
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeAmount     DiscountType = "AMOUNT"
)

// IsValid checks if the discount type is valid
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeAmount
}

// String returns the string representation
func (d DiscountType) String() string {
	return string(d)
}

// maxTaxRate bounds the per-line tax rate (percent)
var maxTaxRate = decimal.NewFromInt(100)

// LineItem represents one billable line on an invoice or credit note.
// Quantity and Rate are non-negative; TaxRate is a percentage in [0,100].
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	HSNCode     string          `json:"hsn_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewLineItem creates a validated line item
func NewLineItem(name, description, hsnCode string, quantity, rate, taxRate decimal.Decimal) (*LineItem, error) {
	if err := validateLineItem(name, quantity, rate, taxRate); err != nil {
		return nil, err
	}
	return &LineItem{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		HSNCode:     hsnCode,
		Quantity:    quantity,
		Rate:        rate,
		TaxRate:     taxRate,
		CreatedAt:   time.Now(),
	}, nil
}

func validateLineItem(name string, quantity, rate, taxRate decimal.Decimal) error {
	if name == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Line item name cannot be empty")
	}
	if quantity.IsNegative() {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Line item %q has negative quantity", name))
	}
	if rate.IsNegative() {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Line item %q has negative rate", name))
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(maxTaxRate) {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Line item %q has tax rate outside [0,100]", name))
	}
	return nil
}

// Amount returns quantity * rate for this line
func (li *LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.Rate)
}

// TaxAmount returns quantity * rate * taxRate/100 for this line
func (li *LineItem) TaxAmount() decimal.Decimal {
	return li.Amount().Mul(li.TaxRate).Div(decimal.NewFromInt(100))
}

// HasValue reports whether the line contributes a positive amount
func (li *LineItem) HasValue() bool {
	return li.Quantity.IsPositive() && li.Rate.IsPositive()
}

// DiscountPolicy describes the document-level discount to apply
type DiscountPolicy struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount returns a zero-amount discount policy
func NoDiscount() DiscountPolicy {
	return DiscountPolicy{Type: DiscountTypeAmount, Value: decimal.Zero}
}

// Totals is the result of a document total computation.
// GrandTotal = SubTotal - DiscountAmount + TaxTotal + ShippingCharge,
// every field rounded to 2 decimal places half-up.
type Totals struct {
	SubTotal       decimal.Decimal `json:"sub_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// CalculateTotals derives document totals from line items, a discount policy
// and a shipping charge. It is pure: the same inputs always yield the same
// totals. All intermediate arithmetic stays in decimal space.
func CalculateTotals(items []LineItem, discount DiscountPolicy, shippingCharge decimal.Decimal) (Totals, error) {
	if !discount.Type.IsValid() {
		return Totals{}, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Unknown discount type %q", discount.Type))
	}
	if discount.Value.IsNegative() {
		return Totals{}, shared.NewDomainError(shared.ErrCodeValidation, "Discount value cannot be negative")
	}
	if shippingCharge.IsNegative() {
		return Totals{}, shared.NewDomainError(shared.ErrCodeValidation, "Shipping charge cannot be negative")
	}

	subTotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range items {
		li := &items[i]
		if err := validateLineItem(li.Name, li.Quantity, li.Rate, li.TaxRate); err != nil {
			return Totals{}, err
		}
		subTotal = subTotal.Add(li.Amount())
		taxTotal = taxTotal.Add(li.TaxAmount())
	}

	var discountAmount decimal.Decimal
	switch discount.Type {
	case DiscountTypePercentage:
		if discount.Value.GreaterThan(maxTaxRate) {
			return Totals{}, shared.NewDomainError(shared.ErrCodeValidation, "Discount percentage cannot exceed 100")
		}
		discountAmount = subTotal.Mul(discount.Value).Div(decimal.NewFromInt(100))
	case DiscountTypeAmount:
		discountAmount = discount.Value
	}
	if discountAmount.GreaterThan(subTotal) {
		return Totals{}, shared.NewDomainError(shared.ErrCodeValidation, "Discount amount cannot exceed subtotal")
	}

	grandTotal := subTotal.Sub(discountAmount).Add(taxTotal).Add(shippingCharge)

	// decimal.Round is half-away-from-zero; totals are non-negative here,
	// so this is round-half-up.
	return Totals{
		SubTotal:       subTotal.Round(2),
		DiscountAmount: discountAmount.Round(2),
		TaxTotal:       taxTotal.Round(2),
		ShippingCharge: shippingCharge.Round(2),
		GrandTotal:     grandTotal.Round(2),
	}, nil
}
