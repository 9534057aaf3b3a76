package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), INR)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, INR, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1234.56", INR)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", m.StringFixed(2))

	_, err = NewMoneyFromString("not-a-number", INR)
	assert.Error(t, err)
}

func TestMoney_AddSubtract(t *testing.T) {
	a := NewMoneyINRFromFloat(100.50)
	b := NewMoneyINRFromFloat(49.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "150.00", sum.StringFixed(2))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "51.00", diff.StringFixed(2))

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
	_, err = a.Subtract(usd)
	assert.Error(t, err)
}

func TestMoney_RoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.005", "2.01"},
		{"2.004", "2.00"},
		{"2.995", "3.00"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.in, INR)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.RoundHalfUp(2).StringFixed(2))
		})
	}
}

func TestMoney_CalculatePercentage(t *testing.T) {
	m := NewMoneyINRFromFloat(2000)
	pct := m.CalculatePercentage(decimal.NewFromInt(18))
	assert.Equal(t, "360.00", pct.StringFixed(2))
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyINRFromFloat(10)
	b := NewMoneyINRFromFloat(20)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.LessThan(usd)
	assert.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyINRFromFloat(1180.00)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1180","currency":"INR"}`, string(data))

	var parsed Money
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, m.Equals(parsed))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.42"))
	assert.Equal(t, "42.42", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
