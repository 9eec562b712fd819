package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.005", 2, "1.01"},
		{"-1.005", 2, "-1.01"},
		{"2.675", 2, "2.68"},
		{"1.004", 2, "1.00"},
		{"0.5", 0, "1"},
		{"-0.5", 0, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(d(tt.in), tt.places).StringFixed(tt.places))
		})
	}
}

func TestSum_NoFloatDrift(t *testing.T) {
	got := Sum([]decimal.Decimal{decimal.NewFromFloat(0.1), decimal.NewFromFloat(0.2)}, 2)
	assert.True(t, got.Equal(d("0.3")), "got %s", got)
}

func TestSum_RoundsEveryPartial(t *testing.T) {
	// 0.004 is dropped on every step instead of accumulating to 0.012 -> 0.01
	got := Sum([]decimal.Decimal{d("0.004"), d("0.004"), d("0.004")}, 2)
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestSum_Empty(t *testing.T) {
	assert.True(t, Sum(nil, 2).IsZero())
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, "0.30", Add(d("0.1"), d("0.2"), 2).StringFixed(2))
	assert.Equal(t, "0.10", Subtract(d("0.3"), d("0.2"), 2).StringFixed(2))
	assert.Equal(t, "0.02", Multiply(d("0.1"), d("0.2"), 2).StringFixed(2))

	q, err := Divide(d("10"), d("3"), 2)
	require.NoError(t, err)
	assert.Equal(t, "3.33", q.StringFixed(2))

	q, err = Divide(d("2"), d("3"), 2)
	require.NoError(t, err)
	assert.Equal(t, "0.67", q.StringFixed(2))
}

func TestDivide_ByZero(t *testing.T) {
	_, err := Divide(d("1"), decimal.Zero, 2)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestPercentageOf(t *testing.T) {
	assert.Equal(t, "25.00", PercentageOf(d("5"), d("20"), 2).StringFixed(2))
	assert.Equal(t, "33.33", PercentageOf(d("1"), d("3"), 2).StringFixed(2))
	assert.True(t, PercentageOf(d("5"), decimal.Zero, 2).IsZero())
}

func TestDiscountedPrice(t *testing.T) {
	assert.Equal(t, "9.00", DiscountedPrice(d("10"), d("10"), 2).StringFixed(2))
	assert.Equal(t, "16.66", DiscountedPrice(d("19.99"), d("16.67"), 2).StringFixed(2))
	assert.Equal(t, "10.00", DiscountedPrice(d("10"), decimal.Zero, 2).StringFixed(2))
}

func TestTax_Additivity(t *testing.T) {
	price := d("100")
	tax := TaxAmount(price, d("8"), 2)
	withTax := PriceWithTax(price, d("8"), 2)

	assert.Equal(t, "8.00", tax.StringFixed(2))
	assert.Equal(t, "108.00", withTax.StringFixed(2))
	assert.True(t, Add(price, tax, 2).Equal(withTax))
}
