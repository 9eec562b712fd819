// Package pricing holds all monetary arithmetic of the storefront.
//
// Every operation rounds its own result, not only the final total, so that a long checkout
// bill adds up the same way a person recomputing it by hand would.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

const DefaultPlaces int32 = 2

var ErrDivisionByZero = errors.New("division by zero")

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero.
func Round(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

func Add(a, b decimal.Decimal, places int32) decimal.Decimal {
	return Round(a.Add(b), places)
}

func Subtract(a, b decimal.Decimal, places int32) decimal.Decimal {
	return Round(a.Sub(b), places)
}

func Multiply(a, b decimal.Decimal, places int32) decimal.Decimal {
	return Round(a.Mul(b), places)
}

func Divide(a, b decimal.Decimal, places int32) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	// DivRound keeps enough digits that the final rounding matches Round.
	return Round(a.DivRound(b, places+8), places), nil
}

// Sum folds values left to right with Add, rounding every partial sum.
func Sum(values []decimal.Decimal, places int32) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = Add(total, v, places)
	}
	return total
}

// PercentageOf returns value as a percentage of total, or 0 when total is 0.
func PercentageOf(value, total decimal.Decimal, places int32) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	ratio, err := Divide(value.Mul(hundred), total, places)
	if err != nil {
		return decimal.Zero
	}
	return ratio
}

// DiscountedPrice applies a percentage discount. The discount itself is kept at two extra
// places so rounding does not compound across many lines.
func DiscountedPrice(price, percent decimal.Decimal, places int32) decimal.Decimal {
	discount := Multiply(price, percent.Div(hundred), places+2)
	return Subtract(price, discount, places)
}

func TaxAmount(price, percent decimal.Decimal, places int32) decimal.Decimal {
	return Multiply(price, percent.Div(hundred), places)
}

func PriceWithTax(price, percent decimal.Decimal, places int32) decimal.Decimal {
	return Add(price, TaxAmount(price, percent, places), places)
}
