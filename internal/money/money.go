// Package money centralizes currency arithmetic. Prices move through the API
// as float64 for compatibility with the stored schema, so every computation
// routes through shopspring/decimal and rounds once at the end.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// LineSubtotal computes unit price times quantity, rounded to cents.
func LineSubtotal(precioUnitario float64, cantidad int) float64 {
	p := decimal.NewFromFloat(precioUnitario)
	q := decimal.NewFromInt(int64(cantidad))
	f, _ := p.Mul(q).Round(2).Float64()
	return f
}

// ApplyDiscount returns price reduced by a percentage, rounded to cents.
// A zero or negative percentage leaves the price untouched.
func ApplyDiscount(precio, porcentaje float64) float64 {
	if porcentaje <= 0 {
		return Round2(precio)
	}
	p := decimal.NewFromFloat(precio)
	factor := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(porcentaje)).Div(decimal.NewFromInt(100))
	f, _ := p.Mul(factor).Round(2).Float64()
	return f
}

// Sum adds a slice of amounts without accumulating float error.
func Sum(vals []float64) float64 {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Format renders an amount as "$1234,56" with a comma decimal separator,
// the notation the receipts and closing reports use.
func Format(v float64) string {
	s := decimal.NewFromFloat(Round2(v)).StringFixed(2)
	return "$" + strings.Replace(s, ".", ",", 1)
}
