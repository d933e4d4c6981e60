package evmath

import "github.com/shopspring/decimal"

// RoundCents rounds an amount to the currency's minor unit, half away from zero
func RoundCents(amount float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return v
}
