package snapshot

import "github.com/shopspring/decimal"

// Metric precision is fixed across the engine: money and percentages carry
// 2 decimals, averages 1, counts 0. Rounding is half away from zero, which
// matches half-up for the non-negative values produced here.

// Round2 rounds money and percentage values.
func Round2(v float64) float64 {
	return roundTo(v, 2)
}

// Round1 rounds average values.
func Round1(v float64) float64 {
	return roundTo(v, 1)
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundDecimal2 rounds a decimal amount to a 2-decimal float for export.
func RoundDecimal2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
