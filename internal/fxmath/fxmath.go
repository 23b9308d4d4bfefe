// Package fxmath converts fixed-point base-unit integers into display ratios.
package fxmath

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ToRatio converts an integer base-unit value scaled by 10^decimals into a
// float64 comparison value. Scaling happens in exact decimal arithmetic; only
// the final conversion is subject to float64 precision, which is acceptable
// for display and comparison math.
//
// Callers must resolve absent values before calling; a nil value is a caller
// bug and yields 0.
func ToRatio(value *big.Int, decimals int32) float64 {
	if value == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(value, -decimals).Float64()
	return f
}

// ToRatioInt64 is ToRatio for values that fit an int64, such as basis points.
func ToRatioInt64(value int64, decimals int32) float64 {
	f, _ := decimal.New(value, -decimals).Float64()
	return f
}

// FormatPercent renders a percentage with two decimals, the precision the
// presentation layer displays. Non-finite inputs render as "0.00".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Round2 rounds to two decimals for numeric fields mirrored next to their
// formatted counterparts.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
