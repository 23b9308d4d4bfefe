// Package compound converts simple annualized rates into compounding yields.
package compound

import "math"

// PeriodsPerYear is the default daily compounding frequency.
const PeriodsPerYear = 365

// baseEpsilon floors the compounding base so a deeply negative APR cannot
// push the base non-positive and turn the exponentiation complex or NaN.
const baseEpsilon = 1e-9

// AprToApy converts a simple APR (percent) into the equivalent compounding
// APY (percent) at the given compounding frequency:
//
//	APY = ((1 + APR/100/periods)^periods - 1) * 100
//
// AprToApy(0, n) == 0 and the result is strictly increasing in APR while the
// base stays positive.
func AprToApy(aprPercent float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		periodsPerYear = PeriodsPerYear
	}
	if aprPercent == 0 {
		return 0
	}

	base := 1 + aprPercent/100/float64(periodsPerYear)
	if base < baseEpsilon {
		base = baseEpsilon
	}

	return (math.Pow(base, float64(periodsPerYear)) - 1) * 100
}

// AprToApyDaily is AprToApy with daily compounding.
func AprToApyDaily(aprPercent float64) float64 {
	return AprToApy(aprPercent, PeriodsPerYear)
}
