package compound

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAprToApy_Zero(t *testing.T) {
	assert.Equal(t, 0.0, AprToApy(0, 365))
}

func TestAprToApy_KnownValues(t *testing.T) {
	// 12.5% APR compounded daily is about 13.31% APY
	apy := AprToApyDaily(12.5)
	assert.InDelta(t, 13.31, apy, 0.01)

	// 100% APR compounded daily approaches e-1
	apy = AprToApyDaily(100)
	assert.InDelta(t, (math.Pow(1+1.0/365, 365)-1)*100, apy, 1e-9)
}

func TestAprToApy_Monotonic(t *testing.T) {
	// APY must be strictly increasing in APR above the non-positive-base
	// region (-100 * periods)
	prev := math.Inf(-1)
	for apr := -36000.0; apr <= 1000.0; apr += 250.0 {
		apy := AprToApyDaily(apr)
		assert.Greater(t, apy, prev, "APY not increasing at APR %.0f", apr)
		prev = apy
	}
}

func TestAprToApy_DeepNegativeClamped(t *testing.T) {
	// Below -100*periods the base goes non-positive; the clamp must keep the
	// result finite and real
	apy := AprToApyDaily(-40000)
	assert.False(t, math.IsNaN(apy))
	assert.False(t, math.IsInf(apy, 0))
	assert.InDelta(t, -100, apy, 1e-6)
}

func TestAprToApy_DefaultPeriods(t *testing.T) {
	assert.Equal(t, AprToApy(10, 365), AprToApy(10, 0))
	assert.Equal(t, AprToApy(10, 365), AprToApy(10, -1))
}
