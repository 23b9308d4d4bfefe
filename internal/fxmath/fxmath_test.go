package fxmath

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRatio(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Int
		decimals int32
		want     float64
	}{
		{
			name:     "18 decimals unit value",
			value:    new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
			decimals: 18,
			want:     1.0,
		},
		{
			name:     "18 decimals fractional",
			value:    big.NewInt(1_080_000_000_000_000_000),
			decimals: 18,
			want:     1.08,
		},
		{
			name:     "3 decimals apr",
			value:    big.NewInt(12000),
			decimals: 3,
			want:     12.0,
		},
		{
			name:     "8 decimals apr",
			value:    big.NewInt(1_250_000_000),
			decimals: 8,
			want:     12.5,
		},
		{
			name:     "zero",
			value:    big.NewInt(0),
			decimals: 18,
			want:     0,
		},
		{
			name:     "nil yields zero",
			value:    nil,
			decimals: 18,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ToRatio(tt.value, tt.decimals), 1e-12)
		})
	}
}

func TestToRatio_LargeValue(t *testing.T) {
	// 123456.789012345678901234 with 18 decimals; exceeds int64 range
	v, ok := new(big.Int).SetString("123456789012345678901234", 10)
	assert.True(t, ok)
	assert.InDelta(t, 123456.789012345678901234, ToRatio(v, 18), 1e-6)
}

func TestToRatioInt64(t *testing.T) {
	assert.InDelta(t, 12.0, ToRatioInt64(1200, 2), 1e-12)
	assert.InDelta(t, 0.5, ToRatioInt64(50, 2), 1e-12)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.50", FormatPercent(12.5))
	assert.Equal(t, "0.50", FormatPercent(0.5))
	assert.Equal(t, "0.00", FormatPercent(0))
	assert.Equal(t, "-99.99", FormatPercent(-99.99))
	assert.Equal(t, "0.00", FormatPercent(math.NaN()))
	assert.Equal(t, "0.00", FormatPercent(math.Inf(1)))
}
