package vshold

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

const testNow = int64(1_700_000_000)

const day = int64(86400)

func fx18(f float64) *big.Int {
	// enough precision for test fixtures
	return new(big.Int).Mul(big.NewInt(int64(f*1e6)), big.NewInt(1e12))
}

func snapshot(createdDaysAgo int64, sharePrice float64, assets ...model.AssetAllocation) model.VaultSnapshot {
	return model.VaultSnapshot{
		Address:    "0xvault",
		Name:       "Test Vault",
		Symbol:     "TVLT",
		CreatedAt:  testNow - createdDaysAgo*day,
		SharePrice: fx18(sharePrice),
		Strategy:   model.KindALM,
		Assets:     assets,
	}
}

func TestSimulate_TenDayScenario(t *testing.T) {
	// vault created 10 days ago, share price +8%, two assets each +4% since
	// creation at 50/50 proportions
	v := snapshot(10, 1.08,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(2.00), ProportionPct: 50},
		model.AssetAllocation{AssetID: "0xbbb", Symbol: "BBB", PriceAtCreation: fx18(10.00), ProportionPct: 50},
	)
	quotes := model.QuoteSet{
		"0xaaa": fx18(2.08),
		"0xbbb": fx18(10.40),
	}

	got := Simulate(v, quotes, testNow)

	require.Len(t, got.Positions, 2)
	holdPrice := got.Positions[0].PresentProportion + got.Positions[1].PresentProportion
	assert.InDelta(t, 1.04, holdPrice, 1e-9)
	assert.InDelta(t, 4.0, got.LifetimeVsHoldAPR, 1e-6)
	assert.InDelta(t, 146.0, got.VsHoldAPR, 1e-6)
	assert.True(t, got.IsActive)

	assert.Equal(t, "4.00", got.Positions[0].PriceDifference)
	assert.Equal(t, "4.00", got.Positions[0].LatestAPR) // 8% - 4%
	assert.Equal(t, "146.00", got.Positions[0].APR)
}

func TestSimulate_InactiveBelowThreeDays(t *testing.T) {
	quotes := model.QuoteSet{"0xaaa": fx18(99.0)}
	asset := model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(1.0), ProportionPct: 100}

	for _, daysOld := range []int64{0, 1, 2} {
		got := Simulate(snapshot(daysOld, 1.50, asset), quotes, testNow)
		assert.False(t, got.IsActive, "vault %d days old must be inactive", daysOld)
	}

	got := Simulate(snapshot(3, 1.50, asset), quotes, testNow)
	assert.True(t, got.IsActive)
}

func TestSimulate_InactiveOnZeroSharePrice(t *testing.T) {
	v := snapshot(10, 0,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(1.0), ProportionPct: 100},
	)
	got := Simulate(v, model.QuoteSet{"0xaaa": fx18(1.0)}, testNow)
	assert.False(t, got.IsActive)
}

func TestSimulate_CreationInFuture(t *testing.T) {
	v := snapshot(-5, 1.10,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(1.0), ProportionPct: 100},
	)
	got := Simulate(v, model.QuoteSet{"0xaaa": fx18(1.0)}, testNow)

	assert.False(t, got.IsActive)
	assert.Equal(t, 0.0, got.VsHoldAPR)
}

func TestSimulate_AnnualizedFloor(t *testing.T) {
	// share price collapsed to 0.10 in 3 days while the asset held value:
	// naive annualization projects far past -100%
	v := snapshot(3, 0.10,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(1.0), ProportionPct: 100},
	)
	got := Simulate(v, model.QuoteSet{"0xaaa": fx18(1.0)}, testNow)

	assert.GreaterOrEqual(t, got.VsHoldAPR, -99.99)
	assert.Equal(t, -99.99, got.VsHoldAPR)
	for _, pos := range got.Positions {
		assert.Equal(t, "-99.99", pos.APR)
	}
}

func TestSimulate_MissingQuoteContributesZero(t *testing.T) {
	v := snapshot(10, 1.08,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: fx18(2.00), ProportionPct: 50},
		model.AssetAllocation{AssetID: "0xbbb", Symbol: "BBB", PriceAtCreation: fx18(10.00), ProportionPct: 50},
	)
	// feed is missing 0xbbb entirely
	quotes := model.QuoteSet{"0xaaa": fx18(2.08)}

	got := Simulate(v, quotes, testNow)

	require.Len(t, got.Positions, 2)
	assert.Equal(t, 0.0, got.Positions[1].PresentProportion)
	assert.Equal(t, "-", got.Positions[1].Price)
	assert.InDelta(t, 0.52, got.Positions[0].PresentProportion, 1e-9)
	assert.True(t, got.IsActive)
}

func TestSimulate_ZeroCreationPrice(t *testing.T) {
	v := snapshot(10, 1.05,
		model.AssetAllocation{AssetID: "0xaaa", Symbol: "AAA", PriceAtCreation: big.NewInt(0), ProportionPct: 100},
	)
	got := Simulate(v, model.QuoteSet{"0xaaa": fx18(3.0)}, testNow)

	require.Len(t, got.Positions, 1)
	assert.Equal(t, 0.0, got.Positions[0].PresentProportion)
}
