package earnings

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/vault-earnings-ea/internal/compound"
	"github.com/yourorg/vault-earnings-ea/internal/fxmath"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

const testNow = int64(1_700_000_000)

func fx18(f float64) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(f*1e6)), big.NewInt(1e12))
}

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func poolSnapshot() model.VaultSnapshot {
	return model.VaultSnapshot{
		Address:            "0xvault",
		Name:               "Test Vault",
		Symbol:             "TVLT",
		CreatedAt:          testNow - 10*86400,
		SharePrice:         fx18(1.08),
		FarmAPRBasisPoints: 1200, // 12.00%
		FarmAPRDailyBps:    i64(50),
		Strategy:           model.KindPool,
		PoolID:             "0xpool",
	}
}

func TestAssemble_SimpleStrategyWithFeeFeed(t *testing.T) {
	// raw on-chain APR 12.00%, pool-fee daily APR 0.50%, no rebalance events
	feeAPR := map[string]model.FeeAPRQuote{
		"0xpool": {Daily: f64(0.5), Monthly: f64(2.0)},
	}

	got := Assemble(poolSnapshot(), nil, model.QuoteSet{}, feeAPR, testNow)

	assert.Equal(t, "12.50", got.Earning.APR.WithFees.Latest)
	assert.Equal(t, "12.00", got.Earning.APR.WithoutFees.Latest)
	assert.Equal(t, "0.50", got.Earning.FarmAPR.Daily)
	assert.Equal(t, fxmath.FormatPercent(compound.AprToApyDaily(12.5)), got.Earning.APY.WithFees.Latest)

	// weekly falls back to the monthly feed value
	assert.Equal(t, "2.00", got.Earning.PoolSwapFeesAPR.Weekly)
	assert.Equal(t, "0.50", got.Earning.PoolSwapFeesAPR.Latest)
	assert.Equal(t, "0.50", got.Earning.PoolSwapFeesAPR.Daily)

	// daily with fees = farm daily 0.50 + pool daily 0.50
	assert.Equal(t, "1.00", got.Earning.APR.WithFees.Daily)

	assert.Nil(t, got.Rebalances)
}

func TestAssemble_WeeklyPrecedence(t *testing.T) {
	feeAPR := map[string]model.FeeAPRQuote{
		"0xpool": {Daily: f64(0.5), Weekly: f64(3.5), Monthly: f64(2.0)},
	}

	got := Assemble(poolSnapshot(), nil, model.QuoteSet{}, feeAPR, testNow)
	assert.Equal(t, "3.50", got.Earning.PoolSwapFeesAPR.Weekly)
}

func TestAssemble_FeedAbsentForVault(t *testing.T) {
	got := Assemble(poolSnapshot(), nil, model.QuoteSet{}, map[string]model.FeeAPRQuote{}, testNow)

	assert.Equal(t, "0.00", got.Earning.PoolSwapFeesAPR.Latest)
	assert.Equal(t, "0.00", got.Earning.PoolSwapFeesAPR.Weekly)
	assert.Equal(t, "12.00", got.Earning.APR.WithFees.Latest)
}

func TestAssemble_FarmingStrategyHasNoPoolFees(t *testing.T) {
	v := poolSnapshot()
	v.Strategy = model.KindFarming
	v.PoolID = ""

	got := Assemble(v, nil, model.QuoteSet{}, map[string]model.FeeAPRQuote{}, testNow)

	assert.Equal(t, "-", got.Earning.PoolSwapFeesAPR.Latest)
	assert.Equal(t, "-", got.Earning.PoolSwapFeesAPR.Daily)
	assert.Equal(t, "-", got.Earning.PoolSwapFeesAPR.Weekly)
	assert.Equal(t, "12.00", got.Earning.APR.WithFees.Latest)
}

func TestAssemble_ALMUsesWeightedEstimate(t *testing.T) {
	v := poolSnapshot()
	v.Strategy = model.KindALM

	// one event 6h ago, rate 14%, zero fee accrued since: weighted daily
	// estimate is 14 * 0.75 = 10.50
	events := []model.RebalanceEvent{
		{
			ALMID:            "alm-1",
			Timestamp:        testNow - 21600,
			FeeValueUSD:      big.NewInt(0),
			TotalValueUSD:    fx18(1000),
			APRFromLastEvent: big.NewInt(14 * 1e8),
		},
	}
	feeAPR := map[string]model.FeeAPRQuote{
		"0xpool": {Daily: f64(0.5), Weekly: f64(3.5)},
	}

	got := Assemble(v, events, model.QuoteSet{}, feeAPR, testNow)

	assert.Equal(t, "10.50", got.Earning.PoolSwapFeesAPR.Latest)
	assert.Equal(t, "10.50", got.Earning.PoolSwapFeesAPR.Daily)
	// weekly still comes from the feed
	assert.Equal(t, "3.50", got.Earning.PoolSwapFeesAPR.Weekly)
	// latest with fees = 12.00 farm + 10.50 weighted estimate
	assert.Equal(t, "22.50", got.Earning.APR.WithFees.Latest)

	require.NotNil(t, got.Rebalances)
	assert.Equal(t, 1, got.Rebalances.Daily)
	assert.Equal(t, 1, got.Rebalances.Weekly)
}

func TestAssemble_ALMWithoutEvents(t *testing.T) {
	v := poolSnapshot()
	v.Strategy = model.KindALM

	got := Assemble(v, nil, model.QuoteSet{}, map[string]model.FeeAPRQuote{}, testNow)

	// insufficient event history defaults the daily estimate to zero
	assert.Equal(t, "0.00", got.Earning.PoolSwapFeesAPR.Latest)
	require.NotNil(t, got.Rebalances)
	assert.Equal(t, 0, got.Rebalances.Daily)
}

func TestAssemble_MissingFarmHistoryRendersDash(t *testing.T) {
	v := poolSnapshot()
	v.FarmAPRDailyBps = nil
	v.FarmAPRWeeklyBps = nil

	got := Assemble(v, nil, model.QuoteSet{}, map[string]model.FeeAPRQuote{}, testNow)

	assert.Equal(t, "-", got.Earning.FarmAPR.Daily)
	assert.Equal(t, "-", got.Earning.FarmAPR.Weekly)
	assert.Equal(t, "12.00", got.Earning.FarmAPR.Latest)
	// absent history contributes zero to the with-fees totals
	assert.Equal(t, "0.00", got.Earning.APR.WithoutFees.Daily)
}

func TestComputeAll(t *testing.T) {
	a := poolSnapshot()
	b := poolSnapshot()
	b.Address = "0xOTHER"
	b.FarmAPRBasisPoints = 600

	input := model.CycleInput{
		Snapshots: []model.VaultSnapshot{a, b},
		Events:    map[string][]model.RebalanceEvent{},
		Quotes:    model.QuoteSet{},
		FeeAPR:    map[string]model.FeeAPRQuote{},
		FetchedAt: testNow,
	}

	got := ComputeAll(context.Background(), input)

	require.Len(t, got, 2)
	assert.Equal(t, "12.00", got["0xvault"].Earning.APR.WithFees.Latest)
	// fan-in keys are lowercased vault addresses
	assert.Equal(t, "6.00", got["0xother"].Earning.APR.WithFees.Latest)
	assert.Equal(t, testNow, got["0xvault"].ComputedAt)
}

func TestComputeAll_MixedCaseAddressKeepsEventHistory(t *testing.T) {
	v := poolSnapshot()
	v.Address = "0xCaFeVaUlT"
	v.Strategy = model.KindALM

	input := model.CycleInput{
		Snapshots: []model.VaultSnapshot{v},
		Events: map[string][]model.RebalanceEvent{
			"0xcafevault": {
				{
					ALMID:            "0xcafevault",
					Timestamp:        testNow - 21600,
					FeeValueUSD:      big.NewInt(0),
					TotalValueUSD:    fx18(1000),
					APRFromLastEvent: big.NewInt(14 * 1e8),
				},
			},
		},
		Quotes:    model.QuoteSet{},
		FeeAPR:    map[string]model.FeeAPRQuote{},
		FetchedAt: testNow,
	}

	got := ComputeAll(context.Background(), input)

	record, ok := got["0xcafevault"]
	require.True(t, ok)
	// the rebalance history must reach the assembly despite the casing
	assert.Equal(t, "10.50", record.Earning.PoolSwapFeesAPR.Latest)
	require.NotNil(t, record.Rebalances)
	assert.Equal(t, 1, record.Rebalances.Daily)
}

func TestComputeAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := ComputeAll(ctx, model.CycleInput{
		Snapshots: []model.VaultSnapshot{poolSnapshot()},
		FetchedAt: testNow,
	})
	assert.Empty(t, got)
}
