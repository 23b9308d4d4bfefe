// Package earnings assembles the per-vault performance record from chain
// state, rebalance history, and the off-chain fee feed.
package earnings

import (
	"github.com/yourorg/vault-earnings-ea/internal/compound"
	"github.com/yourorg/vault-earnings-ea/internal/fxmath"
	"github.com/yourorg/vault-earnings-ea/internal/model"
	"github.com/yourorg/vault-earnings-ea/internal/rebalance"
	"github.com/yourorg/vault-earnings-ea/internal/vshold"
)

// farmAPRDecimals: basis points are percent scaled by 10^2.
const farmAPRDecimals = 2

// notApplicable marks a variant the strategy or its sources have no value for.
const notApplicable = "-"

// poolFeeAPRs resolves the pool-fee yield of a vault per strategy kind:
// ALM strategies take the rebalance-weighted estimate, pool strategies take
// the feed values, farming strategies have no pool at all.
type poolFeeAPRs struct {
	latest     float64
	daily      float64
	weekly     float64
	applicable bool
}

// Assemble computes the earning record and hold comparison for one vault
// from one cycle's immutable inputs.
func Assemble(v model.VaultSnapshot, events []model.RebalanceEvent, quotes model.QuoteSet, feeAPR map[string]model.FeeAPRQuote, now int64) model.VaultEarnings {
	farmLatest := fxmath.ToRatioInt64(v.FarmAPRBasisPoints, farmAPRDecimals)
	farmDaily, hasFarmDaily := optionalBps(v.FarmAPRDailyBps)
	farmWeekly, hasFarmWeekly := optionalBps(v.FarmAPRWeeklyBps)

	pool := resolvePoolFees(v, events, feeAPR, now)

	latestWithFees := farmLatest + pool.latest
	dailyWithFees := farmDaily + pool.daily
	weeklyWithFees := farmWeekly + pool.weekly

	apr := model.FeeToggle{
		WithFees: model.VariantGroup{
			Latest: fxmath.FormatPercent(latestWithFees),
			Daily:  fxmath.FormatPercent(dailyWithFees),
			Weekly: fxmath.FormatPercent(weeklyWithFees),
		},
		WithoutFees: model.VariantGroup{
			Latest: fxmath.FormatPercent(farmLatest),
			Daily:  fxmath.FormatPercent(farmDaily),
			Weekly: fxmath.FormatPercent(farmWeekly),
		},
	}

	apy := model.FeeToggle{
		WithFees: model.VariantGroup{
			Latest: fxmath.FormatPercent(compound.AprToApyDaily(latestWithFees)),
			Daily:  fxmath.FormatPercent(compound.AprToApyDaily(dailyWithFees)),
			Weekly: fxmath.FormatPercent(compound.AprToApyDaily(weeklyWithFees)),
		},
		WithoutFees: model.VariantGroup{
			Latest: fxmath.FormatPercent(compound.AprToApyDaily(farmLatest)),
			Daily:  fxmath.FormatPercent(compound.AprToApyDaily(farmDaily)),
			Weekly: fxmath.FormatPercent(compound.AprToApyDaily(farmWeekly)),
		},
	}

	poolGroup := model.VariantGroup{Latest: notApplicable, Daily: notApplicable, Weekly: notApplicable}
	if pool.applicable {
		poolGroup = model.VariantGroup{
			Latest: fxmath.FormatPercent(pool.latest),
			Daily:  fxmath.FormatPercent(pool.daily),
			Weekly: fxmath.FormatPercent(pool.weekly),
		}
	}

	farmGroup := model.VariantGroup{
		Latest: fxmath.FormatPercent(farmLatest),
		Daily:  notApplicable,
		Weekly: notApplicable,
	}
	if hasFarmDaily {
		farmGroup.Daily = fxmath.FormatPercent(farmDaily)
	}
	if hasFarmWeekly {
		farmGroup.Weekly = fxmath.FormatPercent(farmWeekly)
	}

	out := model.VaultEarnings{
		Address:        v.Address,
		Name:           v.Name,
		Symbol:         v.Symbol,
		ComputedAt:     now,
		DailySimpleAPR: fxmath.FormatPercent(latestWithFees / 365),
		Earning: model.EarningData{
			APR:             apr,
			APY:             apy,
			PoolSwapFeesAPR: poolGroup,
			FarmAPR:         farmGroup,
		},
		Hold: vshold.Simulate(v, quotes, now),
	}

	if v.Strategy == model.KindALM {
		out.Rebalances = &model.RebalanceStats{
			Daily:  rebalance.CountSince(events, now, rebalance.WindowSeconds),
			Weekly: rebalance.CountSince(events, now, rebalance.WeekSeconds),
		}
	}

	return out
}

// resolvePoolFees picks the fee-APR source for the vault's strategy kind.
// The weekly horizon falls back feed-weekly → feed-monthly → 0.
func resolvePoolFees(v model.VaultSnapshot, events []model.RebalanceEvent, feeAPR map[string]model.FeeAPRQuote, now int64) poolFeeAPRs {
	if v.Strategy == model.KindFarming {
		return poolFeeAPRs{}
	}

	quote, hasQuote := feeAPR[v.PoolID]

	if v.Strategy == model.KindALM {
		est := rebalance.DailyAPR(events, now)
		p := poolFeeAPRs{latest: est, daily: est, applicable: true}
		if hasQuote {
			p.weekly = quote.WeeklyOrMonthly()
		}
		return p
	}

	p := poolFeeAPRs{applicable: true}
	if !hasQuote {
		// feed may be entirely absent for a vault; fee yield reads as zero
		return p
	}
	if quote.Daily != nil {
		p.latest = *quote.Daily
		p.daily = *quote.Daily
	}
	p.weekly = quote.WeeklyOrMonthly()
	return p
}

// optionalBps converts an optional basis-point value; absent reads as zero
// for totals but is rendered "-" by the caller.
func optionalBps(bps *int64) (float64, bool) {
	if bps == nil {
		return 0, false
	}
	return fxmath.ToRatioInt64(*bps, farmAPRDecimals), true
}
