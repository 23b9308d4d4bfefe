// Package vshold compares a vault's realized performance against a
// counterfactual buy-and-hold of its underlying assets.
package vshold

import (
	"github.com/yourorg/vault-earnings-ea/internal/fxmath"
	"github.com/yourorg/vault-earnings-ea/internal/model"
	"github.com/yourorg/vault-earnings-ea/internal/pricefeed"
)

// annualizedFloor caps annualized losses: naively annualizing a short,
// sharply negative interval can project past a full loss.
const annualizedFloor = -99.99

// activeAfterDays is the vault age below which the comparison is reported
// inactive rather than a misleading number from too little data.
const activeAfterDays = 2

// sharePriceDecimals is the fixed-point scale of the vault share price.
const sharePriceDecimals = 18

// Simulate computes what holding the vault's underlying assets at their
// creation-time prices and proportions would be worth today, per asset and
// in aggregate, against the vault's realized share-price growth.
//
// Assets missing from the price feed contribute zero to the hold value but
// never abort the comparison.
func Simulate(v model.VaultSnapshot, quotes model.QuoteSet, now int64) model.HoldComparison {
	sharePrice := fxmath.ToRatio(v.SharePrice, sharePriceDecimals)
	// share price is normalized to 1.0 at inception
	sharePriceDeltaPct := (sharePrice - 1) * 100

	days := v.DaysSinceCreation(now)

	positions := make([]model.HoldPosition, 0, len(v.Assets))
	holdPrice := 0.0
	for _, asset := range v.Assets {
		pos, presentValue := simulateAsset(asset, quotes, sharePriceDeltaPct, days)
		positions = append(positions, pos)
		holdPrice += presentValue
	}

	// present value of 1 unit of starting capital held as raw assets,
	// against the vault's growth over the same span
	holdDeltaPct := (holdPrice - 1) * 100
	lifetimeDiff := sharePriceDeltaPct - holdDeltaPct

	return model.HoldComparison{
		Positions:         positions,
		LifetimeVsHoldAPR: fxmath.Round2(lifetimeDiff),
		VsHoldAPR:         fxmath.Round2(annualize(lifetimeDiff, days)),
		IsActive:          days > activeAfterDays && sharePrice != 0,
	}
}

// simulateAsset builds one comparison row and returns the asset's present
// contribution to the hold value.
func simulateAsset(asset model.AssetAllocation, quotes model.QuoteSet, sharePriceDeltaPct float64, days int64) (model.HoldPosition, float64) {
	initPrice := fxmath.ToRatio(asset.PriceAtCreation, pricefeed.PriceDecimals)
	price, ok := pricefeed.Normalize(quotes, asset.AssetID)
	if !ok || initPrice <= 0 {
		// no quote, or a degenerate creation price: zero contribution, the
		// rest of the vault's comparison still stands
		return model.HoldPosition{
			Symbol:          asset.Symbol,
			InitPrice:       fxmath.FormatPercent(initPrice),
			Price:           "-",
			PriceDifference: "0.00",
			LatestAPR:       fxmath.FormatPercent(sharePriceDeltaPct),
			APR:             fxmath.FormatPercent(annualize(sharePriceDeltaPct, days)),
		}, 0
	}

	// value today of this asset's slice of one unit of starting capital
	presentValue := asset.ProportionPct / 100 / initPrice * price

	priceDeltaPct := (price - initPrice) / initPrice * 100
	percentDiff := sharePriceDeltaPct - priceDeltaPct

	return model.HoldPosition{
		Symbol:            asset.Symbol,
		InitPrice:         fxmath.FormatPercent(initPrice),
		Price:             fxmath.FormatPercent(price),
		PriceDifference:   fxmath.FormatPercent(priceDeltaPct),
		PresentProportion: presentValue,
		LatestAPR:         fxmath.FormatPercent(percentDiff),
		APR:               fxmath.FormatPercent(annualize(percentDiff, days)),
	}, presentValue
}

// annualize projects a lifetime delta to a yearly rate, floored so a short
// losing interval can never report past a full loss. A non-positive day span
// is degenerate and yields 0; the activity gate marks such comparisons
// inactive.
func annualize(percentDiff float64, days int64) float64 {
	if days <= 0 {
		return 0
	}
	year := percentDiff / float64(days) * 365
	if year < annualizedFloor {
		return annualizedFloor
	}
	return year
}
