// Package model defines the core data structures for the vault-earnings-ea.
package model

import (
	"math/big"
	"time"
)

// StrategyKind tags how a vault's strategy realizes its fee yield.
type StrategyKind string

// Known strategy kinds
const (
	// KindFarming strategies earn only continuous farm rewards and have no
	// underlying swap pool, so pool-fee APR does not apply to them.
	KindFarming StrategyKind = "farming"

	// KindPool strategies sit in a plain liquidity pool whose fee APR is
	// reported directly by the off-chain fee feed.
	KindPool StrategyKind = "pool"

	// KindALM strategies manage a concentrated-liquidity position and realize
	// fees in discrete rebalance events rather than continuously.
	KindALM StrategyKind = "alm"
)

// AssetQuote is a single raw price quote from the price feed.
type AssetQuote struct {
	// AssetID is the lowercase asset address
	AssetID string `json:"asset_id"`

	// Price is the quoted price, fixed-point with 18 decimals.
	// A nil price means the feed had no entry for this asset.
	Price *big.Int `json:"price"`
}

// QuoteSet maps lowercase asset ids to their raw 18-decimal prices.
// The set may be partial; a missing asset resolves to "no price", never zero.
type QuoteSet map[string]*big.Int

// Lookup returns the raw quote for an asset, or (nil, false) when absent.
func (q QuoteSet) Lookup(assetID string) (*big.Int, bool) {
	p, ok := q[assetID]
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// RebalanceEvent is one discrete rebalance of an ALM strategy, as recorded by
// the subgraph. Histories arrive ordered by Timestamp descending.
type RebalanceEvent struct {
	// ALMID identifies the ALM position the event belongs to
	ALMID string `json:"alm_id"`

	// Timestamp is the Unix time of the rebalance in seconds
	Timestamp int64 `json:"timestamp"`

	// FeeValueUSD is the fee realized by the event, fixed-point 18 decimals
	FeeValueUSD *big.Int `json:"fee_value_usd"`

	// TotalValueUSD is the position value at the event, fixed-point 18 decimals
	TotalValueUSD *big.Int `json:"total_value_usd"`

	// APRFromLastEvent is the annualized rate realized over the interval that
	// ended at this event, fixed-point 8 decimals (percent).
	APRFromLastEvent *big.Int `json:"apr_from_last_event"`
}

// AssetAllocation describes one underlying asset of a vault as of creation.
type AssetAllocation struct {
	// AssetID is the lowercase asset address
	AssetID string `json:"asset_id"`

	// Symbol is the display symbol of the asset
	Symbol string `json:"symbol"`

	// PriceAtCreation is the asset price when the vault was created,
	// fixed-point 18 decimals
	PriceAtCreation *big.Int `json:"price_at_creation"`

	// ProportionPct is the asset's share of the initial allocation in percent;
	// proportions of a vault sum to ~100
	ProportionPct float64 `json:"proportion_pct"`
}

// VaultSnapshot is the immutable per-vault input of one refresh cycle.
// CreatedAt and the allocation data are fixed at the first successful fetch;
// SharePrice and the APR fields are refreshed every cycle.
type VaultSnapshot struct {
	// Address is the lowercase vault address and serves as the vault id
	Address string `json:"address"`

	// Name and Symbol mirror the on-chain ERC20 metadata
	Name   string `json:"name"`
	Symbol string `json:"symbol"`

	// CreatedAt is the Unix creation time of the vault in seconds
	CreatedAt int64 `json:"created_at"`

	// SharePrice is the net asset value per share, fixed-point 18 decimals,
	// normalized to 1.0 at inception
	SharePrice *big.Int `json:"share_price"`

	// FarmAPRBasisPoints is the continuous on-chain farm APR in basis points
	// (1200 = 12.00%)
	FarmAPRBasisPoints int64 `json:"farm_apr_bps"`

	// FarmAPRDailyBps and FarmAPRWeeklyBps are trailing farm APRs from the
	// subgraph history, basis points; nil when the history has no record
	FarmAPRDailyBps  *int64 `json:"farm_apr_daily_bps,omitempty"`
	FarmAPRWeeklyBps *int64 `json:"farm_apr_weekly_bps,omitempty"`

	// Strategy tags how the vault realizes fee yield
	Strategy StrategyKind `json:"strategy"`

	// PoolID is the lowercase address of the underlying pool, used as the key
	// into the fee-APR feed; empty for farming strategies
	PoolID string `json:"pool_id,omitempty"`

	// Assets lists the underlying assets with creation-time prices and
	// proportions
	Assets []AssetAllocation `json:"assets"`
}

// DaysSinceCreation returns the vault age in whole days at the given time.
func (v VaultSnapshot) DaysSinceCreation(now int64) int64 {
	if v.CreatedAt <= 0 || now <= v.CreatedAt {
		return 0
	}
	return (now - v.CreatedAt) / int64(24*time.Hour/time.Second)
}

// IsValid performs basic validation on the snapshot.
func (v VaultSnapshot) IsValid() bool {
	return v.Address != "" &&
		v.CreatedAt > 0 &&
		v.SharePrice != nil &&
		v.SharePrice.Sign() >= 0 &&
		v.FarmAPRBasisPoints >= 0
}

// FeeAPRQuote is one entry of the off-chain pool-fee APR feed, percentages.
// A nil field means the feed had no value for that horizon.
type FeeAPRQuote struct {
	Daily   *float64 `json:"daily,omitempty"`
	Weekly  *float64 `json:"weekly,omitempty"`
	Monthly *float64 `json:"monthly,omitempty"`
}

// WeeklyOrMonthly resolves the weekly pool-fee APR with the feed's fallback
// order: weekly, then monthly, then zero.
func (f FeeAPRQuote) WeeklyOrMonthly() float64 {
	if f.Weekly != nil {
		return *f.Weekly
	}
	if f.Monthly != nil {
		return *f.Monthly
	}
	return 0
}

// CycleInput bundles the complete, immutable inputs of one refresh cycle.
// A cycle is all-or-nothing: the pipeline is only invoked with every source
// present, never with a partial dataset.
type CycleInput struct {
	// Snapshots holds one entry per observed vault
	Snapshots []VaultSnapshot

	// Events maps vault address to its rebalance history, newest first
	Events map[string][]RebalanceEvent

	// Quotes is the current price feed
	Quotes QuoteSet

	// FeeAPR maps pool id to the off-chain fee APR quote
	FeeAPR map[string]FeeAPRQuote

	// FetchedAt is the Unix time the cycle's data was collected
	FetchedAt int64
}
