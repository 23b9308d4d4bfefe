package model

// VariantGroup holds one display value per reporting horizon. Values are
// percentages formatted with two decimals; "-" marks a horizon the source
// had no data for, or one that does not apply to the strategy.
type VariantGroup struct {
	Latest string `json:"latest"`
	Daily  string `json:"daily"`
	Weekly string `json:"weekly"`
}

// FeeToggle pairs the with-fees and without-fees variants of a rate so the
// presentation layer can toggle display without recomputing.
type FeeToggle struct {
	WithFees    VariantGroup `json:"withFees"`
	WithoutFees VariantGroup `json:"withoutFees"`
}

// EarningData is the normalized performance record of a vault for one cycle.
// It is immutable once produced; the next cycle supersedes it wholesale.
type EarningData struct {
	APR FeeToggle `json:"apr"`
	APY FeeToggle `json:"apy"`

	// PoolSwapFeesAPR reports the underlying pool's swap-fee yield; all "-"
	// for strategies without a pool
	PoolSwapFeesAPR VariantGroup `json:"poolSwapFeesAPR"`

	// FarmAPR reports the continuous farm reward yield
	FarmAPR VariantGroup `json:"farmAPR"`
}

// HoldPosition compares one underlying asset against the vault since creation.
type HoldPosition struct {
	Symbol string `json:"symbol"`

	// InitPrice and Price are the creation-time and current asset prices
	InitPrice string `json:"initPrice"`
	Price     string `json:"price"`

	// PriceDifference is the asset's own price change since creation, percent
	PriceDifference string `json:"priceDifference"`

	// PresentProportion is the current value of the asset's initial slice of
	// one unit of starting capital; zero when the price feed has no quote
	PresentProportion float64 `json:"presentProportion"`

	// LatestAPR is vault growth minus asset growth over the vault lifetime
	LatestAPR string `json:"latestAPR"`

	// APR is LatestAPR annualized, floored at -99.99
	APR string `json:"apr"`
}

// HoldComparison reports how the vault performed against buying and holding
// its underlying assets in their creation-time proportions.
type HoldComparison struct {
	Positions []HoldPosition `json:"positions"`

	// LifetimeVsHoldAPR is vault growth minus aggregate hold growth since
	// creation, percent
	LifetimeVsHoldAPR float64 `json:"lifetimeVsHoldAPR"`

	// VsHoldAPR is LifetimeVsHoldAPR annualized, floored at -99.99
	VsHoldAPR float64 `json:"vsHoldAPR"`

	// IsActive is false until the vault is old enough (and priced) for the
	// comparison to be meaningful
	IsActive bool `json:"isActive"`
}

// RebalanceStats counts recent rebalances of an ALM strategy.
type RebalanceStats struct {
	Daily  int `json:"daily"`
	Weekly int `json:"weekly"`
}

// VaultEarnings is the final per-vault projection served to readers.
type VaultEarnings struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`

	// ComputedAt is the Unix time of the cycle that produced this record
	ComputedAt int64 `json:"computedAt"`

	// DailySimpleAPR is the latest with-fees APR divided over 365 days
	DailySimpleAPR string `json:"dailySimpleAPR"`

	Earning EarningData    `json:"earningData"`
	Hold    HoldComparison `json:"hold"`

	// Rebalances is only set for ALM strategies
	Rebalances *RebalanceStats `json:"rebalances,omitempty"`
}
