// Package validation sanitizes upstream data before it reaches the earnings
// pipeline.
package validation

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// Options holds configuration for the validation process.
type Options struct {
	// MaxEventAge drops rebalance events older than this; they can never
	// influence the trailing windows the pipeline computes
	MaxEventAge time.Duration

	// AllowFutureSkew tolerates small upstream clock skew on event timestamps
	AllowFutureSkew time.Duration

	// MaxFarmAPRBps rejects snapshots reporting an implausible raw APR
	MaxFarmAPRBps int64
}

// DefaultOptions returns sensible defaults for validation.
func DefaultOptions() Options {
	return Options{
		MaxEventAge:     14 * 24 * time.Hour,
		AllowFutureSkew: 2 * time.Minute,
		MaxFarmAPRBps:   1_000_000, // 10000%
	}
}

// FilterCycle returns a new CycleInput with invalid snapshots, events, and
// quotes removed. Rejections are logged at debug level; they shrink the
// dataset rather than failing the cycle.
func FilterCycle(input model.CycleInput, opts Options) model.CycleInput {
	out := model.CycleInput{
		Snapshots: FilterSnapshots(input.Snapshots, opts),
		Events:    make(map[string][]model.RebalanceEvent, len(input.Events)),
		Quotes:    FilterQuotes(input.Quotes),
		FeeAPR:    input.FeeAPR,
		FetchedAt: input.FetchedAt,
	}
	for vault, events := range input.Events {
		out.Events[vault] = FilterEvents(events, input.FetchedAt, opts)
	}
	return out
}

// FilterSnapshots removes malformed vault snapshots.
func FilterSnapshots(snapshots []model.VaultSnapshot, opts Options) []model.VaultSnapshot {
	valid := make([]model.VaultSnapshot, 0, len(snapshots))
	for _, v := range snapshots {
		if isValidSnapshot(v, opts) {
			valid = append(valid, v)
			continue
		}
		logrus.WithFields(logrus.Fields{
			"vault":    v.Address,
			"apr_bps":  v.FarmAPRBasisPoints,
			"strategy": v.Strategy,
		}).Debug("Filtered invalid vault snapshot")
	}
	return valid
}

// isValidSnapshot checks a single snapshot against all criteria.
func isValidSnapshot(v model.VaultSnapshot, opts Options) bool {
	if !v.IsValid() {
		return false
	}
	if v.FarmAPRBasisPoints > opts.MaxFarmAPRBps {
		return false
	}
	// a pool id is required wherever the fee feed is consulted
	if v.Strategy == model.KindPool && v.PoolID == "" {
		return false
	}
	return true
}

// FilterEvents removes rebalance events the weighted average must not see:
// negative fees or values, timestamps in the future beyond tolerated skew,
// and history too stale for any trailing window.
func FilterEvents(events []model.RebalanceEvent, now int64, opts Options) []model.RebalanceEvent {
	skew := int64(opts.AllowFutureSkew / time.Second)
	oldest := now - int64(opts.MaxEventAge/time.Second)

	valid := make([]model.RebalanceEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp <= 0 || e.Timestamp > now+skew || e.Timestamp < oldest {
			logrus.WithFields(logrus.Fields{
				"alm":       e.ALMID,
				"timestamp": e.Timestamp,
			}).Debug("Filtered rebalance event with out-of-range timestamp")
			continue
		}
		if e.FeeValueUSD != nil && e.FeeValueUSD.Sign() < 0 {
			logrus.WithField("alm", e.ALMID).Debug("Filtered rebalance event with negative fee")
			continue
		}
		if e.TotalValueUSD != nil && e.TotalValueUSD.Sign() < 0 {
			logrus.WithField("alm", e.ALMID).Debug("Filtered rebalance event with negative total value")
			continue
		}
		valid = append(valid, e)
	}
	return valid
}

// FilterQuotes drops negative and nil price entries. Missing entries stay
// missing: downstream treats them as "no price", never as zero.
func FilterQuotes(quotes model.QuoteSet) model.QuoteSet {
	valid := make(model.QuoteSet, len(quotes))
	for asset, price := range quotes {
		if price == nil {
			continue
		}
		if price.Sign() < 0 {
			logrus.WithField("asset", asset).Debug("Filtered negative price quote")
			continue
		}
		valid[asset] = price
	}
	return valid
}
