// Package rebalance estimates daily fee APR for strategies whose yield is
// realized in discrete rebalance events rather than continuously.
package rebalance

import (
	"sort"

	"github.com/yourorg/vault-earnings-ea/internal/fxmath"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// WindowSeconds is the trailing window the daily estimate spans.
const WindowSeconds = 86400

// WeekSeconds is the trailing window for weekly rebalance counts.
const WeekSeconds = 7 * WindowSeconds

// aprDecimals is the fixed-point scale of APRFromLastEvent on the wire.
const aprDecimals = 8

// valueDecimals is the fixed-point scale of the USD value fields.
const valueDecimals = 18

// event is a normalized rebalance event. apr is the percent rate realized
// over the interval that ended at ts.
type event struct {
	ts    int64
	apr   float64
	fee   float64
	total float64
}

// DailyAPR computes the time-weighted daily fee APR over the trailing 24-hour
// window. Each event's rate is weighted by the fraction of the window covered
// by the interval ending at that event; a virtual event at now represents the
// still-accruing open interval, and the oldest retained interval is stretched
// to the window boundary so the weights always sum to 1.
//
// Fewer than two events, including the virtual one, yield 0: insufficient
// data, not an error.
func DailyAPR(events []model.RebalanceEvent, now int64) float64 {
	seq := sequence(events, now)
	if len(seq) < 2 {
		return 0
	}

	var weightedSum, weightSum float64
	for i, w := range weights(seq) {
		weightedSum += seq[i].apr * w
		weightSum += w
	}
	if weightSum <= 0 {
		return 0
	}
	return weightedSum / weightSum
}

// CountSince counts events within the trailing horizon, for rebalance
// activity stats.
func CountSince(events []model.RebalanceEvent, now, horizonSeconds int64) int {
	n := 0
	for _, e := range events {
		if e.Timestamp <= now && e.Timestamp >= now-horizonSeconds {
			n++
		}
	}
	return n
}

// sequence selects the events feeding the weighted average, newest first:
// the virtual now-event, the events inside the window, and — when the window
// is empty — exactly one anchor event immediately preceding it.
func sequence(events []model.RebalanceEvent, now int64) []event {
	all := normalize(events, now)
	if len(all) == 0 {
		return nil
	}

	windowStart := now - WindowSeconds
	window := all[:0:0]
	var anchor *event
	for i := range all {
		if all[i].ts >= windowStart {
			window = append(window, all[i])
		} else {
			// all is newest-first, so the first pre-window event is the
			// closest one
			anchor = &all[i]
			break
		}
	}
	if len(window) == 0 {
		if anchor == nil {
			return nil
		}
		window = append(window, *anchor)
	}

	virt := event{ts: now, apr: openIntervalEstimate(window[0], now)}
	return append([]event{virt}, window...)
}

// weights assigns each event the fraction of the 24-hour window covered by
// the interval ending at it. The oldest event absorbs whatever remains of the
// window, so the result always sums to exactly 1.
func weights(seq []event) []float64 {
	ws := make([]float64, len(seq))
	remaining := 1.0
	for i := range seq {
		if i == len(seq)-1 {
			ws[i] = remaining
			break
		}
		gap := float64(seq[i].ts-seq[i+1].ts) / WindowSeconds
		if gap < 0 {
			gap = 0
		}
		if gap > remaining {
			gap = remaining
		}
		ws[i] = gap
		remaining -= gap
	}
	return ws
}

// openIntervalEstimate estimates the rate of the interval still accruing at
// now from the newest real event's fee/value ratio, scaled by how much of a
// day has elapsed since it. Zero total value makes the ratio undefined and
// the estimate 0.
func openIntervalEstimate(last event, now int64) float64 {
	elapsed := now - last.ts
	if last.total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed > WindowSeconds {
		elapsed = WindowSeconds
	}
	return last.fee / last.total * 100 * float64(elapsed) / WindowSeconds
}

// normalize converts raw events to floats, drops events from the future,
// re-derives descending order, and merges events sharing a timestamp into a
// single combined event (fee and value summed, rate value-weighted).
func normalize(events []model.RebalanceEvent, now int64) []event {
	out := make([]event, 0, len(events))
	for _, e := range events {
		if e.Timestamp <= 0 || e.Timestamp > now {
			continue
		}
		ev := event{
			ts:    e.Timestamp,
			fee:   fxmath.ToRatio(e.FeeValueUSD, valueDecimals),
			total: fxmath.ToRatio(e.TotalValueUSD, valueDecimals),
		}
		// the ratio behind APRFromLastEvent is undefined without positive
		// total value; such rates are treated as zero
		if ev.total > 0 {
			ev.apr = fxmath.ToRatio(e.APRFromLastEvent, aprDecimals)
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ts > out[j].ts })

	merged := out[:0:0]
	for _, e := range out {
		if n := len(merged); n > 0 && merged[n-1].ts == e.ts {
			merged[n-1] = combine(merged[n-1], e)
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

// combine folds two events with identical timestamps into one.
func combine(a, b event) event {
	c := event{
		ts:    a.ts,
		fee:   a.fee + b.fee,
		total: a.total + b.total,
	}
	switch {
	case c.total > 0:
		c.apr = (a.apr*a.total + b.apr*b.total) / c.total
	default:
		c.apr = (a.apr + b.apr) / 2
	}
	return c
}
