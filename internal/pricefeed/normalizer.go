// Package pricefeed normalizes raw asset price quotes for comparison math.
package pricefeed

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/fxmath"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// PriceDecimals is the fixed-point scale of every feed quote.
const PriceDecimals = 18

// Normalize resolves an asset's quote to a float comparison value.
// A missing or negative entry yields (0, false): one stale asset must not
// blank out a whole vault's metrics, so callers treat the zero as a zero
// contribution rather than an error.
func Normalize(quotes model.QuoteSet, assetID string) (float64, bool) {
	raw, ok := quotes.Lookup(strings.ToLower(assetID))
	if !ok {
		logrus.WithField("asset", assetID).Debug("No price quote for asset")
		return 0, false
	}
	if raw.Sign() < 0 {
		logrus.WithField("asset", assetID).Warn("Negative price quote dropped")
		return 0, false
	}
	return fxmath.ToRatio(raw, PriceDecimals), true
}
