package pricefeed

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

func TestNormalize(t *testing.T) {
	quotes := model.QuoteSet{
		"0xaaa": big.NewInt(2_500_000_000_000_000_000), // 2.50
		"0xbbb": big.NewInt(0),
		"0xccc": big.NewInt(-1),
		"0xddd": nil,
	}

	tests := []struct {
		name    string
		assetID string
		want    float64
		wantOK  bool
	}{
		{name: "present quote", assetID: "0xaaa", want: 2.5, wantOK: true},
		{name: "uppercase id resolves", assetID: "0xAAA", want: 2.5, wantOK: true},
		{name: "zero is a valid price", assetID: "0xbbb", want: 0, wantOK: true},
		{name: "negative quote rejected", assetID: "0xccc", want: 0, wantOK: false},
		{name: "nil entry is absent", assetID: "0xddd", want: 0, wantOK: false},
		{name: "unknown asset absent", assetID: "0xeee", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(quotes, tt.assetID)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
