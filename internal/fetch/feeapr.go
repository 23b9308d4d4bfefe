package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/config"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// FeeAPRClient retrieves aggregated pool swap-fee APRs from the fee API.
type FeeAPRClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFeeAPRClient creates a new fee APR client from configuration.
func NewFeeAPRClient(cfg config.Config) *FeeAPRClient {
	return &FeeAPRClient{
		baseURL:    cfg.FeeAPIURL,
		httpClient: StandardClient(newRetryClient(cfg.RequestTimeout)),
	}
}

// Fetch retrieves swap-fee APR quotes keyed by lower-case pool ID. Windows
// the aggregator has not accumulated yet arrive as null and stay nil.
func (c *FeeAPRClient) Fetch(ctx context.Context) (map[string]model.FeeAPRQuote, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/pools", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logrus.Debugf("Fetching pool fee APRs: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching pool fee APRs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fee API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var response struct {
		Pools map[string]struct {
			Daily   *float64 `json:"daily"`
			Weekly  *float64 `json:"weekly"`
			Monthly *float64 `json:"monthly"`
		} `json:"pools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	quotes := make(map[string]model.FeeAPRQuote, len(response.Pools))
	for poolID, quote := range response.Pools {
		quotes[strings.ToLower(poolID)] = model.FeeAPRQuote{
			Daily:   quote.Daily,
			Weekly:  quote.Weekly,
			Monthly: quote.Monthly,
		}
	}

	logrus.Debugf("Received fee APRs for %d pools", len(quotes))
	return quotes, nil
}
