package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/config"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// vaultRegistryQuery pulls every vault together with its asset allocations
// and the recent rebalance history of ALM strategies. Events arrive newest
// first; fourteen days is enough for the daily and weekly windows.
const vaultRegistryQuery = `{
  vaults {
    id
    name
    symbol
    createdAt
    sharePrice
    strategy
    poolId
    aprBasisPoints
    aprDailyBasisPoints
    aprWeeklyBasisPoints
    assets {
      id
      symbol
      priceAtCreation
      proportionPercent
    }
    rebalances(orderBy: timestamp, orderDirection: desc, first: 200) {
      timestamp
      feeValueUSD
      totalValueUSD
      aprFromLastEvent
    }
  }
}`

// SubgraphClient retrieves the vault registry from a GraphQL subgraph.
type SubgraphClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSubgraphClient creates a new subgraph client from configuration.
func NewSubgraphClient(cfg config.Config) *SubgraphClient {
	return &SubgraphClient{
		baseURL:    cfg.SubgraphURL,
		httpClient: StandardClient(newRetryClient(cfg.RequestTimeout)),
	}
}

// Fetch retrieves all vault snapshots and their rebalance histories.
func (c *SubgraphClient) Fetch(ctx context.Context) ([]model.VaultSnapshot, map[string][]model.RebalanceEvent, error) {
	body, err := json.Marshal(map[string]string{"query": vaultRegistryQuery})
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("Fetching vault registry from subgraph: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching vault registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("subgraph error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var response struct {
		Data struct {
			Vaults []vaultEntity `json:"vaults"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, nil, fmt.Errorf("error decoding response: %w", err)
	}
	if len(response.Errors) > 0 {
		return nil, nil, fmt.Errorf("subgraph query error: %s", response.Errors[0].Message)
	}
	if len(response.Data.Vaults) == 0 {
		return nil, nil, fmt.Errorf("no vaults returned from subgraph")
	}

	snapshots := make([]model.VaultSnapshot, 0, len(response.Data.Vaults))
	events := make(map[string][]model.RebalanceEvent)
	for _, entity := range response.Data.Vaults {
		snapshot, history, err := entity.toModel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"vault": entity.ID,
				"error": err,
			}).Warn("Skipping malformed vault entity")
			continue
		}
		snapshots = append(snapshots, snapshot)
		if len(history) > 0 {
			events[strings.ToLower(snapshot.Address)] = history
		}
	}

	logrus.Debugf("Received %d vaults from subgraph", len(snapshots))
	return snapshots, events, nil
}

// vaultEntity matches the subgraph's vault representation. Numeric values
// arrive as decimal strings, as subgraphs encode BigInt fields.
type vaultEntity struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	CreatedAt            string `json:"createdAt"`
	SharePrice           string `json:"sharePrice"`
	Strategy             string `json:"strategy"`
	PoolID               string `json:"poolId"`
	APRBasisPoints       string `json:"aprBasisPoints"`
	APRDailyBasisPoints  string `json:"aprDailyBasisPoints"`
	APRWeeklyBasisPoints string `json:"aprWeeklyBasisPoints"`
	Assets               []struct {
		ID                string  `json:"id"`
		Symbol            string  `json:"symbol"`
		PriceAtCreation   string  `json:"priceAtCreation"`
		ProportionPercent float64 `json:"proportionPercent"`
	} `json:"assets"`
	Rebalances []struct {
		Timestamp        string `json:"timestamp"`
		FeeValueUSD      string `json:"feeValueUSD"`
		TotalValueUSD    string `json:"totalValueUSD"`
		APRFromLastEvent string `json:"aprFromLastEvent"`
	} `json:"rebalances"`
}

func (e vaultEntity) toModel() (model.VaultSnapshot, []model.RebalanceEvent, error) {
	createdAt, err := strconv.ParseInt(e.CreatedAt, 10, 64)
	if err != nil {
		return model.VaultSnapshot{}, nil, fmt.Errorf("malformed createdAt %q", e.CreatedAt)
	}
	sharePrice, err := parseBig(e.SharePrice)
	if err != nil {
		return model.VaultSnapshot{}, nil, fmt.Errorf("share price: %w", err)
	}
	aprBps, err := strconv.ParseInt(e.APRBasisPoints, 10, 64)
	if err != nil {
		return model.VaultSnapshot{}, nil, fmt.Errorf("malformed aprBasisPoints %q", e.APRBasisPoints)
	}

	snapshot := model.VaultSnapshot{
		Address:            strings.ToLower(e.ID),
		Name:               e.Name,
		Symbol:             e.Symbol,
		CreatedAt:          createdAt,
		SharePrice:         sharePrice,
		FarmAPRBasisPoints: aprBps,
		FarmAPRDailyBps:    optionalBps(e.APRDailyBasisPoints),
		FarmAPRWeeklyBps:   optionalBps(e.APRWeeklyBasisPoints),
		Strategy:           model.StrategyKind(strings.ToLower(e.Strategy)),
		PoolID:             strings.ToLower(e.PoolID),
	}

	for _, asset := range e.Assets {
		price, err := parseBig(asset.PriceAtCreation)
		if err != nil {
			return model.VaultSnapshot{}, nil, fmt.Errorf("asset %s creation price: %w", asset.ID, err)
		}
		snapshot.Assets = append(snapshot.Assets, model.AssetAllocation{
			AssetID:         strings.ToLower(asset.ID),
			Symbol:          asset.Symbol,
			PriceAtCreation: price,
			ProportionPct:   asset.ProportionPercent,
		})
	}

	var history []model.RebalanceEvent
	for _, raw := range e.Rebalances {
		ts, err := strconv.ParseInt(raw.Timestamp, 10, 64)
		if err != nil {
			return model.VaultSnapshot{}, nil, fmt.Errorf("malformed rebalance timestamp %q", raw.Timestamp)
		}
		fee, err := parseBig(raw.FeeValueUSD)
		if err != nil {
			return model.VaultSnapshot{}, nil, fmt.Errorf("rebalance fee value: %w", err)
		}
		total, err := parseBig(raw.TotalValueUSD)
		if err != nil {
			return model.VaultSnapshot{}, nil, fmt.Errorf("rebalance total value: %w", err)
		}
		apr, err := parseBig(raw.APRFromLastEvent)
		if err != nil {
			return model.VaultSnapshot{}, nil, fmt.Errorf("rebalance apr: %w", err)
		}
		history = append(history, model.RebalanceEvent{
			ALMID:            snapshot.Address,
			Timestamp:        ts,
			FeeValueUSD:      fee,
			TotalValueUSD:    total,
			APRFromLastEvent: apr,
		})
	}

	return snapshot, history, nil
}

// optionalBps parses an optional basis-point field; empty means the
// subgraph has no history for that window yet.
func optionalBps(raw string) *int64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
