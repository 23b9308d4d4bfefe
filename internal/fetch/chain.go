package fetch

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/config"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// priceReaderABI is the read interface of the on-chain price aggregator.
// Prices come back with 18 decimals regardless of the token's own decimals.
const priceReaderABI = `[{
  "name": "getPrices",
  "type": "function",
  "stateMutability": "view",
  "inputs":  [{"name": "assets", "type": "address[]"}],
  "outputs": [{"name": "prices", "type": "uint256[]"}]
}]`

// ChainClient reads current asset prices from the price reader contract.
type ChainClient struct {
	client   *ethclient.Client
	reader   common.Address
	contract abi.ABI
}

// NewChainClient dials the configured RPC endpoint. Returns an error when no
// endpoint or reader contract is configured.
func NewChainClient(cfg config.Config) (*ChainClient, error) {
	if cfg.RPCEndpoint == "" || cfg.PriceReaderAddress == "" {
		return nil, fmt.Errorf("RPC_ENDPOINT and PRICE_READER_ADDRESS must be set")
	}

	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("error dialing RPC endpoint: %w", err)
	}

	contract, err := abi.JSON(strings.NewReader(priceReaderABI))
	if err != nil {
		return nil, fmt.Errorf("error parsing price reader ABI: %w", err)
	}

	return &ChainClient{
		client:   client,
		reader:   common.HexToAddress(cfg.PriceReaderAddress),
		contract: contract,
	}, nil
}

// Fetch reads current prices for the given asset addresses in a single call.
// The returned set is keyed by lower-case asset address.
func (c *ChainClient) Fetch(ctx context.Context, assetIDs []string) (model.QuoteSet, error) {
	if len(assetIDs) == 0 {
		return model.QuoteSet{}, nil
	}

	assets := make([]common.Address, len(assetIDs))
	for i, id := range assetIDs {
		assets[i] = common.HexToAddress(id)
	}

	input, err := c.contract.Pack("getPrices", assets)
	if err != nil {
		return nil, fmt.Errorf("error packing price call: %w", err)
	}

	logrus.Debugf("Reading %d asset prices from chain", len(assets))
	output, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.reader, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("error calling price reader: %w", err)
	}

	unpacked, err := c.contract.Unpack("getPrices", output)
	if err != nil {
		return nil, fmt.Errorf("error unpacking price response: %w", err)
	}
	prices, ok := unpacked[0].([]*big.Int)
	if !ok || len(prices) != len(assets) {
		return nil, fmt.Errorf("price reader returned %d prices for %d assets", len(prices), len(assets))
	}

	quotes := make(model.QuoteSet, len(assets))
	for i, id := range assetIDs {
		quotes[strings.ToLower(id)] = prices[i]
	}
	return quotes, nil
}

// Close releases the underlying RPC connection.
func (c *ChainClient) Close() {
	c.client.Close()
}
