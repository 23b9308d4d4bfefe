// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Vault registry subgraph endpoint
	SubgraphURL string

	// Pool swap-fee APR feed endpoint
	FeeAPIURL string

	// JSON-RPC endpoint for on-chain reads
	RPCEndpoint string

	// On-chain price reader contract address
	PriceReaderAddress string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Webhook endpoint for cycle exports, empty disables the exporter
	WebhookURL string

	// Hex-encoded secp256k1 key for payload signing, empty disables signing
	SigningKey string

	// Refresh loop and HTTP client settings
	RefreshInterval time.Duration
	RequestTimeout  time.Duration

	// Circuit breaker settings
	MaxAPRPercent     float64
	MinVaults         int
	MaxVaultDropRatio float64
	CircuitResetDelay time.Duration

	// Rate limiting for the HTTP endpoints
	RateLimit float64
	RateBurst int
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:               GetEnvOrDefault("PORT", "8080"),
		SubgraphURL:        GetEnvOrDefault("SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/yourorg/vaults"),
		FeeAPIURL:          GetEnvOrDefault("FEE_API_URL", "https://api.yourorg.finance/fee-apr"),
		RPCEndpoint:        GetEnvOrDefault("RPC_ENDPOINT", ""),
		PriceReaderAddress: strings.ToLower(GetEnvOrDefault("PRICE_READER_ADDRESS", "")),
		OtelEndpoint:       GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		WebhookURL:         GetEnvOrDefault("EXPORT_WEBHOOK_URL", ""),
		SigningKey:         GetEnvOrDefault("SIGNING_KEY", ""),
		RefreshInterval:    GetEnvAsDuration("REFRESH_INTERVAL", time.Minute),
		RequestTimeout:     GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxAPRPercent:      GetEnvAsFloat("MAX_APR_PERCENT", 100000), // 100000% sanity bound
		MinVaults:          GetEnvAsInt("MIN_VAULTS", 1),
		MaxVaultDropRatio:  GetEnvAsFloat("MAX_VAULT_DROP_RATIO", 0.5),
		CircuitResetDelay:  GetEnvAsDuration("CIRCUIT_RESET_DELAY", 5*time.Minute),
		RateLimit:          GetEnvAsFloat("RATE_LIMIT", 10),
		RateBurst:          GetEnvAsInt("RATE_BURST", 20),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
