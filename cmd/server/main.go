// Package main is the entry point for the Vault Earnings External Adapter,
// which computes per-vault performance metrics from on-chain and indexed data
// and serves them to Chainlink nodes and dashboards.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/vault-earnings-ea/internal/circuitbreaker"
	"github.com/yourorg/vault-earnings-ea/internal/config"
	"github.com/yourorg/vault-earnings-ea/internal/earnings"
	"github.com/yourorg/vault-earnings-ea/internal/export"
	"github.com/yourorg/vault-earnings-ea/internal/fetch"
	"github.com/yourorg/vault-earnings-ea/internal/model"
	"github.com/yourorg/vault-earnings-ea/internal/otel"
	"github.com/yourorg/vault-earnings-ea/internal/security"
	"github.com/yourorg/vault-earnings-ea/internal/store"
	"github.com/yourorg/vault-earnings-ea/internal/validation"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server represents the External Adapter server instance
type Server struct {
	// Application configuration
	cfg config.Config

	// Upstream data clients
	subgraph *fetch.SubgraphClient
	feeAPR   *fetch.FeeAPRClient
	chain    *fetch.ChainClient

	// Latest published projection served to readers
	store *store.Store

	// Circuit breaker guarding cycle publication
	breaker *circuitbreaker.CircuitBreaker

	// Payload signer for served responses
	signer *security.Signer

	// Webhook exporter for published cycles
	exporter *export.WebhookExporter

	// Prometheus metrics
	metrics *serverMetrics

	// Validation options for fetched cycles
	validationOpts validation.Options

	// Rate limiter for the HTTP endpoints
	rateLimit *rate.Limiter

	// HTTP server instance
	server *http.Server
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter *prometheus.CounterVec
	cycleCounter   *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	vaultCount     prometheus.Gauge
	circuitState   prometheus.Gauge
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"endpoint", "status"},
		),
		cycleCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_cycles_total",
				Help: "Total number of refresh cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "earnings_cycle_duration_seconds",
				Help:    "Refresh cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		vaultCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "earnings_vault_count",
				Help: "Number of vaults in the published projection",
			},
		),
		circuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "earnings_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.cycleCounter,
		m.cycleDuration,
		m.vaultCount,
		m.circuitState,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()
	shutdownTracer := otel.InitTracer(cfg)
	defer shutdownTracer()

	server, err := NewServer(cfg)
	if err != nil {
		logrus.Fatalf("Error initializing server: %v", err)
	}
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// NewServer creates a new server instance with all collaborators wired up
func NewServer(cfg config.Config) (*Server, error) {
	signer, err := security.NewSigner(cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("error initializing signer: %w", err)
	}

	s := &Server{
		cfg:            cfg,
		subgraph:       fetch.NewSubgraphClient(cfg),
		feeAPR:         fetch.NewFeeAPRClient(cfg),
		store:          store.New(),
		signer:         signer,
		exporter:       export.NewWebhookExporter(cfg.WebhookURL),
		metrics:        registerMetrics(),
		validationOpts: validation.DefaultOptions(),
		rateLimit:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	s.breaker = circuitbreaker.New(circuitbreaker.Thresholds{
		MaxAPRPercent:     cfg.MaxAPRPercent,
		MinVaults:         cfg.MinVaults,
		MaxVaultDropRatio: cfg.MaxVaultDropRatio,
	}).
		WithResetDelay(cfg.CircuitResetDelay).
		WithTripCallback(func(reason string) {
			logrus.Warnf("Circuit breaker tripped: %s", reason)
		})

	// The chain client is optional: without an RPC endpoint the adapter
	// still serves APR data, only the vs-hold comparison degrades.
	if cfg.RPCEndpoint != "" {
		chain, err := fetch.NewChainClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("error initializing chain client: %w", err)
		}
		s.chain = chain
	} else {
		logrus.Warn("RPC_ENDPOINT not set, asset prices will be unavailable")
	}

	logrus.WithFields(logrus.Fields{
		"port":             cfg.Port,
		"refresh_interval": cfg.RefreshInterval,
		"subgraph_url":     cfg.SubgraphURL,
		"fee_api_url":      cfg.FeeAPIURL,
		"chain_reads":      s.chain != nil,
		"signing":          signer.Enabled(),
		"webhook_export":   s.exporter.Enabled(),
	}).Info("Server initialized")

	return s, nil
}

// Start runs the refresh loop and HTTP server until interrupted
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.refreshLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/vaults", s.handleVaults)
	mux.HandleFunc("/vaults/", s.handleVault)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/circuit", s.handleCircuitStatus)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	if s.chain != nil {
		s.chain.Close()
	}

	logrus.Info("Server stopped")
}

// refreshLoop recomputes the projection on a fixed interval. The first cycle
// runs immediately so the adapter serves data as soon as upstreams answer.
func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle fetches all upstream data, computes earnings and publishes the
// result. A failed cycle leaves the previous projection in place.
func (s *Server) runCycle(ctx context.Context) {
	start := time.Now()

	cycleCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout*3)
	defer cancel()

	tracer := otel.Tracer()
	cycleCtx, span := tracer.Start(cycleCtx, "refresh_cycle")
	defer span.End()

	input, err := s.fetchCycleInput(cycleCtx)
	if err != nil {
		otel.RecordError(cycleCtx, err)
		logrus.WithField("error", err).Error("Refresh cycle failed, keeping previous projection")
		s.metrics.cycleCounter.WithLabelValues("fetch_error").Inc()
		return
	}

	input = validation.FilterCycle(input, s.validationOpts)
	results := earnings.ComputeAll(cycleCtx, input)

	if err := s.breaker.Check(results); err != nil {
		otel.RecordError(cycleCtx, err)
		logrus.WithField("error", err).Warn("Cycle rejected by circuit breaker, keeping previous projection")
		s.metrics.cycleCounter.WithLabelValues("rejected").Inc()
		s.metrics.circuitState.Set(float64(s.breaker.GetState()))
		return
	}

	s.store.Replace(results)
	s.exporter.Publish(cycleCtx, results)

	s.metrics.cycleCounter.WithLabelValues("published").Inc()
	s.metrics.cycleDuration.Observe(time.Since(start).Seconds())
	s.metrics.vaultCount.Set(float64(len(results)))
	s.metrics.circuitState.Set(float64(s.breaker.GetState()))

	logrus.WithFields(logrus.Fields{
		"vaults":   len(results),
		"duration": time.Since(start),
	}).Info("Published refresh cycle")
}

// fetchCycleInput gathers vault registry, fee APRs and asset prices. Every
// configured source must answer: a cycle built from a partial dataset would
// wholesale-replace a complete projection with blanked pool fees or vs-hold
// data, so any fetch error aborts the cycle and the caller keeps serving
// the previous one.
func (s *Server) fetchCycleInput(ctx context.Context) (model.CycleInput, error) {
	var (
		wg        sync.WaitGroup
		snapshots []model.VaultSnapshot
		events    map[string][]model.RebalanceEvent
		feeAPR    map[string]model.FeeAPRQuote
		vaultErr  error
		feeErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshots, events, vaultErr = s.subgraph.Fetch(ctx)
	}()
	go func() {
		defer wg.Done()
		feeAPR, feeErr = s.feeAPR.Fetch(ctx)
	}()
	wg.Wait()

	if vaultErr != nil {
		return model.CycleInput{}, fmt.Errorf("vault registry: %w", vaultErr)
	}
	if feeErr != nil {
		return model.CycleInput{}, fmt.Errorf("fee APR feed: %w", feeErr)
	}

	quotes := model.QuoteSet{}
	if s.chain != nil {
		fetched, err := s.chain.Fetch(ctx, collectAssetIDs(snapshots))
		if err != nil {
			return model.CycleInput{}, fmt.Errorf("chain price read: %w", err)
		}
		quotes = fetched
	}

	return model.CycleInput{
		Snapshots: snapshots,
		Events:    events,
		Quotes:    quotes,
		FeeAPR:    feeAPR,
		FetchedAt: time.Now().Unix(),
	}, nil
}

// collectAssetIDs returns the deduplicated asset addresses across vaults.
func collectAssetIDs(snapshots []model.VaultSnapshot) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, v := range snapshots {
		for _, asset := range v.Assets {
			id := strings.ToLower(asset.AssetID)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
