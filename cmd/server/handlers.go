package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// handleVaults serves the full published projection.
func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, "vaults") {
		return
	}
	if r.Method != http.MethodGet {
		s.errorResponse(w, "vaults", http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	publishedAt := s.store.PublishedAt()
	if publishedAt.IsZero() {
		s.errorResponse(w, "vaults", http.StatusServiceUnavailable, "No cycle published yet")
		return
	}

	payload := map[string]interface{}{
		"vaults":      s.store.All(),
		"count":       s.store.Len(),
		"publishedAt": publishedAt.UTC().Format(time.RFC3339),
	}
	s.writeSigned(w, "vaults", payload)
}

// handleVault serves a single vault by address.
func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, "vault") {
		return
	}
	if r.Method != http.MethodGet {
		s.errorResponse(w, "vault", http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	address := strings.TrimPrefix(r.URL.Path, "/vaults/")
	record, ok := s.store.Get(address)
	if !ok {
		s.errorResponse(w, "vault", http.StatusNotFound, "Unknown vault address")
		return
	}
	s.writeSigned(w, "vault", record)
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":        "operational",
		"uptime":        time.Since(startTime).String(),
		"version":       "1.0.0",
		"vaults":        s.store.Len(),
		"circuit_state": s.breaker.GetState(),
		"configuration": map[string]interface{}{
			"refresh_interval": s.cfg.RefreshInterval.String(),
			"chain_reads":      s.chain != nil,
			"signing":          s.signer.Enabled(),
			"webhook_export":   s.exporter.Enabled(),
		},
	}
	if publishedAt := s.store.PublishedAt(); !publishedAt.IsZero() {
		status["published_at"] = publishedAt.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleCircuitStatus allows viewing and controlling the circuit breaker
func (s *Server) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"state": s.breaker.GetState(),
	}

	if r.Method == http.MethodPost {
		if r.URL.Query().Get("action") == "reset" {
			s.breaker.Reset()
			response["state"] = s.breaker.GetState()
			response["message"] = "Circuit breaker reset"
		}
	}

	if lastGood := s.breaker.LastGood(); lastGood != nil {
		response["last_good_vault_count"] = len(lastGood)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// allow applies the rate limit, writing a 429 when exceeded.
func (s *Server) allow(w http.ResponseWriter, endpoint string) bool {
	if s.rateLimit.Allow() {
		return true
	}
	s.errorResponse(w, endpoint, http.StatusTooManyRequests, "Rate limit exceeded")
	return false
}

// writeSigned serializes a payload, attaching integrity metadata when
// signing is enabled.
func (s *Server) writeSigned(w http.ResponseWriter, endpoint string, payload interface{}) {
	signed, err := s.signer.SignPayload(payload)
	if err != nil {
		s.errorResponse(w, endpoint, http.StatusInternalServerError, "Error preparing response")
		return
	}

	s.metrics.requestCounter.WithLabelValues(endpoint, "success").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signed)
}

// errorResponse returns a formatted JSON error
func (s *Server) errorResponse(w http.ResponseWriter, endpoint string, statusCode int, errorMsg string) {
	logrus.Warn(errorMsg)
	s.metrics.requestCounter.WithLabelValues(endpoint, "error").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "error",
		"error":  errorMsg,
	})
}
