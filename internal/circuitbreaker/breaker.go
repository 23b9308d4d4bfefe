// Package circuitbreaker protects the served earnings projection against
// publishing implausible cycles produced from erroneous upstream data.
package circuitbreaker

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, cycles are not published
	StateHalfOpen              // Testing if upstream data has recovered
)

// CircuitBreaker gates the publication of computed earning cycles. While the
// circuit is open the previous cycle's records stay the last-known-good
// values served to readers.
type CircuitBreaker struct {
	// Configuration thresholds for tripping the circuit
	thresholds Thresholds

	// Current state (Closed, Open, HalfOpen)
	state State

	// Timestamp of the last circuit trip
	lastTrip time.Time

	// Duration before an auto-reset attempt
	resetDelay time.Duration

	// Mutex for thread safety
	mu sync.RWMutex

	// Last cycle that passed all checks, kept as fallback
	lastGood map[string]model.VaultEarnings

	// Count of consecutive successful cycles in HalfOpen state
	successCount int

	// Number of successful cycles required to close the circuit
	successThreshold int

	// Event callback for monitoring/alerting
	onTripCallback func(reason string)
}

// Thresholds defines the limits that trip the circuit.
type Thresholds struct {
	// Maximum plausible with-fees latest APR, percent (e.g. 10000 for 10000%)
	MaxAPRPercent float64 `json:"max_apr_percent"`

	// Minimum number of vaults a cycle must produce
	MinVaults int `json:"min_vaults"`

	// Maximum tolerated fraction of vaults lost against the last good
	// cycle (0.5 = half); 0 disables the check
	MaxVaultDropRatio float64 `json:"max_vault_drop_ratio,omitempty"`
}

// New creates a new CircuitBreaker with the provided thresholds.
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker.
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of successful cycles needed to close
// the circuit.
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback invoked when the circuit trips.
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// Check evaluates a computed cycle against the thresholds. A passing cycle
// becomes the new last-known-good set. A failing cycle trips the circuit and
// returns an error; the caller must keep serving the previous records.
func (cb *CircuitBreaker) Check(results map[string]model.VaultEarnings) error {
	cb.mu.RLock()
	state := cb.state
	lastTripTime := cb.lastTrip
	cb.mu.RUnlock()

	if state == StateOpen {
		if time.Since(lastTripTime) > cb.resetDelay {
			cb.transitionToHalfOpen()
		} else {
			return errors.New("circuit breaker open: system protection engaged")
		}
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if reason := cb.evaluate(results); reason != "" {
		cb.trip(reason)
		return errors.New(reason)
	}

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			logrus.Info("Circuit breaker closing after recovery")
			cb.state = StateClosed
			cb.successCount = 0
		}
	}

	cb.lastGood = results
	return nil
}

// evaluate returns a non-empty trip reason when the cycle is implausible.
func (cb *CircuitBreaker) evaluate(results map[string]model.VaultEarnings) string {
	if len(results) < cb.thresholds.MinVaults {
		return fmt.Sprintf("cycle produced %d vaults, minimum is %d", len(results), cb.thresholds.MinVaults)
	}

	if cb.thresholds.MaxAPRPercent > 0 {
		for addr, record := range results {
			apr, err := strconv.ParseFloat(record.Earning.APR.WithFees.Latest, 64)
			if err != nil {
				continue
			}
			if apr > cb.thresholds.MaxAPRPercent {
				return fmt.Sprintf("vault %s reports implausible APR %.2f%%", addr, apr)
			}
		}
	}

	if cb.thresholds.MaxVaultDropRatio > 0 && len(cb.lastGood) > 0 {
		drop := 1 - float64(len(results))/float64(len(cb.lastGood))
		if drop > cb.thresholds.MaxVaultDropRatio {
			return fmt.Sprintf("cycle lost %.0f%% of vaults against last good cycle", drop*100)
		}
	}

	return ""
}

// trip opens the circuit. Caller holds the write lock.
func (cb *CircuitBreaker) trip(reason string) {
	cb.state = StateOpen
	cb.lastTrip = time.Now()
	cb.successCount = 0

	logrus.WithField("reason", reason).Warn("Circuit breaker tripped")
	if cb.onTripCallback != nil {
		go cb.onTripCallback(reason)
	}
}

// transitionToHalfOpen moves an open circuit into the probing state.
func (cb *CircuitBreaker) transitionToHalfOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		logrus.Info("Circuit breaker transitioning to half-open")
		cb.state = StateHalfOpen
		cb.successCount = 0
	}
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forces the circuit closed, discarding trip history.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.successCount = 0
	logrus.Info("Circuit breaker manually reset")
}

// LastGood returns the most recent cycle that passed all checks, or nil.
func (cb *CircuitBreaker) LastGood() map[string]model.VaultEarnings {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.lastGood
}
