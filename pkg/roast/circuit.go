package roast

import (
	"sync"
	"time"
)

// CircuitState represents the circuit breaker state.
type CircuitState int

const (
	// CircuitStateClosed means iterating is still productive.
	CircuitStateClosed CircuitState = iota
	// CircuitStateOpen means the loop has stalled.
	CircuitStateOpen
	// CircuitStateHalfOpen means the circuit is testing recovery.
	CircuitStateHalfOpen
)

// String returns a string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitStateClosed:
		return "closed"
	case CircuitStateOpen:
		return "open"
	case CircuitStateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the iteration circuit breaker.
type CircuitBreakerConfig struct {
	// NoNewFindingsThreshold is iterations without any new finding
	// before tripping.
	NoNewFindingsThreshold int

	// RepeatRatioThreshold is the recurring-finding percentage (0-100)
	// that trips the circuit on its own.
	RepeatRatioThreshold int

	// RecoveryTimeout is time before half-open state.
	RecoveryTimeout time.Duration
}

// CircuitBreaker stops the roast loop once iterations stop surfacing
// anything new.
type CircuitBreaker struct {
	mu     sync.RWMutex
	config CircuitBreakerConfig

	state         CircuitState
	noNewFindings int
	lastOpenTime  time.Time
	lastReason    string

	iterations int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.NoNewFindingsThreshold == 0 {
		config.NoNewFindingsThreshold = 1
	}
	if config.RepeatRatioThreshold == 0 {
		config.RepeatRatioThreshold = 90
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 5 * time.Minute
	}

	return &CircuitBreaker{
		config: config,
		state:  CircuitStateClosed,
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reason returns why the circuit last opened.
func (cb *CircuitBreaker) Reason() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.lastReason
}

// IsOpen returns true if the circuit is open (iteration should stop).
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateClosed {
		return false
	}

	if cb.state == CircuitStateOpen {
		if time.Since(cb.lastOpenTime) >= cb.config.RecoveryTimeout {
			cb.state = CircuitStateHalfOpen
			return false
		}
		return true
	}

	// Half-open allows one iteration through
	return false
}

// RecordIteration feeds one iteration's finding counts into the breaker.
func (cb *CircuitBreaker) RecordIteration(newCount, recurringCount int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.iterations++
	total := newCount + recurringCount

	if cb.state == CircuitStateHalfOpen {
		if newCount > 0 {
			cb.state = CircuitStateClosed
			cb.noNewFindings = 0
		} else {
			cb.tripOpen("no new findings after recovery")
			return
		}
	}

	if newCount == 0 {
		cb.noNewFindings++
		if cb.noNewFindings >= cb.config.NoNewFindingsThreshold {
			cb.tripOpen("no new findings")
			return
		}
	} else {
		cb.noNewFindings = 0
	}

	if total > 0 {
		repeatRatio := recurringCount * 100 / total
		if repeatRatio >= cb.config.RepeatRatioThreshold {
			cb.tripOpen("findings repeating")
		}
	}
}

// tripOpen transitions the circuit to open state.
func (cb *CircuitBreaker) tripOpen(reason string) {
	cb.state = CircuitStateOpen
	cb.lastOpenTime = time.Now()
	cb.lastReason = reason
}

// Reset manually resets the circuit breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitStateClosed
	cb.noNewFindings = 0
	cb.lastReason = ""
}

// Stats returns circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		State:         cb.state,
		Iterations:    cb.iterations,
		NoNewFindings: cb.noNewFindings,
		Reason:        cb.lastReason,
	}
}

// CircuitBreakerStats contains circuit breaker statistics.
type CircuitBreakerStats struct {
	State         CircuitState
	Iterations    int
	NoNewFindings int
	Reason        string
}
