/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package vendorapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/metrics"
)

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	// StateClosed - Circuit is closed, requests are allowed
	StateClosed CircuitBreakerState = iota
	// StateOpen - Circuit is open, requests are rejected for the rest of the run
	StateOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CircuitBreaker wraps a Transport and trips after FailureThreshold
// consecutive calls that got no answer at all. Any HTTP answer, 5xx
// included, resets the streak: a status is a per-machine outcome. Once open
// it rejects every call with ErrCircuitOpen. A threshold of zero disables it.
type CircuitBreaker struct {
	next             Transport
	failureThreshold int
	state            CircuitBreakerState
	failureCount     int
	lastErr          error
	mu               sync.Mutex
	logger           logger.Logger
	metrics          metrics.Metrics
	name             string
}

// NewCircuitBreaker creates a new circuit breaker around next.
func NewCircuitBreaker(name string, next Transport, failureThreshold int, log logger.Logger, m metrics.Metrics) *CircuitBreaker {
	if m == nil {
		m = &metrics.NoOpMetrics{}
	}

	return &CircuitBreaker{
		next:             next,
		failureThreshold: failureThreshold,
		state:            StateClosed,
		logger:           log,
		metrics:          m,
		name:             name,
	}
}

// Get implements Transport.
func (cb *CircuitBreaker) Get(ctx context.Context, path string) (*Response, error) {
	return cb.execute(func() (*Response, error) {
		return cb.next.Get(ctx, path)
	})
}

// Post implements Transport.
func (cb *CircuitBreaker) Post(ctx context.Context, path, contentType string, payload interface{}) (*Response, error) {
	return cb.execute(func() (*Response, error) {
		return cb.next.Post(ctx, path, contentType, payload)
	})
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

func (cb *CircuitBreaker) execute(fn func() (*Response, error)) (*Response, error) {
	if err := cb.allowRequest(); err != nil {
		return nil, err
	}

	resp, err := fn()
	cb.recordResult(err)

	return resp, err
}

func (cb *CircuitBreaker) allowRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		return fmt.Errorf("%w: %s: last failure: %w", ErrCircuitOpen, cb.name, cb.lastErr)
	}

	return nil
}

func (cb *CircuitBreaker) recordResult(err error) {
	if cb.failureThreshold <= 0 {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err == nil:
		cb.failureCount = 0
	case errors.Is(err, ErrSessionRejected), errors.Is(err, context.Canceled):
	default:
		cb.onFailure(err)
	}
}

// onFailure must be called with mu held.
func (cb *CircuitBreaker) onFailure(err error) {
	cb.failureCount++
	cb.lastErr = err

	if cb.state == StateClosed && cb.failureCount >= cb.failureThreshold {
		cb.state = StateOpen
		cb.metrics.RecordCircuitBreakerStateChange(cb.name, StateClosed, StateOpen)

		cb.logger.Error().
			Str("circuit_breaker", cb.name).
			Int("consecutive_failures", cb.failureCount).
			Err(err).
			Msg("Circuit breaker opened, vendor transport considered unavailable")
	}
}
