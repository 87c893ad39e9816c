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

// Package metrics collects run-level counters for vendor API calls and
// machine resolution.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/logger"
)

// Metrics defines the interface for collecting run metrics
type Metrics interface {
	// API metrics
	RecordAPICall(service, endpoint string)
	RecordAPISuccess(service, endpoint string, duration time.Duration)
	RecordAPIFailure(service, endpoint string, statusCode int, duration time.Duration)

	// Circuit breaker metrics
	RecordCircuitBreakerStateChange(name string, oldState, newState fmt.Stringer)

	// Resolution metrics
	RecordMachineResolved(duration time.Duration, kinds []failures.Kind)
	RecordBatchCompleted(machines, entries int, duration time.Duration)

	// Export metrics for monitoring systems
	GetMetrics() map[string]interface{}
}

// NoOpMetrics provides a no-op implementation of the Metrics interface
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordAPICall(_, _ string)                                   {}
func (*NoOpMetrics) RecordAPISuccess(_, _ string, _ time.Duration)               {}
func (*NoOpMetrics) RecordAPIFailure(_, _ string, _ int, _ time.Duration)        {}
func (*NoOpMetrics) RecordCircuitBreakerStateChange(_ string, _, _ fmt.Stringer) {}
func (*NoOpMetrics) RecordMachineResolved(_ time.Duration, _ []failures.Kind)    {}
func (*NoOpMetrics) RecordBatchCompleted(_, _ int, _ time.Duration)              {}
func (*NoOpMetrics) GetMetrics() map[string]interface{}                          { return map[string]interface{}{} }

// InMemoryMetrics provides an in-memory implementation of the Metrics interface
type InMemoryMetrics struct {
	mu     sync.RWMutex
	logger logger.Logger

	// API metrics
	apiCalls       map[string]int
	apiSuccess     map[string]int
	apiFailures    map[string]int
	apiStatusCodes map[int]int
	apiDuration    map[string]time.Duration

	// Circuit breaker metrics
	circuitBreakerStates map[string]string

	// Resolution metrics
	machinesResolved int
	resolveTotal     time.Duration
	resolveMax       time.Duration
	failureKinds     map[failures.Kind]int
	batchMachines    int
	batchEntries     int
	batchDuration    time.Duration
	lastUpdated      time.Time
}

// NewInMemoryMetrics creates a new in-memory metrics collector
func NewInMemoryMetrics(log logger.Logger) *InMemoryMetrics {
	return &InMemoryMetrics{
		logger:               log,
		apiCalls:             make(map[string]int),
		apiSuccess:           make(map[string]int),
		apiFailures:          make(map[string]int),
		apiStatusCodes:       make(map[int]int),
		apiDuration:          make(map[string]time.Duration),
		circuitBreakerStates: make(map[string]string),
		failureKinds:         make(map[failures.Kind]int),
		lastUpdated:          time.Now(),
	}
}

func (m *InMemoryMetrics) RecordAPICall(service, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiCalls[service+":"+endpoint]++
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordAPISuccess(service, endpoint string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := service + ":" + endpoint
	m.apiSuccess[key]++
	m.apiDuration[key] += duration
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordAPIFailure(service, endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := service + ":" + endpoint
	m.apiFailures[key]++
	m.apiStatusCodes[statusCode]++
	m.apiDuration[key] += duration
	m.lastUpdated = time.Now()

	m.logger.Debug().
		Str("service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("API call failed")
}

func (m *InMemoryMetrics) RecordCircuitBreakerStateChange(name string, oldState, newState fmt.Stringer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerStates[name] = newState.String()
	m.lastUpdated = time.Now()

	m.logger.Info().
		Str("circuit_breaker", name).
		Str("old_state", oldState.String()).
		Str("new_state", newState.String()).
		Msg("Circuit breaker state changed")
}

func (m *InMemoryMetrics) RecordMachineResolved(duration time.Duration, kinds []failures.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.machinesResolved++
	m.resolveTotal += duration

	if duration > m.resolveMax {
		m.resolveMax = duration
	}

	for _, k := range kinds {
		m.failureKinds[k]++
	}

	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordBatchCompleted(machines, entries int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchMachines = machines
	m.batchEntries = entries
	m.batchDuration = duration
	m.lastUpdated = time.Now()

	m.logger.Info().
		Int("machines", machines).
		Int("entries", entries).
		Dur("duration", duration).
		Msg("Batch completed")
}

func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.machinesResolved > 0 {
		avg = m.resolveTotal / time.Duration(m.machinesResolved)
	}

	return map[string]interface{}{
		"api": map[string]interface{}{
			"calls":        copyCounts(m.apiCalls),
			"successes":    copyCounts(m.apiSuccess),
			"failures":     copyCounts(m.apiFailures),
			"status_codes": copyCounts(m.apiStatusCodes),
			"durations":    copyCounts(m.apiDuration),
		},
		"circuit_breakers": copyCounts(m.circuitBreakerStates),
		"resolution": map[string]interface{}{
			"machines":      m.machinesResolved,
			"avg_duration":  avg,
			"max_duration":  m.resolveMax,
			"failure_kinds": copyCounts(m.failureKinds),
		},
		"batch": map[string]interface{}{
			"machines":     m.batchMachines,
			"entries":      m.batchEntries,
			"duration":     m.batchDuration,
			"last_updated": m.lastUpdated,
		},
	}
}

func copyCounts[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
