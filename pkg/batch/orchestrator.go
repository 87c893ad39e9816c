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

// Package batch drives machine resolution across a fleet and accumulates
// the results of one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/metrics"
	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/serviceadvisor"
)

// ErrBatchAborted wraps the transport error that stopped a run.
var ErrBatchAborted = errors.New("batch aborted")

// Orchestrator resolves every identifier with a bounded number of workers.
// One worker gives strictly sequential processing.
type Orchestrator struct {
	resolver  MachineResolver
	workers   int
	observers []Observer
	metrics   metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the worker count. Values below one mean one.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}

		o.workers = n
	}
}

// WithObserver registers a progress observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(resolver MachineResolver, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		workers:  1,
		metrics:  &metrics.NoOpMetrics{},
		logger:   log.WithComponent("batch"),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run resolves ids. A single machine's failure never stops the run; only a
// catastrophic transport error or ctx cancellation does. In both cases the
// returned Result holds every machine completed so far and the error is
// non-nil.
func (o *Orchestrator) Run(ctx context.Context, ids []models.Identifier) (*Result, error) {
	start := o.now()
	runID := uuid.NewString()

	o.logger.Info().
		Str("run_id", runID).
		Int("machines", len(ids)).
		Int("workers", o.workers).
		Msg("Starting batch")

	slots := make([]*serviceadvisor.MachineResult, len(ids))

	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

dispatch:
	for i, id := range ids {
		i, id := i, id
		select {
		case <-gctx.Done():
			break dispatch
		default:
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			res, err := o.resolver.Resolve(gctx, id)
			if err != nil {
				return fmt.Errorf("%w at %s: %w", ErrBatchAborted, id.ID, err)
			}

			// A machine interrupted by cancellation may carry failures that
			// are artifacts of the cancellation itself.
			if gctx.Err() != nil {
				return nil
			}

			o.metrics.RecordMachineResolved(res.Duration, res.Kinds())

			mu.Lock()
			slots[i] = res
			completed++
			done := completed
			mu.Unlock()

			for _, obs := range o.observers {
				obs.MachineCompleted(done, len(ids), res)
			}

			return nil
		})
	}

	runErr := g.Wait()
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	result := assemble(runID, start, len(ids), slots)
	result.Duration = o.now().Sub(start)
	result.Complete = runErr == nil && len(result.Machines) == len(ids)

	o.metrics.RecordBatchCompleted(len(result.Machines), len(result.Entries), result.Duration)

	if runErr != nil {
		o.logger.Error().
			Str("run_id", runID).
			Err(runErr).
			Int("completed", len(result.Machines)).
			Int("requested", len(ids)).
			Msg("Batch stopped early, partial results kept")

		return result, runErr
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("entries", len(result.Entries)).
		Int("failures", result.Failures.Len()).
		Dur("duration", result.Duration).
		Msg("Batch finished")

	return result, nil
}

// assemble merges per-machine results in input order. Unfinished slots are skipped.
func assemble(runID string, start time.Time, requested int, slots []*serviceadvisor.MachineResult) *Result {
	result := &Result{
		RunID:     runID,
		StartedAt: start,
		Requested: requested,
		Sessions:  make(map[models.MachineID]models.MachineSession, len(slots)),
		Entries:   make([]models.UpdateEntry, 0),
		Failures:  failures.NewBucket(),
	}

	for _, res := range slots {
		if res == nil {
			continue
		}

		result.Machines = append(result.Machines, res.MachineID)
		result.Sessions[res.MachineID] = res.Session
		result.Entries = append(result.Entries, res.Entries...)
		result.Failures.Add(res.Failures...)
	}

	return result
}
