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

// Package scout wires the registry, vendor transport, batch orchestrator,
// report and outputs into the two application commands.
package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/metrics"
	"github.com/carverauto/updatescout/pkg/publish"
	"github.com/carverauto/updatescout/pkg/registry"
	"github.com/carverauto/updatescout/pkg/render"
	"github.com/carverauto/updatescout/pkg/report"
	"github.com/carverauto/updatescout/pkg/serviceadvisor"
	"github.com/carverauto/updatescout/pkg/vendorapi"
)

const (
	serviceAdvisorName = "service_advisor"
	reportBaseName     = "remote_update_report"
	failuresFileName   = "remote_update_failures.json"
	publishTimeout     = 15 * time.Second
)

// Outcome is everything an updates run produced.
type Outcome struct {
	Result  *batch.Result
	Report  *report.Report
	Files   []string
	Metrics map[string]interface{}
}

// Run resolves every registered machine, aggregates the report, writes the
// configured outputs and optionally publishes the report. When the batch
// stops early the partial outcome is still rendered and returned along with
// the error.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Outcome, error) {
	log = log.WithComponent("scout")

	if err := cfg.LoadCredentials(); err != nil {
		return nil, err
	}

	if cfg.Registry.IdentifiersFile == "" {
		return nil, errMissingIdentifiersFile
	}

	if cfg.ServiceAdvisor.BaseURL == "" {
		return nil, errMissingServiceAdvisor
	}

	if cfg.ServiceAdvisor.SessionCookie == "" {
		return nil, errMissingSessionCookie
	}

	ids, err := registry.LoadIdentifiers(cfg.Registry.IdentifiersFile)
	if err != nil {
		return nil, err
	}

	machines, orgs, err := loadLookups(&cfg.Registry)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("machines", len(ids)).
		Int("registered", len(machines)).
		Int("organizations", len(orgs)).
		Msg("Registry loaded")

	m := metrics.NewInMemoryMetrics(log)

	orch, err := newOrchestrator(cfg, log, m)
	if err != nil {
		return nil, err
	}

	result, runErr := orch.Run(ctx, ids)
	if result == nil {
		return nil, runErr
	}

	out := &Outcome{
		Result:  result,
		Report:  report.Aggregate(result, machines, orgs),
		Metrics: m.GetMetrics(),
	}

	files, err := writeOutputs(&cfg.Output, out)
	out.Files = files

	if err != nil {
		return out, errors.Join(runErr, err)
	}

	if cfg.NATS.URL != "" {
		// Publishing still happens for a cancelled run.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := publishReport(pubCtx, &cfg.NATS, out.Report, log); err != nil {
			return out, errors.Join(runErr, err)
		}
	}

	log.Info().
		Interface("metrics", out.Metrics).
		Msg("Run metrics")

	return out, runErr
}

func newOrchestrator(cfg *Config, log logger.Logger, m metrics.Metrics) (*batch.Orchestrator, error) {
	sa := &cfg.ServiceAdvisor

	client, err := vendorapi.NewClient(&vendorapi.ClientConfig{
		Service: serviceAdvisorName,
		BaseURL: sa.BaseURL,
		Cookies: map[string]string{
			"SESSION":  sa.SessionCookie,
			"at_check": "true",
		},
		UserAgent: sa.UserAgent,
		Timeout:   time.Duration(sa.Timeout),
	}, log, m)
	if err != nil {
		return nil, err
	}

	transport := vendorapi.NewCircuitBreaker(serviceAdvisorName, client, cfg.BreakerThreshold, log, m)
	resolver := serviceadvisor.NewResolver(transport, sa.Paths, sa.StartSessionContentType, log)

	opts := []batch.Option{
		batch.WithWorkers(cfg.Workers),
		batch.WithMetrics(m),
	}

	if cfg.ProgressEvery > 0 {
		opts = append(opts, batch.WithObserver(batch.NewProgressLogger(log, cfg.ProgressEvery)))
	}

	return batch.NewOrchestrator(resolver, log, opts...), nil
}

func loadLookups(cfg *RegistryConfig) (registry.Machines, registry.Organizations, error) {
	machines := registry.Machines{}
	orgs := registry.Organizations{}

	var err error

	if cfg.MachinesFile != "" {
		if machines, err = registry.LoadMachines(cfg.MachinesFile); err != nil {
			return nil, nil, err
		}
	}

	if cfg.OrganizationsFile != "" {
		if orgs, err = registry.LoadOrganizations(cfg.OrganizationsFile); err != nil {
			return nil, nil, err
		}
	}

	return machines, orgs, nil
}

func writeOutputs(cfg *OutputConfig, out *Outcome) ([]string, error) {
	if cfg.Dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var files []string

	for _, name := range cfg.Formats {
		format := render.Format(name)
		path := filepath.Join(cfg.Dir, reportBaseName+format.Extension())

		if err := writeFile(path, func(f *os.File) error {
			return render.Write(f, format, out.Report)
		}); err != nil {
			return files, err
		}

		files = append(files, path)
	}

	path := filepath.Join(cfg.Dir, failuresFileName)
	if err := writeFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")

		return enc.Encode(out.Result.Failures)
	}); err != nil {
		return files, err
	}

	return append(files, path), nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

func publishReport(ctx context.Context, cfg *NATSConfig, rep *report.Report, log logger.Logger) error {
	p, err := publish.NewNATSPublisher(cfg.URL, cfg.Subject, log)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.PublishReport(ctx, rep)
}
