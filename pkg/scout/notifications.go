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

package scout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/metrics"
	"github.com/carverauto/updatescout/pkg/notifications"
	"github.com/carverauto/updatescout/pkg/registry"
	"github.com/carverauto/updatescout/pkg/vendorapi"
)

const (
	notificationsName     = "notifications"
	notificationsFileName = "notifications_output.json"
)

// NotificationsOutcome is the result of a notification search.
type NotificationsOutcome struct {
	Result *notifications.Result
	File   string
}

// SearchNotifications queries notifications created between the two days
// (inclusive) for every organization in the registry and saves the response
// under the output directory.
func SearchNotifications(ctx context.Context, cfg *Config, createdAfter, createdBefore time.Time, log logger.Logger) (*NotificationsOutcome, error) {
	log = log.WithComponent("scout")

	if err := cfg.LoadCredentials(); err != nil {
		return nil, err
	}

	nc := &cfg.Notifications

	if nc.BaseURL == "" {
		return nil, errMissingNotifications
	}

	if nc.ClientCookie == "" {
		return nil, errMissingClientCookie
	}

	if cfg.Registry.OrganizationsFile == "" {
		return nil, errMissingOrganizations
	}

	orgs, err := registry.LoadOrganizations(cfg.Registry.OrganizationsFile)
	if err != nil {
		return nil, err
	}

	m := metrics.NewInMemoryMetrics(log)

	client, err := vendorapi.NewClient(&vendorapi.ClientConfig{
		Service:   notificationsName,
		BaseURL:   nc.BaseURL,
		Cookies:   map[string]string{"client": nc.ClientCookie},
		UserAgent: nc.UserAgent,
		Timeout:   time.Duration(nc.Timeout),
	}, log, m)
	if err != nil {
		return nil, err
	}

	res, err := notifications.NewSearcher(client, nc.SearchPath, log).Search(ctx, notifications.Query{
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
		OrgIDs:        orgs.IDs(),
		Severities:    nc.Severities,
	})
	if err != nil {
		return nil, err
	}

	out := &NotificationsOutcome{Result: res}

	if cfg.Output.Dir == "" {
		return out, nil
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return out, fmt.Errorf("failed to create output directory: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, res.Raw, "", "    "); err != nil {
		return out, fmt.Errorf("failed to format notifications: %w", err)
	}

	path := filepath.Join(cfg.Output.Dir, notificationsFileName)
	if err := os.WriteFile(path, pretty.Bytes(), 0o600); err != nil {
		return out, fmt.Errorf("failed to write %s: %w", path, err)
	}

	out.File = path

	log.Info().Str("file", path).Int("notifications", res.Count).Msg("Notifications saved")

	return out, nil
}
