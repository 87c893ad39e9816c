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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/notifications"
	"github.com/carverauto/updatescout/pkg/publish"
	"github.com/carverauto/updatescout/pkg/render"
	"github.com/carverauto/updatescout/pkg/serviceadvisor"
	"github.com/carverauto/updatescout/pkg/version"
)

const (
	defaultServiceAdvisorURL = "https://serviceadvisor.deere.com"
	defaultNotificationsURL  = "https://notifications.deere.com"
	defaultTimeout           = 30 * time.Second
	defaultBreakerThreshold  = 25
	defaultProgressEvery     = 50
)

// ServiceAdvisorConfig describes the vendor update API and its session.
type ServiceAdvisorConfig struct {
	BaseURL                 string               `json:"base_url"`
	SessionCookie           string               `json:"session_cookie"`
	UserAgent               string               `json:"user_agent"`
	Timeout                 models.Duration      `json:"timeout"`
	StartSessionContentType string               `json:"start_session_content_type"`
	Paths                   serviceadvisor.Paths `json:"paths"`
}

// NotificationsConfig describes the vendor notification search API.
type NotificationsConfig struct {
	BaseURL      string          `json:"base_url"`
	ClientCookie string          `json:"client_cookie"`
	UserAgent    string          `json:"user_agent"`
	Timeout      models.Duration `json:"timeout"`
	SearchPath   string          `json:"search_path"`
	Severities   []string        `json:"severities"`
}

// RegistryConfig points at the JSON registry files.
type RegistryConfig struct {
	IdentifiersFile   string `json:"identifiers_file"`
	MachinesFile      string `json:"machines_file"`
	OrganizationsFile string `json:"organizations_file"`
}

// OutputConfig selects the files written after a run. Nothing is written
// when Dir is empty.
type OutputConfig struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

// NATSConfig enables report publishing when URL is set.
type NATSConfig struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// Config is the application configuration.
type Config struct {
	ServiceAdvisor   ServiceAdvisorConfig `json:"service_advisor"`
	Notifications    NotificationsConfig  `json:"notifications"`
	CredentialsFile  string               `json:"credentials_file"`
	Registry         RegistryConfig       `json:"registry"`
	Workers          int                  `json:"workers"`
	BreakerThreshold int                  `json:"breaker_threshold"`
	ProgressEvery    int                  `json:"progress_every"`
	Output           OutputConfig         `json:"output"`
	NATS             NATSConfig           `json:"nats"`
	Logging          *logger.Config       `json:"logging,omitempty"`
}

// DefaultConfig returns the configuration used for keys absent from the
// loaded document.
func DefaultConfig() *Config {
	return &Config{
		ServiceAdvisor: ServiceAdvisorConfig{
			BaseURL:                 defaultServiceAdvisorURL,
			UserAgent:               version.UserAgent(),
			Timeout:                 models.Duration(defaultTimeout),
			StartSessionContentType: serviceadvisor.DefaultStartSessionContentType,
			Paths:                   serviceadvisor.DefaultPaths(),
		},
		Notifications: NotificationsConfig{
			BaseURL:    defaultNotificationsURL,
			UserAgent:  version.UserAgent(),
			Timeout:    models.Duration(defaultTimeout),
			SearchPath: notifications.DefaultSearchPath,
			Severities: append([]string(nil), notifications.DefaultSeverities...),
		},
		Workers:          1,
		BreakerThreshold: defaultBreakerThreshold,
		ProgressEvery:    defaultProgressEvery,
		Output: OutputConfig{
			Formats: []string{string(render.FormatJSON), string(render.FormatCSV)},
		},
		NATS: NATSConfig{
			Subject: publish.DefaultSubject,
		},
	}
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errInvalidWorkers
	}

	if c.BreakerThreshold < 0 {
		return errInvalidBreakerThreshold
	}

	if c.ProgressEvery < 0 {
		return errInvalidProgressEvery
	}

	for _, f := range c.Output.Formats {
		if !render.Format(f).Valid() {
			return fmt.Errorf("output.formats: %w: %q", render.ErrUnknownFormat, f)
		}
	}

	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return errMissingSubject
	}

	return nil
}

type credentials struct {
	RemoteUpdate struct {
		Session string `json:"SESSION"`
	} `json:"remote_update"`
	Notification struct {
		Client string `json:"client"`
	} `json:"notification"`
}

// LoadCredentials fills cookies that are not set inline from
// CredentialsFile. Inline values win.
func (c *Config) LoadCredentials() error {
	if c.CredentialsFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse credentials file %s: %w", c.CredentialsFile, err)
	}

	if c.ServiceAdvisor.SessionCookie == "" {
		c.ServiceAdvisor.SessionCookie = creds.RemoteUpdate.Session
	}

	if c.Notifications.ClientCookie == "" {
		c.Notifications.ClientCookie = creds.Notification.Client
	}

	return nil
}
