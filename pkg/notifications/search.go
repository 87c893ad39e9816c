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

// Package notifications queries the vendor notification search endpoint for
// events raised against a set of organizations.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/vendorapi"
)

const (
	DefaultSearchPath = "/notifications/search"
	endpointSearch    = "search"
	dateLayout        = "2006-01-02"
)

// DefaultSeverities is used when a query names none.
var DefaultSeverities = []string{"HIGH"}

var (
	ErrInvalidRange    = errors.New("created_after must not be later than created_before")
	ErrNoOrganizations = errors.New("at least one organization id is required")
	ErrMalformedResult = errors.New("malformed notification search response")
)

// Query selects notifications by creation day and organization.
type Query struct {
	// CreatedAfter and CreatedBefore are inclusive whole days in UTC.
	CreatedAfter  time.Time
	CreatedBefore time.Time
	OrgIDs        []string
	Severities    []string
}

// Validate checks that the query can be sent.
func (q *Query) Validate() error {
	if len(q.OrgIDs) == 0 {
		return ErrNoOrganizations
	}

	if day(q.CreatedAfter).After(day(q.CreatedBefore)) {
		return ErrInvalidRange
	}

	return nil
}

type searchRequest struct {
	TargetResources      []string `json:"targetResources"`
	TargetResourceOrgIDs []string `json:"targetResourceOrgIds"`
	EventTypes           []string `json:"eventTypes"`
	Severities           []string `json:"severities"`
}

// Result is the raw search response and the number of notifications in it.
type Result struct {
	Raw   json.RawMessage
	Count int
}

// Searcher issues notification searches over a vendor transport.
type Searcher struct {
	transport vendorapi.Transport
	path      string
	logger    logger.Logger
}

// NewSearcher creates a Searcher. An empty path uses DefaultSearchPath.
func NewSearcher(transport vendorapi.Transport, path string, log logger.Logger) *Searcher {
	if path == "" {
		path = DefaultSearchPath
	}

	return &Searcher{
		transport: transport,
		path:      path,
		logger:    log.WithComponent("notifications"),
	}
}

// Search runs q and returns the response body.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	severities := q.Severities
	if len(severities) == 0 {
		severities = DefaultSeverities
	}

	payload := searchRequest{
		TargetResources:      []string{},
		TargetResourceOrgIDs: q.OrgIDs,
		EventTypes:           []string{},
		Severities:           severities,
	}

	path := s.path + "?" + searchParams(q).Encode()

	s.logger.Info().
		Str("created_after", day(q.CreatedAfter).Format(dateLayout)).
		Str("created_before", day(q.CreatedBefore).Format(dateLayout)).
		Int("organizations", len(q.OrgIDs)).
		Strs("severities", severities).
		Msg("Searching notifications")

	resp, err := s.transport.Post(vendorapi.WithEndpoint(ctx, endpointSearch), path, "application/json", payload)
	if err != nil {
		return nil, err
	}

	if err := vendorapi.CheckStatus(http.MethodPost, s.path, resp); err != nil {
		return nil, err
	}

	count, err := countNotifications(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("notifications", count).Msg("Notification search finished")

	return &Result{Raw: json.RawMessage(bytes.TrimSpace(resp.Body)), Count: count}, nil
}

func searchParams(q Query) url.Values {
	v := url.Values{}
	v.Set("createdAfter", day(q.CreatedAfter).Format(dateLayout)+"T00:00:00.000Z")
	v.Set("createdBefore", day(q.CreatedBefore).Format(dateLayout)+"T23:59:59.999Z")

	return v
}

func day(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// countNotifications accepts either a bare array or an object carrying the
// array under "items" or "notifications". An object without either counts
// as zero.
func countNotifications(body []byte) (int, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedResult, err)
		}

		return len(list), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	for _, key := range []string{"items", "notifications"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}

		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return 0, fmt.Errorf("%w: %q is not an array", ErrMalformedResult, key)
		}

		return len(list), nil
	}

	return 0, nil
}
