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

// Package vendorapi is the cookie-session HTTP transport shared by the
// service advisor and notification clients.
package vendorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 16 << 20
	tracerName      = "github.com/carverauto/updatescout/pkg/vendorapi"
)

// ClientConfig describes one vendor host and the session presented to it.
type ClientConfig struct {
	// Service labels metrics and logs, e.g. "service_advisor".
	Service   string
	BaseURL   string
	Cookies   map[string]string
	UserAgent string
	Timeout   time.Duration
}

// Client implements Transport over net/http. Each request is attempted
// exactly once and bounded by the configured timeout.
type Client struct {
	service    string
	baseURL    string
	cookies    []*http.Cookie
	userAgent  string
	HTTPClient HTTPClient
	metrics    metrics.Metrics
	logger     logger.Logger
	tracer     trace.Tracer
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg *ClientConfig, log logger.Logger, m metrics.Metrics) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidBaseURL, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if m == nil {
		m = &metrics.NoOpMetrics{}
	}

	cookies := make([]*http.Cookie, 0, len(cfg.Cookies))
	for name, value := range cfg.Cookies {
		if value == "" {
			continue
		}

		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}

	return &Client{
		service:    cfg.Service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cookies:    cookies,
		userAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     log.WithComponent("vendorapi"),
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Get issues a GET request for path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// Post issues a POST request with payload encoded as JSON.
func (c *Client) Post(ctx context.Context, path, contentType string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	if contentType == "" {
		contentType = "application/json"
	}

	return c.do(ctx, http.MethodPost, path, contentType, body)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*Response, error) {
	endpoint := EndpointFrom(ctx)

	ctx, span := c.tracer.Start(ctx, "vendorapi."+method, trace.WithAttributes(
		attribute.String("vendor.service", c.service),
		attribute.String("vendor.endpoint", endpoint),
	))
	defer span.End()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	start := time.Now()
	c.metrics.RecordAPICall(c.service, endpoint)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.metrics.RecordAPIFailure(c.service, endpoint, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	duration := time.Since(start)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if err != nil {
		c.metrics.RecordAPIFailure(c.service, endpoint, resp.StatusCode, duration)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%s %s: failed to read response body: %w", method, path, err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: data}

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.RecordAPIFailure(c.service, endpoint, resp.StatusCode, duration)
		span.SetStatus(codes.Error, "session rejected")

		c.logger.Error().
			Str("service", c.service).
			Str("endpoint", endpoint).
			Msg("Vendor rejected the session credentials")

		return nil, fmt.Errorf("%w: %s %s returned %d", ErrSessionRejected, method, path, resp.StatusCode)
	}

	if out.OK() {
		c.metrics.RecordAPISuccess(c.service, endpoint, duration)
	} else {
		c.metrics.RecordAPIFailure(c.service, endpoint, resp.StatusCode, duration)
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status_code", resp.StatusCode).
		Int("body_bytes", len(data)).
		Dur("duration", duration).
		Msg("Vendor API call completed")

	return out, nil
}
