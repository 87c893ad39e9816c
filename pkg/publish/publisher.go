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

// Package publish announces finished reports on NATS.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/report"
)

const (
	DefaultSubject = "updatescout.report"
	connectTimeout = 10 * time.Second
	clientName     = "updatescout"
)

var (
	errMissingURL     = errors.New("nats url is required")
	errMissingSubject = errors.New("nats subject is required")
)

// Conn is the subset of *nats.Conn used by Publisher.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher sends report messages to a single subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  logger.Logger
}

// NewNATSPublisher connects to url and returns a Publisher for subject.
func NewNATSPublisher(url, subject string, log logger.Logger, opts ...nats.Option) (*Publisher, error) {
	if url == "" {
		return nil, errMissingURL
	}

	log = log.WithComponent("publish")

	opts = append([]nats.Option{
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")

	return NewPublisher(nc, subject, log)
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string, log logger.Logger) (*Publisher, error) {
	if subject == "" {
		return nil, errMissingSubject
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  log,
	}, nil
}

// PublishReport publishes rep and waits for the server to acknowledge the
// flush or ctx to end.
func (p *Publisher) PublishReport(ctx context.Context, rep *report.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish report to %s: %w", p.subject, err)
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush report to %s: %w", p.subject, err)
	}

	p.logger.Info().
		Str("subject", p.subject).
		Str("run_id", rep.RunID).
		Int("bytes", len(data)).
		Int("opportunities", len(rep.Opportunities)).
		Msg("Published report")

	return nil
}

// Close closes the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
