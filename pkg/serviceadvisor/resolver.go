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

// Package serviceadvisor resolves the controller software update status of
// individual machines against the vendor's service advisor API.
package serviceadvisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/vendorapi"
)

const (
	pinPlaceholder     = "{pin}"
	sessionPlaceholder = "{session}"

	endpointStartSession    = "start_session"
	endpointAuthorization   = "authorization"
	endpointSoftwareUpdates = "software_updates"

	// DefaultStartSessionContentType is the media type the session endpoint expects.
	DefaultStartSessionContentType = "application/vnd.johndeere.sa.startSession.v1+json"
)

// Paths are the endpoint paths relative to the vendor base URL. {pin} and
// {session} are substituted; a software update path without {pin} gets the
// identifier appended.
type Paths struct {
	StartSession    string `json:"start_session"`
	Authorization   string `json:"authorization"`
	SoftwareUpdates string `json:"software_updates"`
}

// DefaultPaths returns the service advisor endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		StartSession:    "/SAWeb/services/startSession/",
		Authorization:   "/SAWeb/services/remoteReprogramming/authorization/{session}",
		SoftwareUpdates: "/SAWeb/services/controllerSoftwareUpdates/{pin}",
	}
}

// MachineResult is everything learned about one machine.
type MachineResult struct {
	MachineID models.MachineID
	Session   models.MachineSession
	Entries   []models.UpdateEntry
	Failures  []failures.Record
	Duration  time.Duration
}

// Kinds returns the failure kinds recorded for the machine, in order.
func (r *MachineResult) Kinds() []failures.Kind {
	kinds := make([]failures.Kind, 0, len(r.Failures))
	for _, f := range r.Failures {
		kinds = append(kinds, f.Kind)
	}

	return kinds
}

func (r *MachineResult) fail(kind failures.Kind, err error) {
	r.Failures = append(r.Failures, failures.New(kind, r.MachineID, err))
}

// Resolver runs the per-machine pipeline: session start, authorization
// check, update-list fetch and per-record parsing. The session and update
// steps have independent failure domains.
type Resolver struct {
	transport   vendorapi.Transport
	paths       Paths
	contentType string
	logger      logger.Logger
	tracer      trace.Tracer
}

// NewResolver creates a Resolver. Empty paths fall back to DefaultPaths.
func NewResolver(transport vendorapi.Transport, paths Paths, contentType string, log logger.Logger) *Resolver {
	defaults := DefaultPaths()

	if paths.StartSession == "" {
		paths.StartSession = defaults.StartSession
	}

	if paths.Authorization == "" {
		paths.Authorization = defaults.Authorization
	}

	if paths.SoftwareUpdates == "" {
		paths.SoftwareUpdates = defaults.SoftwareUpdates
	}

	if contentType == "" {
		contentType = DefaultStartSessionContentType
	}

	return &Resolver{
		transport:   transport,
		paths:       paths,
		contentType: contentType,
		logger:      log.WithComponent("resolver"),
		tracer:      otel.Tracer("github.com/carverauto/updatescout/pkg/serviceadvisor"),
	}
}

// Resolve gathers the session and update entries of one machine. Per-machine
// problems are reported in MachineResult.Failures; the returned error is set
// only when the shared transport is unusable.
func (r *Resolver) Resolve(ctx context.Context, id models.Identifier) (*MachineResult, error) {
	start := time.Now()
	pin := id.ID

	ctx, span := r.tracer.Start(ctx, "serviceadvisor.Resolve",
		trace.WithAttributes(attribute.String("machine.pin", pin.String())))
	defer span.End()

	result := &MachineResult{
		MachineID: pin,
		Session:   models.UnknownSession(pin),
	}

	if err := id.Validate(); err != nil {
		result.fail(failures.RequestFail, err)
		result.Duration = time.Since(start)

		return result, nil
	}

	session, err := r.resolveSession(ctx, pin)
	if vendorapi.IsCatastrophic(err) {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err != nil {
		result.fail(failures.MachineInfoMissing, err)
		r.logger.Debug().Str("pin", pin.String()).Err(err).Msg("Machine info unavailable")
	}

	result.Session = session

	if err := r.resolveUpdates(ctx, result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("machine.entries", len(result.Entries)),
		attribute.Int("machine.failures", len(result.Failures)),
	)

	result.Duration = time.Since(start)

	return result, nil
}

// resolveSession returns a fully unknown session on any failure, except that
// a failed authorization check keeps the capability fields of the session.
func (r *Resolver) resolveSession(ctx context.Context, pin models.MachineID) (models.MachineSession, error) {
	session := models.UnknownSession(pin)

	started, err := r.startSession(ctx, pin)
	if err != nil {
		return session, err
	}

	session.SessionID = started.SessionID
	session.RemoteCapable = models.TristateOf(started.RemoteCapable)
	session.CapabilityDescription = started.RemoteCapabilityDescription

	authorized, err := r.authorization(ctx, *started.SessionID)
	session.Authorized = authorized

	return session, err
}

func (r *Resolver) startSession(ctx context.Context, pin models.MachineID) (*StartSessionResponse, error) {
	ctx = vendorapi.WithEndpoint(ctx, endpointStartSession)

	resp, err := r.transport.Post(ctx, r.paths.StartSession, r.contentType, StartSessionRequest{PIN: pin.String()})
	if err != nil {
		return nil, err
	}

	if err := vendorapi.CheckStatus(http.MethodPost, r.paths.StartSession, resp); err != nil {
		return nil, err
	}

	var started StartSessionResponse
	if err := json.Unmarshal(resp.Body, &started); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	if started.SessionID == nil || *started.SessionID == "" {
		return nil, ErrMissingSessionID
	}

	return &started, nil
}

// authorization maps 2xx to authorized and 403 to not authorized. Anything
// else leaves the flag unknown.
func (r *Resolver) authorization(ctx context.Context, sessionID string) (models.Tristate, error) {
	ctx = vendorapi.WithEndpoint(ctx, endpointAuthorization)
	path := strings.ReplaceAll(r.paths.Authorization, sessionPlaceholder, url.PathEscape(sessionID))

	resp, err := r.transport.Get(ctx, path)
	if err != nil {
		return models.Unknown, err
	}

	if resp.StatusCode == http.StatusForbidden {
		return models.False, nil
	}

	if err := vendorapi.CheckStatus(http.MethodGet, path, resp); err != nil {
		return models.Unknown, err
	}

	return models.True, nil
}

func (r *Resolver) updatesPath(pin models.MachineID) string {
	escaped := url.PathEscape(pin.String())

	if strings.Contains(r.paths.SoftwareUpdates, pinPlaceholder) {
		return strings.ReplaceAll(r.paths.SoftwareUpdates, pinPlaceholder, escaped)
	}

	return r.paths.SoftwareUpdates + escaped
}

// resolveUpdates fills result.Entries. It returns an error only for
// catastrophic transport failures.
func (r *Resolver) resolveUpdates(ctx context.Context, result *MachineResult) error {
	ctx = vendorapi.WithEndpoint(ctx, endpointSoftwareUpdates)
	path := r.updatesPath(result.MachineID)

	resp, err := r.transport.Get(ctx, path)
	if vendorapi.IsCatastrophic(err) {
		return err
	}

	if err == nil {
		err = vendorapi.CheckStatus(http.MethodGet, path, resp)
	}

	if err != nil {
		result.fail(failures.RequestFail, err)
		r.logger.Debug().Str("pin", result.MachineID.String()).Err(err).Msg("Update list request failed")

		return nil
	}

	records, err := UpdateList(resp.Body)
	if err != nil {
		result.fail(failures.MainParseError, err)
		r.logger.Debug().Str("pin", result.MachineID.String()).Err(err).Msg("Update list unreadable")

		return nil
	}

	for idx, raw := range records {
		entry, err := ParseUpdate(result.MachineID, raw)
		if err != nil {
			result.Failures = append(result.Failures,
				failures.New(failures.InParseError, result.MachineID, err).AtIndex(idx, raw))

			continue
		}

		if entry.HasUnknown() {
			result.Failures = append(result.Failures,
				failures.New(failures.MissingValue, result.MachineID, nil).AtIndex(idx, raw))
		}

		result.Entries = append(result.Entries, entry)
	}

	if len(result.Entries) == 0 {
		result.fail(failures.EmptyPIN, nil)
	}

	return nil
}
