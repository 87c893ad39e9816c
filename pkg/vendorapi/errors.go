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
	"errors"
	"fmt"
)

var (
	// ErrSessionRejected is returned when the vendor refuses the session
	// credentials. Every further request would fail the same way.
	ErrSessionRejected = errors.New("vendor session rejected")
	// ErrCircuitOpen is returned once the transport has failed too many
	// times in a row.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	errMissingBaseURL = errors.New("base_url is required")
	errInvalidBaseURL = errors.New("base_url must be an absolute http(s) URL")
)

// IsCatastrophic reports whether err means the shared transport itself is
// unusable, as opposed to a failure specific to one request.
func IsCatastrophic(err error) bool {
	return errors.Is(err, ErrSessionRejected) || errors.Is(err, ErrCircuitOpen)
}

// StatusError describes a non-2xx answer.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d, response: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

const maxErrorBody = 512

// CheckStatus returns a *StatusError when resp is not 2xx.
func CheckStatus(method, path string, resp *Response) error {
	if resp.OK() {
		return nil
	}

	body := string(resp.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: body}
}
