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

package models

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrEmptyMachineID   = errors.New("machine identifier is empty")
	ErrInvalidMachineID = errors.New("machine identifier contains invalid characters")
	ErrNotAString       = errors.New("machine identifier is not a string")
)

// MachineID is the vendor product identification number (PIN) of a machine.
type MachineID string

// Validate reports whether the identifier can be placed in a request path.
func (id MachineID) Validate() error {
	if id == "" {
		return ErrEmptyMachineID
	}

	if strings.ContainsAny(string(id), "/?#%\"{}[]") {
		return ErrInvalidMachineID
	}

	for _, r := range string(id) {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidMachineID
		}
	}

	return nil
}

func (id MachineID) String() string { return string(id) }

// Identifier is one entry of the identifier list. An entry that was not a
// JSON string keeps its raw JSON text in ID and is never queried.
type Identifier struct {
	ID        MachineID
	NotString bool
}

// Identifiers wraps string identifiers.
func Identifiers(ids ...MachineID) []Identifier {
	out := make([]Identifier, len(ids))
	for i, id := range ids {
		out[i] = Identifier{ID: id}
	}

	return out
}

// Validate reports whether the entry can be queried.
func (i Identifier) Validate() error {
	if i.NotString {
		return ErrNotAString
	}

	return i.ID.Validate()
}

// MachineInfo holds the static registry attributes of a machine.
type MachineInfo struct {
	Model          string `json:"model"`
	OrganizationID string `json:"organization_id"`
}

// MachineSession is the capability/authorization context gathered for one
// machine. Fields stay unknown when the session lookup failed.
type MachineSession struct {
	MachineID             MachineID `json:"pin"`
	SessionID             *string   `json:"-"`
	RemoteCapable         Tristate  `json:"remote_capable"`
	CapabilityDescription *string   `json:"capability_description"`
	Authorized            Tristate  `json:"is_authorized"`
}

// UnknownSession returns a session with every field unknown.
func UnknownSession(id MachineID) MachineSession {
	return MachineSession{MachineID: id}
}
