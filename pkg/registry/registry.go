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

// Package registry loads the machine identifier list and the static lookup
// tables that enrich the report.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/carverauto/updatescout/pkg/models"
)

var (
	errEmptyPath  = errors.New("registry file path is empty")
	errNotAnArray = errors.New("identifiers file must contain a JSON array")
)

// LoadIdentifiers reads the ordered machine identifier list. Entries that are
// not JSON strings, null included, are kept as their raw text and marked so
// the batch records them as failed requests instead of rejecting the file.
func LoadIdentifiers(path string) ([]models.Identifier, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errNotAnArray, path, err)
	}

	ids := make([]models.Identifier, 0, len(raw))

	for _, item := range raw {
		item = bytes.TrimSpace(item)

		var s string
		if len(item) > 0 && item[0] == '"' {
			if err := json.Unmarshal(item, &s); err == nil {
				ids = append(ids, models.Identifier{ID: models.MachineID(s)})
				continue
			}
		}

		ids = append(ids, models.Identifier{ID: models.MachineID(item), NotString: true})
	}

	return ids, nil
}

// Machines maps machine identifiers to their registry attributes.
type Machines map[models.MachineID]models.MachineInfo

// LoadMachines reads a JSON object keyed by machine identifier.
func LoadMachines(path string) (Machines, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var out Machines
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse machines file %s: %w", path, err)
	}

	if out == nil {
		out = Machines{}
	}

	return out, nil
}

// Lookup returns the registry attributes of id.
func (m Machines) Lookup(id models.MachineID) (models.MachineInfo, bool) {
	info, ok := m[id]

	return info, ok
}

// Organizations maps organization ids to display names.
type Organizations map[string]string

// LoadOrganizations reads a JSON object of organization id to display name.
func LoadOrganizations(path string) (Organizations, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var out Organizations
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse organizations file %s: %w", path, err)
	}

	if out == nil {
		out = Organizations{}
	}

	return out, nil
}

// Name returns the display name of orgID.
func (o Organizations) Name(orgID string) (string, bool) {
	name, ok := o[orgID]

	return name, ok
}

// IDs returns every organization id in sorted order.
func (o Organizations) IDs() []string {
	ids := make([]string, 0, len(o))
	for id := range o {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	return data, nil
}
