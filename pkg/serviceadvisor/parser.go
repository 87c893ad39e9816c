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

package serviceadvisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carverauto/updatescout/pkg/models"
)

const updateIDDelimiter = "^"

// ParseUpdate normalizes one raw update record. Missing optional fields map
// to unknown values; only structural problems are errors.
func ParseUpdate(pin models.MachineID, raw json.RawMessage) (models.UpdateEntry, error) {
	var rec SoftwareUpdate

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return models.UpdateEntry{}, ErrMalformedRecord
	}

	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return models.UpdateEntry{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	controller, err := controllerCode(rec.SoftwareUpdateID)
	if err != nil {
		return models.UpdateEntry{}, err
	}

	if n := len(rec.SectionDetails); n != 1 {
		return models.UpdateEntry{}, fmt.Errorf("%w, got %d", ErrUnexpectedSectionCount, n)
	}

	detail := rec.SectionDetails[0]

	return models.UpdateEntry{
		MachineID:        pin,
		Controller:       controller,
		Title:            detail.TLA,
		Description:      detail.Description,
		CurrentVersion:   detail.SoftwareVersion,
		AvailableVersion: detail.AvailableVersion,
		RemoteCertified:  models.TristateOf(rec.RemoteCertified),
		UpdateAvailable:  models.VersionsDiffer(detail.SoftwareVersion, detail.AvailableVersion),
	}, nil
}

func controllerCode(id *string) (string, error) {
	if id == nil {
		return "", fmt.Errorf("%w: field missing", ErrMalformedUpdateID)
	}

	parts := strings.Split(*id, updateIDDelimiter)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrMalformedUpdateID, *id)
	}

	return parts[1], nil
}

// UpdateList extracts the raw update records from a controllerSoftwareUpdates
// response body.
func UpdateList(body []byte) ([]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	list, ok := doc[UpdateListKey]
	if !ok {
		return nil, ErrMissingUpdateList
	}

	trimmed := bytes.TrimSpace(list)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrUpdateListNotArray
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpdateListNotArray, err)
	}

	return records, nil
}
