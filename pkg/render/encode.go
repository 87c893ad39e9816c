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

package render

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/report"
)

// Format names an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV}
}

// Valid reports whether f is a supported encoding.
func (f Format) Valid() bool {
	switch f {
	case FormatTable, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Extension is the file suffix used when writing f to disk.
func (f Format) Extension() string {
	if f == FormatTable {
		return ".txt"
	}

	return "." + string(f)
}

// Write encodes rep to w in format f.
func Write(w io.Writer, f Format, rep *report.Report) error {
	switch f {
	case FormatTable:
		return Table(w, rep, rep.Summary)
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatCSV:
		return WriteCSV(w, rep.Opportunities)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteJSON writes the whole report as indented JSON.
func WriteJSON(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rep)
}

var csvHeader = []string{
	"organization_name",
	"organization_id",
	"model",
	"pin",
	"controller",
	"title",
	"description",
	"current_version",
	"available_version",
	"update_available",
	"remote_update",
	"remote_capable",
	"capability_description",
	"is_authorized",
}

// WriteCSV writes one row per opportunity. Unknown values are empty cells.
func WriteCSV(w io.Writer, records []models.OpportunityRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]

		row := []string{
			cell(rec.OrganizationName),
			cell(rec.OrganizationID),
			cell(rec.Model),
			rec.MachineID.String(),
			rec.Controller,
			cell(rec.Title),
			cell(rec.Description),
			cell(rec.CurrentVersion),
			cell(rec.AvailableVersion),
			strconv.FormatBool(rec.UpdateAvailable),
			tristateCell(rec.RemoteCertified),
			tristateCell(rec.RemoteCapable),
			cell(rec.CapabilityDescription),
			tristateCell(rec.Authorized),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func cell(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func tristateCell(t models.Tristate) string {
	if !t.IsKnown() {
		return ""
	}

	return t.String()
}
