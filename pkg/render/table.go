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

// Package render writes an aggregated report as a console table, JSON or CSV.
package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/report"
)

const (
	maxColWidth = 48
	unknownText = "unknown"
)

// Table writes the batch summary followed by the organization and detail
// tables.
func Table(w io.Writer, rep *report.Report, summary batch.Summary) error {
	if _, err := fmt.Fprintln(w, SummaryTable(summary)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", OrganizationTable(rep.Organizations)); err != nil {
		return err
	}

	if len(rep.Opportunities) == 0 {
		_, err := fmt.Fprintln(w, "\nNo update opportunities found.")

		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n", DetailTable(rep.Opportunities))

	return err
}

// SummaryTable renders the batch counters as label/value rows.
func SummaryTable(s batch.Summary) *uitable.Table {
	table := uitable.New()
	table.RightAlign(1)

	rows := []struct {
		label string
		value int
	}{
		{"Machines searched", s.MachinesSearched},
		{"Machines completed", s.MachinesCompleted},
		{"Failed requests", s.RequestsFailed},
		{"Machines without software info", s.MachinesWithoutSoftwareInfo},
		{"Machines with unreadable data", s.MachinesWithUnreadableData},
		{"Machines missing capability info", s.MachinesMissingInfo},
		{"Machines without remote capability", s.MachinesLackingRemote},
		{"Software instances found", s.SoftwareInstances},
		{"Collected instances with missing values", s.InstancesWithMissingValues},
		{"Instances with unreadable data", s.InstancesUnreadable},
		{"Updates available", s.UpdatesAvailable},
		{"Remote reprogramming opportunities", s.RemoteOpportunities},
	}

	for _, row := range rows {
		table.AddRow(row.label+":", humanize.Comma(int64(row.value)))
	}

	return table
}

// OrganizationTable renders the per-organization counts.
func OrganizationTable(rows []report.OrgCount) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = maxColWidth

	for _, col := range []int{2, 3, 4} {
		table.RightAlign(col)
	}

	table.AddRow("ORGANIZATION", "ID", "OPPORTUNITIES", "REMOTE CERTIFIED", "REMOTELY ACHIEVABLE")

	var total, certified, achievable int

	for _, row := range rows {
		table.AddRow(
			text(row.OrganizationName),
			text(row.OrganizationID),
			humanize.Comma(int64(row.TotalOpportunities)),
			humanize.Comma(int64(row.RemoteCertified)),
			humanize.Comma(int64(row.RemotelyAchievable)),
		)

		total += row.TotalOpportunities
		certified += row.RemoteCertified
		achievable += row.RemotelyAchievable
	}

	table.AddRow("Total", "", humanize.Comma(int64(total)), humanize.Comma(int64(certified)), humanize.Comma(int64(achievable)))

	return table
}

// DetailTable renders one row per opportunity.
func DetailTable(records []models.OpportunityRecord) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.Wrap = true

	table.AddRow("ORGANIZATION", "MODEL", "PIN", "CONTROLLER", "TITLE",
		"CURRENT", "AVAILABLE", "REMOTE CERTIFIED", "REMOTE CAPABLE", "AUTHORIZED")

	for i := range records {
		rec := &records[i]
		table.AddRow(
			text(rec.OrganizationName),
			text(rec.Model),
			rec.MachineID.String(),
			rec.Controller,
			text(rec.Title),
			text(rec.CurrentVersion),
			text(rec.AvailableVersion),
			rec.RemoteCertified.String(),
			rec.RemoteCapable.String(),
			rec.Authorized.String(),
		)
	}

	return table
}

func text(s *string) string {
	if s == nil {
		return unknownText
	}

	return *s
}
