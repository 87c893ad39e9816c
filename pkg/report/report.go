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

// Package report folds a batch result into the per-organization opportunity
// report handed to renderers and publishers.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/models"
)

// OrgCount is one row of the per-organization table.
type OrgCount struct {
	OrganizationID     *string `json:"organization_id"`
	OrganizationName   *string `json:"organization_name"`
	TotalOpportunities int     `json:"total_opportunities"`
	RemoteCertified    int     `json:"remote_certified"`
	RemotelyAchievable int     `json:"remotely_achievable"`
}

// Report is the aggregated output of one batch run.
type Report struct {
	RunID         string                     `json:"run_id"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Complete      bool                       `json:"complete"`
	Summary       batch.Summary              `json:"summary"`
	Organizations []OrgCount                 `json:"organizations"`
	Opportunities []models.OpportunityRecord `json:"opportunities"`
}

// Aggregate joins every available update in result with registry and
// organization metadata and computes the per-organization counts.
// It does not modify result and always yields the same output for the same
// inputs.
func Aggregate(result *batch.Result, machines MachineLookup, orgs OrgNameLookup) *Report {
	opportunities := result.Opportunities()

	for i := range opportunities {
		enrich(&opportunities[i], machines, orgs)
	}

	// Detail rows are grouped by organization: descending display name with
	// unnamed organizations last, then organization id with unknown last.
	slices.SortStableFunc(opportunities, func(a, b models.OpportunityRecord) int {
		switch {
		case a.OrganizationName == nil && b.OrganizationName != nil:
			return 1
		case a.OrganizationName != nil && b.OrganizationName == nil:
			return -1
		case a.OrganizationName != nil:
			if c := cmp.Compare(*b.OrganizationName, *a.OrganizationName); c != 0 {
				return c
			}
		}

		return cmp.Compare(orgKey(a.OrganizationID), orgKey(b.OrganizationID))
	})

	return &Report{
		RunID:         result.RunID,
		GeneratedAt:   result.StartedAt.Add(result.Duration),
		Complete:      result.Complete,
		Summary:       result.Summary(),
		Organizations: countByOrganization(opportunities),
		Opportunities: opportunities,
	}
}

func enrich(rec *models.OpportunityRecord, machines MachineLookup, orgs OrgNameLookup) {
	if machines == nil {
		return
	}

	info, ok := machines.Lookup(rec.MachineID)
	if !ok {
		return
	}

	if info.Model != "" {
		rec.Model = models.StringPtr(info.Model)
	}

	if info.OrganizationID == "" {
		return
	}

	rec.OrganizationID = models.StringPtr(info.OrganizationID)

	if orgs == nil {
		return
	}

	if name, found := orgs.Name(info.OrganizationID); found {
		rec.OrganizationName = models.StringPtr(name)
	}
}

func countByOrganization(opportunities []models.OpportunityRecord) []OrgCount {
	index := make(map[string]int)
	rows := make([]OrgCount, 0)

	for i := range opportunities {
		rec := &opportunities[i]

		key := ""
		if rec.OrganizationID != nil {
			key = *rec.OrganizationID
		}

		pos, ok := index[key]
		if !ok {
			pos = len(rows)
			index[key] = pos
			rows = append(rows, OrgCount{
				OrganizationID:   rec.OrganizationID,
				OrganizationName: rec.OrganizationName,
			})
		}

		rows[pos].TotalOpportunities++

		if rec.RemoteCertified.IsTrue() {
			rows[pos].RemoteCertified++
		}

		if rec.RemotelyAchievable() {
			rows[pos].RemotelyAchievable++
		}
	}

	slices.SortStableFunc(rows, func(a, b OrgCount) int {
		if c := cmp.Compare(b.TotalOpportunities, a.TotalOpportunities); c != 0 {
			return c
		}

		return cmp.Compare(orgKey(a.OrganizationID), orgKey(b.OrganizationID))
	})

	return rows
}

// orgKey orders unknown organizations after known ones on ties.
func orgKey(id *string) string {
	if id == nil {
		return "\xff"
	}

	return *id
}
