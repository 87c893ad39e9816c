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

package batch

import (
	"time"

	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/models"
)

// Result is the outcome of one run. Machines, Entries and the failure
// records of each kind follow input order.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	// Requested is the number of identifiers handed to the run.
	Requested int
	// Machines lists the identifiers that completed resolution, once per
	// occurrence in the input.
	Machines []models.MachineID
	// Sessions holds one session per distinct identifier. A repeated
	// identifier keeps the session of its last occurrence in input order.
	Sessions map[models.MachineID]models.MachineSession
	Entries  []models.UpdateEntry
	Failures *failures.Bucket
	// Complete is false when the run stopped before every identifier was resolved.
	Complete bool
}

// Summary holds the batch statistics. Every field is derived from Result.
type Summary struct {
	MachinesSearched            int `json:"machines_searched"`
	MachinesCompleted           int `json:"machines_completed"`
	RequestsFailed              int `json:"requests_failed"`
	MachinesWithoutSoftwareInfo int `json:"machines_without_software_info"`
	MachinesWithUnreadableData  int `json:"machines_with_unreadable_data"`
	MachinesMissingInfo         int `json:"machines_missing_info"`
	MachinesLackingRemote       int `json:"machines_lacking_remote_capability"`
	SoftwareInstances           int `json:"software_instances"`
	InstancesWithMissingValues  int `json:"instances_with_missing_values"`
	InstancesUnreadable         int `json:"instances_unreadable"`
	UpdatesAvailable            int `json:"updates_available"`
	RemoteOpportunities         int `json:"remote_reprogramming_opportunities"`
}

// Summary folds the result into batch statistics.
func (r *Result) Summary() Summary {
	s := Summary{
		MachinesSearched:            r.Requested,
		MachinesCompleted:           len(r.Machines),
		RequestsFailed:              r.Failures.Count(failures.RequestFail),
		MachinesWithoutSoftwareInfo: r.Failures.Count(failures.EmptyPIN),
		MachinesWithUnreadableData:  r.Failures.Count(failures.MainParseError),
		MachinesMissingInfo:         r.Failures.Count(failures.MachineInfoMissing),
		SoftwareInstances:           len(r.Entries),
		InstancesWithMissingValues:  r.Failures.Count(failures.MissingValue),
		InstancesUnreadable:         r.Failures.Count(failures.InParseError),
	}

	seen := make(map[models.MachineID]struct{}, len(r.Machines))

	for _, id := range r.Machines {
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		if r.Sessions[id].RemoteCapable == models.False {
			s.MachinesLackingRemote++
		}
	}

	for i := range r.Entries {
		if r.Entries[i].UpdateAvailable {
			s.UpdatesAvailable++
		}

		if r.Entries[i].RemoteOpportunity() {
			s.RemoteOpportunities++
		}
	}

	return s
}

// Opportunities returns the entries with an available update merged with
// their machine session, in input order.
func (r *Result) Opportunities() []models.OpportunityRecord {
	out := make([]models.OpportunityRecord, 0)

	for _, entry := range r.Entries {
		if !entry.UpdateAvailable {
			continue
		}

		session, ok := r.Sessions[entry.MachineID]
		if !ok {
			session = models.UnknownSession(entry.MachineID)
		}

		out = append(out, models.NewOpportunity(entry, session))
	}

	return out
}
