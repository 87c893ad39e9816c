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

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/models"
)

type machineTable map[models.MachineID]models.MachineInfo

func (m machineTable) Lookup(id models.MachineID) (models.MachineInfo, bool) {
	info, ok := m[id]
	return info, ok
}

type orgTable map[string]string

func (o orgTable) Name(id string) (string, bool) {
	name, ok := o[id]
	return name, ok
}

func entry(pin models.MachineID, controller string, available bool, certified models.Tristate) models.UpdateEntry {
	next := "1"
	if available {
		next = "2"
	}

	return models.UpdateEntry{
		MachineID:        pin,
		Controller:       controller,
		CurrentVersion:   models.StringPtr("1"),
		AvailableVersion: models.StringPtr(next),
		RemoteCertified:  certified,
		UpdateAvailable:  available,
	}
}

func session(pin models.MachineID, capable, authorized models.Tristate) models.MachineSession {
	return models.MachineSession{MachineID: pin, RemoteCapable: capable, Authorized: authorized}
}

func fixture() *batch.Result {
	return &batch.Result{
		RunID:     "run-1",
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  time.Minute,
		Requested: 4,
		Machines:  []models.MachineID{"A", "B", "C", "D"},
		Sessions: map[models.MachineID]models.MachineSession{
			"A": session("A", models.True, models.True),
			"B": session("B", models.False, models.False),
			"C": session("C", models.True, models.True),
			"D": models.UnknownSession("D"),
		},
		Entries: []models.UpdateEntry{
			entry("A", "ECU", true, models.True),
			entry("A", "TCU", false, models.True),
			entry("B", "ECU", true, models.True),
			entry("B", "HCU", true, models.False),
			entry("C", "ECU", true, models.True),
			entry("C", "TCU", true, models.Unknown),
			entry("D", "ECU", true, models.True),
		},
		Failures: failures.NewBucket(),
		Complete: true,
	}
}

var (
	machines = machineTable{
		"A": {Model: "8R", OrganizationID: "org-1"},
		"B": {Model: "9R", OrganizationID: "org-2"},
		"C": {Model: "8R", OrganizationID: "org-1"},
		"D": {Model: "S7", OrganizationID: "org-9"},
	}
	orgs = orgTable{"org-1": "Alpha Farms", "org-2": "Zeta Ag"}
)

func TestAggregate_FiltersAndJoins(t *testing.T) {
	rep := Aggregate(fixture(), machines, orgs)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC), rep.GeneratedAt)
	require.Len(t, rep.Opportunities, 6)

	for _, rec := range rep.Opportunities {
		assert.True(t, rec.UpdateAvailable)
	}

	first := rep.Opportunities[0]
	assert.Equal(t, models.MachineID("B"), first.MachineID)
	assert.Equal(t, "Zeta Ag", *first.OrganizationName)
	assert.Equal(t, "9R", *first.Model)
	assert.Equal(t, models.False, first.Authorized)

	last := rep.Opportunities[5]
	assert.Equal(t, models.MachineID("D"), last.MachineID)
	assert.Equal(t, "org-9", *last.OrganizationID)
	assert.Nil(t, last.OrganizationName)
	assert.Equal(t, models.Unknown, last.Authorized)
}

func TestAggregate_DetailSortIsStable(t *testing.T) {
	rep := Aggregate(fixture(), machines, orgs)

	var got []string
	for _, rec := range rep.Opportunities {
		got = append(got, string(rec.MachineID)+"/"+rec.Controller)
	}

	assert.Equal(t, []string{"B/ECU", "B/HCU", "A/ECU", "C/ECU", "C/TCU", "D/ECU"}, got)
}

func TestAggregate_DetailGroupsOrganizationsSharingAName(t *testing.T) {
	result := &batch.Result{
		Machines: []models.MachineID{"E", "F", "G", "H", "J"},
		Sessions: map[models.MachineID]models.MachineSession{},
		Entries: []models.UpdateEntry{
			entry("E", "ECU", true, models.True),
			entry("F", "ECU", true, models.True),
			entry("G", "ECU", true, models.True),
			entry("E", "TCU", true, models.True),
			entry("J", "ECU", true, models.True),
			entry("F", "TCU", true, models.True),
			entry("H", "ECU", true, models.True),
			entry("G", "TCU", true, models.True),
		},
		Failures: failures.NewBucket(),
	}

	registry := machineTable{
		"E": {OrganizationID: "org-8"},
		"F": {OrganizationID: "org-7"},
		"G": {OrganizationID: "org-4"},
		"H": {OrganizationID: "org-3"},
	}
	names := orgTable{"org-3": "Twin Creek", "org-4": "Twin Creek"}

	rep := Aggregate(result, registry, names)

	var got []string
	for _, rec := range rep.Opportunities {
		got = append(got, string(rec.MachineID)+"/"+rec.Controller)
	}

	assert.Equal(t, []string{"H/ECU", "G/ECU", "G/TCU", "F/ECU", "F/TCU", "E/ECU", "E/TCU", "J/ECU"}, got)
}

func TestAggregate_OrganizationCounts(t *testing.T) {
	rep := Aggregate(fixture(), machines, orgs)

	require.Len(t, rep.Organizations, 3)

	org1 := rep.Organizations[0]
	assert.Equal(t, "org-1", *org1.OrganizationID)
	assert.Equal(t, "Alpha Farms", *org1.OrganizationName)
	assert.Equal(t, 3, org1.TotalOpportunities)
	assert.Equal(t, 2, org1.RemoteCertified)
	assert.Equal(t, 2, org1.RemotelyAchievable)

	org2 := rep.Organizations[1]
	assert.Equal(t, "org-2", *org2.OrganizationID)
	assert.Equal(t, 2, org2.TotalOpportunities)
	assert.Equal(t, 1, org2.RemoteCertified)
	assert.Equal(t, 0, org2.RemotelyAchievable)

	org9 := rep.Organizations[2]
	assert.Equal(t, 1, org9.TotalOpportunities)
	assert.Nil(t, org9.OrganizationName)
	assert.Equal(t, 0, org9.RemotelyAchievable)

	for i, row := range rep.Organizations {
		assert.GreaterOrEqual(t, row.TotalOpportunities, row.RemoteCertified)
		assert.GreaterOrEqual(t, row.RemoteCertified, 0)

		if i > 0 {
			assert.GreaterOrEqual(t, rep.Organizations[i-1].TotalOpportunities, row.TotalOpportunities)
		}
	}
}

func TestAggregate_UnknownAuthorizationIsKept(t *testing.T) {
	result := &batch.Result{
		Requested: 1,
		Machines:  []models.MachineID{"A"},
		Sessions:  map[models.MachineID]models.MachineSession{"A": models.UnknownSession("A")},
		Entries:   []models.UpdateEntry{entry("A", "ECU", true, models.True)},
		Failures:  failures.NewBucket(),
	}
	result.Failures.Add(failures.New(failures.MachineInfoMissing, "A", nil))

	rep := Aggregate(result, machines, orgs)

	require.Len(t, rep.Opportunities, 1)
	assert.Equal(t, models.Unknown, rep.Opportunities[0].Authorized)
	require.Len(t, rep.Organizations, 1)
	assert.Equal(t, 1, rep.Organizations[0].TotalOpportunities)
	assert.Equal(t, 0, rep.Organizations[0].RemotelyAchievable)
}

func TestAggregate_UnregisteredMachine(t *testing.T) {
	result := fixture()

	rep := Aggregate(result, machineTable{}, nil)

	require.Len(t, rep.Organizations, 1)
	assert.Nil(t, rep.Organizations[0].OrganizationID)
	assert.Equal(t, 6, rep.Organizations[0].TotalOpportunities)

	for _, rec := range rep.Opportunities {
		assert.Nil(t, rec.Model)
		assert.Nil(t, rec.OrganizationID)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	result := fixture()
	entries := append([]models.UpdateEntry(nil), result.Entries...)

	first := Aggregate(result, machines, orgs)
	second := Aggregate(result, machines, orgs)

	assert.Equal(t, first, second)
	assert.Equal(t, entries, result.Entries)
}

func TestAggregate_NoOpportunities(t *testing.T) {
	result := &batch.Result{Failures: failures.NewBucket()}

	rep := Aggregate(result, machines, orgs)

	assert.Empty(t, rep.Opportunities)
	assert.NotNil(t, rep.Opportunities)
	assert.Empty(t, rep.Organizations)
	assert.NotNil(t, rep.Organizations)
}
