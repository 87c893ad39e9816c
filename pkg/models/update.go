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

// UpdateEntry is the update status of one controller on one machine.
// Nil string fields and Unknown flags mean the vendor did not report them.
type UpdateEntry struct {
	MachineID        MachineID `json:"pin"`
	Controller       string    `json:"controller"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	CurrentVersion   *string   `json:"current_version"`
	AvailableVersion *string   `json:"available_version"`
	RemoteCertified  Tristate  `json:"remote_update"`
	UpdateAvailable  bool      `json:"update_available"`
}

// VersionsDiffer compares two nullable versions. An unknown version never
// equals anything, including another unknown version.
func VersionsDiffer(current, available *string) bool {
	if current == nil || available == nil {
		return true
	}

	return *current != *available
}

// HasUnknown reports whether any optional field was missing upstream.
func (e *UpdateEntry) HasUnknown() bool {
	return e.Title == nil ||
		e.Description == nil ||
		e.CurrentVersion == nil ||
		e.AvailableVersion == nil ||
		!e.RemoteCertified.IsKnown()
}

// RemoteOpportunity reports whether the update is available and certified
// for remote installation.
func (e *UpdateEntry) RemoteOpportunity() bool {
	return e.UpdateAvailable && e.RemoteCertified.IsTrue()
}

// OpportunityRecord is an available update joined with machine session and
// registry attributes.
type OpportunityRecord struct {
	UpdateEntry

	RemoteCapable         Tristate `json:"remote_capable"`
	CapabilityDescription *string  `json:"capability_description"`
	Authorized            Tristate `json:"is_authorized"`
	OrganizationID        *string  `json:"organization_id"`
	OrganizationName      *string  `json:"organization_name"`
	Model                 *string  `json:"model"`
}

// NewOpportunity merges an entry with its machine session.
func NewOpportunity(entry UpdateEntry, session MachineSession) OpportunityRecord {
	return OpportunityRecord{
		UpdateEntry:           entry,
		RemoteCapable:         session.RemoteCapable,
		CapabilityDescription: session.CapabilityDescription,
		Authorized:            session.Authorized,
	}
}

// RemotelyAchievable reports whether the update is certified for remote
// installation and the machine is remote capable.
func (o *OpportunityRecord) RemotelyAchievable() bool {
	return o.RemoteCertified.IsTrue() && o.RemoteCapable.IsTrue()
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
