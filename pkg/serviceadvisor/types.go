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

// UpdateListKey is the key holding the update list in a
// controllerSoftwareUpdates response.
const UpdateListKey = "controllerSoftwareUpdates"

// SoftwareUpdate is one raw record of the controllerSoftwareUpdates list.
// Every field is optional on the wire.
type SoftwareUpdate struct {
	// SoftwareUpdateID is a '^'-delimited composite whose second segment is
	// the controller code.
	SoftwareUpdateID *string         `json:"softwareUpdateId"`
	RemoteCertified  *bool           `json:"remoteCertified"`
	SectionDetails   []SectionDetail `json:"sectionDetails"`
}

// SectionDetail carries the human-readable update description and versions.
type SectionDetail struct {
	TLA              *string `json:"tla"`
	Description      *string `json:"description"`
	SoftwareVersion  *string `json:"softwareVersion"`
	AvailableVersion *string `json:"availableVersion"`
}

// StartSessionRequest is posted to open a machine session.
type StartSessionRequest struct {
	PIN string `json:"pin"`
}

// StartSessionResponse is the answer to a session start.
type StartSessionResponse struct {
	SessionID                   *string `json:"sessionId"`
	RemoteCapable               *bool   `json:"remoteCapable"`
	RemoteCapabilityDescription *string `json:"remoteCapabilityDescription"`
}
