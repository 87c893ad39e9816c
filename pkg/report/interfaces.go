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

import "github.com/carverauto/updatescout/pkg/models"

// MachineLookup resolves static registry attributes for a machine.
type MachineLookup interface {
	Lookup(id models.MachineID) (models.MachineInfo, bool)
}

// OrgNameLookup resolves an organization id to its display name.
type OrgNameLookup interface {
	Name(orgID string) (string, bool)
}
