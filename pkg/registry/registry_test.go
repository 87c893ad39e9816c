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

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/updatescout/pkg/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadIdentifiers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Identifier
		wantErr bool
	}{
		{
			name:    "strings in order",
			content: `["1RW8R370PNA000001", "1RW8R370PNA000002"]`,
			want:    models.Identifiers("1RW8R370PNA000001", "1RW8R370PNA000002"),
		},
		{
			name:    "non string entries marked",
			content: `["A", 42, null, true, {"pin": "B"}]`,
			want: []models.Identifier{
				{ID: "A"},
				{ID: "42", NotString: true},
				{ID: "null", NotString: true},
				{ID: "true", NotString: true},
				{ID: `{"pin": "B"}`, NotString: true},
			},
		},
		{
			name:    "empty list",
			content: `[]`,
			want:    []models.Identifier{},
		},
		{
			name:    "object rejected",
			content: `{"A": 1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := LoadIdentifiers(writeFile(t, "ids.json", tt.content))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errNotAnArray)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestLoadIdentifiers_MissingFile(t *testing.T) {
	_, err := LoadIdentifiers(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = LoadIdentifiers("")
	require.ErrorIs(t, err, errEmptyPath)
}

func TestLoadMachines(t *testing.T) {
	path := writeFile(t, "machines.json", `{
		"A": {"model": "8R 410", "organization_id": "org-1"},
		"B": {"model": "S780"}
	}`)

	m, err := LoadMachines(path)
	require.NoError(t, err)

	info, ok := m.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, models.MachineInfo{Model: "8R 410", OrganizationID: "org-1"}, info)

	info, ok = m.Lookup("B")
	require.True(t, ok)
	assert.Empty(t, info.OrganizationID)

	_, ok = m.Lookup("C")
	assert.False(t, ok)
}

func TestLoadMachines_Null(t *testing.T) {
	m, err := LoadMachines(writeFile(t, "machines.json", `null`))
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = LoadMachines(writeFile(t, "machines.json", `[1]`))
	require.Error(t, err)
}

func TestLoadOrganizations(t *testing.T) {
	orgs, err := LoadOrganizations(writeFile(t, "orgs.json", `{"200": "Zeta Ag", "100": "Alpha Farms"}`))
	require.NoError(t, err)

	name, ok := orgs.Name("100")
	require.True(t, ok)
	assert.Equal(t, "Alpha Farms", name)

	_, ok = orgs.Name("300")
	assert.False(t, ok)

	assert.Equal(t, []string{"100", "200"}, orgs.IDs())
}
