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
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/updatescout/pkg/failures"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/vendorapi"
)

var errTestNetwork = errors.New("connection reset by peer")

const (
	startPath = "/SAWeb/services/startSession/"
	authPath  = "/SAWeb/services/remoteReprogramming/authorization/s-1"
)

func updatesPath(pin string) string {
	return "/SAWeb/services/controllerSoftwareUpdates/" + pin
}

func ok(body string) *vendorapi.Response {
	return &vendorapi.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func status(code int) *vendorapi.Response {
	return &vendorapi.Response{StatusCode: code}
}

func setupResolver(t *testing.T) (*Resolver, *vendorapi.MockTransport) {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := vendorapi.NewMockTransport(ctrl)

	return NewResolver(transport, Paths{}, "", logger.NewTestLogger()), transport
}

func expectSession(transport *vendorapi.MockTransport, pin string, authStatus int) {
	transport.EXPECT().
		Post(gomock.Any(), startPath, DefaultStartSessionContentType, StartSessionRequest{PIN: pin}).
		Return(ok(`{"sessionId":"s-1","remoteCapable":true,"remoteCapabilityDescription":"JDLink connected"}`), nil)
	transport.EXPECT().Get(gomock.Any(), authPath).Return(status(authStatus), nil)
}

func kindsOf(result *MachineResult) []failures.Kind {
	return result.Kinds()
}

func TestResolve_Success(t *testing.T) {
	r, transport := setupResolver(t)

	expectSession(transport, "PIN1", http.StatusNoContent)
	transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).
		Return(ok(`{"controllerSoftwareUpdates":[`+fullRecord+`]}`), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)

	assert.Empty(t, result.Failures)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "ECU", result.Entries[0].Controller)

	assert.Equal(t, models.True, result.Session.RemoteCapable)
	assert.Equal(t, models.True, result.Session.Authorized)
	require.NotNil(t, result.Session.CapabilityDescription)
	assert.Equal(t, "JDLink connected", *result.Session.CapabilityDescription)
}

func TestResolve_ForbiddenMeansNotAuthorized(t *testing.T) {
	r, transport := setupResolver(t)

	expectSession(transport, "PIN1", http.StatusForbidden)
	transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).
		Return(ok(`{"controllerSoftwareUpdates":[`+fullRecord+`]}`), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)

	assert.Empty(t, result.Failures)
	assert.Equal(t, models.False, result.Session.Authorized)
}

func TestResolve_AuthorizationErrorIsNonFatal(t *testing.T) {
	r, transport := setupResolver(t)

	expectSession(transport, "PIN1", http.StatusInternalServerError)
	transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).
		Return(ok(`{"controllerSoftwareUpdates":[`+fullRecord+`]}`), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)

	assert.Equal(t, []failures.Kind{failures.MachineInfoMissing}, kindsOf(result))
	assert.Equal(t, models.Unknown, result.Session.Authorized)
	assert.Equal(t, models.True, result.Session.RemoteCapable)
	assert.Len(t, result.Entries, 1)
}

func TestResolve_SessionFailureStillCollectsUpdates(t *testing.T) {
	tests := []struct {
		name    string
		resp    *vendorapi.Response
		respErr error
	}{
		{name: "network error", respErr: errTestNetwork},
		{name: "server error", resp: status(http.StatusBadGateway)},
		{name: "malformed body", resp: ok(`not json`)},
		{name: "missing session id", resp: ok(`{"remoteCapable":true}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, transport := setupResolver(t)

			transport.EXPECT().Post(gomock.Any(), startPath, gomock.Any(), gomock.Any()).Return(tt.resp, tt.respErr)
			transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).
				Return(ok(`{"controllerSoftwareUpdates":[`+fullRecord+`]}`), nil)

			result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
			require.NoError(t, err)

			assert.Equal(t, []failures.Kind{failures.MachineInfoMissing}, kindsOf(result))
			assert.Equal(t, models.UnknownSession("PIN1"), result.Session)
			require.Len(t, result.Entries, 1)
		})
	}
}

func TestResolve_RequestFailIsTerminal(t *testing.T) {
	tests := []struct {
		name    string
		resp    *vendorapi.Response
		respErr error
	}{
		{name: "network error", respErr: errTestNetwork},
		{name: "not found", resp: status(http.StatusNotFound)},
		{name: "server error", resp: status(http.StatusServiceUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, transport := setupResolver(t)

			expectSession(transport, "PIN1", http.StatusOK)
			transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).Return(tt.resp, tt.respErr)

			result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
			require.NoError(t, err)

			assert.Equal(t, []failures.Kind{failures.RequestFail}, kindsOf(result))
			assert.Empty(t, result.Entries)
		})
	}
}

func TestResolve_InvalidIdentifier(t *testing.T) {
	r, _ := setupResolver(t)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "not a pin"})
	require.NoError(t, err)

	assert.Equal(t, []failures.Kind{failures.RequestFail}, kindsOf(result))
	assert.Empty(t, result.Entries)
}

func TestResolve_NonStringIdentifierIsNeverQueried(t *testing.T) {
	r, _ := setupResolver(t)

	for _, raw := range []models.MachineID{"42", "null", "true"} {
		result, err := r.Resolve(context.Background(), models.Identifier{ID: raw, NotString: true})
		require.NoError(t, err)

		require.Len(t, result.Failures, 1)
		assert.Equal(t, failures.RequestFail, result.Failures[0].Kind)
		assert.Equal(t, raw, result.Failures[0].MachineID)
		assert.Contains(t, result.Failures[0].Detail, models.ErrNotAString.Error())
		assert.Empty(t, result.Entries)
	}
}

func TestResolve_MainParseErrorIsTerminal(t *testing.T) {
	r, transport := setupResolver(t)

	expectSession(transport, "PIN1", http.StatusOK)
	transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).
		Return(ok(`{"controllerSoftwareUpdates":"none"}`), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)

	assert.Equal(t, []failures.Kind{failures.MainParseError}, kindsOf(result))
	assert.Contains(t, result.Failures[0].Detail, "not a list")
	assert.Empty(t, result.Entries)
}

func TestResolve_RecordLevelFailures(t *testing.T) {
	r, transport := setupResolver(t)

	body := `{"controllerSoftwareUpdates":[
		{"softwareUpdateId":"broken","sectionDetails":[{}]},
		` + fullRecord + `,
		{"softwareUpdateId":"a^TCU","sectionDetails":[{"softwareVersion":"2"}]}
	]}`

	expectSession(transport, "PIN1", http.StatusOK)
	transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).Return(ok(body), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)

	assert.Equal(t, []failures.Kind{failures.InParseError, failures.MissingValue}, kindsOf(result))
	require.NotNil(t, result.Failures[0].Index)
	assert.Equal(t, 0, *result.Failures[0].Index)
	assert.Contains(t, string(result.Failures[0].Raw), "broken")
	require.NotNil(t, result.Failures[1].Index)
	assert.Equal(t, 2, *result.Failures[1].Index)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "ECU", result.Entries[0].Controller)
	assert.Equal(t, "TCU", result.Entries[1].Controller)
}

func TestResolve_EmptyPIN(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []failures.Kind
	}{
		{
			name: "empty list",
			body: `{"controllerSoftwareUpdates":[]}`,
			want: []failures.Kind{failures.EmptyPIN},
		},
		{
			name: "every record broken",
			body: `{"controllerSoftwareUpdates":[{"softwareUpdateId":"x"}]}`,
			want: []failures.Kind{failures.InParseError, failures.EmptyPIN},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, transport := setupResolver(t)

			expectSession(transport, "PIN1", http.StatusOK)
			transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).Return(ok(tt.body), nil)

			result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, kindsOf(result))
			assert.Empty(t, result.Entries)
		})
	}
}

func TestResolve_CatastrophicErrorsPropagate(t *testing.T) {
	t.Run("session rejected at session start", func(t *testing.T) {
		r, transport := setupResolver(t)

		transport.EXPECT().Post(gomock.Any(), startPath, gomock.Any(), gomock.Any()).
			Return(nil, vendorapi.ErrSessionRejected)

		_, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
		require.ErrorIs(t, err, vendorapi.ErrSessionRejected)
	})

	t.Run("circuit open at update fetch", func(t *testing.T) {
		r, transport := setupResolver(t)

		expectSession(transport, "PIN1", http.StatusOK)
		transport.EXPECT().Get(gomock.Any(), updatesPath("PIN1")).Return(nil, vendorapi.ErrCircuitOpen)

		_, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
		require.ErrorIs(t, err, vendorapi.ErrCircuitOpen)
	})
}

func TestResolver_CustomPaths(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := vendorapi.NewMockTransport(ctrl)

	r := NewResolver(transport, Paths{
		StartSession:    "/session",
		Authorization:   "/auth?session={session}",
		SoftwareUpdates: "/csu/",
	}, "application/json", logger.NewTestLogger())

	transport.EXPECT().Post(gomock.Any(), "/session", "application/json", gomock.Any()).
		Return(ok(`{"sessionId":"a b"}`), nil)
	transport.EXPECT().Get(gomock.Any(), "/auth?session=a%20b").Return(status(http.StatusOK), nil)
	transport.EXPECT().Get(gomock.Any(), "/csu/PIN1").Return(ok(`{"controllerSoftwareUpdates":[]}`), nil)

	result, err := r.Resolve(context.Background(), models.Identifier{ID: "PIN1"})
	require.NoError(t, err)
	assert.Equal(t, models.True, result.Session.Authorized)
	assert.Equal(t, models.Unknown, result.Session.RemoteCapable)
}
