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

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/report"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	flushErr   error
	closed     bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}

	f.subject = subj
	f.data = data

	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	if f.flushErr != nil {
		return f.flushErr
	}

	return ctx.Err()
}

func (f *fakeConn) Close() { f.closed = true }

func sampleReport() *report.Report {
	return &report.Report{
		RunID:         "run-1",
		GeneratedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary:       batch.Summary{MachinesSearched: 3},
		Organizations: []report.OrgCount{{TotalOpportunities: 1}},
	}
}

func TestPublishReport(t *testing.T) {
	conn := &fakeConn{}

	p, err := NewPublisher(conn, DefaultSubject, logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, p.PublishReport(context.Background(), sampleReport()))
	assert.Equal(t, DefaultSubject, conn.subject)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(conn.data, &msg))

	for _, key := range []string{"run_id", "generated_at", "summary", "organizations", "opportunities"} {
		assert.Contains(t, msg, key)
	}

	assert.Equal(t, "run-1", msg["run_id"])

	p.Close()
	assert.True(t, conn.closed)
}

func TestPublishReport_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		conn *fakeConn
		ctx  func() context.Context
	}{
		{
			name: "publish failure",
			conn: &fakeConn{publishErr: boom},
			ctx:  context.Background,
		},
		{
			name: "flush failure",
			conn: &fakeConn{flushErr: boom},
			ctx:  context.Background,
		},
		{
			name: "cancelled context",
			conn: &fakeConn{},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				return ctx
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPublisher(tt.conn, "reports", logger.NewTestLogger())
			require.NoError(t, err)

			err = p.PublishReport(tt.ctx(), sampleReport())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reports")
		})
	}
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(&fakeConn{}, "", logger.NewTestLogger())
	require.ErrorIs(t, err, errMissingSubject)

	_, err = NewNATSPublisher("", "reports", logger.NewTestLogger())
	require.ErrorIs(t, err, errMissingURL)
}
