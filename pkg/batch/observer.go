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
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/serviceadvisor"
)

// ProgressLogger logs every completed machine at debug level and a progress
// line every `every` machines at info level.
type ProgressLogger struct {
	logger logger.Logger
	every  int
}

// NewProgressLogger creates a ProgressLogger. every <= 0 disables the
// periodic info line.
func NewProgressLogger(log logger.Logger, every int) *ProgressLogger {
	return &ProgressLogger{logger: log.WithComponent("progress"), every: every}
}

// MachineCompleted implements Observer.
func (p *ProgressLogger) MachineCompleted(completed, total int, result *serviceadvisor.MachineResult) {
	p.logger.Debug().
		Str("pin", result.MachineID.String()).
		Int("entries", len(result.Entries)).
		Int("failures", len(result.Failures)).
		Dur("duration", result.Duration).
		Msg("Machine resolved")

	if completed == total || (p.every > 0 && completed%p.every == 0) {
		p.logger.Info().
			Int("completed", completed).
			Int("total", total).
			Msg("Resolution progress")
	}
}
