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

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the logging surface handed to every component.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
}

type instance struct {
	logger zerolog.Logger
}

func (i *instance) Trace() *zerolog.Event { return i.logger.Trace() }
func (i *instance) Debug() *zerolog.Event { return i.logger.Debug() }
func (i *instance) Info() *zerolog.Event  { return i.logger.Info() }
func (i *instance) Warn() *zerolog.Event  { return i.logger.Warn() }
func (i *instance) Error() *zerolog.Event { return i.logger.Error() }
func (i *instance) Fatal() *zerolog.Event { return i.logger.Fatal() }
func (i *instance) With() zerolog.Context { return i.logger.With() }

func (i *instance) WithComponent(component string) Logger {
	return &instance{logger: i.logger.With().Str("component", component).Logger()}
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &instance{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}
