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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantLevel zerolog.Level
	}{
		{name: "level", config: &Config{Level: "warn", Output: "stderr"}, wantLevel: zerolog.WarnLevel},
		{name: "debug wins over level", config: &Config{Level: "error", Debug: true}, wantLevel: zerolog.DebugLevel},
		{name: "default level", config: &Config{}, wantLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			require.NotNil(t, l)

			assert.Equal(t, tt.wantLevel, l.(*instance).logger.GetLevel())
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestWithComponent(t *testing.T) {
	l, err := New(&Config{Level: "debug"})
	require.NoError(t, err)

	component := l.WithComponent("resolver")
	require.NotNil(t, component)
	assert.Equal(t, zerolog.DebugLevel, component.(*instance).logger.GetLevel())

	assert.NotNil(t, NewTestLogger().WithComponent("resolver"))
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DEBUG", "yes")
	t.Setenv("LOG_OUTPUT", "stdout")

	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "stdout", cfg.Output)
}
