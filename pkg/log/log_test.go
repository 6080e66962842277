// Copyright 2026 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log_test

import (
	"bytes"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/pkg/log"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg log.Config
	cfg.Sample(&sample, nil, nil)

	var decoded log.Config
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().
		Decode(&decoded)
	require.NoError(t, err)
	decoded.InitDefaults()
	assert.Equal(t, log.DefaultConsoleLevel, decoded.Console.Level)
	assert.Equal(t, log.DefaultConsoleFormat, decoded.Console.Format)
	assert.NoError(t, decoded.Validate())
}

func TestConfigValidate(t *testing.T) {
	testCases := map[string]struct {
		Console   log.ConsoleConfig
		AssertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			Console:   log.ConsoleConfig{Level: "info", Format: "human"},
			AssertErr: assert.NoError,
		},
		"json debug": {
			Console:   log.ConsoleConfig{Level: "debug", Format: "json"},
			AssertErr: assert.NoError,
		},
		"bad level": {
			Console:   log.ConsoleConfig{Level: "chatty", Format: "human"},
			AssertErr: assert.Error,
		},
		"bad format": {
			Console:   log.ConsoleConfig{Level: "info", Format: "xml"},
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := log.Config{Console: tc.Console}
			tc.AssertErr(t, cfg.Validate())
		})
	}
}

func TestSetup(t *testing.T) {
	cfg := log.Config{}
	cfg.InitDefaults()
	cfg.Console.Level = "error"
	require.NoError(t, log.Setup(cfg))
	assert.False(t, log.Root().Enabled(log.InfoLevel))
	assert.True(t, log.Root().Enabled(log.ErrorLevel))
	log.Discard()
}
