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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/private/env/envtest"
	"github.com/tschsched/alice/sched"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg Config
	cfg.Sample(&sample, nil, nil)

	InitTestConfig(&cfg)
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	assert.NoError(t, err)
	CheckTestConfig(t, &cfg, idSample)
}

func InitTestConfig(cfg *Config) {
	envtest.InitTest(&cfg.General, &cfg.Metrics)
	cfg.API.Addr = "127.0.0.1:8080"
	cfg.Logging.Console.Level = "debug"
}

func CheckTestConfig(t *testing.T, cfg *Config, id string) {
	envtest.CheckTest(t, &cfg.General, &cfg.Metrics, id)
	assert.Empty(t, cfg.API.Addr)
	assert.Equal(t, "info", cfg.Logging.Console.Level)
	assert.Equal(t, "human", cfg.Logging.Console.Format)

	scheduler := cfg.Scheduler
	scheduler.InitDefaults()
	var defaults sched.Config
	defaults.InitDefaults()
	assert.Equal(t, defaults, scheduler)
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		p, err := cfg.Scheduler.Params()
		require.NoError(t, err)
		assert.Equal(t, sched.DefaultParams().Horizon(), p.Horizon())
		assert.Equal(t, "info", cfg.Logging.Console.Level)
	})
	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		topo := filepath.Join(dir, "topology.toml")
		require.NoError(t, os.WriteFile(topo, nil, 0o644))
		file := filepath.Join(dir, "alice.toml")
		raw := `
[general]
topology = "` + topo + `"

[api]
addr = "127.0.0.1:8080"

[scheduler]
upstream_period = 7
downstream_period = 0
mode = "link"
`
		require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
		cfg, err := Load(file)
		require.NoError(t, err)
		assert.Equal(t, topo, cfg.General.Topology)
		assert.Equal(t, "127.0.0.1:8080", cfg.API.Addr)
		p, err := cfg.Scheduler.Params()
		require.NoError(t, err)
		assert.Equal(t, uint16(7), p.Horizon())
		assert.Equal(t, sched.ModeLink, p.Mode)
	})
	t.Run("invalid", func(t *testing.T) {
		testCases := map[string]string{
			"unknown field":  "[scheduler]\nperiod = 3\n",
			"invalid mode":   "[scheduler]\nmode = \"random\"\n",
			"missing topo":   "[general]\ntopology = \"/nonexistent/topology.toml\"\n",
			"invalid level":  "[log.console]\nlevel = \"loud\"\n",
			"zero horizon":   "[scheduler]\nupstream_period = 0\ndownstream_period = 0\n",
			"malformed toml": "[scheduler\n",
		}
		for name, raw := range testCases {
			t.Run(name, func(t *testing.T) {
				file := filepath.Join(t.TempDir(), "alice.toml")
				require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
				_, err := Load(file)
				assert.Error(t, err)
			})
		}
	})
}
