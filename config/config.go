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

// Package config contains the configuration of the alice service.
package config

import (
	"io"

	"github.com/tschsched/alice/mgmtapi"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/private/config"
	"github.com/tschsched/alice/private/env"
	"github.com/tschsched/alice/sched"
)

const idSample = "alice"

var _ config.Config = (*Config)(nil)

type Config struct {
	General   env.General    `toml:"general,omitempty"`
	Logging   log.Config     `toml:"log,omitempty"`
	Metrics   env.Metrics    `toml:"metrics,omitempty"`
	API       mgmtapi.Config `toml:"api,omitempty"`
	Scheduler sched.Config   `toml:"scheduler,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Scheduler,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Scheduler,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Scheduler,
	)
}

func (cfg *Config) ConfigName() string {
	return "alice_config"
}

// Load reads the configuration from file, initializes the defaults and
// validates the result. An empty file name yields the default configuration.
func Load(file string) (*Config, error) {
	var cfg Config
	if file != "" {
		if err := config.LoadFile(file, &cfg); err != nil {
			return nil, serrors.Wrap("loading config", err, "file", file)
		}
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err, "file", file)
	}
	return &cfg, nil
}
