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

// Package envtest contains helpers to check the sample configurations of the
// env package.
package envtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tschsched/alice/pkg/private/util"
	"github.com/tschsched/alice/private/env"
)

// InitTest sets fields that the sample is expected to overwrite.
func InitTest(general *env.General, metrics *env.Metrics) {
	if general != nil {
		InitTestGeneral(general)
	}
	if metrics != nil {
		InitTestMetrics(metrics)
	}
}

// CheckTest checks the values decoded from the sample.
func CheckTest(t *testing.T, general *env.General, metrics *env.Metrics, id string) {
	if general != nil {
		CheckTestGeneral(t, general, id)
	}
	if metrics != nil {
		CheckTestMetrics(t, metrics)
	}
}

func InitTestGeneral(cfg *env.General) {
	cfg.Topology = "/dev/null/topology.toml"
	cfg.VerifyInterval = util.DurWrap{Duration: time.Second}
}

func CheckTestGeneral(t *testing.T, cfg *env.General, id string) {
	assert.Equal(t, id, cfg.ID)
	assert.Empty(t, cfg.Topology)
	assert.Equal(t, env.DefaultVerifyInterval, cfg.VerifyInterval.Duration)
}

func InitTestMetrics(cfg *env.Metrics) {
	cfg.Prometheus = "127.0.0.1:9090"
}

func CheckTestMetrics(t *testing.T, cfg *env.Metrics) {
	assert.Empty(t, cfg.Prometheus)
}
