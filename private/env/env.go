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

// Package env contains the configuration blocks and initialization code shared
// by the alice commands.
package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/pkg/private/util"
	"github.com/tschsched/alice/private/config"
)

const (
	// ShutdownGraceInterval is the time servers are given to finish in-flight
	// requests on shutdown.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which the http handler gives up on a
	// request and returns an error instead.
	HandlerTimeout = time.Minute

	// DefaultVerifyInterval is the default interval of the schedule verifier.
	DefaultVerifyInterval = 10 * time.Second
)

var _ config.Config = (*General)(nil)

// General contains the general settings of a simulated network.
type General struct {
	// ID identifies the network in logs and metrics.
	ID string `toml:"id,omitempty"`
	// Topology is the path of the TOML file describing the tree of nodes. If
	// empty, the network starts without nodes.
	Topology string `toml:"topology,omitempty"`
	// VerifyInterval is the interval at which a running server checks the
	// consistency of the schedules.
	VerifyInterval util.DurWrap `toml:"verify_interval,omitempty"`
}

func (cfg *General) InitDefaults() {
	if cfg.VerifyInterval.Duration == 0 {
		cfg.VerifyInterval.Duration = DefaultVerifyInterval
	}
}

// Validate checks that the topology file exists.
func (cfg *General) Validate() error {
	if cfg.VerifyInterval.Duration < 0 {
		return serrors.New("verify_interval must not be negative",
			"value", cfg.VerifyInterval)
	}
	if cfg.Topology == "" {
		return nil
	}
	info, err := os.Stat(cfg.Topology)
	if err != nil {
		return serrors.Wrap("checking topology file", err)
	}
	if info.IsDir() {
		return serrors.New("topology is a directory", "file", cfg.Topology)
	}
	return nil
}

func (cfg *General) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(generalSample, ctx[config.ID]))
}

func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

type Metrics struct {
	config.NoDefaulter
	config.NoValidator
	// Prometheus contains the address to export prometheus metrics on. If
	// not set, metrics are not exported.
	Prometheus string `toml:"prometheus,omitempty"`
}

func (cfg *Metrics) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// Handler returns the http handler exposing the metrics of reg.
func (cfg *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.InstrumentMetricHandler(
		reg,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Timeout: HandlerTimeout}),
	)
}

// ServePrometheus serves the metrics of reg under /metrics until ctx is done.
// It is a no-op if no address is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context, reg *prometheus.Registry) error {
	if cfg.Prometheus == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", cfg.Handler(reg))
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus)

	server := &http.Server{Addr: cfg.Prometheus, Handler: mux}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		server.Close()
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err)
	}
	return nil
}
