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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tschsched/alice/config"
	"github.com/tschsched/alice/mgmtapi"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/metrics"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/private/env"
	"github.com/tschsched/alice/private/periodic"
	"github.com/tschsched/alice/sched"
	"github.com/tschsched/alice/sim"
)

func newServe(pather CommandPather, v *viper.Viper) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run a simulated network behind the management API",
		Example: fmt.Sprintf(`  %[1]s serve --config alice.toml
  ALICE_TOPOLOGY=topology.toml %[1]s serve`, pather.CommandPath()),
		Long: `'serve' builds the simulated network and keeps it running until it receives
SIGINT or SIGTERM. The management API (api.addr) allows to inspect schedules
and to edit the tree at runtime. The schedules are verified every
general.verify_interval. Rule metrics are exported on metrics.prometheus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	defer log.HandlePanic()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := metrics.NewFactory(
		metrics.WithRegistry(reg),
		metrics.WithNamespace("alice"),
	)
	nw, err := buildNetwork(cfg, false,
		sim.WithLogger(log.Root()),
		sim.WithMetrics(sched.NewMetrics(factory, "node")),
	)
	if err != nil {
		return err
	}
	log.Info("Simulated network running", "nodes", len(nw.Nodes()),
		"edges", len(nw.Edges()))

	interval := cfg.General.VerifyInterval.Duration
	verifier := periodic.StartWithMetrics(
		&sim.Verifier{
			Network: nw,
			Violations: factory.NewGauge("schedule_violations",
				"Number of cells not agreed on by parent and child."),
			Logger: log.New("task", "verifier"),
		},
		verifierMetrics(factory),
		interval,
		interval,
	)
	defer verifier.Stop()

	g, errCtx := errgroup.WithContext(ctx)
	if cfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Mount("/api/v1", mgmtapi.Handler(&mgmtapi.Server{
			Network: nw,
			Config:  configHandler(cfg),
		}))
		log.Info("Exposing API", "addr", cfg.API.Addr)
		mgmtServer := &http.Server{
			Addr:    cfg.API.Addr,
			Handler: r,
		}
		g.Go(func() error {
			defer log.HandlePanic()
			err := mgmtServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving management API", err)
			}
			return nil
		})
		g.Go(func() error {
			defer log.HandlePanic()
			<-errCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				env.ShutdownGraceInterval)
			defer cancel()
			return mgmtServer.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		defer log.HandlePanic()
		return cfg.Metrics.ServePrometheus(errCtx, reg)
	})
	g.Go(func() error {
		<-errCtx.Done()
		log.Info("Shutting down")
		return nil
	})
	return g.Wait()
}

func verifierMetrics(factory metrics.Factory) *periodic.Metrics {
	events := factory.NewCounter("verifier_events_total",
		"Total number of events of the schedule verifier.", "event_type")
	return &periodic.Metrics{
		Events: func(t string) metrics.Counter {
			return events.With("event_type", t)
		},
		Runtime: factory.NewGauge("verifier_runtime_seconds",
			"Duration of the last schedule verification."),
		StartTime: factory.NewGauge("verifier_start_time_seconds",
			"Start time of the schedule verifier as unix timestamp."),
		Period: factory.NewGauge("verifier_period_seconds",
			"Period of the schedule verifier."),
	}
}

func configHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			http.Error(w, "unable to encode configuration", http.StatusInternalServerError)
		}
	}
}
