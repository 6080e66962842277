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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Factory.
type Option func(*options)

type options struct {
	registry  prometheus.Registerer
	namespace string
}

// WithRegistry registers all collectors created by the factory in registry
// instead of the default registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithNamespace sets the namespace prefixed to all metric names.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// Factory creates Prometheus backed counters and gauges and registers them.
type Factory struct {
	opts options
}

// NewFactory creates a factory. Without options, collectors are registered in
// prometheus.DefaultRegisterer.
func NewFactory(opts ...Option) Factory {
	o := options{registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	return Factory{opts: o}
}

// NewCounter creates and registers a counter vector with the given labels.
func (f Factory) NewCounter(name, help string, labelNames ...string) Counter {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: f.opts.namespace,
		Name:      name,
		Help:      help,
	}, labelNames)
	f.opts.registry.MustRegister(cv)
	return &counter{cv: cv}
}

// NewGauge creates and registers a gauge vector with the given labels.
func (f Factory) NewGauge(name, help string, labelNames ...string) Gauge {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: f.opts.namespace,
		Name:      name,
		Help:      help,
	}, labelNames)
	f.opts.registry.MustRegister(gv)
	return &gauge{gv: gv}
}

// labelValues is a flat list of label name and value pairs.
type labelValues []string

func (lvs labelValues) with(more ...string) labelValues {
	if len(more)%2 != 0 {
		more = append(more, "unknown")
	}
	result := make(labelValues, len(lvs), len(lvs)+len(more))
	copy(result, lvs)
	return append(result, more...)
}

func (lvs labelValues) labels() prometheus.Labels {
	labels := prometheus.Labels{}
	for i := 0; i < len(lvs); i += 2 {
		labels[lvs[i]] = lvs[i+1]
	}
	return labels
}

type counter struct {
	cv  *prometheus.CounterVec
	lvs labelValues
}

func (c *counter) With(more ...string) Counter {
	return &counter{cv: c.cv, lvs: c.lvs.with(more...)}
}

func (c *counter) Add(delta float64) {
	c.cv.With(c.lvs.labels()).Add(delta)
}

type gauge struct {
	gv  *prometheus.GaugeVec
	lvs labelValues
}

func (g *gauge) With(more ...string) Gauge {
	return &gauge{gv: g.gv, lvs: g.lvs.with(more...)}
}

func (g *gauge) Set(value float64) {
	g.gv.With(g.lvs.labels()).Set(value)
}

func (g *gauge) Add(delta float64) {
	g.gv.With(g.lvs.labels()).Add(delta)
}
