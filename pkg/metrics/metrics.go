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

// Package metrics provides the counter and gauge abstractions used throughout
// the scheduler. Components depend on the Counter and Gauge interfaces and are
// wired either to Prometheus collectors (see Factory) or to the in-memory
// fakes in tests. All helpers accept nil metrics and do nothing in that case.
package metrics

// Counter is a monotonically increasing metric.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// CounterInc increases the counter by one.
func CounterInc(c Counter) {
	if c != nil {
		c.Add(1)
	}
}

// CounterAdd increases the counter by v.
func CounterAdd(c Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}

// CounterWith returns the counter with the additional label values.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// GaugeSet sets the gauge to v.
func GaugeSet(g Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// GaugeAdd adds v to the gauge.
func GaugeAdd(g Gauge, v float64) {
	if g != nil {
		g.Add(v)
	}
}

// GaugeWith returns the gauge with the additional label values.
func GaugeWith(g Gauge, labelValues ...string) Gauge {
	if g == nil {
		return nil
	}
	return g.With(labelValues...)
}
