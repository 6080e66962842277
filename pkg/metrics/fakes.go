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
	"sort"
	"strings"
	"sync"
)

// node holds the values of a test metric per label set. Metrics derived via
// With share the node of their parent.
type node struct {
	mtx    sync.Mutex
	values map[string]float64
}

func newNode() *node {
	return &node{values: make(map[string]float64)}
}

func (n *node) add(key string, delta float64, canBeNegative bool) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if !canBeNegative && delta < 0 {
		panic("counter increment value is < 0")
	}
	n.values[key] += delta
}

func (n *node) set(key string, v float64) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.values[key] = v
}

func (n *node) value(key string) float64 {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.values[key]
}

func labelKey(lvs labelValues) string {
	pairs := make([]string, 0, len(lvs)/2)
	for i := 0; i+1 < len(lvs); i += 2 {
		pairs = append(pairs, lvs[i]+"="+lvs[i+1])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// TestCounter implements a counter for use in tests.
type TestCounter struct {
	*node
	lvs labelValues
}

// NewTestCounter creates a new counter for use in tests.
func NewTestCounter() *TestCounter {
	return &TestCounter{node: newNode()}
}

// With returns a counter for the label values that shares the storage of c.
func (c *TestCounter) With(more ...string) Counter {
	return &TestCounter{node: c.node, lvs: c.lvs.with(more...)}
}

// Add increases the value of the counter by delta. Negative deltas panic.
func (c *TestCounter) Add(delta float64) {
	c.add(labelKey(c.lvs), delta, false)
}

// CounterValue extracts the value out of a TestCounter. If the argument is not
// a *TestCounter, CounterValue will panic.
func CounterValue(c Counter) float64 {
	tc := c.(*TestCounter)
	return tc.value(labelKey(tc.lvs))
}

// TestGauge implements a gauge for use in tests.
type TestGauge struct {
	*node
	lvs labelValues
}

// NewTestGauge creates a new gauge for use in tests.
func NewTestGauge() *TestGauge {
	return &TestGauge{node: newNode()}
}

// With returns a gauge for the label values that shares the storage of g.
func (g *TestGauge) With(more ...string) Gauge {
	return &TestGauge{node: g.node, lvs: g.lvs.with(more...)}
}

// Set sets the gauge to v.
func (g *TestGauge) Set(v float64) {
	g.set(labelKey(g.lvs), v)
}

// Add increases the gauge by delta.
func (g *TestGauge) Add(delta float64) {
	g.add(labelKey(g.lvs), delta, true)
}

// GaugeValue extracts the value out of a TestGauge. If the argument is not a
// *TestGauge, GaugeValue will panic.
func GaugeValue(g Gauge) float64 {
	tg := g.(*TestGauge)
	return tg.value(labelKey(tg.lvs))
}
