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

package sched

import (
	"github.com/tschsched/alice/pkg/metrics"
)

// Selection results used as label values of Metrics.PacketSelections.
const (
	SelectionUpstream   = "upstream"
	SelectionDownstream = "downstream"
	SelectionNotClaimed = "not_claimed"
)

// Metrics are the metrics of a Rule. Nil metrics are not recorded.
type Metrics struct {
	// Rebuilds counts schedule rebuilds.
	Rebuilds metrics.Counter
	// InstalledLinks is the number of links in the unicast slotframe.
	InstalledLinks metrics.Gauge
	// InstallErrors counts links the engine refused.
	InstallErrors metrics.Counter
	// PacketSelections counts slot selections by result.
	PacketSelections metrics.Counter
}

// NewMetrics creates the Prometheus backed metrics of a Rule. Additional label
// names can be bound per Rule with Metrics.With.
func NewMetrics(f metrics.Factory, labelNames ...string) Metrics {
	return Metrics{
		Rebuilds: f.NewCounter("rebuilds_total",
			"Total number of unicast schedule rebuilds.", labelNames...),
		InstalledLinks: f.NewGauge("installed_links",
			"Number of links installed in the unicast slotframe.", labelNames...),
		InstallErrors: f.NewCounter("link_install_errors_total",
			"Total number of links refused by the slot table.", labelNames...),
		PacketSelections: f.NewCounter("packet_selections_total",
			"Total number of packet slot selections.",
			append(append([]string(nil), labelNames...), "result")...),
	}
}

// With returns the metrics with the label values bound.
func (m Metrics) With(labelValues ...string) Metrics {
	return Metrics{
		Rebuilds:         metrics.CounterWith(m.Rebuilds, labelValues...),
		InstalledLinks:   metrics.GaugeWith(m.InstalledLinks, labelValues...),
		InstallErrors:    metrics.CounterWith(m.InstallErrors, labelValues...),
		PacketSelections: metrics.CounterWith(m.PacketSelections, labelValues...),
	}
}
