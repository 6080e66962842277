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

package sim

import (
	"context"
	"fmt"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/metrics"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/sched"
)

// Violation is a cell of a parent child relationship that is not installed
// with matching options on both ends.
type Violation struct {
	Edge      `yaml:",inline"`
	Direction sched.Direction `json:"direction" yaml:"direction"`
	Cell      sched.Cell      `json:"cell" yaml:"cell"`
	// Node is the node missing the link.
	Node addr.LinkAddr `json:"node" yaml:"node"`
	// Missing are the options the node lacks in the cell.
	Missing tsch.LinkOptions `json:"missing" yaml:"missing"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s link %s->%s cell %s: %s lacks %s", v.Direction,
		v.Child, v.Parent, v.Cell, v.Node, v.Missing)
}

// Verify checks global schedule consistency. For every edge, the child must
// transmit and the parent receive in the upstream cell of the child, and the
// parent must transmit and the child receive in the downstream cell. Cells of
// disabled periods are not checked.
func (nw *Network) Verify() []Violation {
	nw.mtx.RLock()
	defer nw.mtx.RUnlock()
	l := sched.NewLocator(nw.params)
	var violations []Violation
	for _, e := range nw.edges() {
		child, parent := nw.nodes[e.Child], nw.nodes[e.Parent]
		childLinks, parentLinks := index(child.Links()), index(parent.Links())
		check := func(dir sched.Direction, c sched.Cell, tx, rx *Node,
			txLinks, rxLinks map[sched.Cell]tsch.LinkOptions) {

			if !c.Valid() {
				return
			}
			if missing := tsch.LinkOptionTX &^ txLinks[c]; missing != 0 {
				violations = append(violations, Violation{Edge: e, Direction: dir,
					Cell: c, Node: tx.Addr, Missing: missing})
			}
			if missing := tsch.LinkOptionRX &^ rxLinks[c]; missing != 0 {
				violations = append(violations, Violation{Edge: e, Direction: dir,
					Cell: c, Node: rx.Addr, Missing: missing})
			}
		}
		up, down := l.ParentCells(e.Child, e.Parent)
		check(sched.Upstream, up, child, parent, childLinks, parentLinks)
		check(sched.Downstream, down, parent, child, parentLinks, childLinks)
	}
	return violations
}

func index(links []tsch.Link) map[sched.Cell]tsch.LinkOptions {
	m := make(map[sched.Cell]tsch.LinkOptions, len(links))
	for _, l := range links {
		m[sched.Cell{Timeslot: l.Timeslot, ChannelOffset: l.ChannelOffset}] = l.Options
	}
	return m
}

// Verifier periodically checks the consistency of a network. It implements
// periodic.Task.
type Verifier struct {
	Network *Network
	// Violations is set to the number of violations of the last run. Optional.
	Violations metrics.Gauge
	// Logger defaults to log.Root().
	Logger log.Logger
}

func (v *Verifier) Name() string {
	return "schedule_verifier"
}

// Run verifies the network once and logs every violation.
func (v *Verifier) Run(_ context.Context) {
	logger := v.Logger
	if logger == nil {
		logger = log.Root()
	}
	violations := v.Network.Verify()
	metrics.GaugeSet(v.Violations, float64(len(violations)))
	if len(violations) == 0 {
		logger.Debug("Schedule consistent", "edges", len(v.Network.Edges()))
		return
	}
	for _, violation := range violations {
		logger.Error("Inconsistent schedule", "violation", violation.String())
	}
}
