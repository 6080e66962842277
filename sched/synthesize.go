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
	"sort"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/tsch"
)

// Topology is the local view of the tree used to synthesize a schedule.
type Topology struct {
	// Self is the address of the node.
	Self addr.LinkAddr
	// Parent is the time source of the node, or addr.Null.
	Parent addr.LinkAddr
	// Children are the next hops of the downward routes, in any order.
	Children []addr.LinkAddr
}

// ParentCells returns the upstream cell towards the parent and the downstream
// cell from the parent.
func (l Locator) ParentCells(self, parent addr.LinkAddr) (up, down Cell) {
	return l.Locate(Upstream, self, parent), l.Locate(Downstream, parent, self)
}

// ChildCells returns the upstream cell from the child and the downstream cell
// towards the child.
func (l Locator) ChildCells(self, child addr.LinkAddr) (up, down Cell) {
	return l.Locate(Upstream, child, self), l.Locate(Downstream, self, child)
}

// childOptions resolves the options of a cell shared with a child. A child
// cell that coincides with the cell of the parent relationship in the same
// direction must both transmit and receive. Otherwise the node only receives
// upstream and only transmits downstream.
func childOptions(dir Direction, cell, parentCell Cell, tx tsch.LinkOptions) tsch.LinkOptions {
	if cell == parentCell {
		return tx | tsch.LinkOptionRX
	}
	if dir == Upstream {
		return tsch.LinkOptionRX
	}
	return tx
}

// Synthesize computes the unicast links of a node from scratch. Cells that
// several relationships alias onto are merged into one link carrying the
// union of their options. Cells that can not be located, because the parent
// is unknown or a period is disabled, are skipped.
//
// The links of the parent relationship come first, so that they win timeslot
// conflicts in the slot table. The remaining links are ordered by timeslot and
// channel offset. The result does not depend on the order of children.
func Synthesize(p Params, topo Topology) []tsch.Link {
	l := NewLocator(p)
	tx := tsch.LinkOptionTX | p.SharedFlag()
	cells := make(map[Cell]tsch.LinkOptions)
	add := func(c Cell, opts tsch.LinkOptions) {
		if c.Valid() {
			cells[c] |= opts
		}
	}

	parentUp, parentDown := l.ParentCells(topo.Self, topo.Parent)
	add(parentUp, tx)
	add(parentDown, tsch.LinkOptionRX)
	for _, child := range topo.Children {
		up, down := l.ChildCells(topo.Self, child)
		add(up, childOptions(Upstream, up, parentUp, tx))
		add(down, childOptions(Downstream, down, parentDown, tx))
	}

	links := make([]tsch.Link, 0, len(cells))
	for c, opts := range cells {
		links = append(links, tsch.Link{
			Timeslot:      c.Timeslot,
			ChannelOffset: c.ChannelOffset,
			Options:       opts,
			Type:          tsch.LinkTypeNormal,
			Addr:          addr.Broadcast,
		})
	}
	isParent := func(l tsch.Link) bool {
		c := Cell{Timeslot: l.Timeslot, ChannelOffset: l.ChannelOffset}
		return c == parentUp || c == parentDown
	}
	sort.Slice(links, func(i, j int) bool {
		if pi, pj := isParent(links[i]), isParent(links[j]); pi != pj {
			return pi
		}
		return links[i].Less(links[j])
	})
	return links
}
