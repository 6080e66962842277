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
	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/private/config"
)

// Topology describes a tree of nodes. It is loaded from TOML:
//
//	[[node]]
//	addr = "00:12:4b:00:00:00:00:01"
//
//	[[node]]
//	addr = "00:12:4b:00:00:00:00:02"
//	parent = "00:12:4b:00:00:00:00:01"
type Topology struct {
	Nodes []NodeSpec `toml:"node"`
}

// NodeSpec describes one node. Nodes without parent are roots.
type NodeSpec struct {
	Addr   addr.LinkAddr `toml:"addr"`
	Parent addr.LinkAddr `toml:"parent,omitempty"`
}

// LoadTopology reads a topology file.
func LoadTopology(file string) (Topology, error) {
	var topo Topology
	if err := config.LoadFile(file, &topo); err != nil {
		return Topology{}, err
	}
	if err := topo.Validate(); err != nil {
		return Topology{}, serrors.Wrap("validating topology", err, "file", file)
	}
	return topo, nil
}

// Validate checks that all addresses are set and unique and that every parent
// is declared.
func (t Topology) Validate() error {
	declared := make(map[addr.LinkAddr]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		if n.Addr.IsNull() || n.Addr.IsBroadcast() {
			return serrors.Join(addr.ErrInvalidLinkAddr, nil, "addr", n.Addr)
		}
		if declared[n.Addr] {
			return serrors.New("duplicate node", "addr", n.Addr)
		}
		declared[n.Addr] = true
	}
	for _, n := range t.Nodes {
		if !n.Parent.IsNull() && !declared[n.Parent] {
			return serrors.New("undeclared parent", "addr", n.Addr, "parent", n.Parent)
		}
	}
	return nil
}

// Build creates the network of the topology. Roots are attached first, then
// every node whose parent is attached, so cycles are rejected.
func Build(t Topology, nw *Network) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, n := range t.Nodes {
		if _, err := nw.AddNode(n.Addr); err != nil {
			return err
		}
	}
	attached := make(map[addr.LinkAddr]bool, len(t.Nodes))
	for len(attached) < len(t.Nodes) {
		progress := false
		for _, n := range t.Nodes {
			if attached[n.Addr] {
				continue
			}
			var err error
			switch {
			case n.Parent.IsNull():
				err = nw.SetRoot(n.Addr)
			case attached[n.Parent]:
				err = nw.SetParent(n.Addr, n.Parent)
			default:
				continue
			}
			if err != nil {
				return err
			}
			attached[n.Addr] = true
			progress = true
		}
		if !progress {
			return serrors.New("topology contains a cycle")
		}
	}
	return nil
}
