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

// Package sim simulates a tree of nodes running the unicast scheduling rule.
// Every node owns its own slot table, route table and DAG tracker, wired to
// its rule exactly like on a device. Tree edits propagate through the route
// tables in storing mode, and Verify checks that every parent and child agree
// on the cells of their relationship.
package sim

import (
	"errors"
	"sort"
	"sync"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/pkg/rpl"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/sched"
)

var (
	// ErrUnknownNode indicates that an address is not part of the network.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNodeExists indicates that an address is already part of the network.
	ErrNodeExists = errors.New("node exists")
	// ErrCycle indicates that a tree edit would create a cycle.
	ErrCycle = errors.New("parent is a descendant")
)

// Node is a simulated node.
type Node struct {
	Addr     addr.LinkAddr
	Rule     *sched.Rule
	Schedule *tsch.Schedule
	Routes   *rpl.Routes
	DAG      *rpl.DAG

	logger log.Logger
}

// Parent returns the time source of the node, or addr.Null.
func (n *Node) Parent() addr.LinkAddr {
	return n.DAG.TimeSource()
}

// Links returns the unicast links of the node.
func (n *Node) Links() []tsch.Link {
	return n.Rule.Links()
}

// ChildAdded implements rpl.RouteListener.
func (n *Node) ChildAdded(child addr.LinkAddr) {
	if err := n.Rule.OnChildAdded(child); err != nil {
		n.logger.Error("Rebuild after child added", "child", child, "err", err)
	}
}

// ChildRemoved implements rpl.RouteListener.
func (n *Node) ChildRemoved(child addr.LinkAddr) {
	if err := n.Rule.OnChildRemoved(child); err != nil {
		n.logger.Error("Rebuild after child removed", "child", child, "err", err)
	}
}

// TimeSourceChanged implements rpl.DAGListener.
func (n *Node) TimeSourceChanged(old, new addr.LinkAddr) {
	if err := n.Rule.OnTimeSourceChanged(old, new); err != nil {
		n.logger.Error("Rebuild after time source change", "err", err)
	}
}

// RankParityChanged implements rpl.DAGListener.
func (n *Node) RankParityChanged(parity uint16) {
	if err := n.Rule.OnRankParityChanged(parity); err != nil {
		n.logger.Error("Rebuild after rank parity change", "err", err)
	}
}

// Network is a simulated tree of nodes. It is safe for concurrent use.
type Network struct {
	params  sched.Params
	logger  log.Logger
	metrics *sched.Metrics

	mtx   sync.RWMutex
	nodes map[addr.LinkAddr]*Node
	// parents maps every attached node to its parent. Roots map to addr.Null.
	parents map[addr.LinkAddr]addr.LinkAddr
}

// Option configures a Network.
type Option func(*Network)

// WithLogger sets the logger of the network and its nodes.
func WithLogger(logger log.Logger) Option {
	return func(n *Network) {
		n.logger = logger
	}
}

// WithMetrics records rule metrics of all nodes. The metrics must carry a
// "node" label.
func WithMetrics(m sched.Metrics) Option {
	return func(n *Network) {
		n.metrics = &m
	}
}

// NewNetwork creates an empty network of nodes sharing the parameters p.
func NewNetwork(p sched.Params, opts ...Option) *Network {
	n := &Network{
		params:  p,
		logger:  log.Root(),
		nodes:   make(map[addr.LinkAddr]*Node),
		parents: make(map[addr.LinkAddr]addr.LinkAddr),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Params returns the scheduling parameters of the network.
func (nw *Network) Params() sched.Params {
	return nw.params
}

// AddNode adds a detached node.
func (nw *Network) AddNode(a addr.LinkAddr) (*Node, error) {
	if a.IsNull() || a.IsBroadcast() {
		return nil, serrors.Join(addr.ErrInvalidLinkAddr, nil, "addr", a)
	}
	nw.mtx.Lock()
	defer nw.mtx.Unlock()
	if _, ok := nw.nodes[a]; ok {
		return nil, serrors.Join(ErrNodeExists, nil, "addr", a)
	}
	logger := nw.logger.New("node", a)
	n := &Node{
		Addr:     a,
		Schedule: tsch.NewSchedule(nw.params.HoppingSequence),
		Routes:   rpl.NewRoutes(),
		DAG:      &rpl.DAG{},
		logger:   logger,
	}
	n.Rule = &sched.Rule{
		Self:   a,
		Params: nw.params,
		Routes: n.Routes,
		DAG:    n.DAG,
		Logger: logger,
	}
	if nw.metrics != nil {
		n.Rule.Metrics = nw.metrics.With("node", a.String())
	}
	if err := n.Rule.Init(n.Schedule); err != nil {
		return nil, serrors.Wrap("initializing rule", err, "addr", a)
	}
	n.Routes.Subscribe(n)
	n.DAG.Subscribe(n)
	nw.nodes[a] = n
	return n, nil
}

// Node returns the node with address a.
func (nw *Network) Node(a addr.LinkAddr) (*Node, bool) {
	nw.mtx.RLock()
	defer nw.mtx.RUnlock()
	n, ok := nw.nodes[a]
	return n, ok
}

// Nodes returns all nodes ordered by address.
func (nw *Network) Nodes() []*Node {
	nw.mtx.RLock()
	defer nw.mtx.RUnlock()
	nodes := make([]*Node, 0, len(nw.nodes))
	for _, n := range nw.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Addr.Compare(nodes[j].Addr) < 0 })
	return nodes
}

// SetRoot makes a the root of a DAG. A root has no parent.
func (nw *Network) SetRoot(a addr.LinkAddr) error {
	return nw.attach(a, addr.Null)
}

// SetParent attaches child to parent. The child keeps its subtree.
func (nw *Network) SetParent(child, parent addr.LinkAddr) error {
	if parent.IsNull() {
		return serrors.New("parent must not be null", "child", child)
	}
	return nw.attach(child, parent)
}

// Detach removes the node from its parent. The subtree below the node is
// kept and rejoins the DAG together with the node.
func (nw *Network) Detach(a addr.LinkAddr) error {
	nw.mtx.Lock()
	defer nw.mtx.Unlock()
	if _, ok := nw.nodes[a]; !ok {
		return serrors.Join(ErrUnknownNode, nil, "addr", a)
	}
	delete(nw.parents, a)
	nw.propagate()
	return nil
}

// RemoveNode detaches a and removes it from the network. Its children become
// detached.
func (nw *Network) RemoveNode(a addr.LinkAddr) error {
	nw.mtx.Lock()
	defer nw.mtx.Unlock()
	if _, ok := nw.nodes[a]; !ok {
		return serrors.Join(ErrUnknownNode, nil, "addr", a)
	}
	for c, p := range nw.parents {
		if p == a {
			delete(nw.parents, c)
		}
	}
	delete(nw.parents, a)
	nw.propagate()
	delete(nw.nodes, a)
	return nil
}

func (nw *Network) attach(child, parent addr.LinkAddr) error {
	nw.mtx.Lock()
	defer nw.mtx.Unlock()
	if _, ok := nw.nodes[child]; !ok {
		return serrors.Join(ErrUnknownNode, nil, "addr", child)
	}
	if !parent.IsNull() {
		if _, ok := nw.nodes[parent]; !ok {
			return serrors.Join(ErrUnknownNode, nil, "parent", parent)
		}
		for a := parent; !a.IsNull(); a = nw.parents[a] {
			if a == child {
				return serrors.Join(ErrCycle, nil, "child", child, "parent", parent)
			}
		}
	}
	nw.parents[child] = parent
	nw.propagate()
	return nil
}

// propagate updates the DAG trackers and route tables of all nodes to the
// current tree. The caller must hold the lock.
func (nw *Network) propagate() {
	for a, n := range nw.nodes {
		rank, attached := nw.rank(a)
		if !attached {
			n.DAG.Leave()
			continue
		}
		n.DAG.Join(rank, nw.parents[a])
	}
	for a, n := range nw.nodes {
		desired := nw.downwardRoutes(a)
		for dst := range n.Routes.Entries() {
			if _, ok := desired[dst]; !ok {
				n.Routes.RemoveRoute(dst)
			}
		}
		for dst, nh := range desired {
			if err := n.Routes.AddRoute(dst, nh); err != nil {
				n.logger.Error("Adding route", "dst", dst, "next_hop", nh, "err", err)
			}
		}
	}
	for a, n := range nw.nodes {
		p, ok := nw.parents[a]
		if !ok || p.IsNull() {
			continue
		}
		n.Rule.OnParentKnowsUs(nw.nodes[p].Routes.HasNextHop(a))
	}
}

// rank returns the rank of a, its depth below the root plus one, and whether
// a is attached to a root. The caller must hold the lock.
func (nw *Network) rank(a addr.LinkAddr) (uint16, bool) {
	depth := uint16(1)
	for {
		p, ok := nw.parents[a]
		if !ok {
			return 0, false
		}
		if p.IsNull() {
			return depth, true
		}
		a = p
		depth++
	}
}

// downwardRoutes returns the storing mode routes of a: every node of the
// subtree of a child is reached via that child. The caller must hold the
// lock.
func (nw *Network) downwardRoutes(a addr.LinkAddr) map[addr.LinkAddr]addr.LinkAddr {
	routes := make(map[addr.LinkAddr]addr.LinkAddr)
	if _, attached := nw.rank(a); !attached {
		return routes
	}
	for d := range nw.parents {
		if d == a {
			continue
		}
		// Walk up from d until the child of a on the path is found.
		prev := d
		for p := nw.parents[d]; !p.IsNull(); p = nw.parents[p] {
			if p == a {
				routes[d] = prev
				break
			}
			prev = p
		}
	}
	return routes
}

// Edges returns all (child, parent) pairs of nodes attached to a root,
// ordered by child address.
func (nw *Network) Edges() []Edge {
	nw.mtx.RLock()
	defer nw.mtx.RUnlock()
	return nw.edges()
}

func (nw *Network) edges() []Edge {
	var edges []Edge
	for c, p := range nw.parents {
		if _, attached := nw.rank(c); attached && !p.IsNull() {
			edges = append(edges, Edge{Child: c, Parent: p})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Child.Compare(edges[j].Child) < 0 })
	return edges
}

// Edge is a parent child relationship.
type Edge struct {
	Child  addr.LinkAddr `json:"child" yaml:"child"`
	Parent addr.LinkAddr `json:"parent" yaml:"parent"`
}
