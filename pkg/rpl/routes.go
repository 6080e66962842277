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

// Package rpl contains the in-memory collaborators of the unicast scheduler
// that a RPL storing-mode stack would otherwise provide: the downward route
// table whose next hops are the children of the node, and the DAG tracker that
// reports rank and time-source changes.
package rpl

import (
	"sort"
	"sync"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/private/serrors"
)

// RouteListener is notified when a next hop appears in or disappears from the
// route table. Callbacks run outside of the table lock and may call back into
// the table.
type RouteListener interface {
	ChildAdded(child addr.LinkAddr)
	ChildRemoved(child addr.LinkAddr)
}

// Routes is a downward route table. Every destination is reached via exactly
// one next hop, and the set of distinct next hops is the child set of the
// node.
//
// A Routes{} is not valid, use NewRoutes.
type Routes struct {
	// mtx protects all fields below. Listeners are called after it is
	// released.
	mtx sync.RWMutex
	// routes maps destinations to next hops.
	routes map[addr.LinkAddr]addr.LinkAddr
	// refs counts the destinations routed via each next hop.
	refs       map[addr.LinkAddr]int
	generation uint64
	listeners  []RouteListener
}

// NewRoutes creates an empty route table.
func NewRoutes() *Routes {
	return &Routes{
		routes: make(map[addr.LinkAddr]addr.LinkAddr),
		refs:   make(map[addr.LinkAddr]int),
	}
}

// Subscribe registers l for next hop changes.
func (r *Routes) Subscribe(l RouteListener) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.listeners = append(r.listeners, l)
}

// AddRoute routes dst via nextHop. An existing route for dst is replaced.
func (r *Routes) AddRoute(dst, nextHop addr.LinkAddr) error {
	if dst.IsNull() || nextHop.IsNull() || dst.IsBroadcast() || nextHop.IsBroadcast() {
		return serrors.New("invalid route", "dst", dst, "next_hop", nextHop)
	}
	var added, removed []addr.LinkAddr
	r.mtx.Lock()
	if old, ok := r.routes[dst]; ok {
		if old == nextHop {
			r.mtx.Unlock()
			return nil
		}
		if r.release(old) {
			removed = append(removed, old)
		}
	}
	r.routes[dst] = nextHop
	r.refs[nextHop]++
	if r.refs[nextHop] == 1 {
		added = append(added, nextHop)
	}
	r.generation++
	listeners := r.listeners
	r.mtx.Unlock()

	notify(listeners, added, removed)
	return nil
}

// RemoveRoute removes the route for dst. It reports whether a route existed.
func (r *Routes) RemoveRoute(dst addr.LinkAddr) bool {
	var removed []addr.LinkAddr
	r.mtx.Lock()
	nextHop, ok := r.routes[dst]
	if !ok {
		r.mtx.Unlock()
		return false
	}
	delete(r.routes, dst)
	if r.release(nextHop) {
		removed = append(removed, nextHop)
	}
	r.generation++
	listeners := r.listeners
	r.mtx.Unlock()

	notify(listeners, nil, removed)
	return true
}

// RemoveNextHop removes all routes via nextHop, for example after the link to
// it broke. It returns the number of removed routes.
func (r *Routes) RemoveNextHop(nextHop addr.LinkAddr) int {
	r.mtx.Lock()
	n := 0
	for dst, nh := range r.routes {
		if nh == nextHop {
			delete(r.routes, dst)
			n++
		}
	}
	if n == 0 {
		r.mtx.Unlock()
		return 0
	}
	delete(r.refs, nextHop)
	r.generation++
	listeners := r.listeners
	r.mtx.Unlock()

	notify(listeners, nil, []addr.LinkAddr{nextHop})
	return n
}

// NextHops returns a snapshot of the distinct next hops, ordered by address.
func (r *Routes) NextHops() []addr.LinkAddr {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	hops := make([]addr.LinkAddr, 0, len(r.refs))
	for nh := range r.refs {
		hops = append(hops, nh)
	}
	sort.Slice(hops, func(i, j int) bool { return hops[i].Compare(hops[j]) < 0 })
	return hops
}

// HasNextHop reports whether a is the next hop of at least one route.
func (r *Routes) HasNextHop(a addr.LinkAddr) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	_, ok := r.refs[a]
	return ok
}

// NextHop returns the next hop towards dst.
func (r *Routes) NextHop(dst addr.LinkAddr) (addr.LinkAddr, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	nh, ok := r.routes[dst]
	return nh, ok
}

// Entries returns a snapshot of all routes, keyed by destination.
func (r *Routes) Entries() map[addr.LinkAddr]addr.LinkAddr {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	entries := make(map[addr.LinkAddr]addr.LinkAddr, len(r.routes))
	for dst, nh := range r.routes {
		entries[dst] = nh
	}
	return entries
}

// Generation is incremented on every modification of the table. Two equal
// generations bracket an unmodified table.
func (r *Routes) Generation() uint64 {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.generation
}

// Len returns the number of routes.
func (r *Routes) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.routes)
}

// release drops one reference to nextHop and reports whether it was the last.
// The caller must hold the lock.
func (r *Routes) release(nextHop addr.LinkAddr) bool {
	r.refs[nextHop]--
	if r.refs[nextHop] > 0 {
		return false
	}
	delete(r.refs, nextHop)
	return true
}

func notify(listeners []RouteListener, added, removed []addr.LinkAddr) {
	for _, l := range listeners {
		for _, a := range removed {
			l.ChildRemoved(a)
		}
		for _, a := range added {
			l.ChildAdded(a)
		}
	}
}
