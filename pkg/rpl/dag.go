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

package rpl

import (
	"sync"

	"github.com/tschsched/alice/pkg/addr"
)

// DAGListener is notified about changes of the DAG membership of the node.
// Callbacks run outside of the tracker lock.
type DAGListener interface {
	// TimeSourceChanged is called when the time source neighbor changes. A
	// null address means no time source.
	TimeSourceChanged(old, new addr.LinkAddr)
	// RankParityChanged is called when the rank parity flips, or when the
	// node joins or leaves a DAG.
	RankParityChanged(parity uint16)
}

// DAG tracks the rank and the time source (preferred parent) of the node.
type DAG struct {
	mtx        sync.Mutex
	joined     bool
	rank       uint16
	timeSource addr.LinkAddr
	listeners  []DAGListener
}

// Subscribe registers l for DAG changes.
func (d *DAG) Subscribe(l DAGListener) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.listeners = append(d.listeners, l)
}

// Join records that the node joined a DAG with the given rank and time source.
func (d *DAG) Join(rank uint16, timeSource addr.LinkAddr) {
	d.SetRank(rank)
	d.SetTimeSource(timeSource)
}

// Leave records that the node left its DAG. The time source is cleared.
func (d *DAG) Leave() {
	d.mtx.Lock()
	wasJoined := d.joined
	d.joined = false
	d.rank = 0
	listeners := d.listeners
	d.mtx.Unlock()

	d.SetTimeSource(addr.Null)
	if wasJoined {
		for _, l := range listeners {
			l.RankParityChanged(0)
		}
	}
}

// SetRank updates the rank of the node. Listeners are notified if the parity
// of the rank changes, or when the node had no DAG before.
func (d *DAG) SetRank(rank uint16) {
	d.mtx.Lock()
	changed := !d.joined || d.rank%2 != rank%2
	d.joined = true
	d.rank = rank
	listeners := d.listeners
	d.mtx.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l.RankParityChanged(rank % 2)
	}
}

// SetTimeSource updates the time source. Listeners are notified only if it
// differs from the current one.
func (d *DAG) SetTimeSource(ts addr.LinkAddr) {
	d.mtx.Lock()
	old := d.timeSource
	d.timeSource = ts
	listeners := d.listeners
	d.mtx.Unlock()

	if old == ts {
		return
	}
	for _, l := range listeners {
		l.TimeSourceChanged(old, ts)
	}
}

// TimeSource returns the current time source, or the null address.
func (d *DAG) TimeSource() addr.LinkAddr {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.timeSource
}

// Rank returns the current rank. The second return value is false if the node
// is not part of a DAG.
func (d *DAG) Rank() (uint16, bool) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.rank, d.joined
}

// RankParity returns rank mod 2. The second return value is false if the node
// is not part of a DAG.
func (d *DAG) RankParity() (uint16, bool) {
	rank, ok := d.Rank()
	return rank % 2, ok
}
