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

package rpl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/rpl"
)

type event struct {
	kind string
	a, b addr.LinkAddr
	n    uint16
}

type recorder struct {
	events []event
}

func (r *recorder) ChildAdded(a addr.LinkAddr) {
	r.events = append(r.events, event{kind: "added", a: a})
}

func (r *recorder) ChildRemoved(a addr.LinkAddr) {
	r.events = append(r.events, event{kind: "removed", a: a})
}

func (r *recorder) TimeSourceChanged(old, new addr.LinkAddr) {
	r.events = append(r.events, event{kind: "time_source", a: old, b: new})
}

func (r *recorder) RankParityChanged(parity uint16) {
	r.events = append(r.events, event{kind: "parity", n: parity})
}

func TestRoutes(t *testing.T) {
	c1, c2 := addr.FromNodeID(2), addr.FromNodeID(3)
	d1, d2 := addr.FromNodeID(10), addr.FromNodeID(11)

	rec := &recorder{}
	r := rpl.NewRoutes()
	r.Subscribe(rec)

	require.NoError(t, r.AddRoute(c1, c1))
	require.NoError(t, r.AddRoute(d1, c1))
	require.NoError(t, r.AddRoute(d2, c2))
	assert.Error(t, r.AddRoute(addr.Null, c1))
	assert.Error(t, r.AddRoute(d1, addr.Broadcast))

	assert.Equal(t, []addr.LinkAddr{c1, c2}, r.NextHops())
	assert.True(t, r.HasNextHop(c1))
	assert.False(t, r.HasNextHop(d1))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, map[addr.LinkAddr]addr.LinkAddr{c1: c1, d1: c1, d2: c2}, r.Entries())
	gen := r.Generation()

	// Re-adding an unchanged route does not modify the table.
	require.NoError(t, r.AddRoute(d1, c1))
	assert.Equal(t, gen, r.Generation())

	// Moving d2 from c2 to c1 removes c2 from the children.
	require.NoError(t, r.AddRoute(d2, c1))
	assert.Equal(t, []addr.LinkAddr{c1}, r.NextHops())
	nh, ok := r.NextHop(d2)
	assert.True(t, ok)
	assert.Equal(t, c1, nh)

	assert.True(t, r.RemoveRoute(d1))
	assert.False(t, r.RemoveRoute(d1))
	assert.Equal(t, 2, r.RemoveNextHop(c1))
	assert.Equal(t, 0, r.RemoveNextHop(c1))
	assert.Empty(t, r.NextHops())

	assert.Equal(t, []event{
		{kind: "added", a: c1},
		{kind: "added", a: c2},
		{kind: "removed", a: c2},
		{kind: "removed", a: c1},
	}, rec.events)
}

func TestDAG(t *testing.T) {
	p1, p2 := addr.FromNodeID(1), addr.FromNodeID(4)
	rec := &recorder{}
	var d rpl.DAG
	d.Subscribe(rec)

	_, ok := d.RankParity()
	assert.False(t, ok)

	d.Join(256, p1)
	d.SetRank(258)
	d.SetRank(259)
	d.SetTimeSource(p1)
	d.SetTimeSource(p2)
	parity, ok := d.RankParity()
	assert.True(t, ok)
	assert.Equal(t, uint16(1), parity)
	assert.Equal(t, p2, d.TimeSource())
	d.Leave()

	assert.Equal(t, []event{
		{kind: "parity", n: 0},
		{kind: "time_source", a: addr.Null, b: p1},
		{kind: "parity", n: 1},
		{kind: "time_source", a: p1, b: p2},
		{kind: "time_source", a: p2, b: addr.Null},
		{kind: "parity", n: 0},
	}, rec.events)
}
