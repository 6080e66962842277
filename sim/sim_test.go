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

package sim_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/log/testlog"
	"github.com/tschsched/alice/pkg/metrics"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/sched"
	"github.com/tschsched/alice/sim"
)

func node(id uint16) addr.LinkAddr {
	return addr.FromNodeID(id)
}

// newNetwork builds the tree
//
//	1
//	├── 2
//	│   ├── 4
//	│   └── 5
//	└── 3
func newNetwork(t *testing.T, p sched.Params) *sim.Network {
	t.Helper()
	nw := sim.NewNetwork(p, sim.WithLogger(testlog.NewLogger(t)))
	topo := sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(4), Parent: node(2)},
		{Addr: node(1)},
		{Addr: node(2), Parent: node(1)},
		{Addr: node(3), Parent: node(1)},
		{Addr: node(5), Parent: node(2)},
	}}
	require.NoError(t, sim.Build(topo, nw))
	return nw
}

func TestNetworkConsistent(t *testing.T) {
	for _, mode := range []sched.Mode{sched.ModeLink, sched.ModeSender, sched.ModeReceiver} {
		t.Run(mode.String(), func(t *testing.T) {
			p := sched.DefaultParams()
			p.Mode = mode
			p.UpstreamPeriod, p.DownstreamPeriod = 13, 17
			nw := newNetwork(t, p)
			assert.Len(t, nw.Edges(), 4)
			assert.Empty(t, nw.Verify())
		})
	}
}

func TestNetworkRoutes(t *testing.T) {
	nw := newNetwork(t, sched.DefaultParams())
	root, ok := nw.Node(node(1))
	require.True(t, ok)
	assert.Equal(t, map[addr.LinkAddr]addr.LinkAddr{
		node(2): node(2),
		node(3): node(3),
		node(4): node(2),
		node(5): node(2),
	}, root.Routes.Entries())
	assert.Equal(t, []addr.LinkAddr{node(2), node(3)}, root.Routes.NextHops())
	assert.Equal(t, addr.Null, root.Parent())

	n4, ok := nw.Node(node(4))
	require.True(t, ok)
	assert.Equal(t, node(2), n4.Parent())
	rank, joined := n4.DAG.Rank()
	assert.True(t, joined)
	assert.Equal(t, uint16(3), rank)
	assert.Empty(t, n4.Routes.NextHops())
}

func TestNetworkReparent(t *testing.T) {
	nw := newNetwork(t, sched.DefaultParams())
	n2, _ := nw.Node(node(2))
	n3, _ := nw.Node(node(3))
	before2, before3 := n2.Links(), n3.Links()

	require.NoError(t, nw.SetParent(node(5), node(3)))
	assert.Empty(t, nw.Verify())
	root, _ := nw.Node(node(1))
	nh, ok := root.Routes.NextHop(node(5))
	require.True(t, ok)
	assert.Equal(t, node(3), nh)
	assert.NotEmpty(t, cmp.Diff(before3, n3.Links()))

	require.NoError(t, nw.SetParent(node(5), node(2)))
	assert.Empty(t, nw.Verify())
	assert.Empty(t, cmp.Diff(before2, n2.Links()))
	assert.Empty(t, cmp.Diff(before3, n3.Links()))
}

func TestNetworkRejectsCycles(t *testing.T) {
	nw := newNetwork(t, sched.DefaultParams())
	assert.ErrorIs(t, nw.SetParent(node(2), node(4)), sim.ErrCycle)
	assert.ErrorIs(t, nw.SetParent(node(2), node(2)), sim.ErrCycle)
	assert.ErrorIs(t, nw.SetParent(node(2), node(9)), sim.ErrUnknownNode)
	assert.ErrorIs(t, nw.SetParent(node(9), node(2)), sim.ErrUnknownNode)
	assert.Error(t, nw.SetParent(node(2), addr.Null))
	_, err := nw.AddNode(node(2))
	assert.ErrorIs(t, err, sim.ErrNodeExists)
	_, err = nw.AddNode(addr.Null)
	assert.ErrorIs(t, err, addr.ErrInvalidLinkAddr)
}

func TestNetworkDetachAndRemove(t *testing.T) {
	nw := newNetwork(t, sched.DefaultParams())
	require.NoError(t, nw.Detach(node(2)))
	assert.Len(t, nw.Edges(), 1)
	assert.Empty(t, nw.Verify())

	n4, _ := nw.Node(node(4))
	assert.Equal(t, addr.Null, n4.Parent())
	assert.Empty(t, n4.Links())
	root, _ := nw.Node(node(1))
	assert.Equal(t, []addr.LinkAddr{node(3)}, root.Routes.NextHops())

	require.NoError(t, nw.SetParent(node(2), node(3)))
	assert.Len(t, nw.Edges(), 4)
	assert.Empty(t, nw.Verify())
	assert.Equal(t, node(2), n4.Parent())

	require.NoError(t, nw.RemoveNode(node(3)))
	_, ok := nw.Node(node(3))
	assert.False(t, ok)
	assert.Len(t, nw.Nodes(), 4)
	assert.Empty(t, nw.Edges())
	assert.ErrorIs(t, nw.RemoveNode(node(3)), sim.ErrUnknownNode)
}

// A cell refused by the slot table shows up as violation.
func TestVerifyReportsRefusedCells(t *testing.T) {
	p := sched.DefaultParams()
	nw := sim.NewNetwork(p, sim.WithLogger(testlog.NewLogger(t)))
	// Children 3 and 8 of root 2 both transmit upstream in timeslot 3.
	topo := sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(2)},
		{Addr: node(3), Parent: node(2)},
		{Addr: node(8), Parent: node(2)},
	}}
	require.NoError(t, sim.Build(topo, nw))
	violations := nw.Verify()
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, node(2), v.Node)
	assert.Equal(t, node(3), v.Child)
	assert.Equal(t, sched.Upstream, v.Direction)
	assert.Equal(t, tsch.LinkOptionRX, v.Missing)
	assert.Contains(t, v.String(), "lacks RX")
}

func TestVerifier(t *testing.T) {
	nw := sim.NewNetwork(sched.DefaultParams(), sim.WithLogger(testlog.NewLogger(t)))
	require.NoError(t, sim.Build(sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(2)},
		{Addr: node(3), Parent: node(2)},
	}}, nw))
	gauge := metrics.NewTestGauge()
	v := &sim.Verifier{Network: nw, Violations: gauge, Logger: testlog.NewLogger(t)}
	assert.Equal(t, "schedule_verifier", v.Name())
	v.Run(context.Background())
	assert.Equal(t, float64(0), metrics.GaugeValue(gauge))

	_, err := nw.AddNode(node(8))
	require.NoError(t, err)
	require.NoError(t, nw.SetParent(node(8), node(2)))
	v.Run(context.Background())
	assert.Equal(t, float64(1), metrics.GaugeValue(gauge))
}

func TestNetworkMetrics(t *testing.T) {
	m := sched.Metrics{
		Rebuilds:         metrics.NewTestCounter(),
		InstalledLinks:   metrics.NewTestGauge(),
		InstallErrors:    metrics.NewTestCounter(),
		PacketSelections: metrics.NewTestCounter(),
	}
	nw := sim.NewNetwork(sched.DefaultParams(), sim.WithLogger(testlog.NewLogger(t)),
		sim.WithMetrics(m))
	require.NoError(t, sim.Build(sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(1)},
		{Addr: node(2), Parent: node(1)},
	}}, nw))
	n2 := m.InstalledLinks.With("node", node(2).String())
	assert.Equal(t, float64(2), metrics.GaugeValue(n2))
}

func TestLoadTopology(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "topo.toml")
	raw := `
[[node]]
addr = "00:12:4b:00:00:00:00:01"

[[node]]
addr = "00:12:4b:00:00:00:00:02"
parent = "00:12:4b:00:00:00:00:01"
`
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
	topo, err := sim.LoadTopology(file)
	require.NoError(t, err)
	assert.Equal(t, sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(1)},
		{Addr: node(2), Parent: node(1)},
	}}, topo)

	testCases := map[string]string{
		"undeclared parent": `
[[node]]
addr = "00:12:4b:00:00:00:00:02"
parent = "00:12:4b:00:00:00:00:01"
`,
		"duplicate": `
[[node]]
addr = "00:12:4b:00:00:00:00:01"
[[node]]
addr = "00:12:4b:00:00:00:00:01"
`,
		"bad address": `
[[node]]
addr = "zz"
`,
		"unknown field": `
[[node]]
addr = "00:12:4b:00:00:00:00:01"
rank = 3
`,
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "topo.toml")
			require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
			_, err := sim.LoadTopology(file)
			assert.Error(t, err)
		})
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	nw := sim.NewNetwork(sched.DefaultParams(), sim.WithLogger(testlog.NewLogger(t)))
	err := sim.Build(sim.Topology{Nodes: []sim.NodeSpec{
		{Addr: node(1), Parent: node(2)},
		{Addr: node(2), Parent: node(1)},
	}}, nw)
	assert.Error(t, err)
}
