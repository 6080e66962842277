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

package sched_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/gopacket/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/ieee802154"
	"github.com/tschsched/alice/pkg/log/testlog"
	"github.com/tschsched/alice/pkg/metrics"
	"github.com/tschsched/alice/pkg/rpl"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/pkg/tsch/mock_tsch"
	"github.com/tschsched/alice/sched"
	"github.com/tschsched/alice/sched/mock_sched"
)

func testMetrics() sched.Metrics {
	return sched.Metrics{
		Rebuilds:         metrics.NewTestCounter(),
		InstalledLinks:   metrics.NewTestGauge(),
		InstallErrors:    metrics.NewTestCounter(),
		PacketSelections: metrics.NewTestCounter(),
	}
}

func newRule(t *testing.T, self addr.LinkAddr, p sched.Params,
	routes sched.RouteTable) (*sched.Rule, *tsch.Schedule) {

	t.Helper()
	r := &sched.Rule{
		Self:    self,
		Params:  p,
		Routes:  routes,
		Logger:  testlog.NewLogger(t),
		Metrics: testMetrics(),
	}
	s := tsch.NewSchedule(p.HoppingSequence)
	// Dense child sets may alias onto occupied timeslots.
	if err := r.Init(s); err != nil {
		require.ErrorIs(t, err, tsch.ErrSlotOccupied)
	}
	return r, s
}

func TestRuleInit(t *testing.T) {
	t.Run("installs parent links", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		sf := mock_tsch.NewMockSlotframe(ctrl)
		sf.EXPECT().Handle().Return(uint16(1)).AnyTimes()
		sf.EXPECT().Size().Return(uint16(10)).AnyTimes()
		sf.EXPECT().Replace([]tsch.Link{cell(2, 2, txShared), cell(6, 1, rx)})
		engine := mock_tsch.NewMockEngine(ctrl)
		engine.EXPECT().AddSlotframe(uint16(1), uint16(10)).Return(sf, nil)

		r := &sched.Rule{Self: node(2), Params: params(sched.ModeSender, 5, 5),
			Logger: testlog.NewLogger(t)}
		require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))
		require.NoError(t, r.Init(engine))
		assert.Error(t, r.Init(engine))
	})
	t.Run("engine refuses slotframe", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		engine := mock_tsch.NewMockEngine(ctrl)
		engine.EXPECT().AddSlotframe(gomock.Any(), gomock.Any()).
			Return(nil, tsch.ErrDuplicateSlotframe)
		r := &sched.Rule{Self: node(2), Params: sched.DefaultParams(),
			Logger: testlog.NewLogger(t)}
		err := r.Init(engine)
		assert.ErrorIs(t, err, tsch.ErrDuplicateSlotframe)
		assert.ErrorIs(t, r.Rebuild(), sched.ErrNotInitialized)
	})
	t.Run("invalid params", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		engine := mock_tsch.NewMockEngine(ctrl)
		r := &sched.Rule{Self: node(2), Params: params(sched.ModeSender, 0, 0),
			Logger: testlog.NewLogger(t)}
		assert.Error(t, r.Init(engine))
	})
}

// A child whose upstream cell equals the upstream cell of the parent
// relationship gets a bidirectional link.
func TestRuleChildCollision(t *testing.T) {
	testCases := map[string]struct {
		Child    addr.LinkAddr
		Expected tsch.LinkOptions
	}{
		"collision":    {Child: node(22), Expected: txRxShared},
		"no collision": {Child: node(3), Expected: rx},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			routes := rpl.NewRoutes()
			require.NoError(t, routes.AddRoute(tc.Child, tc.Child))
			r, _ := newRule(t, node(2), params(sched.ModeSender, 5, 5), routes)
			require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))

			up := sched.NewLocator(r.Params).Locate(sched.Upstream, tc.Child, node(2))
			var found bool
			for _, l := range r.Links() {
				if l.Timeslot == up.Timeslot && l.ChannelOffset == up.ChannelOffset {
					found = true
					assert.Equal(t, tc.Expected, l.Options)
				}
			}
			assert.True(t, found)
		})
	}
}

// Without a time source no parent links are installed. Learning the time
// source installs exactly one upstream and one downstream link.
func TestRuleParentLifecycle(t *testing.T) {
	r, _ := newRule(t, node(2), params(sched.ModeSender, 5, 5), nil)
	assert.Empty(t, r.Links())
	assert.Equal(t, addr.Null, r.Parent())

	require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))
	links := r.Links()
	require.Len(t, links, 2)
	assert.Equal(t, []tsch.Link{cell(2, 2, txShared), cell(6, 1, rx)}, links)
	for _, l := range links {
		assert.NotEqual(t, sched.InvalidSlot, l.Timeslot)
	}

	// Switching parents moves the downstream cell.
	require.NoError(t, r.OnTimeSourceChanged(node(1), node(3)))
	assert.Equal(t, node(3), r.Parent())
	assert.Equal(t, []tsch.Link{cell(2, 2, txShared), cell(8, 3, rx)}, r.Links())

	require.NoError(t, r.OnTimeSourceChanged(node(3), addr.Null))
	assert.Empty(t, r.Links())
	assert.Equal(t, float64(4), metrics.CounterValue(r.Metrics.Rebuilds))

	// Unchanged time sources do not rebuild.
	require.NoError(t, r.OnTimeSourceChanged(node(3), node(3)))
	assert.Equal(t, float64(4), metrics.CounterValue(r.Metrics.Rebuilds))
}

// Adding and then removing a child restores the previous schedule.
func TestRuleChildAddRemove(t *testing.T) {
	routes := rpl.NewRoutes()
	require.NoError(t, routes.AddRoute(node(3), node(3)))
	r, _ := newRule(t, node(2), params(sched.ModeSender, 5, 5), routes)
	require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))
	before := r.Links()

	require.NoError(t, routes.AddRoute(node(9), node(9)))
	require.NoError(t, r.OnChildAdded(node(9)))
	assert.NotEmpty(t, cmp.Diff(before, r.Links()))

	require.True(t, routes.RemoveRoute(node(9)))
	require.NoError(t, r.OnChildRemoved(node(9)))
	assert.Empty(t, cmp.Diff(before, r.Links()))
}

// A disabled downstream period never installs downstream links.
func TestRuleDownstreamDisabled(t *testing.T) {
	routes := rpl.NewRoutes()
	require.NoError(t, routes.AddRoute(node(3), node(3)))
	require.NoError(t, routes.AddRoute(node(4), node(4)))
	p := params(sched.ModeSender, 5, 0)
	r, s := newRule(t, node(2), p, routes)
	require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))

	sf, ok := s.Slotframe(p.SlotframeHandle)
	require.True(t, ok)
	assert.Equal(t, uint16(5), sf.Size())
	links := r.Links()
	assert.Len(t, links, 3)
	for _, l := range links {
		assert.Less(t, l.Timeslot, p.UpstreamPeriod)
	}
}

func TestRuleRebuildIdempotent(t *testing.T) {
	routes := rpl.NewRoutes()
	for id := uint16(3); id < 30; id++ {
		require.NoError(t, routes.AddRoute(node(id), node(id)))
	}
	for _, mode := range []sched.Mode{sched.ModeLink, sched.ModeSender, sched.ModeReceiver} {
		t.Run(mode.String(), func(t *testing.T) {
			r, _ := newRule(t, node(2), params(mode, 13, 17), routes)
			_ = r.OnTimeSourceChanged(addr.Null, node(1))
			first := r.Links()
			_ = r.Rebuild()
			assert.Empty(t, cmp.Diff(first, r.Links()))
			_ = r.OnRankParityChanged(1)
			assert.Empty(t, cmp.Diff(first, r.Links()))
		})
	}
}

func TestRuleRefusedLinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Children 3 and 8 both receive in timeslot 3, on channel offsets 3 and 0.
	routes := mock_sched.NewMockRouteTable(ctrl)
	routes.EXPECT().NextHops().Return([]addr.LinkAddr{node(8), node(3)}).AnyTimes()
	dag := mock_sched.NewMockDAG(ctrl)
	dag.EXPECT().RankParity().Return(uint16(0), true).AnyTimes()

	r := &sched.Rule{
		Self:    node(2),
		Params:  params(sched.ModeSender, 5, 5),
		Routes:  routes,
		DAG:     dag,
		Logger:  testlog.NewLogger(t),
		Metrics: testMetrics(),
	}
	assert.ErrorIs(t, r.Init(tsch.NewSchedule(nil)), tsch.ErrSlotOccupied)
	err := r.OnTimeSourceChanged(addr.Null, node(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, tsch.ErrSlotOccupied)

	assert.Equal(t, []tsch.Link{
		cell(2, 2, txShared),
		cell(3, 0, rx),
		cell(6, 1, rx),
		cell(7, 2, txShared),
	}, r.Links())
	assert.Equal(t, float64(2), metrics.CounterValue(r.Metrics.InstallErrors))
	assert.Equal(t, float64(4), metrics.GaugeValue(r.Metrics.InstalledLinks))
}

// Node 17 receives from its child in timeslot 2 on channel offset 1, the
// timeslot node 2 transmits to its parent in on channel offset 2.
func TestRuleParentLinksWinTimeslot(t *testing.T) {
	routes := rpl.NewRoutes()
	require.NoError(t, routes.AddRoute(node(17), node(17)))
	r, _ := newRule(t, node(2), sched.DefaultParams(), routes)

	err := r.OnTimeSourceChanged(addr.Null, node(1))
	assert.ErrorIs(t, err, tsch.ErrSlotOccupied)
	assert.Equal(t, []tsch.Link{
		cell(2, 2, txShared),
		cell(6, 1, rx),
		cell(7, 2, txShared),
	}, r.Links())
	assert.Equal(t, float64(1), metrics.CounterValue(r.Metrics.InstallErrors))

	sel, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(1))
	require.True(t, ok)
	assert.Equal(t, sched.Selection{Slotframe: 1, Timeslot: 2, ChannelOffset: 2,
		Direction: sched.Upstream}, sel)
}

// Node 2 receives from parent 7 in timeslot 7 on channel offset 3. Its
// downstream cell (7, 2) is refused, so frames to the child are not claimed.
func TestSelectSkipsRefusedCell(t *testing.T) {
	routes := rpl.NewRoutes()
	require.NoError(t, routes.AddRoute(node(3), node(3)))
	r, _ := newRule(t, node(2), params(sched.ModeSender, 5, 5), routes)

	err := r.OnTimeSourceChanged(addr.Null, node(7))
	assert.ErrorIs(t, err, tsch.ErrSlotOccupied)
	assert.Equal(t, []tsch.Link{
		cell(2, 2, txShared),
		cell(3, 3, rx),
		cell(7, 3, rx),
	}, r.Links())

	_, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(3))
	assert.False(t, ok)
	sel, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(7))
	require.True(t, ok)
	assert.Equal(t, uint16(2), sel.Timeslot)
	assert.Equal(t, uint16(2), sel.ChannelOffset)

	selections := r.Metrics.PacketSelections
	assert.Equal(t, float64(1),
		metrics.CounterValue(selections.With("result", "not_claimed")))
}

func TestRuleInconsistentSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var gen uint64
	routes := mock_sched.NewMockVersionedRouteTable(ctrl)
	routes.EXPECT().Generation().DoAndReturn(func() uint64 {
		gen++
		return gen
	}).Times(6)
	routes.EXPECT().NextHops().Return([]addr.LinkAddr{node(3)}).Times(3)

	p := params(sched.ModeSender, 5, 5)
	p.MaxRebuildAttempts = 3
	r := &sched.Rule{Self: node(2), Params: p, Routes: routes,
		Logger: testlog.NewLogger(t)}
	err := r.Init(tsch.NewSchedule(nil))
	assert.ErrorIs(t, err, sched.ErrInconsistentSnapshot)
	// The last snapshot is installed regardless.
	assert.Equal(t, []tsch.Link{cell(3, 3, rx), cell(7, 2, txShared)}, r.Links())
}

func TestRuleEventsBeforeInit(t *testing.T) {
	r := &sched.Rule{Self: node(2), Params: sched.DefaultParams(),
		Logger: testlog.NewLogger(t)}
	assert.NoError(t, r.OnChildAdded(node(3)))
	assert.NoError(t, r.OnChildRemoved(node(3)))
	assert.NoError(t, r.OnRankParityChanged(1))
	assert.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))
	assert.Nil(t, r.Links())
	_, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(1))
	assert.False(t, ok)
	r.OnSlotframeStart(1, 10)
}

func TestSelectSlotForPacket(t *testing.T) {
	self, parent, child := node(2), node(1), node(3)
	routes := rpl.NewRoutes()
	require.NoError(t, routes.AddRoute(child, child))
	require.NoError(t, routes.AddRoute(node(40), child))

	testCases := map[string]struct {
		FrameType ieee802154.FrameType
		Dst       addr.LinkAddr
		Expected  sched.Selection
		Claimed   bool
	}{
		"data to parent": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       parent,
			Expected: sched.Selection{Slotframe: 1, Timeslot: 2, ChannelOffset: 2,
				Direction: sched.Upstream},
			Claimed: true,
		},
		"data to child": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       child,
			Expected: sched.Selection{Slotframe: 1, Timeslot: 7, ChannelOffset: 2,
				Direction: sched.Downstream},
			Claimed: true,
		},
		"data to descendant": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       node(40),
		},
		"command to parent": {
			FrameType: ieee802154.FrameTypeCommand,
			Dst:       parent,
		},
		"broadcast": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       addr.Broadcast,
		},
		"null": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       addr.Null,
		},
		"unknown": {
			FrameType: ieee802154.FrameTypeData,
			Dst:       node(77),
		},
	}
	r, _ := newRule(t, self, params(sched.ModeSender, 5, 5), routes)
	require.NoError(t, r.OnTimeSourceChanged(addr.Null, parent))
	installed := r.Links()
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			sel, ok := r.SelectSlotForPacket(tc.FrameType, tc.Dst)
			assert.Equal(t, tc.Claimed, ok)
			assert.Equal(t, tc.Expected, sel)
			if !ok {
				return
			}
			// The selected cell is installed with transmit capability.
			var found bool
			for _, l := range installed {
				if l.Timeslot == sel.Timeslot && l.ChannelOffset == sel.ChannelOffset {
					found = l.Options.Has(tsch.LinkOptionTX)
				}
			}
			assert.True(t, found)
		})
	}
	selections := r.Metrics.PacketSelections
	assert.Equal(t, float64(1), metrics.CounterValue(selections.With("result", "upstream")))
	assert.Equal(t, float64(1), metrics.CounterValue(selections.With("result", "downstream")))
	assert.Equal(t, float64(5),
		metrics.CounterValue(selections.With("result", "not_claimed")))
}

func TestSelectRequiresParentAck(t *testing.T) {
	routes := rpl.NewRoutes()
	p := params(sched.ModeSender, 5, 5)
	p.RequireParentAck = true
	r, _ := newRule(t, node(2), p, routes)
	require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))

	_, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(1))
	assert.False(t, ok)
	r.OnParentKnowsUs(true)
	sel, ok := r.SelectSlotForPacket(ieee802154.FrameTypeData, node(1))
	assert.True(t, ok)
	assert.Equal(t, sched.Upstream, sel.Direction)

	// A new parent has to acknowledge again.
	require.NoError(t, r.OnTimeSourceChanged(node(1), node(4)))
	_, ok = r.SelectSlotForPacket(ieee802154.FrameTypeData, node(4))
	assert.False(t, ok)

	// A parent that is also a next hop is claimed regardless.
	require.NoError(t, routes.AddRoute(node(4), node(4)))
	sel, ok = r.SelectSlotForPacket(ieee802154.FrameTypeData, node(4))
	assert.True(t, ok)
	assert.Equal(t, sched.Upstream, sel.Direction)

	// The gate only applies in sender mode.
	p.Mode = sched.ModeReceiver
	r2, _ := newRule(t, node(2), p, nil)
	require.NoError(t, r2.OnTimeSourceChanged(addr.Null, node(1)))
	_, ok = r2.SelectSlotForPacket(ieee802154.FrameTypeData, node(1))
	assert.True(t, ok)
}

func TestSelectFrame(t *testing.T) {
	r, _ := newRule(t, node(2), params(sched.ModeSender, 5, 5), nil)
	require.NoError(t, r.OnTimeSourceChanged(addr.Null, node(1)))

	serialize := func(t *testing.T, f *ieee802154.Frame) []byte {
		buf := gopacket.NewSerializeBuffer()
		require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, f,
			gopacket.Payload([]byte{1, 2, 3})))
		return buf.Bytes()
	}
	data := serialize(t, &ieee802154.Frame{
		Type:             ieee802154.FrameTypeData,
		PANIDCompression: true,
		DstAddrMode:      ieee802154.AddrModeExtended,
		SrcAddrMode:      ieee802154.AddrModeExtended,
		DstPAN:           0xabcd,
		DstAddr:          node(1),
		SrcAddr:          node(2),
	})
	sel, ok, err := r.SelectFrame(data)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint16(2), sel.Timeslot)

	beacon := serialize(t, &ieee802154.Frame{
		Type:        ieee802154.FrameTypeBeacon,
		DstAddrMode: ieee802154.AddrModeShort,
		SrcAddrMode: ieee802154.AddrModeExtended,
		DstPAN:      0xabcd,
		DstShort:    ieee802154.BroadcastShort,
		SrcAddr:     node(2),
	})
	_, ok, err = r.SelectFrame(beacon)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = r.SelectFrame([]byte{0x41})
	assert.Error(t, err)
}
