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

	"github.com/stretchr/testify/assert"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/hash"
	"github.com/tschsched/alice/sched"
)

func node(id uint16) addr.LinkAddr {
	return addr.FromNodeID(id)
}

func params(mode sched.Mode, up, down uint16) sched.Params {
	p := sched.DefaultParams()
	p.Mode = mode
	p.UpstreamPeriod = up
	p.DownstreamPeriod = down
	return p
}

func TestLocatorModes(t *testing.T) {
	a, b := node(7), node(9)
	testCases := map[string]struct {
		Mode     sched.Mode
		Up, Down sched.Cell
	}{
		"sender": {
			Mode: sched.ModeSender,
			Up:   sched.Cell{Timeslot: 2, ChannelOffset: 3},
			Down: sched.Cell{Timeslot: 7, ChannelOffset: 3},
		},
		"receiver": {
			Mode: sched.ModeReceiver,
			Up:   sched.Cell{Timeslot: 4, ChannelOffset: 1},
			Down: sched.Cell{Timeslot: 9, ChannelOffset: 1},
		},
		// 7 + 264*9 = 2383
		"link": {
			Mode: sched.ModeLink,
			Up:   sched.Cell{Timeslot: 3, ChannelOffset: 3},
			Down: sched.Cell{Timeslot: 8, ChannelOffset: 3},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			l := sched.NewLocator(params(tc.Mode, 5, 5))
			assert.Equal(t, tc.Up, l.Locate(sched.Upstream, a, b))
			assert.Equal(t, tc.Down, l.Locate(sched.Downstream, a, b))
		})
	}
}

func TestLocatorInvalid(t *testing.T) {
	for _, mode := range []sched.Mode{sched.ModeLink, sched.ModeSender, sched.ModeReceiver} {
		t.Run(mode.String(), func(t *testing.T) {
			l := sched.NewLocator(params(mode, 5, 5))
			for _, dir := range []sched.Direction{sched.Upstream, sched.Downstream} {
				assert.Equal(t, sched.InvalidSlot, l.Timeslot(dir, addr.Null, node(3)))
				assert.Equal(t, sched.InvalidSlot, l.Timeslot(dir, node(3), addr.Null))
				assert.False(t, l.Locate(dir, addr.Null, node(3)).Valid())
			}
			assert.Equal(t, sched.InvalidSlot, l.ChannelOffset(addr.Null, node(3)))

			noUp := sched.NewLocator(params(mode, 0, 5))
			assert.Equal(t, sched.InvalidSlot, noUp.Timeslot(sched.Upstream, node(1), node(2)))
			assert.Less(t, noUp.Timeslot(sched.Downstream, node(1), node(2)), uint16(5))

			noDown := sched.NewLocator(params(mode, 5, 0))
			assert.Equal(t, sched.InvalidSlot,
				noDown.Timeslot(sched.Downstream, node(1), node(2)))
		})
	}
}

func TestLocatorPartitionsHorizon(t *testing.T) {
	for _, name := range hash.Names() {
		h, err := hash.FromName(name)
		if err != nil {
			t.Fatal(err)
		}
		for _, mode := range []sched.Mode{sched.ModeLink, sched.ModeSender, sched.ModeReceiver} {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				p := params(mode, 7, 11)
				p.Hasher = h
				l := sched.NewLocator(p)
				for id := uint16(1); id < 400; id++ {
					a, b := node(id), node(id*31+5)
					up := l.Locate(sched.Upstream, a, b)
					down := l.Locate(sched.Downstream, a, b)
					assert.Less(t, up.Timeslot, uint16(7))
					assert.GreaterOrEqual(t, down.Timeslot, uint16(7))
					assert.Less(t, down.Timeslot, uint16(18))
					assert.Less(t, up.ChannelOffset, p.ChannelSpace())
					assert.NotEqual(t, up.Timeslot, down.Timeslot)
					// Pure function.
					assert.Equal(t, up, l.Locate(sched.Upstream, a, b))
					assert.Equal(t, down, sched.NewLocator(p).Locate(sched.Downstream, a, b))
				}
			})
		}
	}
}

func TestParamsDirectionOf(t *testing.T) {
	p := params(sched.ModeSender, 3, 4)
	testCases := map[uint16]struct {
		Direction sched.Direction
		OK        bool
	}{
		0:                 {Direction: sched.Upstream, OK: true},
		2:                 {Direction: sched.Upstream, OK: true},
		3:                 {Direction: sched.Downstream, OK: true},
		6:                 {Direction: sched.Downstream, OK: true},
		7:                 {},
		sched.InvalidSlot: {},
	}
	for ts, tc := range testCases {
		dir, ok := p.DirectionOf(ts)
		assert.Equal(t, tc.OK, ok, "timeslot %d", ts)
		if ok {
			assert.Equal(t, tc.Direction, dir, "timeslot %d", ts)
		}
	}
}
