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
	"fmt"

	"github.com/tschsched/alice/pkg/addr"
)

// InvalidSlot marks a timeslot or channel offset that could not be located
// because an address is unknown or the period is disabled. It never aliases a
// valid slot since the horizon is always smaller.
const InvalidSlot uint16 = 0xffff

// Direction distinguishes the two halves of the slotframe.
type Direction uint8

const (
	// Upstream cells carry traffic from a child to its parent. They occupy
	// timeslots [0, UpstreamPeriod).
	Upstream Direction = iota
	// Downstream cells carry traffic from a parent to its child. They occupy
	// timeslots [UpstreamPeriod, UpstreamPeriod+DownstreamPeriod).
	Downstream
)

func (d Direction) String() string {
	switch d {
	case Upstream:
		return "upstream"
	case Downstream:
		return "downstream"
	}
	return fmt.Sprintf("UNKNOWN (%d)", d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Cell is a (timeslot, channel offset) pair in the unicast slotframe.
type Cell struct {
	Timeslot      uint16 `json:"timeslot" yaml:"timeslot"`
	ChannelOffset uint16 `json:"channel_offset" yaml:"channel_offset"`
}

// Valid reports whether both coordinates are located.
func (c Cell) Valid() bool {
	return c.Timeslot != InvalidSlot && c.ChannelOffset != InvalidSlot
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Timeslot, c.ChannelOffset)
}

// Locator maps a transmission from sender to receiver to a cell. It is a pure
// function of its inputs and the parameters, which is what lets every node
// compute the cells of its neighbors without exchanging messages.
type Locator struct {
	params Params
}

// NewLocator creates a locator for the given parameters.
func NewLocator(p Params) Locator {
	return Locator{params: p}
}

// Locate returns the cell used in direction dir for transmissions from sender
// to receiver.
func (l Locator) Locate(dir Direction, sender, receiver addr.LinkAddr) Cell {
	return Cell{
		Timeslot:      l.Timeslot(dir, sender, receiver),
		ChannelOffset: l.ChannelOffset(sender, receiver),
	}
}

// Timeslot returns the timeslot used in direction dir, or InvalidSlot.
// Downstream timeslots are shifted behind the upstream period.
func (l Locator) Timeslot(dir Direction, sender, receiver addr.LinkAddr) uint16 {
	period, base := l.params.UpstreamPeriod, uint16(0)
	if dir == Downstream {
		period, base = l.params.DownstreamPeriod, l.params.UpstreamPeriod
	}
	ts := l.locate(sender, receiver, period)
	if ts == InvalidSlot {
		return InvalidSlot
	}
	return base + ts
}

// ChannelOffset returns the channel offset, or InvalidSlot. Channel offsets
// are not partitioned by direction.
func (l Locator) ChannelOffset(sender, receiver addr.LinkAddr) uint16 {
	return l.locate(sender, receiver, l.params.ChannelSpace())
}

// locate hashes the operands selected by the mode modulo period.
func (l Locator) locate(sender, receiver addr.LinkAddr, period uint16) uint16 {
	if sender.IsNull() || receiver.IsNull() || period == 0 {
		return InvalidSlot
	}
	var h uint32
	switch l.params.Mode {
	case ModeLink:
		h = l.params.Hasher.Hash2(sender, receiver)
	case ModeSender:
		h = l.params.Hasher.Hash(sender)
	case ModeReceiver:
		h = l.params.Hasher.Hash(receiver)
	default:
		return InvalidSlot
	}
	return uint16(h % uint32(period))
}
