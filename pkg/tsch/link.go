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

// Package tsch models the time-slotted channel-hopping slot table: links,
// slotframes and the hopping sequence. Schedule is an in-memory slot-table
// engine that installs links and answers which link is active at a given
// absolute slot number (ASN).
package tsch

import (
	"fmt"
	"strings"

	"github.com/tschsched/alice/pkg/addr"
)

// LinkOptions is a bit set of link directions and capabilities.
type LinkOptions uint8

const (
	// LinkOptionTX allows transmitting in the cell.
	LinkOptionTX LinkOptions = 1 << iota
	// LinkOptionRX allows receiving in the cell.
	LinkOptionRX
	// LinkOptionShared marks the cell as contention based: transmissions
	// back off and retry on failure.
	LinkOptionShared
	// LinkOptionTimeKeeping marks the cell as usable for time synchronization.
	LinkOptionTimeKeeping
)

// Has reports whether all options in o2 are set in o.
func (o LinkOptions) Has(o2 LinkOptions) bool {
	return o&o2 == o2
}

func (o LinkOptions) String() string {
	if o == 0 {
		return "-"
	}
	var parts []string
	if o.Has(LinkOptionTX) {
		parts = append(parts, "TX")
	}
	if o.Has(LinkOptionRX) {
		parts = append(parts, "RX")
	}
	if o.Has(LinkOptionShared) {
		parts = append(parts, "SH")
	}
	if o.Has(LinkOptionTimeKeeping) {
		parts = append(parts, "TK")
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (o LinkOptions) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// LinkType distinguishes data cells from advertising cells.
type LinkType uint8

const (
	LinkTypeNormal LinkType = iota
	LinkTypeAdvertising
	LinkTypeAdvertisingOnly
)

func (t LinkType) String() string {
	switch t {
	case LinkTypeNormal:
		return "normal"
	case LinkTypeAdvertising:
		return "adv"
	case LinkTypeAdvertisingOnly:
		return "adv-only"
	}
	return fmt.Sprintf("UNKNOWN (%d)", t)
}

// MarshalText implements encoding.TextMarshaler.
func (t LinkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Link is one cell of a slotframe.
type Link struct {
	Timeslot      uint16        `json:"timeslot" yaml:"timeslot"`
	ChannelOffset uint16        `json:"channel_offset" yaml:"channel_offset"`
	Options       LinkOptions   `json:"options" yaml:"options"`
	Type          LinkType      `json:"type" yaml:"type"`
	Addr          addr.LinkAddr `json:"addr" yaml:"addr"`
}

func (l Link) String() string {
	return fmt.Sprintf("ts=%d choff=%d opt=%s type=%s addr=%s",
		l.Timeslot, l.ChannelOffset, l.Options, l.Type, l.Addr)
}

// Less orders links by timeslot, then channel offset.
func (l Link) Less(o Link) bool {
	if l.Timeslot != o.Timeslot {
		return l.Timeslot < o.Timeslot
	}
	return l.ChannelOffset < o.ChannelOffset
}

// HoppingSequence is the channel list cycled through by channel hopping. Its
// length is the channel space available to channel offsets.
type HoppingSequence []uint8

// DefaultHoppingSequence is the four channel sequence used by default.
var DefaultHoppingSequence = HoppingSequence{15, 25, 26, 20}

// ChannelSpace returns the number of distinct channel offsets.
func (h HoppingSequence) ChannelSpace() uint16 {
	return uint16(len(h))
}

// Channel returns the physical channel used by a cell with the given channel
// offset at absolute slot number asn.
func (h HoppingSequence) Channel(asn uint64, channelOffset uint16) uint8 {
	if len(h) == 0 {
		return 0
	}
	return h[(asn+uint64(channelOffset))%uint64(len(h))]
}
