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
	"io"
	"math"

	"github.com/tschsched/alice/pkg/hash"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/private/config"
)

const (
	// DefaultPeriod is the default length of the upstream and the downstream
	// period in timeslots.
	DefaultPeriod = 5
	// DefaultMaxHash is the largest value produced by the default hash
	// function.
	DefaultMaxHash = 0x7fff
	// DefaultSlotframeHandle is the default handle of the unicast slotframe.
	DefaultSlotframeHandle = 1
	// DefaultMaxRebuildAttempts is the default number of attempts to compute a
	// schedule from a stable route table snapshot.
	DefaultMaxRebuildAttempts = 3
)

const schedulerSample = `
# Length of the upstream period in timeslots. 0 disables upstream links.
# (default 5)
upstream_period = 5

# Length of the downstream period in timeslots. 0 disables downstream links.
# (default 5)
downstream_period = 5

# Operand selection of the slot hash (link|sender|receiver). (default sender)
mode = "sender"

# Whether the hash function maps distinct nodes to distinct values up to
# max_hash. Together with sender mode this lets upstream cells drop the shared
# flag when the horizon covers the hash space. (default false)
collision_free_hash = false

# Largest value produced by the hash function. (default 32767)
max_hash = 32767

# Hash function (last_byte|fnv1a|xxhash). (default last_byte)
hash = "last_byte"

# Channel hopping sequence. Its length is the channel offset space.
# (default [15, 25, 26, 20])
hopping_sequence = [15, 25, 26, 20]

# Handle of the unicast slotframe. (default 1)
slotframe_handle = 1

# In sender mode, only claim frames to the parent after the parent confirmed
# that it knows this node. (default false)
require_parent_ack = false

# Number of attempts to compute a schedule from a route table that is not
# modified concurrently. (default 3)
max_rebuild_attempts = 3
`

// Config is the scheduler configuration.
type Config struct {
	// UpstreamPeriod is the length of the upstream period. Nil selects
	// DefaultPeriod, 0 disables upstream links.
	UpstreamPeriod     *int   `toml:"upstream_period,omitempty"`
	// DownstreamPeriod is the length of the downstream period. Nil selects
	// DefaultPeriod, 0 disables downstream links.
	DownstreamPeriod   *int   `toml:"downstream_period,omitempty"`
	Mode               string `toml:"mode,omitempty"`
	CollisionFreeHash  bool   `toml:"collision_free_hash,omitempty"`
	MaxHash            uint32 `toml:"max_hash,omitempty"`
	Hash               string `toml:"hash,omitempty"`
	HoppingSequence    []int  `toml:"hopping_sequence,omitempty"`
	SlotframeHandle    uint16 `toml:"slotframe_handle,omitempty"`
	RequireParentAck   bool   `toml:"require_parent_ack,omitempty"`
	MaxRebuildAttempts int    `toml:"max_rebuild_attempts,omitempty"`
}

// InitDefaults populates unset fields with their default values.
func (c *Config) InitDefaults() {
	if c.UpstreamPeriod == nil {
		c.UpstreamPeriod = intPtr(DefaultPeriod)
	}
	if c.DownstreamPeriod == nil {
		c.DownstreamPeriod = intPtr(DefaultPeriod)
	}
	if c.Mode == "" {
		c.Mode = ModeSender.String()
	}
	if c.MaxHash == 0 {
		c.MaxHash = DefaultMaxHash
	}
	if c.Hash == "" {
		c.Hash = hash.NameLastByte
	}
	if len(c.HoppingSequence) == 0 {
		for _, ch := range tsch.DefaultHoppingSequence {
			c.HoppingSequence = append(c.HoppingSequence, int(ch))
		}
	}
	if c.SlotframeHandle == 0 {
		c.SlotframeHandle = DefaultSlotframeHandle
	}
	if c.MaxRebuildAttempts == 0 {
		c.MaxRebuildAttempts = DefaultMaxRebuildAttempts
	}
}

// Validate checks that the configuration resolves to valid parameters.
func (c *Config) Validate() error {
	_, err := c.Params()
	return err
}

// Sample writes the sample configuration to dst.
func (c *Config) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, schedulerSample)
}

// ConfigName returns the name of the configuration block.
func (c *Config) ConfigName() string {
	return "scheduler"
}

// Params resolves the configuration. InitDefaults must be called first.
func (c *Config) Params() (Params, error) {
	if c.UpstreamPeriod == nil || c.DownstreamPeriod == nil {
		return Params{}, serrors.New("periods not initialized")
	}
	up, down := *c.UpstreamPeriod, *c.DownstreamPeriod
	if up < 0 || down < 0 || up > math.MaxUint16 || down > math.MaxUint16 {
		return Params{}, serrors.New("period out of range",
			"upstream_period", up, "downstream_period", down)
	}
	if up+down == 0 || up+down >= int(InvalidSlot) {
		return Params{}, serrors.New("invalid horizon",
			"upstream_period", up, "downstream_period", down)
	}
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return Params{}, err
	}
	h, err := hash.FromName(c.Hash)
	if err != nil {
		return Params{}, err
	}
	if len(c.HoppingSequence) == 0 {
		return Params{}, serrors.New("empty hopping sequence")
	}
	if len(c.HoppingSequence) >= int(InvalidSlot) {
		return Params{}, serrors.New("hopping sequence too long",
			"length", len(c.HoppingSequence))
	}
	hopping := make(tsch.HoppingSequence, 0, len(c.HoppingSequence))
	for _, ch := range c.HoppingSequence {
		if ch < 0 || ch > math.MaxUint8 {
			return Params{}, serrors.New("invalid channel in hopping sequence", "channel", ch)
		}
		hopping = append(hopping, uint8(ch))
	}
	if c.MaxRebuildAttempts < 1 {
		return Params{}, serrors.New("max_rebuild_attempts must be positive",
			"max_rebuild_attempts", c.MaxRebuildAttempts)
	}
	return Params{
		UpstreamPeriod:     uint16(up),
		DownstreamPeriod:   uint16(down),
		Mode:               mode,
		Hasher:             h,
		CollisionFreeHash:  c.CollisionFreeHash,
		MaxHash:            c.MaxHash,
		HoppingSequence:    hopping,
		SlotframeHandle:    c.SlotframeHandle,
		RequireParentAck:   c.RequireParentAck,
		MaxRebuildAttempts: c.MaxRebuildAttempts,
	}, nil
}

func intPtr(v int) *int {
	return &v
}

// Mode selects which addresses are hashed to locate a cell.
type Mode uint8

const (
	// ModeLink hashes the ordered (sender, receiver) pair.
	ModeLink Mode = iota
	// ModeSender hashes the sender. All transmissions of a node share one
	// cell per direction.
	ModeSender
	// ModeReceiver hashes the receiver. All receptions of a node share one
	// cell per direction.
	ModeReceiver
)

func (m Mode) String() string {
	switch m {
	case ModeLink:
		return "link"
	case ModeSender:
		return "sender"
	case ModeReceiver:
		return "receiver"
	}
	return fmt.Sprintf("UNKNOWN (%d)", m)
}

// ParseMode parses the textual representation of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "link":
		return ModeLink, nil
	case "sender":
		return ModeSender, nil
	case "receiver":
		return ModeReceiver, nil
	}
	return 0, serrors.New("unknown mode", "mode", s)
}

// Params are the resolved, immutable scheduler parameters. All nodes of a
// network must use equal parameters to agree on their schedules.
type Params struct {
	UpstreamPeriod     uint16
	DownstreamPeriod   uint16
	Mode               Mode
	Hasher             hash.Hasher
	CollisionFreeHash  bool
	MaxHash            uint32
	HoppingSequence    tsch.HoppingSequence
	SlotframeHandle    uint16
	RequireParentAck   bool
	MaxRebuildAttempts int
}

// DefaultParams returns the parameters of the default configuration.
func DefaultParams() Params {
	var cfg Config
	cfg.InitDefaults()
	p, err := cfg.Params()
	if err != nil {
		panic(fmt.Sprintf("default scheduler config is invalid: %s", err))
	}
	return p
}

// Horizon returns the slotframe size, the sum of both periods.
func (p Params) Horizon() uint16 {
	return p.UpstreamPeriod + p.DownstreamPeriod
}

// DirectionOf returns the direction of the period containing timeslot. The
// second return value is false if the timeslot lies outside of the horizon.
func (p Params) DirectionOf(timeslot uint16) (Direction, bool) {
	switch {
	case timeslot < p.UpstreamPeriod:
		return Upstream, true
	case timeslot < p.Horizon():
		return Downstream, true
	}
	return 0, false
}

// ChannelSpace returns the number of channel offsets.
func (p Params) ChannelSpace() uint16 {
	return p.HoppingSequence.ChannelSpace()
}

// SharedFlag returns the options added to every transmit cell. In sender mode
// with a collision free hash, a horizon covering the complete hash space can
// not alias and transmit cells are dedicated. Otherwise they are shared.
func (p Params) SharedFlag() tsch.LinkOptions {
	if p.Mode == ModeSender && p.CollisionFreeHash {
		if uint64(p.Horizon()) < uint64(p.MaxHash)+1 {
			return tsch.LinkOptionShared
		}
		return 0
	}
	return tsch.LinkOptionShared
}
