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

package tsch

import (
	"errors"
	"sort"
	"sync"

	"github.com/tschsched/alice/pkg/private/serrors"
)

var (
	// ErrSlotOccupied indicates that a different link already owns the timeslot.
	ErrSlotOccupied = errors.New("timeslot occupied")
	// ErrInvalidTimeslot indicates a timeslot outside of the slotframe.
	ErrInvalidTimeslot = errors.New("invalid timeslot")
	// ErrInvalidChannelOffset indicates a channel offset outside of the
	// channel space.
	ErrInvalidChannelOffset = errors.New("invalid channel offset")
	// ErrDuplicateSlotframe indicates that the slotframe handle is taken.
	ErrDuplicateSlotframe = errors.New("duplicate slotframe handle")
	// ErrLinkNotFound indicates that no link is installed at the timeslot.
	ErrLinkNotFound = errors.New("link not found")
)

// Slotframe is a repeating sequence of timeslots holding at most one link per
// timeslot.
type Slotframe interface {
	// Handle returns the slotframe identifier.
	Handle() uint16
	// Size returns the number of timeslots.
	Size() uint16
	// AddLink installs a single link.
	AddLink(l Link) error
	// RemoveLink removes the link installed at timeslot.
	RemoveLink(timeslot uint16) error
	// Links returns a snapshot of the installed links ordered by timeslot.
	Links() []Link
	// Replace atomically swaps the installed links for links. Links that
	// cannot be installed are skipped and reported in the returned error;
	// all others are installed.
	Replace(links []Link) error
}

// Engine owns the slotframes of a node.
type Engine interface {
	// AddSlotframe creates an empty slotframe.
	AddSlotframe(handle, size uint16) (Slotframe, error)
}

var _ Engine = (*Schedule)(nil)

// Schedule is an in-memory slot-table engine. It is safe for concurrent use:
// the slot-execution side (LinksAt) and the installation side (Replace) never
// observe each other's intermediate states.
type Schedule struct {
	hopping HoppingSequence

	mtx        sync.RWMutex
	slotframes map[uint16]*slotframe
}

// NewSchedule creates an empty schedule. An empty hopping sequence selects
// DefaultHoppingSequence.
func NewSchedule(hopping HoppingSequence) *Schedule {
	if len(hopping) == 0 {
		hopping = DefaultHoppingSequence
	}
	return &Schedule{
		hopping:    hopping,
		slotframes: make(map[uint16]*slotframe),
	}
}

// HoppingSequence returns the hopping sequence of the schedule.
func (s *Schedule) HoppingSequence() HoppingSequence {
	return s.hopping
}

// AddSlotframe creates an empty slotframe with the given handle and size.
func (s *Schedule) AddSlotframe(handle, size uint16) (Slotframe, error) {
	if size == 0 {
		return nil, serrors.New("slotframe size must be positive", "handle", handle)
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.slotframes[handle]; ok {
		return nil, serrors.Join(ErrDuplicateSlotframe, nil, "handle", handle)
	}
	sf := &slotframe{
		handle:       handle,
		size:         size,
		channelSpace: s.hopping.ChannelSpace(),
		links:        make(map[uint16]Link),
	}
	s.slotframes[handle] = sf
	return sf, nil
}

// Slotframe returns the slotframe with the given handle.
func (s *Schedule) Slotframe(handle uint16) (Slotframe, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	sf, ok := s.slotframes[handle]
	if !ok {
		return nil, false
	}
	return sf, true
}

// Slotframes returns all slotframes ordered by handle.
func (s *Schedule) Slotframes() []Slotframe {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	handles := make([]uint16, 0, len(s.slotframes))
	for h := range s.slotframes {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	sfs := make([]Slotframe, 0, len(handles))
	for _, h := range handles {
		sfs = append(sfs, s.slotframes[h])
	}
	return sfs
}

// ActiveLink is a link that is active at a given ASN.
type ActiveLink struct {
	Link
	Handle  uint16 `json:"slotframe"`
	Channel uint8  `json:"channel"`
}

// LinksAt returns the links active at the absolute slot number asn, ordered
// by slotframe handle. Lower handles take precedence in the execution engine.
func (s *Schedule) LinksAt(asn uint64) []ActiveLink {
	var active []ActiveLink
	for _, sf := range s.Slotframes() {
		ts := uint16(asn % uint64(sf.Size()))
		l, ok := sf.(*slotframe).linkAt(ts)
		if !ok {
			continue
		}
		active = append(active, ActiveLink{
			Link:    l,
			Handle:  sf.Handle(),
			Channel: s.hopping.Channel(asn, l.ChannelOffset),
		})
	}
	return active
}

type slotframe struct {
	handle       uint16
	size         uint16
	channelSpace uint16

	// mtx protects links. Replace builds the new table outside of the lock and
	// only swaps the map under it.
	mtx   sync.RWMutex
	links map[uint16]Link
}

func (sf *slotframe) Handle() uint16 {
	return sf.handle
}

func (sf *slotframe) Size() uint16 {
	return sf.size
}

func (sf *slotframe) AddLink(l Link) error {
	if err := sf.validate(l); err != nil {
		return err
	}
	sf.mtx.Lock()
	defer sf.mtx.Unlock()
	return insert(sf.links, l)
}

func (sf *slotframe) RemoveLink(timeslot uint16) error {
	sf.mtx.Lock()
	defer sf.mtx.Unlock()
	if _, ok := sf.links[timeslot]; !ok {
		return serrors.Join(ErrLinkNotFound, nil, "handle", sf.handle, "timeslot", timeslot)
	}
	delete(sf.links, timeslot)
	return nil
}

func (sf *slotframe) Links() []Link {
	sf.mtx.RLock()
	defer sf.mtx.RUnlock()
	links := make([]Link, 0, len(sf.links))
	for _, l := range sf.links {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Less(links[j]) })
	return links
}

func (sf *slotframe) Replace(links []Link) error {
	table := make(map[uint16]Link, len(links))
	var errs serrors.List
	for _, l := range links {
		if err := sf.validate(l); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := insert(table, l); err != nil {
			errs = append(errs, err)
		}
	}
	sf.mtx.Lock()
	sf.links = table
	sf.mtx.Unlock()
	return errs.ToError()
}

func (sf *slotframe) linkAt(ts uint16) (Link, bool) {
	sf.mtx.RLock()
	defer sf.mtx.RUnlock()
	l, ok := sf.links[ts]
	return l, ok
}

func (sf *slotframe) validate(l Link) error {
	if l.Timeslot >= sf.size {
		return serrors.Join(ErrInvalidTimeslot, nil,
			"handle", sf.handle, "timeslot", l.Timeslot, "size", sf.size)
	}
	if sf.channelSpace > 0 && l.ChannelOffset >= sf.channelSpace {
		return serrors.Join(ErrInvalidChannelOffset, nil,
			"handle", sf.handle, "channel_offset", l.ChannelOffset,
			"channel_space", sf.channelSpace)
	}
	return nil
}

// insert adds l to table. Installing an identical link twice is a no-op.
func insert(table map[uint16]Link, l Link) error {
	if existing, ok := table[l.Timeslot]; ok {
		if existing == l {
			return nil
		}
		return serrors.Join(ErrSlotOccupied, nil,
			"timeslot", l.Timeslot, "installed", existing, "refused", l)
	}
	table[l.Timeslot] = l
	return nil
}
