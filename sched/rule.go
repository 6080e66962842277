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

// Package sched implements a deterministic unicast scheduling rule for
// time-slotted channel-hopping networks organized as a tree. Each node
// derives the cells it shares with its parent and with each of its children
// from a hash of their link addresses, so parents and children agree on their
// schedule without negotiation.
//
// The unicast slotframe is split into an upstream period, used for traffic
// towards the root, followed by a downstream period, used for traffic away
// from the root. The Rule rebuilds the complete slotframe whenever the parent
// or the child set changes, and selects the cell of outgoing unicast frames.
package sched

import (
	"errors"
	"sync"

	"github.com/gopacket/gopacket"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/ieee802154"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/metrics"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/pkg/tsch"
)

var (
	// ErrNotInitialized indicates that the rule has no slotframe yet.
	ErrNotInitialized = errors.New("rule not initialized")
	// ErrInconsistentSnapshot indicates that the route table changed during
	// every rebuild attempt.
	ErrInconsistentSnapshot = errors.New("inconsistent route table snapshot")
)

// RouteTable enumerates the children of the node. NextHops must return a
// snapshot that is not modified by later changes of the table.
type RouteTable interface {
	NextHops() []addr.LinkAddr
	HasNextHop(a addr.LinkAddr) bool
}

// VersionedRouteTable is a RouteTable that counts its modifications. Rules
// use the generation to detect snapshots taken during a modification.
type VersionedRouteTable interface {
	RouteTable
	Generation() uint64
}

// DAG reports the DAG membership of the node.
type DAG interface {
	// RankParity returns the rank modulo 2. The second return value is false
	// if the node is not part of a DAG.
	RankParity() (uint16, bool)
}

// Selection is the cell selected for an outgoing frame.
type Selection struct {
	Slotframe     uint16    `json:"slotframe" yaml:"slotframe"`
	Timeslot      uint16    `json:"timeslot" yaml:"timeslot"`
	ChannelOffset uint16    `json:"channel_offset" yaml:"channel_offset"`
	Direction     Direction `json:"-" yaml:"-"`
}

// Rule is the unicast scheduling rule of one node. All event handlers are
// serialized. A Rule must be initialized with Init before it installs links.
type Rule struct {
	// Self is the link address of the node.
	Self addr.LinkAddr
	// Params are the scheduling parameters shared by the whole network.
	Params Params
	// Routes enumerates the children. A nil table means no children.
	Routes RouteTable
	// DAG is optional. If set, the rank parity is logged on rebuilds.
	DAG DAG
	// Logger is optional. If nil, the root logger is used.
	Logger log.Logger
	// Metrics are optional.
	Metrics Metrics

	mtx           sync.Mutex
	locator       Locator
	sf            tsch.Slotframe
	parent        addr.LinkAddr
	parentKnowsUs bool
}

// Init creates the unicast slotframe in engine and installs the links of the
// current parent. It must be called exactly once.
func (r *Rule) Init(engine tsch.Engine) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.sf != nil {
		return serrors.New("rule already initialized", "handle", r.Params.SlotframeHandle)
	}
	if r.Params.Hasher == nil {
		return serrors.New("rule has no hash function")
	}
	if r.Params.Horizon() == 0 {
		return serrors.New("rule has an empty horizon")
	}
	sf, err := engine.AddSlotframe(r.Params.SlotframeHandle, r.Params.Horizon())
	if err != nil {
		return serrors.Wrap("creating unicast slotframe", err,
			"handle", r.Params.SlotframeHandle, "size", r.Params.Horizon())
	}
	r.locator = NewLocator(r.Params)
	r.sf = sf
	r.logger().Info("Unicast slotframe created",
		"handle", sf.Handle(), "size", sf.Size(), "mode", r.Params.Mode,
		"upstream_period", r.Params.UpstreamPeriod,
		"downstream_period", r.Params.DownstreamPeriod)
	return r.rebuild()
}

// Parent returns the current parent, or addr.Null.
func (r *Rule) Parent() addr.LinkAddr {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.parent
}

// Links returns the links installed in the unicast slotframe.
func (r *Rule) Links() []tsch.Link {
	r.mtx.Lock()
	sf := r.sf
	r.mtx.Unlock()
	if sf == nil {
		return nil
	}
	return sf.Links()
}

// OnTimeSourceChanged updates the parent and rebuilds the schedule if the
// time source changed. A null address means that the node has no parent.
func (r *Rule) OnTimeSourceChanged(old, new addr.LinkAddr) error {
	if old == new {
		return nil
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if new.IsBroadcast() {
		new = addr.Null
	}
	r.logger().Info("Parent changed", "old", r.parent, "new", new)
	r.parent = new
	r.parentKnowsUs = false
	return r.rebuildIfInitialized()
}

// OnRankParityChanged rebuilds the schedule. The parity does not enter the
// cell computation.
func (r *Rule) OnRankParityChanged(parity uint16) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.logger().Debug("Rank parity changed", "parity", parity)
	return r.rebuildIfInitialized()
}

// OnChildAdded rebuilds the schedule after a child was added.
func (r *Rule) OnChildAdded(child addr.LinkAddr) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.logger().Debug("Child added", "child", child)
	return r.rebuildIfInitialized()
}

// OnChildRemoved rebuilds the schedule after a child was removed.
func (r *Rule) OnChildRemoved(child addr.LinkAddr) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.logger().Debug("Child removed", "child", child)
	return r.rebuildIfInitialized()
}

// OnParentKnowsUs records whether the parent has acknowledged the node, for
// example by installing a route to it. It only affects packet selection when
// RequireParentAck is set in sender mode.
func (r *Rule) OnParentKnowsUs(knows bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.parentKnowsUs = knows
}

// OnSlotframeStart is called by the engine at the start of every slotframe.
func (r *Rule) OnSlotframeStart(handle, size uint16) {
	if handle != r.Params.SlotframeHandle || size != r.Params.Horizon() {
		return
	}
	logger := r.logger()
	if logger.Enabled(log.DebugLevel) {
		logger.Debug("Unicast slotframe started", "handle", handle, "size", size)
	}
}

// Rebuild recomputes and installs the unicast slotframe.
func (r *Rule) Rebuild() error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.sf == nil {
		return ErrNotInitialized
	}
	return r.rebuild()
}

// rebuildIfInitialized rebuilds the slotframe if Init was called. Events that
// arrive earlier only update the state that Init installs. The caller must
// hold the lock.
func (r *Rule) rebuildIfInitialized() error {
	if r.sf == nil {
		return nil
	}
	return r.rebuild()
}

// rebuild replaces the links of the slotframe. Links refused by the engine
// are logged and counted, all others are installed. The caller must hold the
// lock.
func (r *Rule) rebuild() error {
	logger := r.logger()
	var errs serrors.List
	links, children, err := r.synthesize()
	if err != nil {
		logger.Error("Installing schedule of modified route table", "err", err,
			"attempts", r.Params.MaxRebuildAttempts)
		errs = append(errs, err)
	}
	installErr := r.sf.Replace(links)
	metrics.CounterInc(r.Metrics.Rebuilds)

	refused := 0
	if installErr != nil {
		var refusals serrors.List
		if !errors.As(installErr, &refusals) {
			refusals = serrors.List{installErr}
		}
		refused = len(refusals)
		for _, e := range refusals {
			logger.Error("Link refused by slot table", "err", e)
		}
		metrics.CounterAdd(r.Metrics.InstallErrors, float64(refused))
		errs = append(errs, serrors.Wrap("installing links", installErr, "refused", refused))
	}
	metrics.GaugeSet(r.Metrics.InstalledLinks, float64(len(links)-refused))

	if logger.Enabled(log.DebugLevel) {
		ctx := []any{"links", len(links) - refused, "children", len(children),
			"parent", r.parent}
		if r.DAG != nil {
			if parity, ok := r.DAG.RankParity(); ok {
				ctx = append(ctx, "rank_parity", parity)
			}
		}
		logger.Debug("Unicast schedule rebuilt", ctx...)
	}
	return errs.ToError()
}

// synthesize computes the links from a route table snapshot. If the table
// changes during every attempt, the last computation is returned together
// with ErrInconsistentSnapshot.
func (r *Rule) synthesize() ([]tsch.Link, []addr.LinkAddr, error) {
	topo := Topology{Self: r.Self, Parent: r.parent}
	if r.Routes == nil {
		return Synthesize(r.Params, topo), nil, nil
	}
	versioned, ok := r.Routes.(VersionedRouteTable)
	if !ok {
		topo.Children = r.Routes.NextHops()
		return Synthesize(r.Params, topo), topo.Children, nil
	}
	attempts := r.Params.MaxRebuildAttempts
	if attempts < 1 {
		attempts = 1
	}
	var links []tsch.Link
	for i := 0; i < attempts; i++ {
		gen := versioned.Generation()
		topo.Children = versioned.NextHops()
		links = Synthesize(r.Params, topo)
		if versioned.Generation() == gen {
			return links, topo.Children, nil
		}
		r.logger().Debug("Route table changed during rebuild, retrying", "attempt", i+1)
	}
	return links, topo.Children, ErrInconsistentSnapshot
}

// SelectSlotForPacket returns the cell for a frame of the given type to dst.
// The rule claims unicast data frames to its parent, which use the upstream
// cell, and to its children, which use the downstream cell. All other frames
// are left to other rules. The cell is recomputed by the locator and only
// claimed if the slot table carries a transmit link in it. A cell lost to a
// timeslot conflict is not claimed.
func (r *Rule) SelectSlotForPacket(frameType ieee802154.FrameType,
	dst addr.LinkAddr) (Selection, bool) {

	sel, ok := r.selectSlot(frameType, dst)
	result := SelectionNotClaimed
	if ok {
		result = sel.Direction.String()
	}
	metrics.CounterInc(metrics.CounterWith(r.Metrics.PacketSelections, "result", result))
	return sel, ok
}

func (r *Rule) selectSlot(frameType ieee802154.FrameType,
	dst addr.LinkAddr) (Selection, bool) {

	if frameType != ieee802154.FrameTypeData || dst.IsNull() || dst.IsBroadcast() {
		return Selection{}, false
	}
	r.mtx.Lock()
	sf := r.sf
	isParent := dst == r.parent
	gated := r.Params.RequireParentAck && r.Params.Mode == ModeSender && !r.parentKnowsUs
	locator := r.locator
	r.mtx.Unlock()
	if sf == nil {
		return Selection{}, false
	}

	isChild := r.Routes != nil && r.Routes.HasNextHop(dst)
	if !(isParent && !gated) && !isChild {
		return Selection{}, false
	}
	dir := Downstream
	if isParent {
		dir = Upstream
	}
	cell := locator.Locate(dir, r.Self, dst)
	if !cell.Valid() || !installedTX(sf, cell) {
		return Selection{}, false
	}
	return Selection{
		Slotframe:     r.Params.SlotframeHandle,
		Timeslot:      cell.Timeslot,
		ChannelOffset: cell.ChannelOffset,
		Direction:     dir,
	}, true
}

// installedTX reports whether sf transmits in cell c.
func installedTX(sf tsch.Slotframe, c Cell) bool {
	for _, l := range sf.Links() {
		if l.Timeslot == c.Timeslot {
			return l.ChannelOffset == c.ChannelOffset && l.Options.Has(tsch.LinkOptionTX)
		}
	}
	return false
}

// SelectFrame decodes the IEEE 802.15.4 header of raw and selects the cell of
// the frame. Only frames with an extended destination address can be claimed.
func (r *Rule) SelectFrame(raw []byte) (Selection, bool, error) {
	var frame ieee802154.Frame
	if err := frame.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return Selection{}, false, serrors.Wrap("decoding frame", err)
	}
	sel, ok := r.SelectSlotForPacket(frame.Type, frame.Destination())
	return sel, ok, nil
}

func (r *Rule) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Root()
}
