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

// Package ieee802154 implements the IEEE 802.15.4 MAC header as a gopacket
// layer. Only the fields relevant for scheduling are supported: frame control,
// sequence number, PAN identifiers and short or extended addresses. Security
// headers and information elements are not decoded and are left in the
// payload. The frame check sequence is expected to be stripped by the radio.
package ieee802154

import (
	"encoding/binary"
	"fmt"

	"github.com/gopacket/gopacket"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/private/serrors"
)

var (
	LayerTypeFrame = gopacket.RegisterLayerType(
		1100,
		gopacket.LayerTypeMetadata{
			Name:    "IEEE802154",
			Decoder: gopacket.DecodeFunc(decodeFrame),
		},
	)
	LayerClassFrame gopacket.LayerClass = LayerTypeFrame
)

// BroadcastShort is the short broadcast address and PAN identifier.
const BroadcastShort uint16 = 0xffff

// FrameType is the type of a MAC frame.
type FrameType uint8

const (
	FrameTypeBeacon  FrameType = 0
	FrameTypeData    FrameType = 1
	FrameTypeAck     FrameType = 2
	FrameTypeCommand FrameType = 3
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeBeacon:
		return "Beacon"
	case FrameTypeData:
		return "Data"
	case FrameTypeAck:
		return "Ack"
	case FrameTypeCommand:
		return "Command"
	}
	return fmt.Sprintf("UNKNOWN (%d)", t)
}

// AddrMode is the addressing mode of the source or destination address.
type AddrMode uint8

const (
	AddrModeNone     AddrMode = 0
	AddrModeShort    AddrMode = 2
	AddrModeExtended AddrMode = 3
)

// Len returns the length of the address field in bytes.
func (m AddrMode) Len() int {
	switch m {
	case AddrModeShort:
		return 2
	case AddrModeExtended:
		return addr.LinkAddrLen
	}
	return 0
}

func (m AddrMode) valid() bool {
	return m == AddrModeNone || m == AddrModeShort || m == AddrModeExtended
}

// BaseLayer holds the common contents and payload of a layer.
type BaseLayer struct {
	Contents []byte
	Payload  []byte
}

// LayerContents returns the bytes of the header.
func (b *BaseLayer) LayerContents() []byte { return b.Contents }

// LayerPayload returns the bytes following the header.
func (b *BaseLayer) LayerPayload() []byte { return b.Payload }

// Frame is the IEEE 802.15.4 MAC header.
type Frame struct {
	BaseLayer
	Type             FrameType
	SecurityEnabled  bool
	FramePending     bool
	AckRequest       bool
	PANIDCompression bool
	Version          uint8
	DstAddrMode      AddrMode
	SrcAddrMode      AddrMode
	Seq              uint8

	DstPAN uint16
	SrcPAN uint16
	// DstShort and SrcShort are set for AddrModeShort.
	DstShort uint16
	SrcShort uint16
	// DstAddr and SrcAddr are set for AddrModeExtended.
	DstAddr addr.LinkAddr
	SrcAddr addr.LinkAddr
}

func (f *Frame) LayerType() gopacket.LayerType {
	return LayerTypeFrame
}

func (f *Frame) CanDecode() gopacket.LayerClass {
	return LayerClassFrame
}

func (f *Frame) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// Destination returns the destination as link address. Short broadcast
// destinations map to addr.Broadcast, all other non-extended destinations map
// to addr.Null.
func (f *Frame) Destination() addr.LinkAddr {
	switch f.DstAddrMode {
	case AddrModeExtended:
		return f.DstAddr
	case AddrModeShort:
		if f.DstShort == BroadcastShort {
			return addr.Broadcast
		}
	}
	return addr.Null
}

// Source returns the extended source address, or addr.Null.
func (f *Frame) Source() addr.LinkAddr {
	if f.SrcAddrMode == AddrModeExtended {
		return f.SrcAddr
	}
	return addr.Null
}

// hasSrcPAN reports whether the source PAN identifier is present on the wire.
func (f *Frame) hasSrcPAN() bool {
	return f.SrcAddrMode != AddrModeNone && !f.PANIDCompression
}

// HeaderLen returns the length of the header in bytes.
func (f *Frame) HeaderLen() int {
	l := 3
	if f.DstAddrMode != AddrModeNone {
		l += 2 + f.DstAddrMode.Len()
	}
	if f.hasSrcPAN() {
		l += 2
	}
	return l + f.SrcAddrMode.Len()
}

// DecodeFromBytes implements the gopacket.DecodingLayer.DecodeFromBytes method.
func (f *Frame) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 3 {
		df.SetTruncated()
		return serrors.New("frame too short", "length", len(data))
	}
	fcf := binary.LittleEndian.Uint16(data[0:2])
	f.Type = FrameType(fcf & 0x7)
	f.SecurityEnabled = fcf&(1<<3) != 0
	f.FramePending = fcf&(1<<4) != 0
	f.AckRequest = fcf&(1<<5) != 0
	f.PANIDCompression = fcf&(1<<6) != 0
	f.DstAddrMode = AddrMode((fcf >> 10) & 0x3)
	f.Version = uint8((fcf >> 12) & 0x3)
	f.SrcAddrMode = AddrMode((fcf >> 14) & 0x3)
	f.Seq = data[2]
	if !f.DstAddrMode.valid() || !f.SrcAddrMode.valid() {
		return serrors.New("reserved addressing mode",
			"dst_mode", f.DstAddrMode, "src_mode", f.SrcAddrMode)
	}

	hdrLen := f.HeaderLen()
	if len(data) < hdrLen {
		df.SetTruncated()
		return serrors.New("frame header truncated", "length", len(data), "header", hdrLen)
	}
	f.DstPAN, f.SrcPAN = 0, 0
	f.DstShort, f.SrcShort = 0, 0
	f.DstAddr, f.SrcAddr = addr.Null, addr.Null

	off := 3
	if f.DstAddrMode != AddrModeNone {
		f.DstPAN = binary.LittleEndian.Uint16(data[off:])
		off += 2
		off += decodeAddr(data[off:], f.DstAddrMode, &f.DstShort, &f.DstAddr)
	}
	if f.SrcAddrMode != AddrModeNone {
		if f.hasSrcPAN() {
			f.SrcPAN = binary.LittleEndian.Uint16(data[off:])
			off += 2
		} else {
			f.SrcPAN = f.DstPAN
		}
		off += decodeAddr(data[off:], f.SrcAddrMode, &f.SrcShort, &f.SrcAddr)
	}
	f.BaseLayer = BaseLayer{Contents: data[:off], Payload: data[off:]}
	return nil
}

// SerializeTo implements the gopacket.SerializableLayer.SerializeTo method.
func (f *Frame) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if f.Type > FrameTypeCommand {
		return serrors.New("unsupported frame type", "type", f.Type)
	}
	if !f.DstAddrMode.valid() || !f.SrcAddrMode.valid() {
		return serrors.New("reserved addressing mode",
			"dst_mode", f.DstAddrMode, "src_mode", f.SrcAddrMode)
	}
	bytes, err := b.PrependBytes(f.HeaderLen())
	if err != nil {
		return err
	}
	fcf := uint16(f.Type) |
		uint16(f.DstAddrMode)<<10 |
		uint16(f.Version&0x3)<<12 |
		uint16(f.SrcAddrMode)<<14
	for i, set := range []bool{f.SecurityEnabled, f.FramePending, f.AckRequest,
		f.PANIDCompression} {

		if set {
			fcf |= 1 << (3 + i)
		}
	}
	binary.LittleEndian.PutUint16(bytes[0:], fcf)
	bytes[2] = f.Seq
	off := 3
	if f.DstAddrMode != AddrModeNone {
		binary.LittleEndian.PutUint16(bytes[off:], f.DstPAN)
		off += 2
		off += encodeAddr(bytes[off:], f.DstAddrMode, f.DstShort, f.DstAddr)
	}
	if f.hasSrcPAN() {
		binary.LittleEndian.PutUint16(bytes[off:], f.SrcPAN)
		off += 2
	}
	encodeAddr(bytes[off:], f.SrcAddrMode, f.SrcShort, f.SrcAddr)
	return nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Type=%s Seq=%d Dst=%s Src=%s", f.Type, f.Seq,
		f.Destination(), f.Source())
}

// decodeAddr reads an address in mode m. Extended addresses are transmitted
// in reverse byte order.
func decodeAddr(data []byte, m AddrMode, short *uint16, ext *addr.LinkAddr) int {
	switch m {
	case AddrModeShort:
		*short = binary.LittleEndian.Uint16(data)
	case AddrModeExtended:
		for i := 0; i < addr.LinkAddrLen; i++ {
			ext[i] = data[addr.LinkAddrLen-1-i]
		}
	}
	return m.Len()
}

func encodeAddr(data []byte, m AddrMode, short uint16, ext addr.LinkAddr) int {
	switch m {
	case AddrModeShort:
		binary.LittleEndian.PutUint16(data, short)
	case AddrModeExtended:
		for i := 0; i < addr.LinkAddrLen; i++ {
			data[i] = ext[addr.LinkAddrLen-1-i]
		}
	}
	return m.Len()
}

func decodeFrame(data []byte, pb gopacket.PacketBuilder) error {
	f := &Frame{}
	err := f.DecodeFromBytes(data, pb)
	pb.AddLayer(f)
	if err != nil {
		return err
	}
	return pb.NextDecoder(gopacket.LayerTypePayload)
}
