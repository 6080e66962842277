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

/*
Package addr contains the link-layer addressing used by the schedule.

A LinkAddr is the 8-byte extended (EUI-64) IEEE 802.15.4 address of a node.
The all-zero address is the null address and stands for "unknown/absent"; the
all-ones address is the broadcast address that installed links carry as
destination.

The text format is eight colon separated hex bytes, e.g.
00:12:4b:00:00:00:00:01.
*/
package addr

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/tschsched/alice/pkg/private/serrors"
)

// LinkAddrLen is the length of a link-layer address in bytes.
const LinkAddrLen = 8

// ErrInvalidLinkAddr indicates that a link-layer address could not be parsed.
var ErrInvalidLinkAddr = errors.New("invalid link address")

// LinkAddr is an extended IEEE 802.15.4 address.
type LinkAddr [LinkAddrLen]byte

var (
	// Null is the reserved address meaning "unknown/absent".
	Null LinkAddr
	// Broadcast is the wildcard destination of installed links.
	Broadcast = LinkAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// simPrefix is the vendor prefix of addresses derived from node IDs.
var simPrefix = [...]byte{0x00, 0x12, 0x4b, 0x00}

// FromNodeID derives the address of a simulated node from its 16-bit node ID.
// The ID is stored big endian in the two last bytes, so it is also what the
// last-byte hash sees.
func FromNodeID(id uint16) LinkAddr {
	var a LinkAddr
	copy(a[:], simPrefix[:])
	binary.BigEndian.PutUint16(a[6:], id)
	return a
}

// ParseLinkAddr parses an address either in colon separated form
// (00:12:4b:00:00:00:00:01) or as 16 contiguous hex digits.
func ParseLinkAddr(s string) (LinkAddr, error) {
	raw := s
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != LinkAddrLen {
			return Null, serrors.Join(ErrInvalidLinkAddr, nil, "input", s)
		}
		for _, p := range parts {
			if len(p) != 2 {
				return Null, serrors.Join(ErrInvalidLinkAddr, nil, "input", s)
			}
		}
		raw = strings.Join(parts, "")
	}
	if len(raw) != 2*LinkAddrLen {
		return Null, serrors.Join(ErrInvalidLinkAddr, nil, "input", s)
	}
	var a LinkAddr
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return Null, serrors.Join(ErrInvalidLinkAddr, err, "input", s)
	}
	return a, nil
}

// MustParseLinkAddr calls ParseLinkAddr(s) and panics on error.
// It is intended for use in tests with hard-coded strings.
func MustParseLinkAddr(s string) LinkAddr {
	a, err := ParseLinkAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsNull returns whether a is the null address.
func (a LinkAddr) IsNull() bool {
	return a == Null
}

// IsBroadcast returns whether a is the broadcast address.
func (a LinkAddr) IsBroadcast() bool {
	return a == Broadcast
}

// LastByte returns the least significant byte of the address.
func (a LinkAddr) LastByte() byte {
	return a[LinkAddrLen-1]
}

// Compare orders addresses bytewise. It returns -1, 0 or 1.
func (a LinkAddr) Compare(b LinkAddr) int {
	return bytes.Compare(a[:], b[:])
}

func (a LinkAddr) String() string {
	var sb strings.Builder
	sb.Grow(3*LinkAddrLen - 1)
	for i, b := range a {
		if i != 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(hex.EncodeToString([]byte{b}))
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a LinkAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *LinkAddr) UnmarshalText(b []byte) error {
	parsed, err := ParseLinkAddr(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
