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

// Package hash provides the address hash functions that every node of the
// network evaluates independently to agree on slot positions. All
// implementations are pure: equal inputs always give equal outputs, across
// calls and across processes.
package hash

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/private/serrors"
)

// Hasher hashes single addresses and ordered address pairs.
type Hasher interface {
	// Hash returns the hash of a single address.
	Hash(a addr.LinkAddr) uint32
	// Hash2 returns the order-sensitive hash of the pair (a, b).
	Hash2(a, b addr.LinkAddr) uint32
}

// Names of the available hash functions.
const (
	NameLastByte = "last_byte"
	NameFNV1a    = "fnv1a"
	NameXXHash   = "xxhash"
)

var registry = map[string]Hasher{
	NameLastByte: LastByte{},
	NameFNV1a:    FNV1a{},
	NameXXHash:   XXHash{},
}

// FromName returns the hasher registered under name.
func FromName(name string) (Hasher, error) {
	h, ok := registry[name]
	if !ok {
		return nil, serrors.New("unknown hash function", "name", name, "known", Names())
	}
	return h, nil
}

// Names returns the sorted names of all available hash functions.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LastByte is the classic Orchestra hash. A single address hashes to its last
// byte; a pair hashes to last(a) + 264*last(b). Node IDs below 256 therefore
// map to distinct slots whenever the period is large enough.
type LastByte struct{}

func (LastByte) Hash(a addr.LinkAddr) uint32 {
	return uint32(a.LastByte())
}

func (LastByte) Hash2(a, b addr.LinkAddr) uint32 {
	return uint32(a.LastByte()) + 264*uint32(b.LastByte())
}

// fnv1aOffset32 is the initial state of an FNV-1a computation.
const fnv1aOffset32 uint32 = 2166136261

// hashFNV1a folds the byte c into state.
func hashFNV1a(state uint32, c byte) uint32 {
	const prime32 = 16777619
	return (state ^ uint32(c)) * prime32
}

// FNV1a hashes the full address bytes with 32-bit FNV-1a.
type FNV1a struct{}

func (FNV1a) Hash(a addr.LinkAddr) uint32 {
	s := fnv1aOffset32
	for _, c := range a {
		s = hashFNV1a(s, c)
	}
	return s
}

func (h FNV1a) Hash2(a, b addr.LinkAddr) uint32 {
	s := h.Hash(a)
	for _, c := range b {
		s = hashFNV1a(s, c)
	}
	return s
}

// XXHash hashes the full address bytes with xxHash64, truncated to 32 bits.
type XXHash struct{}

func (XXHash) Hash(a addr.LinkAddr) uint32 {
	return uint32(xxhash.Sum64(a[:]))
}

func (XXHash) Hash2(a, b addr.LinkAddr) uint32 {
	d := xxhash.New()
	// Digest writes never fail.
	_, _ = d.Write(a[:])
	_, _ = d.Write(b[:])
	return uint32(d.Sum64())
}
