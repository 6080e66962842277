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

// Package util contains small helpers shared by the configuration blocks.
package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tschsched/alice/pkg/private/serrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

var durationRegexp = regexp.MustCompile(`^(-?\d+)(y|w|d|h|m|s|ms|us|µs|ns)$`)

var durationUnits = map[string]time.Duration{
	"y":  year,
	"w":  week,
	"d":  day,
	"h":  time.Hour,
	"m":  time.Minute,
	"s":  time.Second,
	"ms": time.Millisecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ns": time.Nanosecond,
}

// ParseDuration parses a duration consisting of an integer and a single unit
// (y, w, d, h, m, s, ms, us, µs, ns), e.g. "10s" or "3d". Combinations like
// "1h30m" are not supported.
func ParseDuration(s string) (time.Duration, error) {
	matches := durationRegexp.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, serrors.New("invalid duration", "input", s)
	}
	quantity, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, serrors.Wrap("parsing duration quantity", err, "input", s)
	}
	unit := durationUnits[matches[2]]
	if quantity > int64(1<<63-1)/int64(unit) || quantity < -int64(1<<63-1)/int64(unit) {
		return 0, serrors.New("duration overflows", "input", s)
	}
	return time.Duration(quantity) * unit, nil
}

// FmtDuration formats d with the largest unit that represents it exactly.
func FmtDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range []struct {
		name string
		dur  time.Duration
	}{
		{"y", year},
		{"w", week},
		{"d", day},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
		{"ms", time.Millisecond},
		{"us", time.Microsecond},
	} {
		if d%u.dur == 0 {
			return fmt.Sprintf("%d%s", d/u.dur, u.name)
		}
	}
	return fmt.Sprintf("%dns", d)
}
