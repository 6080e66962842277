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

package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsched/alice/pkg/private/util"
)

func TestParseDuration(t *testing.T) {
	testCases := map[string]struct {
		Expected time.Duration
		Err      bool
	}{
		"10s":     {Expected: 10 * time.Second},
		"3d":      {Expected: 72 * time.Hour},
		"2w":      {Expected: 14 * 24 * time.Hour},
		"1y":      {Expected: 365 * 24 * time.Hour},
		"150ms":   {Expected: 150 * time.Millisecond},
		"7us":     {Expected: 7 * time.Microsecond},
		"7µs":     {Expected: 7 * time.Microsecond},
		"-5m":     {Expected: -5 * time.Minute},
		"0s":      {},
		"1h30m":   {Err: true},
		"10":      {Err: true},
		"s":       {Err: true},
		"1.5s":    {Err: true},
		"999999y": {Err: true},
	}
	for input, tc := range testCases {
		t.Run(input, func(t *testing.T) {
			d, err := util.ParseDuration(input)
			if tc.Err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, d)
		})
	}
}

func TestFmtDuration(t *testing.T) {
	testCases := map[time.Duration]string{
		0:                       "0s",
		10 * time.Second:        "10s",
		90 * time.Second:        "90s",
		2 * time.Hour:           "2h",
		48 * time.Hour:          "2d",
		1500 * time.Millisecond: "1500ms",
		3 * time.Nanosecond:     "3ns",
	}
	for d, expected := range testCases {
		assert.Equal(t, expected, util.FmtDuration(d))
		parsed, err := util.ParseDuration(expected)
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
}

func TestDurWrap(t *testing.T) {
	var d util.DurWrap
	require.NoError(t, d.UnmarshalText([]byte("5m")))
	assert.Equal(t, 5*time.Minute, d.Duration)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "5m", string(text))
	assert.Error(t, d.Set("5 minutes"))
}
