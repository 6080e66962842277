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

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/ieee802154"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/sched"
)

// SelectResult is the cell selected for a frame.
type SelectResult struct {
	Node      addr.LinkAddr    `json:"node" yaml:"node"`
	Claimed   bool             `json:"claimed" yaml:"claimed"`
	Direction *sched.Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
	Selection *sched.Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
}

func newSelect(pather CommandPather, v *viper.Viper) *cobra.Command {
	var flags struct {
		format string
		frame  string
	}
	var cmd = &cobra.Command{
		Use:   "select <node> [destination]",
		Short: "Select the cell a node uses to send a unicast frame",
		Example: fmt.Sprintf(`  %[1]s select 00:12:4b:00:00:00:00:02 00:12:4b:00:00:00:00:01
  %[1]s select 00:12:4b:00:00:00:00:02 --frame 41dc...`, pather.CommandPath()),
		Long: `'select' prints the cell the unicast rule of a node selects for a data frame
to the destination. With --frame, the destination and frame type are decoded
from the hex encoded IEEE 802.15.4 MAC header instead.

Frames that are not claimed by the unicast rule are reported as such; other
rules would schedule them.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			if (len(args) == 2) == (flags.frame != "") {
				return serrors.New("specify either a destination or a frame")
			}
			cmd.SilenceUsage = true
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			nw, err := buildNetwork(cfg, true)
			if err != nil {
				return err
			}
			nodes, err := lookupNodes(nw, args[:1])
			if err != nil {
				return err
			}
			n := nodes[0]

			var sel sched.Selection
			var claimed bool
			if flags.frame != "" {
				raw, err := hex.DecodeString(flags.frame)
				if err != nil {
					return serrors.Wrap("decoding frame", err)
				}
				if sel, claimed, err = n.Rule.SelectFrame(raw); err != nil {
					return err
				}
			} else {
				dst, err := addr.ParseLinkAddr(args[1])
				if err != nil {
					return err
				}
				sel, claimed = n.Rule.SelectSlotForPacket(ieee802154.FrameTypeData, dst)
			}

			res := SelectResult{Node: n.Addr, Claimed: claimed}
			if claimed {
				res.Direction = &sel.Direction
				res.Selection = &sel
			}
			if done, err := encode(cmd.OutOrStdout(), flags.format, res); done {
				return err
			}
			if !claimed {
				printf(cmd.OutOrStdout(), "Not claimed by the unicast rule of %s\n", n.Addr)
				return nil
			}
			printf(cmd.OutOrStdout(), "%s cell (%d, %d) in slotframe %d\n", sel.Direction,
				sel.Timeslot, sel.ChannelOffset, sel.Slotframe)
			return nil
		},
	}
	addFormatFlag(cmd.Flags(), &flags.format)
	cmd.Flags().StringVar(&flags.frame, "frame", "", "Hex encoded IEEE 802.15.4 frame")
	return cmd
}
