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
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/sched"
	"github.com/tschsched/alice/sim"
)

// NodeSchedule is the unicast schedule of a node.
type NodeSchedule struct {
	Node   addr.LinkAddr  `json:"node" yaml:"node"`
	Parent *addr.LinkAddr `json:"parent,omitempty" yaml:"parent,omitempty"`
	Links  []ScheduleLink `json:"links" yaml:"links"`
}

// ScheduleLink is an installed link annotated with its direction.
type ScheduleLink struct {
	tsch.Link `yaml:",inline"`
	Direction sched.Direction `json:"direction" yaml:"direction"`
}

func newSchedule(pather CommandPather, v *viper.Viper) *cobra.Command {
	var flags struct {
		format string
	}
	var cmd = &cobra.Command{
		Use:   "schedule [node...]",
		Short: "Display the unicast schedules of nodes",
		Example: fmt.Sprintf(`  %[1]s schedule --topology topology.toml
  %[1]s schedule 00:12:4b:00:00:00:00:02 --topology topology.toml --format yaml`,
			pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
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
			nodes, err := lookupNodes(nw, args)
			if err != nil {
				return err
			}
			schedules := make([]NodeSchedule, 0, len(nodes))
			for _, n := range nodes {
				schedules = append(schedules, nodeSchedule(nw.Params(), n))
			}
			if done, err := encode(cmd.OutOrStdout(), flags.format, schedules); done {
				return err
			}
			for i, s := range schedules {
				if i != 0 {
					printf(cmd.OutOrStdout(), "\n")
				}
				s.Human(cmd.OutOrStdout())
			}
			return nil
		},
	}
	addFormatFlag(cmd.Flags(), &flags.format)
	return cmd
}

func nodeSchedule(p sched.Params, n *sim.Node) NodeSchedule {
	s := NodeSchedule{Node: n.Addr, Links: []ScheduleLink{}}
	if parent := n.Parent(); !parent.IsNull() {
		s.Parent = &parent
	}
	for _, l := range n.Links() {
		dir, _ := p.DirectionOf(l.Timeslot)
		s.Links = append(s.Links, ScheduleLink{Link: l, Direction: dir})
	}
	return s
}

// Human writes the schedule as a table.
func (s NodeSchedule) Human(w io.Writer) {
	parent := "none"
	if s.Parent != nil {
		parent = s.Parent.String()
	}
	printf(w, "Node %s (parent %s), %d links\n", s.Node, parent, len(s.Links))
	if len(s.Links) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Links))
	for _, l := range s.Links {
		rows = append(rows, []string{
			strconv.Itoa(int(l.Timeslot)),
			strconv.Itoa(int(l.ChannelOffset)),
			l.Options.String(),
			l.Direction.String(),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"TIMESLOT", "CHANNEL OFFSET", "OPTIONS", "DIRECTION"})
	table.AppendBulk(rows)
	table.Render()
}
