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
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/sim"
)

var colorTerm = isatty.IsTerminal(os.Stdout.Fd())

// VerifyResult is the outcome of a schedule consistency check.
type VerifyResult struct {
	Consistent bool            `json:"consistent" yaml:"consistent"`
	Edges      []sim.Edge      `json:"edges" yaml:"edges"`
	Violations []sim.Violation `json:"violations" yaml:"violations"`
}

func newVerify(pather CommandPather, v *viper.Viper) *cobra.Command {
	var flags struct {
		format  string
		noColor bool
	}
	var cmd = &cobra.Command{
		Use:   "verify",
		Short: "Check that parents and children agree on their cells",
		Example: fmt.Sprintf(`  %[1]s verify --topology topology.toml
  %[1]s verify --topology topology.toml --format json`, pather.CommandPath()),
		Long: `'verify' computes the schedules of all nodes and checks every parent child
relationship: the child must transmit and the parent receive in the upstream
cell of the child, and the parent must transmit and the child receive in the
downstream cell.

If a violation is found, verify exits with code 1. On other errors, verify
exits with code 2.`,
		Args: cobra.NoArgs,
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
			res := VerifyResult{
				Edges:      nw.Edges(),
				Violations: nw.Verify(),
			}
			res.Consistent = len(res.Violations) == 0
			if res.Edges == nil {
				res.Edges = []sim.Edge{}
			}
			if res.Violations == nil {
				res.Violations = []sim.Violation{}
			}
			if done, err := encode(cmd.OutOrStdout(), flags.format, res); done {
				if err != nil {
					return err
				}
			} else {
				res.Human(cmd.OutOrStdout(), colorTerm && !flags.noColor)
			}
			if !res.Consistent {
				return withExitCode(serrors.New("schedule inconsistent",
					"violations", len(res.Violations)), 1)
			}
			return nil
		},
	}
	addFormatFlag(cmd.Flags(), &flags.format)
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}

// Human writes a verdict per edge followed by a summary.
func (r VerifyResult) Human(w io.Writer, colored bool) {
	noColor := color.New()
	statusGood := noColor
	statusBad := noColor
	if colored {
		statusGood = color.New(color.FgGreen)
		statusBad = color.New(color.FgRed)
	}
	byEdge := make(map[sim.Edge][]sim.Violation)
	for _, v := range r.Violations {
		byEdge[v.Edge] = append(byEdge[v.Edge], v)
	}
	for _, e := range r.Edges {
		violations := byEdge[e]
		if len(violations) == 0 {
			printf(w, "%s -> %s: %s\n", e.Child, e.Parent, statusGood.Sprint("OK"))
			continue
		}
		printf(w, "%s -> %s: %s\n", e.Child, e.Parent, statusBad.Sprint("FAIL"))
		for _, v := range violations {
			printf(w, "    %s\n", v)
		}
	}
	verdict := statusGood.Sprint("consistent")
	if !r.Consistent {
		verdict = statusBad.Sprint("inconsistent")
	}
	printf(w, "%d edges, %d violations: %s\n", len(r.Edges), len(r.Violations), verdict)
}
