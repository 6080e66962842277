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

// alice runs the unicast scheduling rule on simulated networks. It prints
// node schedules, checks them for consistency and serves a management API.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tschsched/alice/pkg/log"
)

// Configuration keys. Every key can be set through a flag or through an
// environment variable with the ALICE_ prefix, e.g. ALICE_LOG_LEVEL.
const (
	cfgConfigFile = "config"
	cfgTopology   = "topology"
	cfgLogLevel   = "log.level"
	envPrefix     = "ALICE"
)

// CommandPather returns the path to a command.
type CommandPather interface {
	CommandPath() string
}

func main() {
	cmd := newRoot()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Flush()
		os.Exit(exitCode(err))
	}
	log.Flush()
}

func newRoot() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "alice",
		Short:         "Autonomous unicast TSCH scheduling on simulated networks",
		SilenceErrors: true,
		Long: `alice computes the unicast TSCH schedule of every node of a simulated
RPL tree. Each node derives its cells autonomously from the addresses of its
parent and children, so the schedules of neighbors agree without negotiation.

The tree is read from a TOML topology file:

  [[node]]
  addr = "00:12:4b:00:00:00:00:01"

  [[node]]
  addr = "00:12:4b:00:00:00:00:02"
  parent = "00:12:4b:00:00:00:00:01"
`,
	}
	cmd.PersistentFlags().String(cfgConfigFile, "", "Service configuration file (TOML)")
	cmd.PersistentFlags().String(cfgTopology, "",
		"Topology file, overrides the general.topology setting")
	cmd.PersistentFlags().String(cfgLogLevel, "", "Console logging level (debug|info|error)")
	for _, key := range []string{cfgConfigFile, cfgTopology, cfgLogLevel} {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(
		newSchedule(cmd, v),
		newVerify(cmd, v),
		newSelect(cmd, v),
		newSample(cmd),
		newServe(cmd, v),
	)
	return cmd
}

// exitError carries the exit code of a failed command.
type exitError struct {
	error
	code int
}

func (e exitError) Unwrap() error {
	return e.error
}

func withExitCode(err error, code int) error {
	return exitError{error: err, code: code}
}

func exitCode(err error) int {
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 2
}
