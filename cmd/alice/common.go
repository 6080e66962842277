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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/tschsched/alice/config"
	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/private/serrors"
	"github.com/tschsched/alice/sim"
)

// loadConfig loads the service configuration and sets up logging. Flags and
// environment variables take precedence over the configuration file.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString(cfgConfigFile))
	if err != nil {
		return nil, err
	}
	if topo := v.GetString(cfgTopology); topo != "" {
		cfg.General.Topology = topo
	}
	if lvl := v.GetString(cfgLogLevel); lvl != "" {
		cfg.Logging.Console.Level = lvl
	}
	if err := log.Setup(cfg.Logging); err != nil {
		return nil, serrors.Wrap("setting up logging", err)
	}
	return cfg, nil
}

// buildNetwork creates the network described by the configured topology file.
func buildNetwork(cfg *config.Config, requireTopology bool,
	opts ...sim.Option) (*sim.Network, error) {

	p, err := cfg.Scheduler.Params()
	if err != nil {
		return nil, err
	}
	nw := sim.NewNetwork(p, opts...)
	if cfg.General.Topology == "" {
		if requireTopology {
			return nil, serrors.New("no topology file configured")
		}
		return nw, nil
	}
	topo, err := sim.LoadTopology(cfg.General.Topology)
	if err != nil {
		return nil, err
	}
	if err := sim.Build(topo, nw); err != nil {
		return nil, serrors.Wrap("building network", err, "file", cfg.General.Topology)
	}
	log.Debug("Network built", "file", cfg.General.Topology, "nodes", len(topo.Nodes))
	return nw, nil
}

// lookupNodes resolves the node addresses in args. No arguments select all
// nodes.
func lookupNodes(nw *sim.Network, args []string) ([]*sim.Node, error) {
	if len(args) == 0 {
		return nw.Nodes(), nil
	}
	nodes := make([]*sim.Node, 0, len(args))
	for _, arg := range args {
		a, err := addr.ParseLinkAddr(arg)
		if err != nil {
			return nil, err
		}
		n, ok := nw.Node(a)
		if !ok {
			return nil, serrors.Join(sim.ErrUnknownNode, nil, "addr", a)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func addFormatFlag(flags *pflag.FlagSet, format *string) {
	flags.StringVar(format, "format", "human",
		"Specify the output format (human|json|yaml)")
}

// encode writes v in a machine readable format. It returns false for the
// human format, which is rendered by the caller.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "human":
		return false, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	default:
		return true, serrors.New("output format not supported", "format", format)
	}
}

func checkFormat(format string) error {
	switch format {
	case "human", "json", "yaml":
		return nil
	default:
		return serrors.New("output format not supported", "format", format)
	}
}

func printf(w io.Writer, format string, ctx ...any) {
	fmt.Fprintf(w, format, ctx...)
}
