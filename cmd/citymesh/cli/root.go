// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli holds the root command and the flag types shared by the
// citymesh subcommands.
package cli

import (
	"github.com/spf13/cobra"

	"m4o.io/citymesh/internal/config"
	"m4o.io/citymesh/internal/logger"
)

// Config is the configuration loaded before any subcommand runs.
var Config = config.Default()

var configPath string

// RootCmd is the citymesh command.
var RootCmd = &cobra.Command{
	Use:   "citymesh",
	Short: "Generate 3D city scenes from map data",
	Long: "Generate 3D city scenes from map data: terrain from a height map, " +
		"buildings from OpenStreetMap footprints and trees from a tree registry.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.Log.Level, _ = flags.GetString("log-level")
		}

		Config = cfg

		return logger.Init(cfg.Log.Level, cfg.Log.File, cfg.Log.Format)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		logger.Sync()
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (default ./"+config.FileName+")")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
}
