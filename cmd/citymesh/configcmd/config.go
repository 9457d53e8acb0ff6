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

// Package configcmd writes configuration files.
package configcmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/citymesh/cmd/citymesh/cli"
	"m4o.io/citymesh/internal/config"
)

var out io.Writer = os.Stdout

var force bool

func init() {
	configCmd.AddCommand(initCmd)
	cli.RootCmd.AddCommand(configCmd)

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var initCmd = &cobra.Command{
	Use:   "init [<path>]",
	Short: "Write the effective configuration to a file (default ./" + config.FileName + ")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := config.FileName
		if len(args) == 1 {
			path = args[0]
		}

		return writeConfig(cli.Config, path, force)
	},
}

func writeConfig(cfg *config.Config, path string, force bool) error {
	if err := cfg.SaveTo(path, force); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", path)

	return nil
}
