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

package info

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"m4o.io/citymesh/cmd/citymesh/cli"
	"m4o.io/citymesh/internal/export"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
)

var out io.Writer = os.Stdout

type extendedHeader struct {
	model.Header

	TerrainCount  int64 `json:"terrain_count"`
	BuildingCount int64 `json:"building_count"`
	CutterCount   int64 `json:"cutter_count"`
	TreeCount     int64 `json:"tree_count"`
	VertexCount   int64 `json:"vertex_count"`
	FaceCount     int64 `json:"face_count"`
}

func init() {
	cli.RootCmd.AddCommand(infoCmd)

	flags := infoCmd.Flags()
	flags.BoolP("json", "j", false, "format information in JSON")
	flags.Uint16P("cpu", "c", uint16(runtime.GOMAXPROCS(-1)), "number of CPUs to use for decoding")
	flags.BoolP("extended", "e", false, "provide extended information (decodes entire file)")
}

var infoCmd = &cobra.Command{
	Use:   "info [<mesh file>]",
	Short: "Print information about a mesh file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := os.Stdin

		if len(args) == 1 {
			var err error

			f, err = os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "opening %s", args[0])
			}
		}

		in, err := cli.WrapInputFile(f)
		if err != nil {
			return err
		}

		flags := cmd.Flags()

		ncpu, err := flags.GetUint16("cpu")
		if err != nil {
			return err
		}

		extended, err := flags.GetBool("extended")
		if err != nil {
			return err
		}

		info, err := runInfo(cmd.Context(), in, int(ncpu), extended)
		if cerr := in.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return err
		}

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		if jsonfmt {
			return renderJSON(info, extended)
		}

		renderTxt(info, extended)

		return nil
	},
}

func runInfo(ctx context.Context, in io.Reader, procs int, extended bool) (*extendedHeader, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := export.NewDecoder(in)
	if err != nil {
		return nil, err
	}

	info := &extendedHeader{Header: d.Header()}

	if !extended {
		return info, nil
	}

	var first error

	for block := range d.Blocks(ctx, procs) {
		if block.Error != nil {
			if first == nil {
				first = block.Error
			}

			continue
		}

		for _, s := range block.Value {
			switch s.Kind {
			case mesh.TerrainKind:
				info.TerrainCount++
			case mesh.BuildingKind:
				info.BuildingCount++
			case mesh.CutterKind:
				info.CutterCount++
			case mesh.TreeKind:
				info.TreeCount++
			}

			info.VertexCount += int64(len(s.Vertices))
			info.FaceCount += int64(len(s.Faces))
		}
	}

	return info, first
}

func renderJSON(info *extendedHeader, extended bool) error {
	// marshal the smallest struct needed
	var v any
	if extended {
		v = info
	} else {
		v = info.Header
	}

	b, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshaling info")
	}

	fmt.Fprint(out, string(b))

	return nil
}

func renderTxt(info *extendedHeader, extended bool) {
	if info.BoundingBox != nil {
		fmt.Fprintf(out, "BoundingBox: %s\n", info.BoundingBox)
	}

	fmt.Fprintf(out, "WritingProgram: %s\n", info.WritingProgram)
	fmt.Fprintf(out, "Source: %s\n", info.Source)
	fmt.Fprintf(out, "Generated: %s\n", info.Generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "RunID: %s\n", info.RunID)

	if extended {
		fmt.Fprintf(out, "TerrainCount: %s\n", humanize.Comma(info.TerrainCount))
		fmt.Fprintf(out, "BuildingCount: %s\n", humanize.Comma(info.BuildingCount))
		fmt.Fprintf(out, "CutterCount: %s\n", humanize.Comma(info.CutterCount))
		fmt.Fprintf(out, "TreeCount: %s\n", humanize.Comma(info.TreeCount))
		fmt.Fprintf(out, "VertexCount: %s\n", humanize.Comma(info.VertexCount))
		fmt.Fprintf(out, "FaceCount: %s\n", humanize.Comma(info.FaceCount))
	}
}
