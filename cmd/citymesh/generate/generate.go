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

package generate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"m4o.io/citymesh"
	"m4o.io/citymesh/cmd/citymesh/cli"
	"m4o.io/citymesh/internal/cache"
	"m4o.io/citymesh/internal/config"
	"m4o.io/citymesh/internal/export"
	"m4o.io/citymesh/internal/fetch"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/scene"
	"m4o.io/citymesh/source"
)

// WritingProgram is recorded in the header of every mesh file.
const WritingProgram = "citymesh"

var out io.Writer = os.Stdout

type options struct {
	bounds      model.BoundingBox
	features    string
	raster      string
	trees       string
	output      string
	compression export.BlobCompression
	seed        uint64
	noTrees     bool
	progress    bool
}

var opts options

func init() {
	cli.RootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.Var(cli.NewBoundsValue(model.DefaultBoundingBox(), &opts.bounds, "bounds"), "bounds",
		"rectangle to generate as bottom,left,top,right")
	flags.StringVar(&opts.features, "features", "", "read buildings from an Overpass JSON (.json) or OSM PBF (.pbf) file")
	flags.StringVar(&opts.raster, "raster", "", "read the height map from a terrain.party zip archive")
	flags.StringVar(&opts.trees, "trees", "", "read trees from a GeoJSON file")
	flags.StringVarP(&opts.output, "out", "o", "scene.mesh", "mesh file to write")
	flags.Var(cli.NewCompressionValue(export.DefaultBlobCompression, &opts.compression), "compression",
		"blob compression: raw, zlib, lzma, lz4 or zstd")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for random heights and tree shapes (default from config)")
	flags.BoolVar(&opts.noTrees, "no-trees", false, "do not plant trees")
	flags.BoolVar(&opts.progress, "progress", true, "show download and file progress")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the scene of a rectangle and write it to a mesh file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		cfg := cli.Config

		if !flags.Changed("seed") {
			opts.seed = cfg.Generation.Seed
		}

		if !flags.Changed("compression") && cfg.Export.Compression != "" {
			c, err := export.ParseCompression(cfg.Export.Compression)
			if err != nil {
				return err
			}

			opts.compression = c
		}

		return run(cmd.Context(), cfg, opts)
	},
}

func run(ctx context.Context, cfg *config.Config, o options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	gopts, closer, err := generatorOptions(ctx, cfg, o)
	if err != nil {
		return err
	}
	defer closer()

	sc := scene.New()

	res, err := citymesh.NewGenerator(sc, gopts...).Generate(ctx, o.bounds)
	if err != nil {
		return err
	}

	if res.Heightmap != nil {
		defer os.Remove(res.Heightmap.Path) //nolint:errcheck
	}

	f, err := os.Create(o.output)
	if err != nil {
		return eris.Wrapf(err, "creating %s", o.output)
	}

	n, err := writeMesh(f, res, sc, o.compression, cfg.Export.SolidLimit, describe(o))
	if err != nil {
		f.Close() //nolint:errcheck
		return err
	}

	if err = f.Close(); err != nil {
		return eris.Wrapf(err, "closing %s", o.output)
	}

	renderSummary(res, o.output, n)

	return nil
}

// generatorOptions turns the configuration and flags into generator
// options. The returned function releases what the sources hold.
func generatorOptions(ctx context.Context, cfg *config.Config, o options) ([]citymesh.GeneratorOption, func(), error) {
	closer := func() {}

	var progress fetch.Progress
	if o.progress {
		progress = cli.WrapDownload
	}

	fopts := fetch.Options{
		UserAgent: cfg.Network.UserAgent,
		Timeout:   cfg.Network.Timeout,
		Progress:  progress,
	}

	if cfg.Cache.Path != "" {
		store, err := cache.Open(ctx, cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}

		if pruned, err := store.Prune(ctx); err != nil {
			zap.L().Warn("unable to prune cache", zap.Error(err))
		} else if pruned > 0 {
			zap.L().Info("cache pruned", zap.Int64("entries", pruned))
		}

		fopts.Cache = store
		closer = func() {
			if err := store.Close(); err != nil {
				zap.L().Warn("unable to close cache", zap.Error(err))
			}
		}
	}

	client := fetch.New(fopts)

	overpassOpts := fopts
	overpassOpts.Limiter = fetch.PerMinute(cfg.Overpass.RatePerMinute)

	gopts := []citymesh.GeneratorOption{
		citymesh.WithSeed(o.seed),
		citymesh.WithHeightPerLevel(cfg.Generation.HeightPerLevel),
		citymesh.WithTerrainSpacing(cfg.Terrain.Spacing),
		citymesh.WithTerrainScale(cfg.Terrain.Scale),
		citymesh.WithMaxExtent(model.Degrees(cfg.Generation.MaxExtent)),
		citymesh.WithConcurrency(cfg.Generation.Concurrency),
	}

	features, err := featureSource(o, fetch.New(overpassOpts), cfg)
	if err != nil {
		closer()
		return nil, nil, err
	}

	gopts = append(gopts, citymesh.WithFeatureSource(features))

	if o.raster != "" {
		gopts = append(gopts, citymesh.WithRasterSource(source.NewRasterFile(o.raster, cfg.Terrain.Name)))
	} else {
		gopts = append(gopts, citymesh.WithRasterSource(source.NewTerrainParty(client, cfg.Terrain.URL, cfg.Terrain.Name)))
	}

	switch {
	case o.noTrees:
	case o.trees != "":
		gopts = append(gopts, citymesh.WithTreeSource(source.NewTreeFile(o.trees)))
	default:
		gopts = append(gopts, citymesh.WithTreeSource(source.NewTreeService(client, cfg.Trees.URL)))
	}

	return gopts, closer, nil
}

// featureSource picks the building source: a local file by extension or
// the Overpass API.
func featureSource(o options, client *fetch.Client, cfg *config.Config) (citymesh.FeatureSource, error) {
	if o.features == "" {
		return source.NewOverpass(client, cfg.Overpass.URL, cfg.Network.Timeout), nil
	}

	switch strings.ToLower(filepath.Ext(o.features)) {
	case ".json":
		return source.NewOverpassFile(o.features), nil
	case ".pbf":
		var popts []source.PBFOption
		if o.progress {
			popts = append(popts, source.WithFileWrapper(cli.WrapInputFile))
		}

		if cfg.Generation.Concurrency > 0 {
			popts = append(popts, source.WithProcs(cfg.Generation.Concurrency))
		}

		return source.NewPBFFile(o.features, popts...), nil
	default:
		return nil, eris.Errorf("unsupported feature file %s, expected .json or .pbf", o.features)
	}
}

func describe(o options) string {
	var parts []string

	if o.features != "" {
		parts = append(parts, filepath.Base(o.features))
	} else {
		parts = append(parts, "overpass")
	}

	if o.raster != "" {
		parts = append(parts, filepath.Base(o.raster))
	} else {
		parts = append(parts, "terrain.party")
	}

	return strings.Join(parts, ", ")
}

// writeMesh exports every solid of the scene. A carved solid is followed by
// its cutters. It returns the number of solids written.
func writeMesh(
	w io.Writer,
	res *citymesh.Result,
	sc *scene.Scene,
	c export.BlobCompression,
	limit int,
	src string,
) (int, error) {
	enc := export.NewEncoder(w, export.WithCompression(c), export.WithSolidLimit(limit))

	if err := enc.EncodeHeader(res.Header(WritingProgram, src)); err != nil {
		return 0, err
	}

	n := 0

	for _, e := range sc.Entries() {
		if err := enc.Encode(e.Solid); err != nil {
			return n, eris.Wrapf(err, "encoding %s", e.Solid.Name)
		}

		n++

		for i, cutter := range e.Cutters {
			cs := *cutter
			cs.Kind = mesh.CutterKind
			cs.Name = fmt.Sprintf("%s cutter %d", e.Solid.Name, i)

			if err := enc.Encode(&cs); err != nil {
				return n, eris.Wrapf(err, "encoding %s", cs.Name)
			}

			n++
		}
	}

	return n, enc.Close()
}

func renderSummary(res *citymesh.Result, path string, solids int) {
	fmt.Fprintf(out, "Run: %s\n", res.RunID)
	fmt.Fprintf(out, "Bounds: %s\n", res.Frame.Bounds())
	fmt.Fprintf(out, "Extent: %.1f m x %.1f m\n", res.Frame.Width(), res.Frame.Height())

	if res.Heightmap != nil {
		fmt.Fprintf(out, "Elevation: %.1f m to %.1f m\n", res.Heightmap.MinElevation, res.Heightmap.MaxElevation)
	}

	fmt.Fprintf(out, "Buildings: %s\n", humanize.Comma(int64(res.Stats.Buildings)))
	fmt.Fprintf(out, "Relations: %s\n", humanize.Comma(int64(res.Stats.Relations)))
	fmt.Fprintf(out, "Trees: %s\n", humanize.Comma(int64(res.Stats.Trees)))
	fmt.Fprintf(out, "Skipped: %s\n", humanize.Comma(int64(res.Stats.Skipped)))
	fmt.Fprintf(out, "Diagnostics: %s\n", humanize.Comma(int64(res.Diagnostics.Len())))
	fmt.Fprintf(out, "Elapsed: %s\n", res.Stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Wrote %s solids to %s\n", humanize.Comma(int64(solids)), path)
}
