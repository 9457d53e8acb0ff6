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

package citymesh

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/destel/rill"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/heightmap"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/terrain"
	"m4o.io/citymesh/trees"
)

// TerrainName is the name of the terrain solid.
const TerrainName = "Terrain"

// Stats summarizes a generation run.
type Stats struct {
	Features  feature.Stats `json:"features"`
	Buildings int           `json:"buildings"`
	Relations int           `json:"relations"`
	Trees     int           `json:"trees"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Result lists what a generation run put into the engine. Heightmap is nil
// when no raster source is configured; otherwise the caller owns the
// prepared raster file at Heightmap.Path.
type Result struct {
	RunID       string
	Generated   time.Time
	Frame       *geo.Frame
	Heightmap   *heightmap.Meta
	TerrainID   mesh.SolidID
	Buildings   []mesh.SolidID
	Relations   [][]mesh.SolidID
	Trees       []mesh.SolidID
	Diagnostics *model.Diagnostics
	Stats       Stats
}

// Header returns the export header describing the run.
func (r *Result) Header(program, source string) model.Header {
	bounds := r.Frame.Bounds()

	return model.Header{
		BoundingBox:    &bounds,
		WritingProgram: program,
		Source:         source,
		Generated:      r.Generated,
		RunID:          r.RunID,
	}
}

// Generator drives a mesh engine through the stages of a run: terrain,
// then buildings, then trees.
type Generator struct {
	engine mesh.Engine
	opts   generatorOptions
}

// NewGenerator creates a generator filling engine. An engine handle serves
// a single run.
func NewGenerator(engine mesh.Engine, opts ...GeneratorOption) *Generator {
	o := defaultGeneratorConfig
	for _, opt := range opts {
		opt(&o)
	}

	return &Generator{engine: engine, opts: o}
}

type inputs struct {
	elements []model.Element
	raster   *bytes.Reader
	trees    *bytes.Reader
}

// Generate builds the scene for bounds. Invalid bounds, source failures and
// engine failures abort the run; problems with single features are
// reported in the result's diagnostics.
func (g *Generator) Generate(ctx context.Context, bounds model.BoundingBox) (*Result, error) {
	start := time.Now()

	if err := bounds.Validate(g.opts.maxExtent); err != nil {
		return nil, err
	}

	frame, err := geo.NewFrame(bounds)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Generated:   start.UTC().Truncate(time.Second),
		Frame:       frame,
		Diagnostics: &model.Diagnostics{},
	}

	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("generation started",
		zap.Stringer("bounds", bounds),
		zap.Float64("width", frame.Width()),
		zap.Float64("height", frame.Height()))

	in, err := g.fetch(ctx, bounds)
	if err != nil {
		return nil, err
	}

	if err = g.build(ctx, res, in, log); err != nil {
		// a failed run returns no result, so its height map goes too
		if res.Heightmap != nil {
			if rerr := os.Remove(res.Heightmap.Path); rerr != nil {
				log.Warn("unable to remove height map", zap.String("path", res.Heightmap.Path), zap.Error(rerr))
			}
		}

		return nil, err
	}

	res.Stats.Elapsed = time.Since(start)

	log.Info("generation finished",
		zap.Int("buildings", res.Stats.Buildings),
		zap.Int("relations", res.Stats.Relations),
		zap.Int("trees", res.Stats.Trees),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("diagnostics", res.Diagnostics.Len()),
		zap.Duration("elapsed", res.Stats.Elapsed))

	return res, nil
}

// build runs the terrain, building and tree stages in order.
func (g *Generator) build(ctx context.Context, res *Result, in *inputs, log *zap.Logger) error {
	var ground mesh.Ground

	if in.raster != nil {
		idx, err := g.terrain(res, in.raster, log)
		if err != nil {
			return err
		}

		ground = idx
	}

	if in.elements != nil {
		if err := g.buildings(ctx, res, in.elements, ground); err != nil {
			return err
		}
	}

	if in.trees != nil {
		if err := g.plant(ctx, res, in.trees, ground); err != nil {
			return err
		}
	}

	return nil
}

// fetch queries the configured sources concurrently.
func (g *Generator) fetch(ctx context.Context, bounds model.BoundingBox) (*inputs, error) {
	var in inputs

	eg, ctx := errgroup.WithContext(ctx)

	if src := g.opts.features; src != nil {
		eg.Go(func() error {
			elements, err := src.Elements(ctx, bounds)
			if err != nil {
				return eris.Wrap(err, "fetching features")
			}

			if elements == nil {
				elements = []model.Element{}
			}

			in.elements = elements

			return nil
		})
	}

	if src := g.opts.raster; src != nil {
		eg.Go(func() error {
			r, err := src.Raster(ctx, bounds)
			if err != nil {
				return eris.Wrap(err, "fetching height map")
			}

			in.raster = r

			return nil
		})
	}

	if src := g.opts.trees; src != nil {
		eg.Go(func() error {
			r, err := src.Trees(ctx, bounds)
			if err != nil {
				return eris.Wrap(err, "fetching trees")
			}

			in.trees = r

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &in, nil
}

// terrain prepares the height map, creates and displaces the terrain grid
// and indexes the displaced vertices.
func (g *Generator) terrain(res *Result, archive *bytes.Reader, log *zap.Logger) (*terrain.Index, error) {
	frame := res.Frame

	meta, err := heightmap.Prepare(archive, archive.Size(), frame.Bounds(),
		heightmap.WithName(g.opts.raster.Name()),
		heightmap.WithWorkDir(g.opts.workDir))
	if err != nil {
		return nil, eris.Wrap(err, "preparing height map")
	}

	res.Heightmap = meta

	grid, err := terrain.NewGrid(frame.Width(), frame.Height(), g.opts.spacing)
	if err != nil {
		return nil, eris.Wrap(err, "laying out terrain")
	}

	id, err := g.engine.CreateSolid(&mesh.Solid{
		Name:     TerrainName,
		Kind:     mesh.TerrainKind,
		Vertices: grid.Vertices(),
		Faces:    grid.Faces(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating terrain")
	}

	res.TerrainID = id

	if strength, ok := terrain.DisplacementStrength(meta.MinElevation, meta.MaxElevation, g.opts.scale); ok {
		if err = g.engine.Displace(id, meta, strength); err != nil {
			return nil, eris.Wrap(err, "displacing terrain")
		}

		log.Info("terrain displaced",
			zap.Float64("strength", strength),
			zap.Int("columns", grid.Columns),
			zap.Int("rows", grid.Rows))
	} else {
		log.Info("terrain left flat",
			zap.Float64("min_elevation", meta.MinElevation),
			zap.Float64("max_elevation", meta.MaxElevation))
	}

	verts, err := g.engine.Vertices(id)
	if err != nil {
		return nil, eris.Wrap(err, "reading terrain")
	}

	idx, err := terrain.NewIndex(verts, terrain.CloseFactor*grid.Spacing())
	if err != nil {
		return nil, eris.Wrap(err, "indexing terrain")
	}

	return idx, nil
}

type unit struct {
	building *feature.Building
	relation *feature.Relation
}

func (u unit) ref() (model.ElementType, model.ID) {
	if u.building != nil {
		return model.WAY, u.building.ID
	}

	return model.RELATION, u.relation.ID
}

type planned struct {
	unit
	plan *mesh.Plan
	err  error
}

// buildings resolves the elements, plans every building and relation
// concurrently and hands the plans to the engine in input order.
func (g *Generator) buildings(ctx context.Context, res *Result, elements []model.Element, ground mesh.Ground) error {
	resolved := feature.NewResolver(res.Frame,
		feature.WithSeed(g.opts.seed),
		feature.WithHeightPerLevel(g.opts.perLevel)).Resolve(elements)

	res.Stats.Features = resolved.Stats
	res.Diagnostics.Merge(resolved.Diagnostics)

	units := make(chan rill.Try[unit])

	go func() {
		defer close(units)

		for i := range resolved.Buildings {
			units <- rill.Wrap(unit{building: &resolved.Buildings[i]}, nil)
		}

		for i := range resolved.Relations {
			units <- rill.Wrap(unit{relation: &resolved.Relations[i]}, nil)
		}
	}()

	plans := rill.OrderedMap(units, g.opts.concurrency, func(u unit) (planned, error) {
		p := planned{unit: u}

		if u.building != nil {
			p.plan, p.err = mesh.PlanBuilding(*u.building, ground)
		} else {
			p.plan, p.err = mesh.PlanRelation(*u.relation, ground)
		}

		return p, nil
	})

	var failed error

	for p := range plans {
		if failed != nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			failed = eris.Wrap(err, "placing buildings")
			continue
		}

		if p.Value.err != nil {
			skip(res, p.Value.unit, p.Value.err)
			continue
		}

		ids, err := mesh.Apply(ctx, g.engine, p.Value.plan)
		if err != nil {
			failed = err
			continue
		}

		if p.Value.building != nil {
			res.Buildings = append(res.Buildings, ids...)
			res.Stats.Buildings++
		} else if len(ids) > 0 {
			res.Relations = append(res.Relations, ids)
			res.Stats.Relations++
		}
	}

	return failed
}

// skip records a building or relation that could not be planned.
func skip(res *Result, u unit, err error) {
	t, id := u.ref()

	kind := model.InvalidGeometry

	switch {
	case eris.Is(err, terrain.ErrNoGround):
		kind = model.NoGround
	case eris.Is(err, mesh.ErrDegenerateRing):
		kind = model.DegenerateRing
	}

	res.Diagnostics.Add(kind, t, id, "%v", err)
	res.Stats.Skipped++
}

// plant decodes the trees and plants each of them on the ground.
func (g *Generator) plant(ctx context.Context, res *Result, data *bytes.Reader, ground mesh.Ground) error {
	decoded, err := trees.Decode(data, res.Frame)
	if err != nil {
		return eris.Wrap(err, "decoding trees")
	}

	res.Diagnostics.Merge(decoded.Diagnostics)

	planter := trees.NewPlanter(g.opts.seed)

	for _, t := range decoded.Trees {
		if err = ctx.Err(); err != nil {
			return eris.Wrap(err, "planting trees")
		}

		s, err := planter.Plant(t, ground)
		if err != nil {
			if eris.Is(err, terrain.ErrNoGround) {
				res.Diagnostics.Add(model.NoGround, model.TREE, t.ID, "%v", err)
				res.Stats.Skipped++

				continue
			}

			return err
		}

		id, err := g.engine.CreateSolid(s)
		if err != nil {
			return eris.Wrapf(err, "creating %s", s.Name)
		}

		res.Trees = append(res.Trees, id)
	}

	res.Stats.Trees = len(res.Trees)

	return nil
}
