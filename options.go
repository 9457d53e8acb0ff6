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
	"runtime"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/terrain"
)

const (
	// DefaultMaxExtent is the largest rectangle side, in degrees, accepted
	// by Generate.
	DefaultMaxExtent model.Degrees = 0.2

	// DefaultTerrainScale keeps the displaced terrain at its real relief.
	DefaultTerrainScale = 1.0
)

// DefaultConcurrency provides the default number of goroutines planning
// buildings.
func DefaultConcurrency() int {
	return max(runtime.GOMAXPROCS(-1)-1, 1)
}

// generatorOptions provides optional configuration parameters for
// Generator construction.
type generatorOptions struct {
	features FeatureSource
	raster   RasterSource
	trees    TreeSource

	seed        uint64
	perLevel    float64
	spacing     float64
	scale       float64
	maxExtent   model.Degrees
	concurrency int
	workDir     string
}

// GeneratorOption configures how we set up the generator.
type GeneratorOption func(*generatorOptions)

// WithFeatureSource sets where buildings come from. Without one the scene
// has no buildings.
func WithFeatureSource(src FeatureSource) GeneratorOption {
	return func(o *generatorOptions) {
		o.features = src
	}
}

// WithRasterSource sets where the height map comes from. Without one there
// is no terrain and everything stands at z=0.
func WithRasterSource(src RasterSource) GeneratorOption {
	return func(o *generatorOptions) {
		o.raster = src
	}
}

// WithTreeSource sets where trees come from. Without one no trees are
// planted.
func WithTreeSource(src TreeSource) GeneratorOption {
	return func(o *generatorOptions) {
		o.trees = src
	}
}

// WithSeed seeds the fallback building heights and the tree shapes.
func WithSeed(seed uint64) GeneratorOption {
	return func(o *generatorOptions) {
		o.seed = seed
	}
}

// WithHeightPerLevel sets the storey height used for building:levels.
func WithHeightPerLevel(h float64) GeneratorOption {
	return func(o *generatorOptions) {
		if h > 0 {
			o.perLevel = h
		}
	}
}

// WithTerrainSpacing sets the nominal distance between terrain vertices.
func WithTerrainSpacing(spacing float64) GeneratorOption {
	return func(o *generatorOptions) {
		if spacing > 0 {
			o.spacing = spacing
		}
	}
}

// WithTerrainScale scales the displaced relief.
func WithTerrainScale(scale float64) GeneratorOption {
	return func(o *generatorOptions) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithMaxExtent sets the largest rectangle side accepted.
func WithMaxExtent(d model.Degrees) GeneratorOption {
	return func(o *generatorOptions) {
		if d > 0 {
			o.maxExtent = d
		}
	}
}

// WithConcurrency lets you set the number of goroutines planning buildings.
func WithConcurrency(n int) GeneratorOption {
	return func(o *generatorOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithWorkDir sets where prepared height maps are written.
func WithWorkDir(dir string) GeneratorOption {
	return func(o *generatorOptions) {
		o.workDir = dir
	}
}

// defaultGeneratorConfig provides a default configuration for generators.
var defaultGeneratorConfig = generatorOptions{
	perLevel:    feature.HeightPerLevel,
	spacing:     terrain.VertexSpacing,
	scale:       DefaultTerrainScale,
	maxExtent:   DefaultMaxExtent,
	concurrency: DefaultConcurrency(),
}
