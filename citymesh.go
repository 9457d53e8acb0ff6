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

// Package citymesh generates a 3D scene of a city block from map data: a
// terrain displaced by a height map, building footprints extruded and
// seated on it, courtyards carved out of multipolygon buildings and trees
// planted on the ground.
package citymesh

import (
	"bytes"
	"context"

	"m4o.io/citymesh/model"
)

// FeatureSource delivers the raw map elements inside a rectangle.
type FeatureSource interface {
	Elements(ctx context.Context, bounds model.BoundingBox) ([]model.Element, error)
}

// RasterSource delivers a height map archive covering a rectangle. Name is
// the map name prefixing the files in the archive.
type RasterSource interface {
	Name() string
	Raster(ctx context.Context, bounds model.BoundingBox) (*bytes.Reader, error)
}

// TreeSource delivers a GeoJSON FeatureCollection of tree points in web
// mercator.
type TreeSource interface {
	Trees(ctx context.Context, bounds model.BoundingBox) (*bytes.Reader, error)
}
