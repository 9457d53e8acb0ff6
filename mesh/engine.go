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

package mesh

import (
	"github.com/golang/geo/r3"

	"m4o.io/citymesh/heightmap"
)

// SolidID identifies a solid inside an Engine.
type SolidID int64

// Engine is the capability set required from a 3D scene backend. An
// engine handle belongs to a single generation run.
type Engine interface {
	// CreateSolid realizes s and returns its handle.
	CreateSolid(s *Solid) (SolidID, error)

	// BooleanSubtract removes the volume of cutter from target.
	BooleanSubtract(target, cutter SolidID) error

	// DeleteSolid removes a solid from the scene.
	DeleteSolid(id SolidID) error

	// Displace raises the vertices of a solid by sampling the raster so
	// that the displaced elevations span strength meters.
	Displace(id SolidID, raster *heightmap.Meta, strength float64) error

	// Vertices returns a snapshot of the world space vertices of a solid.
	Vertices(id SolidID) ([]r3.Vector, error)
}

// Ground answers elevation queries below a footprint.
type Ground interface {
	LowestAndHighest(points []r3.Vector) (lowest, highest float64, err error)
}
