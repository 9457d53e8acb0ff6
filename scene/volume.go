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

package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"

	"m4o.io/citymesh/mesh"
)

// Volume returns the enclosed volume of a solid minus the volume removed
// by its cutters. Cutters are prisms as laid out by mesh.Extrude and are
// assumed to lie within the solid's footprint wherever their bounds meet,
// which holds for courtyards. Only the vertical overlap is carved.
func (sc *Scene) Volume(id mesh.SolidID) (float64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	e, ok := sc.entries[id]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownSolid, "solid %d", id)
	}

	world := e.Solid.World()
	vol := Enclosed(world, e.Solid.Faces)

	lo, hi := zRange(world)
	bound := planarBound(world)

	for _, c := range e.Cutters {
		ring := footprint(c)
		if !bound.Intersects(ring.Bound()) {
			continue
		}

		clo, chi := zRange(c.Vertices)

		overlap := min(hi, chi) - max(lo, clo)
		if overlap <= 0 {
			continue
		}

		vol -= math.Abs(planar.Area(ring)) * overlap
	}

	return max(vol, 0), nil
}

// Enclosed computes the volume of a closed polyhedron with the divergence
// theorem. Faces are fanned from their first vertex.
func Enclosed(verts []r3.Vector, faces [][]int) float64 {
	var sum float64

	for _, f := range faces {
		a := verts[f[0]]
		for i := 1; i+1 < len(f); i++ {
			sum += a.Dot(verts[f[i]].Cross(verts[f[i+1]]))
		}
	}

	return math.Abs(sum) / 6
}

// footprint returns the bottom ring of an extruded prism.
func footprint(s *mesh.Solid) orb.Ring {
	n := len(s.Vertices) / 2

	ring := make(orb.Ring, 0, n+1)
	for _, v := range s.Vertices[:n] {
		ring = append(ring, orb.Point{v.X + s.Offset.X, v.Y + s.Offset.Y})
	}

	return append(ring, ring[0])
}

func planarBound(verts []r3.Vector) orb.Bound {
	b := orb.Bound{Min: orb.Point{verts[0].X, verts[0].Y}, Max: orb.Point{verts[0].X, verts[0].Y}}
	for _, v := range verts[1:] {
		b = b.Extend(orb.Point{v.X, v.Y})
	}

	return b
}

func zRange(verts []r3.Vector) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range verts {
		lo = min(lo, v.Z)
		hi = max(hi, v.Z)
	}

	return lo, hi
}
