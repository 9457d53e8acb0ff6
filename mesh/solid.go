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

// Package mesh turns footprints into solid descriptors and drives a mesh
// engine to realize them.
package mesh

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
)

var (
	// ErrDegenerateRing is returned when a footprint has fewer than three
	// points.
	ErrDegenerateRing = eris.New("footprint ring needs at least 3 points")

	// ErrNonPositiveHeight is returned when extruding to a height that is
	// not strictly positive.
	ErrNonPositiveHeight = eris.New("extrusion height must be positive")
)

// Kind tells what a solid represents.
type Kind uint8

const (
	TerrainKind Kind = iota
	BuildingKind
	CutterKind
	TreeKind
)

func (k Kind) String() string {
	switch k {
	case TerrainKind:
		return "terrain"
	case BuildingKind:
		return "building"
	case CutterKind:
		return "cutter"
	case TreeKind:
		return "tree"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Solid describes a polygon mesh. Vertices are local to Offset, which the
// engine applies as the placement of the object.
type Solid struct {
	Name     string
	Kind     Kind
	Vertices []r3.Vector
	Faces    [][]int
	Offset   r3.Vector
}

// World returns the vertices with Offset applied.
func (s *Solid) World() []r3.Vector {
	out := make([]r3.Vector, len(s.Vertices))
	for i, v := range s.Vertices {
		out[i] = v.Add(s.Offset)
	}

	return out
}

// Extrude turns a footprint ring into a prism of the given height. The ring
// is recentred on the midpoint of its bounding box, which is returned as
// the solid's offset. The bottom ring holds vertices 0..n-1 at z=0 and the
// top ring n..2n-1 at z=height. Faces are one quad per ring edge followed by
// the bottom cap, wound downwards, and the top cap, wound upwards.
func Extrude(ring []r2.Point, height float64) (*Solid, error) {
	n := len(ring)
	if n < 3 {
		return nil, eris.Wrapf(ErrDegenerateRing, "got %d", n)
	}

	if !(height > 0) || math.IsInf(height, 1) {
		return nil, eris.Wrapf(ErrNonPositiveHeight, "got %g", height)
	}

	mid := r2.RectFromPoints(ring...).Center()

	verts := make([]r3.Vector, 2*n)
	for i, p := range ring {
		c := p.Sub(mid)
		verts[i] = r3.Vector{X: c.X, Y: c.Y}
		verts[n+i] = r3.Vector{X: c.X, Y: c.Y, Z: height}
	}

	faces := make([][]int, 0, n+2)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, []int{i, j, n + j, n + i})
	}

	bottom := make([]int, n)
	top := make([]int, n)

	for i := 0; i < n; i++ {
		bottom[i] = n - 1 - i
		top[i] = n + i
	}

	faces = append(faces, bottom, top)

	return &Solid{
		Vertices: verts,
		Faces:    faces,
		Offset:   r3.Vector{X: mid.X, Y: mid.Y},
	}, nil
}
