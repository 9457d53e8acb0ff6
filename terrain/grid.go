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

package terrain

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
)

const (
	// MinDisplacement is the smallest elevation range, in meters, worth
	// displacing the terrain for.
	MinDisplacement = 0.1

	// UVClip shrinks texture coordinates towards the centre of the raster so
	// the outermost pixels never bleed into sharp walls along the edges.
	UVClip = 0.999
)

// Grid is a flat rectangular vertex grid centred on the planar origin.
type Grid struct {
	Width   float64
	Height  float64
	Columns int
	Rows    int
}

// NewGrid lays out a grid of the given size with vertices roughly spacing
// meters apart on each axis.
func NewGrid(width, height, spacing float64) (*Grid, error) {
	if !(width > 0) || !(height > 0) || !(spacing > 0) {
		return nil, eris.Errorf("grid %gx%g with spacing %g is degenerate", width, height, spacing)
	}

	return &Grid{
		Width:   width,
		Height:  height,
		Columns: subdivisions(width, spacing) + 1,
		Rows:    subdivisions(height, spacing) + 1,
	}, nil
}

func subdivisions(size, spacing float64) int {
	return max(1, int(math.Round(size/spacing)))
}

// Spacing returns the larger of the two actual vertex distances.
func (g *Grid) Spacing() float64 {
	return max(g.Width/float64(g.Columns-1), g.Height/float64(g.Rows-1))
}

// Vertices returns the grid vertices at z=0, row by row from the south-west
// corner.
func (g *Grid) Vertices() []r3.Vector {
	dx := g.Width / float64(g.Columns-1)
	dy := g.Height / float64(g.Rows-1)

	out := make([]r3.Vector, 0, g.Columns*g.Rows)

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Columns; c++ {
			out = append(out, r3.Vector{
				X: -g.Width/2 + float64(c)*dx,
				Y: -g.Height/2 + float64(r)*dy,
			})
		}
	}

	return out
}

// Faces returns one counter-clockwise quad per grid cell.
func (g *Grid) Faces() [][]int {
	out := make([][]int, 0, (g.Columns-1)*(g.Rows-1))

	for r := 0; r < g.Rows-1; r++ {
		for c := 0; c < g.Columns-1; c++ {
			i := r*g.Columns + c
			out = append(out, []int{i, i + 1, i + g.Columns + 1, i + g.Columns})
		}
	}

	return out
}

// DisplacementStrength is the elevation range the displaced terrain should
// span. It reports false when the range is too small to bother.
func DisplacementStrength(minElevation, maxElevation, scale float64) (float64, bool) {
	strength := (maxElevation - minElevation) * scale
	if strength <= MinDisplacement {
		return 0, false
	}

	return strength, true
}

// ClipUV maps a texture coordinate in [0, 1] into the clipped range.
func ClipUV(u float64) float64 {
	return u*UVClip + (1-UVClip)/2
}
