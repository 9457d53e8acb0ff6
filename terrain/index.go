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

// Package terrain answers ground elevation queries against the vertex cloud
// of a terrain mesh and builds the flat grid that is displaced into one.
package terrain

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
	"golang.org/x/exp/constraints"
)

const (
	// VertexSpacing is the nominal distance between terrain grid vertices
	// in meters.
	VertexSpacing = 4.0

	// CloseFactor scales the grid spacing into the query tolerance. It is
	// just above √2/2 so that a query always reaches its nearest vertex.
	CloseFactor = 0.72

	// DefaultTolerance is the query tolerance for the default grid.
	DefaultTolerance = CloseFactor * VertexSpacing
)

var (
	// ErrNoGround is returned when no terrain vertex lies near a query.
	ErrNoGround = eris.New("no terrain vertex near query point")

	// ErrEmptyCloud is returned when building an index without points.
	ErrEmptyCloud = eris.New("terrain point cloud is empty")
)

type bucket struct {
	x      float64
	points []r3.Vector
}

// Index is a read-only spatial index over terrain vertices. Points are
// grouped into buckets of nearly equal x, each sorted by y.
type Index struct {
	tolerance float64
	buckets   []bucket
}

// NewIndex indexes a copy of points. A point joins the current bucket while
// its x is within tolerance of the previous point's x.
func NewIndex(points []r3.Vector, tolerance float64) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyCloud
	}

	if !(tolerance > 0) {
		return nil, eris.Errorf("tolerance must be positive, got %g", tolerance)
	}

	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b r3.Vector) int { return cmpFloat(a.X, b.X) })

	var buckets []bucket

	for i, p := range sorted {
		if i == 0 || p.X-sorted[i-1].X >= tolerance {
			buckets = append(buckets, bucket{x: p.X})
		}

		last := &buckets[len(buckets)-1]
		last.points = append(last.points, p)
	}

	for i := range buckets {
		slices.SortFunc(buckets[i].points, func(a, b r3.Vector) int { return cmpFloat(a.Y, b.Y) })
	}

	return &Index{tolerance: tolerance, buckets: buckets}, nil
}

// Tolerance returns the half width of the query box.
func (idx *Index) Tolerance() float64 { return idx.tolerance }

// Buckets returns the number of x buckets.
func (idx *Index) Buckets() int { return len(idx.buckets) }

// ClosePoints returns the points whose x and y both lie within the
// tolerance of (x, y). The result is empty when the terrain has no vertex
// that close.
func (idx *Index) ClosePoints(x, y float64) []r3.Vector {
	var out []r3.Vector

	for _, b := range searchNear(idx.buckets, func(b bucket) float64 { return b.x }, x, idx.tolerance) {
		out = append(out, searchNear(b.points, func(p r3.Vector) float64 { return p.Y }, y, idx.tolerance)...)
	}

	return out
}

// ClosePointsMany returns the union of ClosePoints over every query point.
func (idx *Index) ClosePointsMany(points []r3.Vector) []r3.Vector {
	var out []r3.Vector

	for _, p := range points {
		out = append(out, idx.ClosePoints(p.X, p.Y)...)
	}

	return out
}

// LowestHeight returns the smallest elevation near (x, y).
func (idx *Index) LowestHeight(x, y float64) (float64, error) {
	lo, _, err := bounds(idx.ClosePoints(x, y), func(p r3.Vector) float64 { return p.Z })
	if err != nil {
		return 0, eris.Wrapf(err, "at (%.2f, %.2f)", x, y)
	}

	return lo, nil
}

// LowestAndHighest returns the smallest and largest elevation near any of
// the query points.
func (idx *Index) LowestAndHighest(points []r3.Vector) (lowest, highest float64, err error) {
	lowest, highest, err = bounds(idx.ClosePointsMany(points), func(p r3.Vector) float64 { return p.Z })
	if err != nil {
		return 0, 0, eris.Wrapf(err, "under %d query points", len(points))
	}

	return lowest, highest, nil
}

// searchNear binary searches items, sorted ascending by key, for an item
// within tol of v. The hit and its immediate neighbours are returned when
// they are within tol too.
func searchNear[T any](items []T, key func(T) float64, v, tol float64) []T {
	lo, hi := 0, len(items)-1

	for lo <= hi {
		mid := lo + (hi-lo)/2
		k := key(items[mid])

		switch {
		case abs(k-v) < tol:
			out := make([]T, 0, 3)

			if mid > 0 && abs(key(items[mid-1])-v) < tol {
				out = append(out, items[mid-1])
			}

			out = append(out, items[mid])

			if mid < len(items)-1 && abs(key(items[mid+1])-v) < tol {
				out = append(out, items[mid+1])
			}

			return out
		case k < v:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}

	return nil
}

func bounds[T any, N constraints.Float](items []T, value func(T) N) (lo, hi N, err error) {
	if len(items) == 0 {
		return 0, 0, ErrNoGround
	}

	lo = value(items[0])
	hi = lo

	for _, it := range items[1:] {
		v := value(it)
		lo = min(lo, v)
		hi = max(hi, v)
	}

	return lo, hi, nil
}

func abs[N constraints.Float](v N) N {
	if v < 0 {
		return -v
	}

	return v
}

func cmpFloat[N constraints.Float](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
