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

	"github.com/golang/geo/r2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/heightmap"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/terrain"
)

// Displace raises every vertex of a solid by the raster value under it.
// Texture coordinates span the solid's planar extent and are clipped with
// terrain.ClipUV. Samples are scaled so that the displaced vertices span
// strength meters; a raster with no contrast under the solid leaves it
// untouched.
func (sc *Scene) Displace(id mesh.SolidID, raster *heightmap.Meta, strength float64) error {
	r, err := heightmap.Open(raster)
	if err != nil {
		return eris.Wrapf(err, "displacing solid %d", id)
	}

	return sc.DisplaceWith(id, r, strength)
}

// DisplaceWith is Displace with an already loaded raster.
func (sc *Scene) DisplaceWith(id mesh.SolidID, r *heightmap.Raster, strength float64) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	e, ok := sc.entries[id]
	if !ok {
		return eris.Wrapf(ErrUnknownSolid, "solid %d", id)
	}

	verts := e.Solid.Vertices

	rect := r2.EmptyRect()
	for _, v := range verts {
		rect = rect.AddPoint(r2.Point{X: v.X, Y: v.Y})
	}

	size := rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return eris.Wrapf(ErrInvalidSolid, "solid %d has no planar extent", id)
	}

	samples := make([]float64, len(verts))
	lo, hi := math.Inf(1), math.Inf(-1)

	for i, v := range verts {
		u := terrain.ClipUV((v.X - rect.X.Lo) / size.X)
		w := terrain.ClipUV((v.Y - rect.Y.Lo) / size.Y)

		samples[i] = r.At(u, w)
		lo = min(lo, samples[i])
		hi = max(hi, samples[i])
	}

	if hi-lo <= 0 {
		zap.L().Warn("height map is flat under solid", zap.Int64("solid", int64(id)))
		return nil
	}

	k := strength / (hi - lo)
	for i := range verts {
		verts[i].Z += samples[i] * k
	}

	sc.record(Op{Kind: DisplaceOp, Target: id})

	return nil
}
