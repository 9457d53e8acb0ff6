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

package heightmap

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// Raster samples a height map image. Values are normalised to [0, 1].
type Raster struct {
	img  image.Image
	rect image.Rectangle
}

// Open loads the height map of a prepared raster.
func Open(m *Meta) (*Raster, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, eris.Wrap(err, "opening height map")
	}
	defer f.Close() //nolint:errcheck

	img, err := png.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "decoding %s", m.Path)
	}

	return NewRaster(img), nil
}

// NewRaster wraps an image.
func NewRaster(img image.Image) *Raster {
	return &Raster{img: img, rect: img.Bounds()}
}

// At returns the bilinearly interpolated value at texture coordinates
// (u, v), where (0, 0) is the south-west corner and (1, 1) the north-east.
// Coordinates outside [0, 1] are clamped.
func (r *Raster) At(u, v float64) float64 {
	w, h := r.rect.Dx(), r.rect.Dy()

	fx := clamp(u, 0, 1) * float64(w-1)
	fy := (1 - clamp(v, 0, 1)) * float64(h-1)

	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	top := r.gray(x0, y0)*(1-tx) + r.gray(x1, y0)*tx
	bottom := r.gray(x0, y1)*(1-tx) + r.gray(x1, y1)*tx

	return top*(1-ty) + bottom*ty
}

func (r *Raster) gray(x, y int) float64 {
	c := color.Gray16Model.Convert(r.img.At(r.rect.Min.X+x, r.rect.Min.Y+y)).(color.Gray16)
	return float64(c.Y) / math.MaxUint16
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
