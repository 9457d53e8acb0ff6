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
	"math"

	"golang.org/x/image/draw"
)

// TargetSize returns the pixel size whose aspect ratio matches the real
// world. The raster's pixel side along the longer real-world axis is
// stretched; the other side is kept.
func TargetSize(pixelWidth, pixelHeight int, realWidth, realHeight float64) (int, int) {
	w, h := pixelWidth, pixelHeight

	if realWidth > realHeight {
		w = int(math.Round(realWidth / realHeight * float64(pixelHeight)))
	} else {
		h = int(math.Round(realHeight / realWidth * float64(pixelWidth)))
	}

	return max(w, 1), max(h, 1)
}

// Resize resamples src to TargetSize with a Catmull-Rom filter, keeping
// 16 bits of elevation per pixel.
func Resize(src image.Image, realWidth, realHeight float64) *image.Gray16 {
	sb := src.Bounds()
	w, h := TargetSize(sb.Dx(), sb.Dy(), realWidth, realHeight)

	dst := image.NewGray16(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)

	return dst
}
