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

// Package heightmap prepares an elevation raster for terrain displacement.
package heightmap

import (
	"image"
	"image/png"
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/zip"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

// DefaultName is the map name requested from the raster service and used
// as the prefix of every file in its archive.
const DefaultName = "map"

var (
	// ErrMapMissing is returned when the archive lacks the merged height
	// map or its README.
	ErrMapMissing = eris.New("height map archive is incomplete")

	// ErrElevationMissing is returned when the README does not declare the
	// elevation range of the raster.
	ErrElevationMissing = eris.New("elevation range not found")
)

// Meta describes a prepared raster. The image at Path has been resized so
// that PixelWidth:PixelHeight matches RealWidth:RealHeight.
type Meta struct {
	Bounds       model.BoundingBox `json:"bounds"`
	Path         string            `json:"path"`
	MinElevation float64           `json:"min_elevation"`
	MaxElevation float64           `json:"max_elevation"`
	RealWidth    float64           `json:"real_width"`
	RealHeight   float64           `json:"real_height"`
	PixelWidth   int               `json:"pixel_width"`
	PixelHeight  int               `json:"pixel_height"`
}

// Relief is the declared elevation range in meters.
func (m *Meta) Relief() float64 {
	return m.MaxElevation - m.MinElevation
}

// Prepare reads a raster archive covering bounds, parses the declared
// elevation range and writes an aspect-corrected copy of the merged height
// map into the work directory.
func Prepare(archive io.ReaderAt, size int64, bounds model.BoundingBox, opts ...Option) (*Meta, error) {
	cfg := defaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return nil, eris.Wrap(err, "opening raster archive")
	}

	mapFile := find(zr, cfg.name+" Height Map (Merged).png")
	if mapFile == nil {
		return nil, eris.Wrapf(ErrMapMissing, "no merged height map for %q", cfg.name)
	}

	readme := find(zr, cfg.name+" README.txt")
	if readme == nil {
		return nil, eris.Wrapf(ErrMapMissing, "no README for %q", cfg.name)
	}

	lo, hi, err := readElevation(readme)
	if err != nil {
		return nil, err
	}

	src, err := decode(mapFile)
	if err != nil {
		return nil, err
	}

	vertical, horizontal := geo.Span(bounds.BottomLeft(), bounds.TopRight())

	dst := Resize(src, horizontal, vertical)

	out, err := os.CreateTemp(cfg.workDir, cfg.name+"-*.png")
	if err != nil {
		return nil, eris.Wrap(err, "creating resized height map")
	}

	if err = writePNG(out, dst); err != nil {
		os.Remove(out.Name()) //nolint:errcheck
		return nil, err
	}

	meta := &Meta{
		Bounds:       bounds,
		Path:         out.Name(),
		MinElevation: lo,
		MaxElevation: hi,
		RealWidth:    horizontal,
		RealHeight:   vertical,
		PixelWidth:   dst.Bounds().Dx(),
		PixelHeight:  dst.Bounds().Dy(),
	}

	zap.L().Info("height map prepared",
		zap.String("path", meta.Path),
		zap.Float64("min", lo),
		zap.Float64("max", hi),
		zap.Int("width", meta.PixelWidth),
		zap.Int("height", meta.PixelHeight))

	return meta, nil
}

// writePNG encodes img into f and closes it.
func writePNG(f *os.File, img image.Image) error {
	if err := png.Encode(f, img); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "writing %s", f.Name())
	}

	return eris.Wrapf(f.Close(), "closing %s", f.Name())
}

func find(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && path.Base(f.Name) == name {
			return f
		}
	}

	return nil
}

func decode(f *zip.File) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	img, err := png.Decode(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "decoding %s", f.Name)
	}

	return img, nil
}
