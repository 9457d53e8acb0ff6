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

package geo

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/rotisserie/eris"

	"m4o.io/citymesh/model"
)

// ErrOutOfBounds is returned when projecting a location outside the frame's
// rectangle.
var ErrOutOfBounds = eris.New("location outside frame bounds")

// PlanarPoint is a position in meters on a Frame. It can only be obtained
// by projecting a Geolocation so points from different frames are never
// mixed up by construction.
type PlanarPoint struct {
	x, y float64
}

// X returns the easting in meters.
func (p PlanarPoint) X() float64 { return p.x }

// Y returns the northing in meters.
func (p PlanarPoint) Y() float64 { return p.y }

// Vector returns the point as an r2.Point.
func (p PlanarPoint) Vector() r2.Point { return r2.Point{X: p.x, Y: p.y} }

func (p PlanarPoint) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.x, p.y)
}

// Vectors converts a ring of planar points into r2 points.
func Vectors(ring []PlanarPoint) []r2.Point {
	out := make([]r2.Point, len(ring))
	for i, p := range ring {
		out[i] = p.Vector()
	}

	return out
}

// Frame is a local tangent plane anchored at the bottom-left corner of a
// bounding box. The bottom-left corner maps to Origin and the top-right
// corner to Origin + (Width, Height).
type Frame struct {
	bounds model.BoundingBox
	origin r2.Point
	width  float64
	height float64
}

// NewFrame creates a frame centred on the planar origin, matching a terrain
// grid centred on (0, 0).
func NewFrame(bounds model.BoundingBox) (*Frame, error) {
	if err := bounds.Validate(2 * model.MaxLon); err != nil {
		return nil, err
	}

	height, width := Span(bounds.BottomLeft(), bounds.TopRight())

	return &Frame{
		bounds: bounds,
		origin: r2.Point{X: -width / 2, Y: -height / 2},
		width:  width,
		height: height,
	}, nil
}

// Bounds returns the geographic rectangle of the frame.
func (f *Frame) Bounds() model.BoundingBox { return f.bounds }

// Width returns the east-west extent in meters.
func (f *Frame) Width() float64 { return f.width }

// Height returns the north-south extent in meters.
func (f *Frame) Height() float64 { return f.height }

// Origin returns the planar position of the bottom-left corner.
func (f *Frame) Origin() r2.Point { return f.origin }

// Project maps loc onto the frame. It fails with ErrOutOfBounds when loc
// lies outside the frame's rectangle. The horizontal span is normalized
// against the span to the east edge at the same latitude, so the east edge
// maps to Origin.X + Width on every row.
func (f *Frame) Project(loc model.Geolocation) (PlanarPoint, error) {
	if !f.bounds.Contains(loc.Lat, loc.Lon) {
		return PlanarPoint{}, eris.Wrapf(ErrOutOfBounds, "%s not in %s", loc, f.bounds)
	}

	bl := f.bounds.BottomLeft()
	vertical, horizontal := Span(bl, loc)

	if _, row := Span(bl, model.Geolocation{Lat: loc.Lat, Lon: f.bounds.Right}); row > 0 {
		horizontal *= f.width / row
	}

	return PlanarPoint{x: f.origin.X + horizontal, y: f.origin.Y + vertical}, nil
}
