// Copyright 2017-25 the original author or authors.
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

package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	MaxLat Degrees = 90.0
	MaxLon Degrees = 180.0
	MinLat Degrees = -90.0
	MinLon Degrees = -180.0
)

// ErrInvalidBounds is returned when a bounding box is degenerate, inverted
// or too large to generate.
var ErrInvalidBounds = eris.New("invalid bounding box")

// BoundingBox is a geographic rectangle, inclusive on every edge.
type BoundingBox struct {
	Top    Degrees `json:"top"`
	Left   Degrees `json:"left"`
	Bottom Degrees `json:"bottom"`
	Right  Degrees `json:"right"`
}

// NewBoundingBox creates the rectangle spanned by its bottom-left and
// top-right corners.
func NewBoundingBox(bottomLeft, topRight Geolocation) BoundingBox {
	return BoundingBox{
		Top:    topRight.Lat,
		Left:   bottomLeft.Lon,
		Bottom: bottomLeft.Lat,
		Right:  topRight.Lon,
	}
}

// DefaultBoundingBox is a small block of central Zagreb.
func DefaultBoundingBox() BoundingBox {
	return NewBoundingBox(
		Geolocation{Lat: 45.807212, Lon: 15.971431},
		Geolocation{Lat: 45.809590, Lon: 15.977082},
	)
}

// ParseBoundingBox parses "bottom,left,top,right", i.e. the bottom-left
// latitude and longitude followed by the top-right latitude and longitude.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, eris.Wrapf(ErrInvalidBounds, "expected 4 comma separated values, got %d", len(parts))
	}

	var v [4]Degrees

	for i, p := range parts {
		d, err := ParseDegrees(strings.TrimSpace(p))
		if err != nil {
			return BoundingBox{}, eris.Wrapf(ErrInvalidBounds, "value %q is not a number", p)
		}

		v[i] = d
	}

	return NewBoundingBox(Geolocation{Lat: v[0], Lon: v[1]}, Geolocation{Lat: v[2], Lon: v[3]}), nil
}

// BottomLeft returns the south-west corner.
func (b BoundingBox) BottomLeft() Geolocation {
	return Geolocation{Lat: b.Bottom, Lon: b.Left}
}

// TopRight returns the north-east corner.
func (b BoundingBox) TopRight() Geolocation {
	return Geolocation{Lat: b.Top, Lon: b.Right}
}

// TopLeft returns the north-west corner.
func (b BoundingBox) TopLeft() Geolocation {
	return Geolocation{Lat: b.Top, Lon: b.Left}
}

// BottomRight returns the south-east corner.
func (b BoundingBox) BottomRight() Geolocation {
	return Geolocation{Lat: b.Bottom, Lon: b.Right}
}

// Validate checks that the box has a positive extent on both axes, lies on
// the globe and spans no more than maxExtent degrees per axis.
func (b BoundingBox) Validate(maxExtent Degrees) error {
	if b.Bottom < MinLat || b.Top > MaxLat || b.Left < MinLon || b.Right > MaxLon {
		return eris.Wrapf(ErrInvalidBounds, "%s is not on the globe", b)
	}

	dLat := b.Top - b.Bottom
	dLon := b.Right - b.Left

	if dLat <= 0 || dLon <= 0 {
		return eris.Wrapf(ErrInvalidBounds, "%s must have a positive extent", b)
	}

	if dLat > maxExtent || dLon > maxExtent {
		return eris.Wrapf(ErrInvalidBounds, "%s exceeds %s degrees per axis", b, ftoa(float64(maxExtent)))
	}

	return nil
}

// EqualWithin checks if two bounding boxes are within a specific epsilon.
func (b BoundingBox) EqualWithin(o BoundingBox, eps Epsilon) bool {
	return b.Left.EqualWithin(o.Left, eps) &&
		b.Right.EqualWithin(o.Right, eps) &&
		b.Top.EqualWithin(o.Top, eps) &&
		b.Bottom.EqualWithin(o.Bottom, eps)
}

// Contains reports whether the location lies within the box, edges included.
func (b BoundingBox) Contains(lat Degrees, lng Degrees) bool {
	return b.Left <= lng && lng <= b.Right && b.Bottom <= lat && lat <= b.Top
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[(%s, %s) (%s, %s)]",
		ftoa(float64(b.Top)), ftoa(float64(b.Left)),
		ftoa(float64(b.Bottom)), ftoa(float64(b.Right)))
}
