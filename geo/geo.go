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

// Package geo implements the geodesic computations used to place map
// features on a local planar frame.
//
// All formulas treat the earth as a sphere of radius EarthRadius.
package geo

import (
	"math"

	"github.com/golang/geo/s1"

	"m4o.io/citymesh/model"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6_371_008.8

// Distance returns the haversine great-circle distance between a and b in
// meters.
func Distance(a, b model.Geolocation) float64 {
	lat1 := a.Lat.Radians()
	lat2 := b.Lat.Radians()
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon).Radians()

	h := hav(dLat) + math.Cos(lat1)*math.Cos(lat2)*hav(dLon)

	return 2 * EarthRadius * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Span decomposes the rectangle with diagonal corners a and b into its
// north-south (vertical) and east-west (horizontal) extents in meters.
//
// The vertical extent is the meridian arc between the two latitudes and the
// horizontal extent is the remaining leg of the right triangle whose
// hypotenuse is the diagonal, so vertical² + horizontal² equals the squared
// diagonal. Both legs are independent of argument order and of which
// diagonal of the rectangle is passed.
func Span(a, b model.Geolocation) (vertical, horizontal float64) {
	diagonal := Distance(a, b)
	vertical = Distance(a, model.Geolocation{Lat: b.Lat, Lon: a.Lon})

	if rest := diagonal*diagonal - vertical*vertical; rest > 0 {
		horizontal = math.Sqrt(rest)
	}

	return vertical, horizontal
}

// IsInBounds reports whether p lies within the rectangle spanned by
// bottomLeft and topRight, edges included.
func IsInBounds(p, bottomLeft, topRight model.Geolocation) bool {
	return model.NewBoundingBox(bottomLeft, topRight).Contains(p.Lat, p.Lon)
}

// Destination returns the location reached by travelling distance meters
// from origin along the initial compass bearing, given in radians clockwise
// from north. The resulting longitude is normalized into (-180, 180].
func Destination(origin model.Geolocation, distance float64, bearing s1.Angle) model.Geolocation {
	delta := distance / EarthRadius
	theta := bearing.Radians()

	lat1 := origin.Lat.Radians()
	lon1 := origin.Lon.Radians()

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta)
	lat2 := math.Asin(sinLat2)
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2,
	)

	return model.Geolocation{
		Lat: model.FromAngle(s1.Angle(lat2)),
		Lon: NormalizeLongitude(model.FromAngle(s1.Angle(lon2))),
	}
}

// NormalizeLongitude wraps lon into (-180, 180].
func NormalizeLongitude(lon model.Degrees) model.Degrees {
	l := math.Mod(float64(lon)+180, 360)
	if l < 0 {
		l += 360
	}

	l -= 180
	if l <= -180 {
		l += 360
	}

	return model.Degrees(l)
}

func hav(theta float64) float64 {
	s := math.Sin(theta / 2)

	return s * s
}
