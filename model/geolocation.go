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

package model

import "fmt"

// Geolocation is a latitude/longitude pair in decimal degrees.
type Geolocation struct {
	Lat Degrees `json:"lat"`
	Lon Degrees `json:"lon"`
}

// EqualWithin checks if both coordinates are within a specific epsilon.
func (g Geolocation) EqualWithin(o Geolocation, eps Epsilon) bool {
	return g.Lat.EqualWithin(o.Lat, eps) && g.Lon.EqualWithin(o.Lon, eps)
}

func (g Geolocation) String() string {
	return fmt.Sprintf("(%s, %s)", ftoa(float64(g.Lat)), ftoa(float64(g.Lon)))
}
