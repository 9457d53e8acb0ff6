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

package trees_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/trees"
)

func newFrame(t *testing.T) *geo.Frame {
	t.Helper()

	f, err := geo.NewFrame(model.DefaultBoundingBox())
	require.NoError(t, err)

	return f
}

func mercator(lat, lon float64) string {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return fmt.Sprintf("[%f,%f]", p[0], p[1])
}

func TestDecode(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":` + mercator(45.8085, 15.9745) + `},"properties":{"vrsta":"Tilia"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":` + mercator(45.9, 15.9745) + `}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[1,2],[3,4]]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2,3]}},
		{"type":"Feature","geometry":null},
		{"type":"Tree","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":` + mercator(45.8075, 15.972) + `}}
	]}`

	frame := newFrame(t)

	res, err := trees.Decode(strings.NewReader(doc), frame)
	require.NoError(t, err)

	require.Len(t, res.Trees, 2)
	assert.Equal(t, model.ID(0), res.Trees[0].ID)
	assert.Equal(t, model.ID(6), res.Trees[1].ID)

	want, err := frame.Project(model.Geolocation{Lat: 45.8085, Lon: 15.9745})
	require.NoError(t, err)
	assert.InDelta(t, want.X(), res.Trees[0].Position.X(), 1e-3)
	assert.InDelta(t, want.Y(), res.Trees[0].Position.Y(), 1e-3)

	assert.Equal(t, 2, res.Diagnostics.Count(model.UnknownType))
	assert.Equal(t, 2, res.Diagnostics.Count(model.InvalidGeometry))
	assert.Equal(t, 4, res.Diagnostics.Len())
}

func TestDecode_Errors(t *testing.T) {
	test_cases := []struct {
		name       string
		doc        string
		collection bool
	}{
		{"not json", "<html>", false},
		{"feature", `{"type":"Feature","geometry":null}`, true},
		{"no features", `{"type":"FeatureCollection"}`, true},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := trees.Decode(strings.NewReader(tc.doc), newFrame(t))
			require.Error(t, err)
			assert.Equal(t, tc.collection, eris.Is(err, trees.ErrNotFeatureCollection))
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	res, err := trees.Decode(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), newFrame(t))
	require.NoError(t, err)
	assert.Empty(t, res.Trees)
	assert.Zero(t, res.Diagnostics.Len())
}

func TestMercatorBounds(t *testing.T) {
	bbox := model.DefaultBoundingBox()
	b := trees.MercatorBounds(bbox)

	assert.Less(t, b.Min[0], b.Max[0])
	assert.Less(t, b.Min[1], b.Max[1])

	bl := project.Mercator.ToWGS84(b.Min)
	assert.InDelta(t, float64(bbox.Left), bl.Lon(), 1e-9)
	assert.InDelta(t, float64(bbox.Bottom), bl.Lat(), 1e-9)
}
