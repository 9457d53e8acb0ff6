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

package geo_test

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

func TestFrame_Corners(t *testing.T) {
	bbox := model.DefaultBoundingBox()

	f, err := geo.NewFrame(bbox)
	require.NoError(t, err)

	assert.InDelta(t, 438.0, f.Width(), 0.5)
	assert.InDelta(t, 264.42, f.Height(), 0.01)
	assert.Equal(t, r2.Point{X: -f.Width() / 2, Y: -f.Height() / 2}, f.Origin())

	bl, err := f.Project(bbox.BottomLeft())
	require.NoError(t, err)
	assert.Equal(t, f.Origin(), bl.Vector())

	tr, err := f.Project(bbox.TopRight())
	require.NoError(t, err)
	assert.InDelta(t, f.Width()/2, tr.X(), 1e-9)
	assert.InDelta(t, f.Height()/2, tr.Y(), 1e-9)

	tl, err := f.Project(bbox.TopLeft())
	require.NoError(t, err)
	assert.InDelta(t, -f.Width()/2, tl.X(), 1e-9)
	assert.InDelta(t, f.Height()/2, tl.Y(), 1e-9)

	br, err := f.Project(bbox.BottomRight())
	require.NoError(t, err)
	assert.InDelta(t, f.Width()/2, br.X(), 1e-6)
	assert.InDelta(t, -f.Height()/2, br.Y(), 1e-9)
}

func TestFrame_WideCorners(t *testing.T) {
	test_cases := []struct {
		name string
		bbox model.BoundingBox
	}{
		{"largest box", model.BoundingBox{Bottom: 45.7, Left: 15.8, Top: 45.9, Right: 16.0}},
		{"wide and flat", model.BoundingBox{Bottom: 45.8, Left: 15.8, Top: 45.81, Right: 16.0}},
		{"southern hemisphere", model.BoundingBox{Bottom: -33.95, Left: 18.35, Top: -33.8, Right: 18.5}},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := geo.NewFrame(tc.bbox)
			require.NoError(t, err)

			corners := []struct {
				loc  model.Geolocation
				x, y float64
			}{
				{tc.bbox.BottomLeft(), -f.Width() / 2, -f.Height() / 2},
				{tc.bbox.BottomRight(), f.Width() / 2, -f.Height() / 2},
				{tc.bbox.TopLeft(), -f.Width() / 2, f.Height() / 2},
				{tc.bbox.TopRight(), f.Width() / 2, f.Height() / 2},
			}

			for _, c := range corners {
				p, err := f.Project(c.loc)
				require.NoError(t, err)
				assert.InDelta(t, c.x, p.X(), 1e-6, "x of %s", c.loc)
				assert.InDelta(t, c.y, p.Y(), 1e-6, "y of %s", c.loc)
			}

			// every row of the east edge stays on the terrain
			for i := 0; i < 10; i++ {
				lat := tc.bbox.Bottom + (tc.bbox.Top-tc.bbox.Bottom)*model.Degrees(i)/10
				p, err := f.Project(model.Geolocation{Lat: lat, Lon: tc.bbox.Right})
				require.NoError(t, err)
				assert.InDelta(t, f.Width()/2, p.X(), 1e-6)
			}

			mid, err := f.Project(model.Geolocation{
				Lat: (tc.bbox.Bottom + tc.bbox.Top) / 2,
				Lon: (tc.bbox.Left + tc.bbox.Right) / 2,
			})
			require.NoError(t, err)
			assert.Greater(t, mid.X(), -f.Width()/2)
			assert.Less(t, mid.X(), f.Width()/2)
		})
	}
}

func TestFrame_OutOfBounds(t *testing.T) {
	bbox := model.DefaultBoundingBox()

	f, err := geo.NewFrame(bbox)
	require.NoError(t, err)

	outside := []model.Geolocation{
		{Lat: bbox.Top + 1e-6, Lon: bbox.Left},
		{Lat: bbox.Bottom - 1e-6, Lon: bbox.Left},
		{Lat: bbox.Bottom, Lon: bbox.Left - 1e-6},
		{Lat: bbox.Bottom, Lon: bbox.Right + 1e-6},
		{Lat: 0, Lon: 0},
	}

	for _, loc := range outside {
		t.Run(loc.String(), func(t *testing.T) {
			_, err := f.Project(loc)
			assert.True(t, eris.Is(err, geo.ErrOutOfBounds))
		})
	}
}

func TestNewFrame_Invalid(t *testing.T) {
	_, err := geo.NewFrame(model.BoundingBox{Bottom: 1, Left: 1, Top: 1, Right: 2})
	assert.True(t, eris.Is(err, model.ErrInvalidBounds))
}
