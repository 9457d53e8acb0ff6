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

package terrain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/terrain"
)

func TestNewGrid(t *testing.T) {
	g, err := terrain.NewGrid(438, 264.4, terrain.VertexSpacing)
	require.NoError(t, err)

	assert.Equal(t, 111, g.Columns)
	assert.Equal(t, 67, g.Rows)
	assert.InDelta(t, 264.4/66, g.Spacing(), 1e-9)

	verts := g.Vertices()
	require.Len(t, verts, 111*67)
	assert.InDelta(t, -219, verts[0].X, 1e-9)
	assert.InDelta(t, -132.2, verts[0].Y, 1e-9)
	assert.InDelta(t, 219, verts[len(verts)-1].X, 1e-9)
	assert.InDelta(t, 132.2, verts[len(verts)-1].Y, 1e-9)

	faces := g.Faces()
	assert.Len(t, faces, 110*66)
	assert.Equal(t, []int{0, 1, 112, 111}, faces[0])

	_, err = terrain.NewGrid(0, 10, 4)
	assert.Error(t, err)
}

func TestNewGrid_Tiny(t *testing.T) {
	g, err := terrain.NewGrid(1, 1, terrain.VertexSpacing)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Columns)
	assert.Equal(t, 2, g.Rows)
	assert.Len(t, g.Faces(), 1)
	assert.Equal(t, 1.0, g.Spacing())
}

func TestDisplacementStrength(t *testing.T) {
	s, ok := terrain.DisplacementStrength(87, 317, 1)
	assert.True(t, ok)
	assert.Equal(t, 230.0, s)

	s, ok = terrain.DisplacementStrength(87, 317, 0.5)
	assert.True(t, ok)
	assert.Equal(t, 115.0, s)

	_, ok = terrain.DisplacementStrength(100, 100.05, 1)
	assert.False(t, ok)

	_, ok = terrain.DisplacementStrength(100, 200, 0)
	assert.False(t, ok)
}

func TestClipUV(t *testing.T) {
	assert.InDelta(t, 0.0005, terrain.ClipUV(0), 1e-12)
	assert.InDelta(t, 0.5, terrain.ClipUV(0.5), 1e-12)
	assert.InDelta(t, 0.9995, terrain.ClipUV(1), 1e-12)
}
