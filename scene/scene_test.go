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

package scene_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/heightmap"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/scene"
	"m4o.io/citymesh/terrain"
)

func prism(t *testing.T, x, y, side, height float64) *mesh.Solid {
	t.Helper()

	s, err := mesh.Extrude([]r2.Point{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}, height)
	require.NoError(t, err)

	return s
}

func flatTerrain(t *testing.T, width, height float64) *mesh.Solid {
	t.Helper()

	g, err := terrain.NewGrid(width, height, terrain.VertexSpacing)
	require.NoError(t, err)

	return &mesh.Solid{Name: "Terrain", Kind: mesh.TerrainKind, Vertices: g.Vertices(), Faces: g.Faces()}
}

// eastward is a 2x2 raster, black in the west and white in the east.
func eastward() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(1, 0, color.Gray16{Y: 0xffff})
	img.SetGray16(1, 1, color.Gray16{Y: 0xffff})

	return img
}

func TestScene_Lifecycle(t *testing.T) {
	sc := scene.New()

	shell, err := sc.CreateSolid(prism(t, 0, 0, 10, 5))
	require.NoError(t, err)

	cutter, err := sc.CreateSolid(prism(t, 2, 2, 2, 7))
	require.NoError(t, err)

	require.NoError(t, sc.BooleanSubtract(shell, cutter))
	require.NoError(t, sc.DeleteSolid(cutter))

	assert.Equal(t, 1, sc.Len())
	assert.Equal(t, []scene.Op{
		{Kind: scene.CreateOp, Target: 1},
		{Kind: scene.CreateOp, Target: 2},
		{Kind: scene.SubtractOp, Target: 1, Cutter: 2},
		{Kind: scene.DeleteOp, Target: 2},
	}, sc.Ops())

	entries := sc.Entries()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Cutters, 1)
	assert.Zero(t, entries[0].Cutters[0].Offset)

	verts, err := sc.Vertices(shell)
	require.NoError(t, err)
	assert.Equal(t, 0.0, verts[0].X)
	assert.Equal(t, 5.0, verts[len(verts)-1].Z)

	_, err = sc.Vertices(cutter)
	assert.True(t, eris.Is(err, scene.ErrUnknownSolid))
	assert.True(t, eris.Is(sc.DeleteSolid(cutter), scene.ErrUnknownSolid))
	assert.True(t, eris.Is(sc.BooleanSubtract(shell, cutter), scene.ErrUnknownSolid))
	assert.Error(t, sc.BooleanSubtract(shell, shell))
}

func TestScene_CreateInvalid(t *testing.T) {
	sc := scene.New()

	test_cases := []struct {
		name  string
		solid *mesh.Solid
	}{
		{"nil", nil},
		{"no vertices", &mesh.Solid{Name: "empty"}},
		{"short face", &mesh.Solid{Name: "short", Vertices: make([]r3.Vector, 3), Faces: [][]int{{0, 1}}}},
		{"bad index", &mesh.Solid{Name: "bad", Vertices: make([]r3.Vector, 3), Faces: [][]int{{0, 1, 3}}}},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sc.CreateSolid(tc.solid)
			assert.True(t, eris.Is(err, scene.ErrInvalidSolid), "got %v", err)
		})
	}

	assert.Zero(t, sc.Len())
}

func TestScene_CreateCopies(t *testing.T) {
	sc := scene.New()
	s := prism(t, 0, 0, 1, 1)

	id, err := sc.CreateSolid(s)
	require.NoError(t, err)

	s.Vertices[0].X = 99
	s.Faces[0][0] = 7

	got, err := sc.Solid(id)
	require.NoError(t, err)
	assert.Equal(t, -0.5, got.Vertices[0].X)
	assert.Equal(t, 0, got.Faces[0][0])
}

func TestScene_Count(t *testing.T) {
	sc := scene.New()

	_, err := sc.CreateSolid(flatTerrain(t, 20, 20))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		b := prism(t, float64(i), 0, 1, 1)
		b.Kind = mesh.BuildingKind

		_, err = sc.CreateSolid(b)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, sc.Count(mesh.TerrainKind))
	assert.Equal(t, 3, sc.Count(mesh.BuildingKind))
	assert.Zero(t, sc.Count(mesh.TreeKind))
}

func TestVolume(t *testing.T) {
	sc := scene.New()

	shell, err := sc.CreateSolid(prism(t, 0, 0, 10, 5))
	require.NoError(t, err)

	v, err := sc.Volume(shell)
	require.NoError(t, err)
	assert.InDelta(t, 500, v, 1e-9)

	// reaches above the shell, only the overlap counts
	tall := prism(t, 2, 2, 2, 7)
	tall.Offset.Z = -1

	cutter, err := sc.CreateSolid(tall)
	require.NoError(t, err)
	require.NoError(t, sc.BooleanSubtract(shell, cutter))
	require.NoError(t, sc.DeleteSolid(cutter))

	v, err = sc.Volume(shell)
	require.NoError(t, err)
	assert.InDelta(t, 500-4*5, v, 1e-9)

	// far away, nothing to carve
	away, err := sc.CreateSolid(prism(t, 100, 100, 2, 7))
	require.NoError(t, err)
	require.NoError(t, sc.BooleanSubtract(shell, away))

	v, err = sc.Volume(shell)
	require.NoError(t, err)
	assert.InDelta(t, 480, v, 1e-9)

	_, err = sc.Volume(99)
	assert.True(t, eris.Is(err, scene.ErrUnknownSolid))
}

func TestDisplaceWith(t *testing.T) {
	sc := scene.New()

	id, err := sc.CreateSolid(flatTerrain(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, sc.DisplaceWith(id, heightmap.NewRaster(eastward()), 50))

	verts, err := sc.Vertices(id)
	require.NoError(t, err)
	require.Len(t, verts, 9)

	lo, hi := verts[0].Z, verts[0].Z
	for _, v := range verts {
		lo, hi = min(lo, v.Z), max(hi, v.Z)
	}

	assert.InDelta(t, 50, hi-lo, 1e-9)

	// columns rise from west to east
	assert.Less(t, verts[0].Z, verts[1].Z)
	assert.Less(t, verts[1].Z, verts[2].Z)
	assert.InDelta(t, verts[0].Z, verts[6].Z, 1e-9)
}

func TestDisplace_FlatRaster(t *testing.T) {
	sc := scene.New()

	id, err := sc.CreateSolid(flatTerrain(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, sc.DisplaceWith(id, heightmap.NewRaster(image.NewGray16(image.Rect(0, 0, 4, 4))), 50))

	verts, err := sc.Vertices(id)
	require.NoError(t, err)

	for _, v := range verts {
		assert.Zero(t, v.Z)
	}
}

func TestDisplace_FromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "map.png")

	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, eastward()))
	require.NoError(t, f.Close())

	sc := scene.New()

	id, err := sc.CreateSolid(flatTerrain(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, sc.Displace(id, &heightmap.Meta{Path: p}, 12))

	verts, err := sc.Vertices(id)
	require.NoError(t, err)
	assert.InDelta(t, 12, verts[2].Z-verts[0].Z, 1e-9)

	err = sc.Displace(id, &heightmap.Meta{Path: filepath.Join(t.TempDir(), "missing.png")}, 12)
	assert.Error(t, err)
}

func area(ring []geo.PlanarPoint) float64 {
	r := make(orb.Ring, 0, len(ring)+1)
	for _, p := range ring {
		r = append(r, orb.Point{p.X(), p.Y()})
	}

	return planar.Area(append(r, r[0]))
}

func TestCourtyard_EndToEnd(t *testing.T) {
	frame, err := geo.NewFrame(model.DefaultBoundingBox())
	require.NoError(t, err)

	elements := []model.Element{
		model.NewNode(1, 45.8080, 15.9740),
		model.NewNode(2, 45.8080, 15.9744),
		model.NewNode(3, 45.8084, 15.9744),
		model.NewNode(4, 45.8084, 15.9740),
		model.NewNode(11, 45.8081, 15.9741),
		model.NewNode(12, 45.8081, 15.9742),
		model.NewNode(13, 45.8082, 15.9742),
		model.NewNode(14, 45.8082, 15.9741),
		model.NewWay(100, []model.ID{1, 2, 3, 4, 1}, nil),
		model.NewWay(101, []model.ID{11, 12, 13, 14, 11}, nil),
		model.NewRelation(200, []model.Member{
			model.NewMember(model.WAY, 100, "outer"),
			model.NewMember(model.WAY, 101, "inner"),
		}, map[string]any{"type": "multipolygon", "building": "yes", "height": "20"}),
	}

	res := feature.NewResolver(frame, feature.WithSeed(1)).Resolve(elements)
	require.Empty(t, res.Buildings)
	require.Len(t, res.Relations, 1)

	rel := res.Relations[0]
	require.Len(t, rel.Positive, 1)
	require.Len(t, rel.Negative, 1)
	assert.Equal(t, 20.0, rel.Positive[0].Height)

	sc := scene.New()

	terrainID, err := sc.CreateSolid(flatTerrain(t, frame.Width(), frame.Height()))
	require.NoError(t, err)

	cloud, err := sc.Vertices(terrainID)
	require.NoError(t, err)

	ground, err := terrain.NewIndex(cloud, terrain.DefaultTolerance)
	require.NoError(t, err)

	ids, err := mesh.Compose(context.Background(), sc, rel, ground)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	assert.Equal(t, 2, sc.Len())
	assert.Zero(t, sc.Count(mesh.CutterKind))

	outer := area(rel.Positive[0].Ring)
	inner := area(rel.Negative[0].Ring)
	require.Greater(t, inner, 0.0)
	require.Greater(t, outer, inner)

	v, err := sc.Volume(ids[0])
	require.NoError(t, err)
	assert.InDelta(t, outer*20-inner*20, v, 1e-6)
}
