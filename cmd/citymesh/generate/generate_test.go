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

package generate

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh"
	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/internal/config"
	"m4o.io/citymesh/internal/export"
	"m4o.io/citymesh/internal/fetch"
	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/scene"
	"m4o.io/citymesh/source"
)

func square(t *testing.T, x, y, side, height float64) *mesh.Solid {
	t.Helper()

	s, err := mesh.Extrude([]r2.Point{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}, height)
	require.NoError(t, err)

	return s
}

func carvedScene(t *testing.T) (*scene.Scene, *citymesh.Result) {
	t.Helper()

	frame, err := geo.NewFrame(model.DefaultBoundingBox())
	require.NoError(t, err)

	sc := scene.New()

	shell := square(t, 0, 0, 30, 20)
	shell.Name, shell.Kind = "Relation 200 part 0", mesh.BuildingKind

	cutter := square(t, 10, 10, 10, 22)
	cutter.Name, cutter.Kind = "Relation 200 cutter 0", mesh.CutterKind
	cutter.Offset.Z = -1

	single := square(t, 50, 50, 10, 12)
	single.Name, single.Kind = "Building 100", mesh.BuildingKind

	sid, err := sc.CreateSolid(shell)
	require.NoError(t, err)

	cid, err := sc.CreateSolid(cutter)
	require.NoError(t, err)

	require.NoError(t, sc.BooleanSubtract(sid, cid))
	require.NoError(t, sc.DeleteSolid(cid))

	bid, err := sc.CreateSolid(single)
	require.NoError(t, err)

	res := &citymesh.Result{
		RunID:       "6b1d6c1e-4a43-4f47-9d8c-1f0e5f7f2a10",
		Generated:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Frame:       frame,
		Buildings:   []mesh.SolidID{bid},
		Relations:   [][]mesh.SolidID{{sid}},
		Diagnostics: &model.Diagnostics{},
		Stats:       citymesh.Stats{Buildings: 1, Relations: 1, Elapsed: 1234567 * time.Microsecond},
	}

	return sc, res
}

func TestWriteMesh(t *testing.T) {
	sc, res := carvedScene(t)

	var buf bytes.Buffer

	n, err := writeMesh(&buf, res, sc, export.LZ4, 2, "overpass, terrain.party")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dec, err := export.NewDecoder(&buf)
	require.NoError(t, err)

	h := dec.Header()
	assert.Equal(t, WritingProgram, h.WritingProgram)
	assert.Equal(t, "overpass, terrain.party", h.Source)
	assert.Equal(t, res.RunID, h.RunID)
	assert.True(t, h.Generated.Equal(res.Generated))
	require.NotNil(t, h.BoundingBox)
	assert.True(t, h.BoundingBox.EqualWithin(model.DefaultBoundingBox(), model.E9))

	solids, err := dec.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, solids, 3)

	assert.Equal(t, "Relation 200 part 0", solids[0].Name)
	assert.Equal(t, mesh.BuildingKind, solids[0].Kind)

	assert.Equal(t, "Relation 200 part 0 cutter 0", solids[1].Name)
	assert.Equal(t, mesh.CutterKind, solids[1].Kind)
	// cutters are stored in world space
	assert.Equal(t, 0.0, solids[1].Offset.Z)
	assert.Equal(t, -1.0, solids[1].Vertices[0].Z)

	assert.Equal(t, "Building 100", solids[2].Name)
	assert.Len(t, solids[2].Faces, 6)
}

func TestRenderSummary(t *testing.T) {
	_, res := carvedScene(t)

	buf := bytes.NewBuffer(make([]byte, 1024))
	buf.Reset()

	saved := out

	defer func() { out = saved }()

	out = buf

	renderSummary(res, "scene.mesh", 1500)

	assert.Equal(t, "Run: 6b1d6c1e-4a43-4f47-9d8c-1f0e5f7f2a10\n"+
		"Bounds: "+res.Frame.Bounds().String()+"\n"+
		fmt.Sprintf("Extent: %.1f m x %.1f m\n", res.Frame.Width(), res.Frame.Height())+
		"Buildings: 1\n"+
		"Relations: 1\n"+
		"Trees: 0\n"+
		"Skipped: 0\n"+
		"Diagnostics: 0\n"+
		"Elapsed: 1.235s\n"+
		"Wrote 1,500 solids to scene.mesh\n", buf.String())
}

func TestFeatureSource(t *testing.T) {
	cfg := config.Default()
	client := fetch.New(fetch.Options{})

	test_cases := []struct {
		name     string
		features string
		want     any
	}{
		{"overpass", "", &source.Overpass{}},
		{"overpass file", "block.JSON", &source.OverpassFile{}},
		{"pbf file", "croatia-latest.osm.pbf", &source.PBFFile{}},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			src, err := featureSource(options{features: tc.features}, client, cfg)
			require.NoError(t, err)
			assert.IsType(t, tc.want, src)
		})
	}

	_, err := featureSource(options{features: "block.osm"}, client, cfg)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "overpass, terrain.party", describe(options{}))
	assert.Equal(t, "block.json, zagreb.zip", describe(options{features: "/tmp/block.json", raster: "data/zagreb.zip"}))
}
