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

package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

type fixedHeight float64

func (f fixedHeight) RandomHeight() float64 { return float64(f) }

func newFrame(t *testing.T) *geo.Frame {
	t.Helper()

	f, err := geo.NewFrame(model.DefaultBoundingBox())
	require.NoError(t, err)

	return f
}

// square returns four nodes with ids base..base+3 forming a square with
// its south-west corner at (lat, lon).
func square(base model.ID, lat, lon, side model.Degrees) []model.Element {
	return []model.Element{
		model.NewNode(base, lat, lon),
		model.NewNode(base+1, lat, lon+side),
		model.NewNode(base+2, lat+side, lon+side),
		model.NewNode(base+3, lat+side, lon),
	}
}

func ring(base model.ID) []model.ID {
	return []model.ID{base, base + 1, base + 2, base + 3, base}
}

func resolve(t *testing.T, elements []model.Element, opts ...feature.ResolverOption) *feature.Result {
	t.Helper()

	opts = append([]feature.ResolverOption{feature.WithHeightSource(fixedHeight(10))}, opts...)

	return feature.NewResolver(newFrame(t), opts...).Resolve(elements)
}

func TestResolve_ClosingNodeRemoved(t *testing.T) {
	elements := []model.Element{
		model.NewNode(1, 45.8080, 15.9740),
		model.NewNode(2, 45.8080, 15.9742),
		model.NewNode(3, 45.8082, 15.9741),
		model.NewWay(100, []model.ID{1, 2, 3, 1}, map[string]any{"building": "yes"}),
	}

	res := resolve(t, elements)

	require.Len(t, res.Buildings, 1)
	assert.Len(t, res.Buildings[0].Ring, 3)
	assert.Equal(t, model.ID(100), res.Buildings[0].ID)
	assert.Zero(t, res.Diagnostics.Len())

	p, err := newFrame(t).Project(model.Geolocation{Lat: 45.8082, Lon: 15.9741})
	require.NoError(t, err)
	assert.Equal(t, p, res.Buildings[0].Ring[2])
}

func TestResolve_InvalidWays(t *testing.T) {
	nodes := square(1, 45.8080, 15.9740, 0.0001)

	test_cases := []struct {
		name string
		way  model.Element
		kind model.DiagnosticKind
	}{
		{"missing id", model.Element{Type: model.WAY, Nodes: ring(1)}, model.MissingID},
		{"missing nodes", model.Element{Type: model.WAY, ID: ptr(model.ID(5))}, model.MissingNodes},
		{"short ring", model.NewWay(5, []model.ID{1, 2, 1}, nil), model.ShortRing},
		{"open ring", model.NewWay(5, []model.ID{1, 2, 3, 4}, nil), model.OpenRing},
		{"degenerate ring", model.NewWay(5, []model.ID{1, 2, 1, 1}, nil), model.DegenerateRing},
		{"dangling node", model.NewWay(5, []model.ID{1, 2, 99, 1}, nil), model.DanglingNode},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			res := resolve(t, append(append([]model.Element{}, nodes...), tc.way))

			assert.Empty(t, res.Buildings)
			assert.Equal(t, 1, res.Diagnostics.Count(tc.kind))
		})
	}
}

func TestResolve_InvalidNodes(t *testing.T) {
	elements := []model.Element{
		{Type: model.NODE, Lat: ptr(model.Degrees(45.808)), Lon: ptr(model.Degrees(15.974))},
		{Type: model.NODE, ID: ptr(model.ID(2)), Lat: ptr(model.Degrees(45.808))},
		{Type: "area", ID: ptr(model.ID(3))},
	}

	res := resolve(t, elements)

	assert.Equal(t, 1, res.Diagnostics.Count(model.MissingID))
	assert.Equal(t, 1, res.Diagnostics.Count(model.MissingCoordinates))
	assert.Equal(t, 1, res.Diagnostics.Count(model.UnknownType))
}

func TestResolve_OutOfBoundsNode(t *testing.T) {
	elements := square(1, 45.8080, 15.9740, 0.0001)
	elements[2] = model.NewNode(3, 45.9, 15.9741)
	elements = append(elements, model.NewWay(100, ring(1), nil))

	res := resolve(t, elements)

	assert.Equal(t, 4, res.Stats.Nodes)
	assert.Equal(t, 1, res.Stats.NodesOutOfBounds)
	assert.Empty(t, res.Buildings)
	assert.Equal(t, 1, res.Diagnostics.Len())
	assert.Equal(t, 1, res.Diagnostics.Count(model.DanglingNode))
}

func TestResolve_Heights(t *testing.T) {
	test_cases := []struct {
		name   string
		tags   map[string]any
		height float64
		origin feature.HeightOrigin
	}{
		{"height string", map[string]any{"height": "22"}, 22, feature.ExplicitHeight},
		{"height meters", map[string]any{"height": "22.5 m"}, 22.5, feature.ExplicitHeight},
		{"height number", map[string]any{"height": 17.0}, 17, feature.ExplicitHeight},
		{"building height", map[string]any{"building:height": "31m"}, 31, feature.ExplicitHeight},
		{"height wins over levels", map[string]any{"height": "9", "building:levels": "5"}, 9, feature.ExplicitHeight},
		{"levels", map[string]any{"building:levels": "3"}, 12, feature.LevelHeight},
		{"levels with roof", map[string]any{"levels": 3.0, "roof:levels": "1"}, 16, feature.LevelHeight},
		{"roof without levels", map[string]any{"roof:levels": "2"}, 10, feature.RandomHeight},
		{"zero levels", map[string]any{"building:levels": "0"}, 10, feature.RandomHeight},
		{"no tags", nil, 10, feature.RandomHeight},
		{"unparsable height", map[string]any{"height": "tall"}, 10, feature.RandomHeight},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			elements := append(square(1, 45.8080, 15.9740, 0.0001), model.NewWay(100, ring(1), tc.tags))

			res := resolve(t, elements)

			require.Len(t, res.Buildings, 1)
			assert.Equal(t, tc.height, res.Buildings[0].Height)
			assert.Equal(t, tc.origin, res.Buildings[0].Origin)
		})
	}
}

func TestResolve_HeightPerLevel(t *testing.T) {
	elements := append(square(1, 45.8080, 15.9740, 0.0001),
		model.NewWay(100, ring(1), map[string]any{"building:levels": "2"}))

	res := resolve(t, elements, feature.WithHeightPerLevel(3))

	require.Len(t, res.Buildings, 1)
	assert.Equal(t, 6.0, res.Buildings[0].Height)
}

func TestResolve_RandomHeightRange(t *testing.T) {
	var elements []model.Element

	for i := model.ID(0); i < 20; i++ {
		base := 10 * (i + 1)
		lat := 45.8075 + model.Degrees(i)*0.0001
		elements = append(elements, square(base, lat, 15.9740, 0.00005)...)
		elements = append(elements, model.NewWay(1000+i, ring(base), nil))
	}

	f := newFrame(t)
	a := feature.NewResolver(f, feature.WithSeed(42)).Resolve(elements)
	b := feature.NewResolver(f, feature.WithSeed(42)).Resolve(elements)

	require.Len(t, a.Buildings, 20)

	for i, bld := range a.Buildings {
		assert.GreaterOrEqual(t, bld.Height, feature.MinRandomHeight)
		assert.Less(t, bld.Height, feature.MaxRandomHeight)
		assert.Equal(t, feature.RandomHeight, bld.Origin)
		assert.Equal(t, bld.Height, b.Buildings[i].Height)
	}
}

func TestResolve_Relation(t *testing.T) {
	elements := append(square(1, 45.8080, 15.9740, 0.0004), square(11, 45.8081, 15.9741, 0.0001)...)
	elements = append(elements,
		model.NewWay(100, ring(1), nil),
		model.NewWay(101, ring(11), map[string]any{"height": "5"}),
		model.NewWay(102, ring(1), nil),
		model.NewRelation(500, []model.Member{
			model.NewMember(model.WAY, 100, "outer"),
			model.NewMember(model.WAY, 101, "inner"),
		}, map[string]any{"type": "multipolygon", "building": "yes", "height": "30"}),
	)

	res := resolve(t, elements)

	require.Len(t, res.Relations, 1)
	rel := res.Relations[0]
	assert.Equal(t, model.ID(500), rel.ID)

	require.Len(t, rel.Positive, 1)
	assert.Equal(t, model.ID(100), rel.Positive[0].ID)
	assert.Equal(t, 30.0, rel.Positive[0].Height)
	assert.Equal(t, feature.ExplicitHeight, rel.Positive[0].Origin)

	require.Len(t, rel.Negative, 1)
	assert.Equal(t, model.ID(101), rel.Negative[0].ID)
	assert.Equal(t, 5.0, rel.Negative[0].Height)

	require.Len(t, res.Buildings, 1)
	assert.Equal(t, model.ID(102), res.Buildings[0].ID)
	assert.Equal(t, 10.0, res.Buildings[0].Height)
}

func TestResolve_RelationLevelsInherited(t *testing.T) {
	elements := append(square(1, 45.8080, 15.9740, 0.0004),
		model.NewWay(100, ring(1), nil),
		model.NewRelation(500, []model.Member{model.NewMember(model.WAY, 100, "outline")},
			map[string]any{"building:levels": "4", "roof:levels": "1"}),
	)

	res := resolve(t, elements)

	require.Len(t, res.Relations, 1)
	assert.Equal(t, 20.0, res.Relations[0].Positive[0].Height)
	assert.Equal(t, feature.LevelHeight, res.Relations[0].Positive[0].Origin)
}

func TestResolve_InvalidRelations(t *testing.T) {
	role := "outer"

	test_cases := []struct {
		name    string
		members []model.Member
	}{
		{"node member", []model.Member{model.NewMember(model.WAY, 100, "outer"), model.NewMember(model.NODE, 1, "entrance")}},
		{"unknown role", []model.Member{model.NewMember(model.WAY, 100, "outer"), model.NewMember(model.WAY, 101, "courtyard")}},
		{"empty role", []model.Member{model.NewMember(model.WAY, 100, "")}},
		{"missing role", []model.Member{{Type: model.WAY, Ref: ptr(model.ID(100))}}},
		{"missing ref", []model.Member{{Type: model.WAY, Role: &role}}},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			elements := append(square(1, 45.8080, 15.9740, 0.0004), square(11, 45.8081, 15.9741, 0.0001)...)
			elements = append(elements,
				model.NewWay(100, ring(1), nil),
				model.NewWay(101, ring(11), nil),
				model.NewRelation(500, tc.members, map[string]any{"height": "30"}),
			)

			res := resolve(t, elements)

			assert.Empty(t, res.Relations)
			assert.Equal(t, 1, res.Diagnostics.Count(model.InvalidMember))

			// ways of a rejected relation are plain buildings without the
			// relation's height
			require.Len(t, res.Buildings, 2)
			assert.Equal(t, 10.0, res.Buildings[0].Height)
		})
	}

	res := resolve(t, []model.Element{model.NewRelation(501, nil, nil)})
	assert.Equal(t, 1, res.Diagnostics.Count(model.MissingMembers))
}

func TestResolve_RelationCascade(t *testing.T) {
	elements := append(square(1, 45.8080, 15.9740, 0.0004), square(11, 45.8081, 15.9741, 0.0001)...)
	elements = append(elements,
		model.NewWay(100, ring(1), nil),
		model.NewWay(101, []model.ID{11, 12, 13, 99, 11}, nil),
		model.NewRelation(500, []model.Member{
			model.NewMember(model.WAY, 100, "outer"),
			model.NewMember(model.WAY, 101, "inner"),
		}, nil),
		model.NewRelation(501, []model.Member{
			model.NewMember(model.WAY, 100, "outer"),
			model.NewMember(model.WAY, 777, "inner"),
		}, nil),
	)

	res := resolve(t, elements)

	assert.Empty(t, res.Relations)
	assert.Empty(t, res.Buildings, "member ways never become simple buildings")
	assert.Equal(t, 1, res.Diagnostics.Count(model.DanglingNode))
	assert.Equal(t, 2, res.Diagnostics.Count(model.MissingMemberWay))
}

func TestResolve_FirstRelationWins(t *testing.T) {
	elements := append(square(1, 45.8080, 15.9740, 0.0004),
		model.NewWay(100, ring(1), nil),
		model.NewRelation(500, []model.Member{model.NewMember(model.WAY, 100, "outer")}, map[string]any{"height": "12"}),
		model.NewRelation(501, []model.Member{model.NewMember(model.WAY, 100, "part")}, map[string]any{"height": "40"}),
		model.NewRelation(502, []model.Member{model.NewMember(model.WAY, 100, "part")}, map[string]any{"height": "12"}),
	)

	res := resolve(t, elements)

	require.Len(t, res.Relations, 3)

	for _, rel := range res.Relations {
		assert.Equal(t, 12.0, rel.Positive[0].Height)
	}

	assert.Equal(t, 1, res.Diagnostics.Count(model.ConflictingInheritance))
}

func ptr[T any](v T) *T { return &v }
