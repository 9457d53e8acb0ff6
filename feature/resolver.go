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

// Package feature turns raw map elements into building footprints and
// multipolygon relations with resolved heights.
package feature

import (
	"go.uber.org/zap"

	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

// Building is a closed footprint on the planar frame with its resolved
// height. The ring does not repeat its first point.
type Building struct {
	ID     model.ID
	Ring   []geo.PlanarPoint
	Height float64
	Origin HeightOrigin
}

// Relation is a multipolygon made of outer (positive) and inner (negative)
// footprints.
type Relation struct {
	ID       model.ID
	Positive []Building
	Negative []Building
}

// Stats counts the elements seen and produced by a resolution.
type Stats struct {
	Nodes            int `json:"nodes"`
	NodesOutOfBounds int `json:"nodes_out_of_bounds"`
	Ways             int `json:"ways"`
	Relations        int `json:"relations"`
	Buildings        int `json:"buildings"`
	ResolvedRelation int `json:"resolved_relations"`
}

// Result is the output of Resolve. Diagnostics lists every element that was
// excluded or altered along the way.
type Result struct {
	Buildings   []Building
	Relations   []Relation
	Diagnostics *model.Diagnostics
	Stats       Stats
}

type way struct {
	id    model.ID
	nodes []model.ID
	tags  Tags
}

type relation struct {
	id       model.ID
	positive []model.ID
	negative []model.ID
	tags     Tags
}

func (r *relation) members() []model.ID {
	ids := make([]model.ID, 0, len(r.positive)+len(r.negative))
	ids = append(ids, r.positive...)

	return append(ids, r.negative...)
}

// Resolver converts raw elements into Buildings and Relations anchored on a
// planar frame. A Resolver holds no state between calls to Resolve.
type Resolver struct {
	frame    *geo.Frame
	heights  HeightSource
	perLevel float64
}

// NewResolver creates a resolver projecting onto frame.
func NewResolver(frame *geo.Frame, opts ...ResolverOption) *Resolver {
	cfg := defaultResolverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.heights == nil {
		cfg.heights = NewRandomHeights(cfg.seed)
	}

	return &Resolver{
		frame:    frame,
		heights:  cfg.heights,
		perLevel: cfg.perLevel,
	}
}

// Resolve runs the three resolution passes over elements: validation,
// propagation of relation tags onto member ways and partitioning into simple
// buildings and relations. Malformed elements never fail the resolution;
// they are reported in the result's diagnostics.
func (r *Resolver) Resolve(elements []model.Element) *Result {
	res := &Result{Diagnostics: &model.Diagnostics{}}
	s := &state{
		frame:     r.frame,
		diags:     res.Diagnostics,
		stats:     &res.Stats,
		nodes:     make(map[model.ID]geo.PlanarPoint),
		ways:      make(map[model.ID]*way),
		heightsOf: make(map[model.ID]model.ID),
		levelsOf:  make(map[model.ID]model.ID),
	}

	for i := range elements {
		s.classify(&elements[i])
	}

	s.propagate()
	simple, relations := s.partition()

	for _, w := range simple {
		res.Buildings = append(res.Buildings, r.building(s, w))
	}

	for _, rel := range relations {
		resolved := Relation{ID: rel.id}

		for _, id := range rel.positive {
			resolved.Positive = append(resolved.Positive, r.building(s, s.ways[id]))
		}

		for _, id := range rel.negative {
			resolved.Negative = append(resolved.Negative, r.building(s, s.ways[id]))
		}

		res.Relations = append(res.Relations, resolved)
	}

	res.Stats.Buildings = len(res.Buildings)
	res.Stats.ResolvedRelation = len(res.Relations)

	zap.L().Info("features resolved",
		zap.Int("nodes", res.Stats.Nodes),
		zap.Int("ways", res.Stats.Ways),
		zap.Int("relations", res.Stats.Relations),
		zap.Int("buildings", res.Stats.Buildings),
		zap.Int("resolved_relations", res.Stats.ResolvedRelation),
		zap.Int("diagnostics", res.Diagnostics.Len()))

	return res
}

func (r *Resolver) building(s *state, w *way) Building {
	ring := make([]geo.PlanarPoint, len(w.nodes))
	for i, id := range w.nodes {
		ring[i] = s.nodes[id]
	}

	h, origin := w.tags.ResolveHeight(r.perLevel, r.heights)

	return Building{ID: w.id, Ring: ring, Height: h, Origin: origin}
}

type state struct {
	frame *geo.Frame
	diags *model.Diagnostics
	stats *Stats

	nodes     map[model.ID]geo.PlanarPoint
	ways      map[model.ID]*way
	wayOrder  []model.ID
	relations []*relation

	// heightsOf and levelsOf record which relation a way inherited from.
	heightsOf map[model.ID]model.ID
	levelsOf  map[model.ID]model.ID
}

func (s *state) classify(e *model.Element) {
	switch e.Type {
	case model.NODE:
		s.addNode(e)
	case model.WAY:
		s.addWay(e)
	case model.RELATION:
		s.addRelation(e)
	default:
		s.diags.Add(model.UnknownType, e.Type, idOf(e), "unsupported element type %q", e.Type)
	}
}

func (s *state) addNode(e *model.Element) {
	if e.ID == nil {
		s.diags.Add(model.MissingID, model.NODE, 0, "node without id")
		return
	}

	if e.Lat == nil || e.Lon == nil {
		s.diags.Add(model.MissingCoordinates, model.NODE, *e.ID, "node without lat/lon")
		return
	}

	s.stats.Nodes++

	p, err := s.frame.Project(model.Geolocation{Lat: *e.Lat, Lon: *e.Lon})
	if err != nil {
		s.stats.NodesOutOfBounds++
		return
	}

	s.nodes[*e.ID] = p
}

func (s *state) addWay(e *model.Element) {
	if e.ID == nil {
		s.diags.Add(model.MissingID, model.WAY, 0, "way without id")
		return
	}

	id := *e.ID

	if e.Nodes == nil {
		s.diags.Add(model.MissingNodes, model.WAY, id, "way without node list")
		return
	}

	s.stats.Ways++

	n := len(e.Nodes)
	if n < 4 {
		s.diags.Add(model.ShortRing, model.WAY, id, "ring has %d node references, need at least 4", n)
		return
	}

	if e.Nodes[0] != e.Nodes[n-1] {
		s.diags.Add(model.OpenRing, model.WAY, id, "first node %d differs from last node %d", e.Nodes[0], e.Nodes[n-1])
		return
	}

	ring := make([]model.ID, n-1)
	copy(ring, e.Nodes[:n-1])

	if distinct(ring) < 3 {
		s.diags.Add(model.DegenerateRing, model.WAY, id, "ring has fewer than 3 distinct nodes")
		return
	}

	if _, dup := s.ways[id]; dup {
		return
	}

	s.ways[id] = &way{id: id, nodes: ring, tags: parseTags(e, id, s.diags)}
	s.wayOrder = append(s.wayOrder, id)
}

func (s *state) addRelation(e *model.Element) {
	if e.ID == nil {
		s.diags.Add(model.MissingID, model.RELATION, 0, "relation without id")
		return
	}

	id := *e.ID

	if len(e.Members) == 0 {
		s.diags.Add(model.MissingMembers, model.RELATION, id, "relation without members")
		return
	}

	s.stats.Relations++

	rel := &relation{id: id}

	for i, m := range e.Members {
		switch {
		case m.Type != model.WAY:
			s.diags.Add(model.InvalidMember, model.RELATION, id, "member %d has type %q, only ways are supported", i, m.Type)
			return
		case m.Ref == nil:
			s.diags.Add(model.InvalidMember, model.RELATION, id, "member %d has no ref", i)
			return
		case m.Role == nil:
			s.diags.Add(model.InvalidMember, model.RELATION, id, "member %d (way %d) has no role", i, *m.Ref)
			return
		}

		switch *m.Role {
		case "outer", "outline", "part":
			rel.positive = append(rel.positive, *m.Ref)
		case "inner":
			rel.negative = append(rel.negative, *m.Ref)
		default:
			s.diags.Add(model.InvalidMember, model.RELATION, id, "member %d (way %d) has unknown role %q", i, *m.Ref, *m.Role)
			return
		}
	}

	rel.tags = parseTags(e, id, s.diags)
	s.relations = append(s.relations, rel)
}

// propagate copies relation height and level tags onto member ways lacking
// their own. The first relation to reach a way wins; later relations with a
// different value are reported.
func (s *state) propagate() {
	for _, rel := range s.relations {
		for _, wid := range rel.members() {
			w, ok := s.ways[wid]
			if !ok {
				continue
			}

			height, levels := w.tags.inherit(rel.tags)
			if height {
				s.heightsOf[wid] = rel.id
			} else if from, ok := s.heightsOf[wid]; ok && from != rel.id && differ(w.tags.Height, rel.tags.Height) {
				s.diags.Add(model.ConflictingInheritance, model.WAY, wid,
					"keeps height inherited from relation %d, ignoring relation %d", from, rel.id)
			}

			if levels {
				s.levelsOf[wid] = rel.id
			} else if from, ok := s.levelsOf[wid]; ok && from != rel.id && differ(w.tags.Levels, rel.tags.Levels) {
				s.diags.Add(model.ConflictingInheritance, model.WAY, wid,
					"keeps levels inherited from relation %d, ignoring relation %d", from, rel.id)
			}
		}
	}
}

// partition splits the ways into simple buildings and relation members,
// removes ways referencing unknown nodes and drops every relation that lost
// a member.
func (s *state) partition() ([]*way, []*relation) {
	members := make(map[model.ID]struct{})

	for _, rel := range s.relations {
		for _, wid := range rel.members() {
			if _, ok := s.ways[wid]; ok {
				members[wid] = struct{}{}
			}
		}
	}

	for _, wid := range s.wayOrder {
		for _, nid := range s.ways[wid].nodes {
			if _, ok := s.nodes[nid]; !ok {
				s.diags.Add(model.DanglingNode, model.WAY, wid, "references unknown node %d", nid)
				delete(s.ways, wid)

				break
			}
		}
	}

	var simple []*way

	for _, wid := range s.wayOrder {
		w, ok := s.ways[wid]
		if !ok {
			continue
		}

		if _, member := members[wid]; !member {
			simple = append(simple, w)
		}
	}

	var relations []*relation

	for _, rel := range s.relations {
		complete := true

		for _, wid := range rel.members() {
			if _, ok := s.ways[wid]; !ok {
				s.diags.Add(model.MissingMemberWay, model.RELATION, rel.id, "member way %d is missing or invalid", wid)
				complete = false

				break
			}
		}

		if complete {
			relations = append(relations, rel)
		}
	}

	return simple, relations
}

func idOf(e *model.Element) model.ID {
	if e.ID == nil {
		return 0
	}

	return *e.ID
}

func distinct(ids []model.ID) int {
	seen := make(map[model.ID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	return len(seen)
}

// differ reports whether the inherited value a conflicts with the value b
// offered by another relation. A relation without the tag never conflicts.
func differ(a, b *float64) bool {
	if a == nil || b == nil {
		return false
	}

	return *a != *b
}
