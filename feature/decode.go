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

package feature

import (
	"encoding/json"
	"io"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"

	"m4o.io/citymesh/model"
)

// ErrNoElements is returned when a feature document lacks the top level
// elements array.
var ErrNoElements = eris.New("feature document has no elements array")

type overpassDocument struct {
	Elements *[]model.Element `json:"elements"`
}

// DecodeOverpass reads an Overpass API JSON document. Only the document
// shape is checked here; individual elements are validated by Resolve.
func DecodeOverpass(r io.Reader) ([]model.Element, error) {
	var doc overpassDocument

	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "unable to decode feature document")
	}

	if doc.Elements == nil {
		return nil, ErrNoElements
	}

	return *doc.Elements, nil
}

// FromOSM converts an OSM object into a raw element. It reports false for
// object types that carry no footprint information.
func FromOSM(o osm.Object) (model.Element, bool) {
	switch v := o.(type) {
	case *osm.Node:
		return model.NewNode(model.ID(v.ID), model.Degrees(v.Lat), model.Degrees(v.Lon)), true
	case *osm.Way:
		nodes := make([]model.ID, len(v.Nodes))
		for i, n := range v.Nodes {
			nodes[i] = model.ID(n.ID)
		}

		return model.NewWay(model.ID(v.ID), nodes, tagMap(v.Tags)), true
	case *osm.Relation:
		members := make([]model.Member, len(v.Members))
		for i, m := range v.Members {
			members[i] = model.NewMember(model.ElementType(m.Type), model.ID(m.Ref), m.Role)
		}

		return model.NewRelation(model.ID(v.ID), members, tagMap(v.Tags)), true
	default:
		return model.Element{}, false
	}
}

// IsBuilding reports whether the OSM object is tagged as a building or a
// building part.
func IsBuilding(o osm.Object) bool {
	var tags osm.Tags

	switch v := o.(type) {
	case *osm.Way:
		tags = v.Tags
	case *osm.Relation:
		tags = v.Tags
	default:
		return false
	}

	return tags.Find("building") != "" || tags.Find("building:part") != ""
}

func tagMap(tags osm.Tags) map[string]any {
	if len(tags) == 0 {
		return nil
	}

	m := make(map[string]any, len(tags))
	for _, t := range tags {
		m[t.Key] = t.Value
	}

	return m
}
