// Copyright 2017-25 the original author or authors.
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

// ID is the identifier of a map element. Nodes, ways and relations have
// separate ID spaces.
type ID int64

// ElementType is the declared type of a raw map element.
type ElementType string

const (
	// NODE denotes a single map point.
	NODE ElementType = "node"

	// WAY denotes an ordered list of node references.
	WAY ElementType = "way"

	// RELATION denotes a group of member elements.
	RELATION ElementType = "relation"

	// TREE denotes a point feature of the tree source.
	TREE ElementType = "tree"
)

// Element is a raw map feature record as delivered by a feature source.
// Every field is optional; pointer and nil slice fields distinguish a
// missing value from a zero one so that validation can report precisely
// what a record lacks.
type Element struct {
	Type    ElementType    `json:"type"`
	ID      *ID            `json:"id,omitempty"`
	Lat     *Degrees       `json:"lat,omitempty"`
	Lon     *Degrees       `json:"lon,omitempty"`
	Nodes   []ID           `json:"nodes,omitempty"`
	Members []Member       `json:"members,omitempty"`
	Tags    map[string]any `json:"tags,omitempty"`
}

// Member is a reference from a relation to another element.
type Member struct {
	Type ElementType `json:"type"`
	Ref  *ID         `json:"ref,omitempty"`
	Role *string     `json:"role,omitempty"`
}

// Tag returns the tag value for key, or nil when the element has no such tag.
func (e *Element) Tag(key string) any {
	if e.Tags == nil {
		return nil
	}

	return e.Tags[key]
}

// NewNode creates a node element.
func NewNode(id ID, lat, lon Degrees) Element {
	return Element{Type: NODE, ID: &id, Lat: &lat, Lon: &lon}
}

// NewWay creates a way element.
func NewWay(id ID, nodes []ID, tags map[string]any) Element {
	return Element{Type: WAY, ID: &id, Nodes: nodes, Tags: tags}
}

// NewRelation creates a relation element.
func NewRelation(id ID, members []Member, tags map[string]any) Element {
	return Element{Type: RELATION, ID: &id, Members: members, Tags: tags}
}

// NewMember creates a relation member.
func NewMember(t ElementType, ref ID, role string) Member {
	return Member{Type: t, Ref: &ref, Role: &role}
}
