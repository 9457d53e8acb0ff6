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

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DiagnosticKind classifies why a feature was excluded or altered.
type DiagnosticKind string

const (
	MissingID              DiagnosticKind = "missing_id"
	MissingCoordinates     DiagnosticKind = "missing_coordinates"
	MissingNodes           DiagnosticKind = "missing_nodes"
	ShortRing              DiagnosticKind = "short_ring"
	OpenRing               DiagnosticKind = "open_ring"
	DegenerateRing         DiagnosticKind = "degenerate_ring"
	MissingMembers         DiagnosticKind = "missing_members"
	InvalidMember          DiagnosticKind = "invalid_member"
	UnknownType            DiagnosticKind = "unknown_type"
	UnparsableTag          DiagnosticKind = "unparsable_tag"
	DanglingNode           DiagnosticKind = "dangling_node"
	MissingMemberWay       DiagnosticKind = "missing_member_way"
	ConflictingInheritance DiagnosticKind = "conflicting_inheritance"
	InvalidGeometry        DiagnosticKind = "invalid_geometry"
	NoGround               DiagnosticKind = "no_ground"
)

// Diagnostic is a single non-fatal problem found while resolving input data.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Type    ElementType    `json:"type,omitempty"`
	ID      ID             `json:"id,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Type == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}

	return fmt.Sprintf("%s %s/%d: %s", d.Kind, d.Type, d.ID, d.Message)
}

// Diagnostics collects the problems found during a generation run. The zero
// value is ready to use and safe for concurrent use.
type Diagnostics struct {
	mu      sync.Mutex
	entries []Diagnostic
}

// Add records a diagnostic for the element t/id.
func (d *Diagnostics) Add(kind DiagnosticKind, t ElementType, id ID, format string, args ...any) {
	diag := Diagnostic{Kind: kind, Type: t, ID: id, Message: fmt.Sprintf(format, args...)}

	zap.L().Debug("feature excluded",
		zap.String("kind", string(kind)),
		zap.String("type", string(t)),
		zap.Int64("id", int64(id)),
		zap.String("message", diag.Message))

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = append(d.entries, diag)
}

// Entries returns a copy of the collected diagnostics in insertion order.
func (d *Diagnostics) Entries() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Diagnostic, len(d.entries))
	copy(out, d.entries)

	return out
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.entries)
}

// Count returns the number of diagnostics of the given kind.
func (d *Diagnostics) Count(kind DiagnosticKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0

	for _, e := range d.entries {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// Merge appends all of o's diagnostics.
func (d *Diagnostics) Merge(o *Diagnostics) {
	if o == nil || o == d {
		return
	}

	entries := o.Entries()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = append(d.entries, entries...)
}
