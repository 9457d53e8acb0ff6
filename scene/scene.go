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

// Package scene is an in-memory mesh engine. It keeps solids as plain
// descriptors, records boolean operations instead of evaluating them and
// answers volume queries analytically.
package scene

import (
	"cmp"
	"slices"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/mesh"
)

var (
	// ErrUnknownSolid is returned for handles the scene does not hold.
	ErrUnknownSolid = eris.New("unknown solid")

	// ErrInvalidSolid is returned when a solid has no vertices or a face
	// refers to a vertex it does not have.
	ErrInvalidSolid = eris.New("invalid solid")
)

// OpKind names a recorded engine operation.
type OpKind string

const (
	CreateOp   OpKind = "create"
	SubtractOp OpKind = "subtract"
	DeleteOp   OpKind = "delete"
	DisplaceOp OpKind = "displace"
)

// Op is one recorded engine call.
type Op struct {
	Kind   OpKind
	Target mesh.SolidID
	Cutter mesh.SolidID
}

// Entry is a solid held by the scene together with the cutters that were
// subtracted from it, in world space.
type Entry struct {
	ID      mesh.SolidID
	Solid   *mesh.Solid
	Cutters []*mesh.Solid
}

// Scene implements mesh.Engine. It is safe for concurrent use.
type Scene struct {
	mu      sync.Mutex
	next    mesh.SolidID
	entries map[mesh.SolidID]*Entry
	ops     []Op
}

var _ mesh.Engine = (*Scene)(nil)

// New creates an empty scene.
func New() *Scene {
	return &Scene{entries: make(map[mesh.SolidID]*Entry)}
}

// CreateSolid stores a copy of s.
func (sc *Scene) CreateSolid(s *mesh.Solid) (mesh.SolidID, error) {
	if err := validate(s); err != nil {
		return 0, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.next++
	sc.entries[sc.next] = &Entry{ID: sc.next, Solid: clone(s)}
	sc.record(Op{Kind: CreateOp, Target: sc.next})

	return sc.next, nil
}

// BooleanSubtract records that cutter is carved out of target. The cutter
// is captured as it is now, so deleting it afterwards keeps the carve.
func (sc *Scene) BooleanSubtract(target, cutter mesh.SolidID) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	t, ok := sc.entries[target]
	if !ok {
		return eris.Wrapf(ErrUnknownSolid, "target %d", target)
	}

	c, ok := sc.entries[cutter]
	if !ok {
		return eris.Wrapf(ErrUnknownSolid, "cutter %d", cutter)
	}

	if target == cutter {
		return eris.Errorf("cannot subtract solid %d from itself", target)
	}

	w := clone(c.Solid)
	w.Vertices = w.World()
	w.Offset = r3.Vector{}

	t.Cutters = append(t.Cutters, w)
	sc.record(Op{Kind: SubtractOp, Target: target, Cutter: cutter})

	return nil
}

// DeleteSolid removes a solid.
func (sc *Scene) DeleteSolid(id mesh.SolidID) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if _, ok := sc.entries[id]; !ok {
		return eris.Wrapf(ErrUnknownSolid, "solid %d", id)
	}

	delete(sc.entries, id)
	sc.record(Op{Kind: DeleteOp, Target: id})

	return nil
}

// Vertices returns the world space vertices of a solid.
func (sc *Scene) Vertices(id mesh.SolidID) ([]r3.Vector, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	e, ok := sc.entries[id]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSolid, "solid %d", id)
	}

	return e.Solid.World(), nil
}

// Solid returns a copy of a stored solid.
func (sc *Scene) Solid(id mesh.SolidID) (*mesh.Solid, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	e, ok := sc.entries[id]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSolid, "solid %d", id)
	}

	return clone(e.Solid), nil
}

// Entries returns the solids in the scene in creation order.
func (sc *Scene) Entries() []Entry {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	out := make([]Entry, 0, len(sc.entries))
	for _, e := range sc.entries {
		out = append(out, Entry{ID: e.ID, Solid: clone(e.Solid), Cutters: slices.Clone(e.Cutters)})
	}

	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

// Len returns the number of solids in the scene.
func (sc *Scene) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return len(sc.entries)
}

// Ops returns the recorded operations.
func (sc *Scene) Ops() []Op {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return slices.Clone(sc.ops)
}

// Count returns the number of solids of a kind.
func (sc *Scene) Count(kind mesh.Kind) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	n := 0

	for _, e := range sc.entries {
		if e.Solid.Kind == kind {
			n++
		}
	}

	return n
}

func validate(s *mesh.Solid) error {
	if s == nil || len(s.Vertices) == 0 {
		return eris.Wrap(ErrInvalidSolid, "no vertices")
	}

	for i, f := range s.Faces {
		if len(f) < 3 {
			return eris.Wrapf(ErrInvalidSolid, "%s: face %d has %d vertices", s.Name, i, len(f))
		}

		for _, v := range f {
			if v < 0 || v >= len(s.Vertices) {
				return eris.Wrapf(ErrInvalidSolid, "%s: face %d refers to vertex %d", s.Name, i, v)
			}
		}
	}

	return nil
}

func clone(s *mesh.Solid) *mesh.Solid {
	c := *s
	c.Vertices = slices.Clone(s.Vertices)

	c.Faces = make([][]int, len(s.Faces))
	for i, f := range s.Faces {
		c.Faces[i] = slices.Clone(f)
	}

	return &c
}

func (sc *Scene) record(op Op) {
	sc.ops = append(sc.ops, op)

	zap.L().Debug("scene operation",
		zap.String("op", string(op.Kind)),
		zap.Int64("target", int64(op.Target)),
		zap.Int64("cutter", int64(op.Cutter)))
}
