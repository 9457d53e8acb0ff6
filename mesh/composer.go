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

package mesh

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

// OvershootMargin is how far a courtyard cutter reaches below the lowest
// base and above the highest roof of the shells it carves.
const OvershootMargin = 1.0

// Seat extrudes a building and places it on the ground. The base sits at
// the lowest ground elevation under the footprint and the height grows by
// the elevation difference under it so the roof keeps its height above the
// highest ground point. A nil ground seats everything at z=0.
func Seat(b feature.Building, ground Ground) (*Solid, error) {
	ring := geo.Vectors(b.Ring)

	var base, delta float64

	if ground != nil {
		lo, hi, err := ground.LowestAndHighest(lift(ring))
		if err != nil {
			return nil, eris.Wrapf(err, "seating building %d", b.ID)
		}

		base, delta = lo, hi-lo
	}

	s, err := Extrude(ring, b.Height+delta)
	if err != nil {
		return nil, eris.Wrapf(err, "extruding building %d", b.ID)
	}

	s.Name = fmt.Sprintf("Building %d", b.ID)
	s.Kind = BuildingKind
	s.Offset.Z = base

	return s, nil
}

// Plan holds the solids of a relation, ready to be handed to an engine.
type Plan struct {
	ID       model.ID
	Shells   []*Solid
	Cutters  []*Solid
	Building *Solid
}

// PlanBuilding seats a simple building.
func PlanBuilding(b feature.Building, ground Ground) (*Plan, error) {
	s, err := Seat(b, ground)
	if err != nil {
		return nil, err
	}

	return &Plan{ID: b.ID, Building: s}, nil
}

// PlanRelation extrudes every outer footprint of rel into a seated shell
// and every inner footprint into a cutter spanning all shells vertically
// with OvershootMargin to spare. A relation without outer footprints
// yields an empty plan. Planning touches no engine so relations can be
// planned concurrently.
func PlanRelation(rel feature.Relation, ground Ground) (*Plan, error) {
	plan := &Plan{ID: rel.ID}

	if len(rel.Positive) == 0 {
		return plan, nil
	}

	bottom, top := math.Inf(1), math.Inf(-1)

	for i, b := range rel.Positive {
		s, err := Seat(b, ground)
		if err != nil {
			return nil, eris.Wrapf(err, "relation %d", rel.ID)
		}

		s.Name = fmt.Sprintf("Relation %d part %d", rel.ID, i)
		bottom = min(bottom, s.Offset.Z)
		top = max(top, s.Offset.Z+s.Vertices[len(s.Vertices)-1].Z)
		plan.Shells = append(plan.Shells, s)
	}

	base := bottom - OvershootMargin
	height := top + OvershootMargin - base

	for i, b := range rel.Negative {
		s, err := Extrude(geo.Vectors(b.Ring), height)
		if err != nil {
			return nil, eris.Wrapf(err, "relation %d inner way %d", rel.ID, b.ID)
		}

		s.Name = fmt.Sprintf("Relation %d cutter %d", rel.ID, i)
		s.Kind = CutterKind
		s.Offset.Z = base
		plan.Cutters = append(plan.Cutters, s)
	}

	return plan, nil
}

// Apply realizes a plan: shells are created first, then every cutter is
// subtracted from every shell and deleted. It returns the handles of the
// solids left in the engine. On failure every solid the call created is
// deleted again.
func Apply(ctx context.Context, engine Engine, plan *Plan) (ids []SolidID, err error) {
	var created []SolidID

	defer func() {
		if err != nil {
			rollback(engine, plan.ID, created)
		}
	}()

	if plan.Building != nil {
		id, err := engine.CreateSolid(plan.Building)
		if err != nil {
			return nil, eris.Wrapf(err, "creating %s", plan.Building.Name)
		}

		return []SolidID{id}, nil
	}

	shells := make([]SolidID, 0, len(plan.Shells))

	for _, s := range plan.Shells {
		id, err := engine.CreateSolid(s)
		if err != nil {
			return nil, eris.Wrapf(err, "creating %s", s.Name)
		}

		created = append(created, id)
		shells = append(shells, id)
	}

	for _, s := range plan.Cutters {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "composing relation")
		}

		cutter, err := engine.CreateSolid(s)
		if err != nil {
			return nil, eris.Wrapf(err, "creating %s", s.Name)
		}

		created = append(created, cutter)

		for _, shell := range shells {
			if err := engine.BooleanSubtract(shell, cutter); err != nil {
				return nil, eris.Wrapf(err, "subtracting %s", s.Name)
			}
		}

		if err := engine.DeleteSolid(cutter); err != nil {
			return nil, eris.Wrapf(err, "deleting %s", s.Name)
		}

		created = created[:len(created)-1]
	}

	zap.L().Debug("relation composed",
		zap.Int64("relation", int64(plan.ID)),
		zap.Int("shells", len(shells)),
		zap.Int("cutters", len(plan.Cutters)))

	return shells, nil
}

// rollback deletes created solids, newest first.
func rollback(engine Engine, id model.ID, created []SolidID) {
	for i := len(created) - 1; i >= 0; i-- {
		if err := engine.DeleteSolid(created[i]); err != nil {
			zap.L().Warn("unable to roll back solid",
				zap.Int64("relation", int64(id)),
				zap.Int64("solid", int64(created[i])),
				zap.Error(err))
		}
	}
}

// Compose plans and applies a relation in one step.
func Compose(ctx context.Context, engine Engine, rel feature.Relation, ground Ground) ([]SolidID, error) {
	plan, err := PlanRelation(rel, ground)
	if err != nil {
		return nil, err
	}

	return Apply(ctx, engine, plan)
}

func lift(ring []r2.Point) []r3.Vector {
	out := make([]r3.Vector, len(ring))
	for i, p := range ring {
		out[i] = r3.Vector{X: p.X, Y: p.Y}
	}

	return out
}
