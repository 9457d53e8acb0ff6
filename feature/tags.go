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
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"m4o.io/citymesh/model"
)

const (
	// HeightPerLevel is the default height of a single storey in meters.
	HeightPerLevel = 4.0

	// MinRandomHeight and MaxRandomHeight bound the fallback height of a
	// building without height or level tags.
	MinRandomHeight = 8.0
	MaxRandomHeight = 25.0
)

// HeightOrigin tells which rule produced a building's height.
type HeightOrigin int

const (
	// ExplicitHeight comes from a height or building:height tag.
	ExplicitHeight HeightOrigin = iota

	// LevelHeight is derived from the number of levels.
	LevelHeight

	// RandomHeight is the fallback for untagged buildings.
	RandomHeight
)

func (o HeightOrigin) String() string {
	switch o {
	case ExplicitHeight:
		return "explicit"
	case LevelHeight:
		return "levels"
	case RandomHeight:
		return "random"
	default:
		return fmt.Sprintf("HeightOrigin(%d)", int(o))
	}
}

// HeightSource supplies fallback heights for buildings that carry neither a
// height nor a level count.
type HeightSource interface {
	RandomHeight() float64
}

type randomHeights struct {
	rnd *rand.Rand
}

// NewRandomHeights returns a reproducible HeightSource drawing uniformly
// from [MinRandomHeight, MaxRandomHeight).
func NewRandomHeights(seed uint64) HeightSource {
	return &randomHeights{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (h *randomHeights) RandomHeight() float64 {
	return MinRandomHeight + h.rnd.Float64()*(MaxRandomHeight-MinRandomHeight)
}

// Tags holds the height related tags of a way or relation. Nil fields are
// absent.
type Tags struct {
	Height     *float64
	Levels     *float64
	RoofLevels *float64
}

// ResolveHeight applies the height rules in order: an explicit height, the
// level count times perLevel, and finally a draw from src.
func (t Tags) ResolveHeight(perLevel float64, src HeightSource) (float64, HeightOrigin) {
	if t.Height != nil {
		return *t.Height, ExplicitHeight
	}

	if t.Levels != nil {
		levels := *t.Levels
		if t.RoofLevels != nil {
			levels += *t.RoofLevels
		}

		if h := levels * perLevel; h > 0 {
			return h, LevelHeight
		}
	}

	return src.RandomHeight(), RandomHeight
}

// inherit copies the height and level tags of parent that t lacks. It
// reports which of the two groups were copied.
func (t *Tags) inherit(parent Tags) (height, levels bool) {
	if t.Height == nil && parent.Height != nil {
		t.Height = parent.Height
		height = true
	}

	if t.Levels == nil && parent.Levels != nil {
		t.Levels = parent.Levels
		t.RoofLevels = parent.RoofLevels
		levels = true
	}

	return height, levels
}

// parseTags extracts the height related tags of e. Values that cannot be
// parsed are reported to diags and treated as absent.
func parseTags(e *model.Element, id model.ID, diags *model.Diagnostics) Tags {
	var t Tags

	if key, v := firstTag(e, "height", "building:height"); v != nil {
		if h, ok := parseHeight(v); ok && h > 0 {
			t.Height = &h
		} else {
			diags.Add(model.UnparsableTag, e.Type, id, "%s=%v is not a positive length", key, v)
		}
	}

	if key, v := firstTag(e, "levels", "building:levels"); v != nil {
		if l, ok := parseNumber(v); ok && l >= 0 {
			t.Levels = &l
		} else {
			diags.Add(model.UnparsableTag, e.Type, id, "%s=%v is not a level count", key, v)
		}
	}

	if t.Levels != nil {
		if v := e.Tag("roof:levels"); v != nil {
			if l, ok := parseNumber(v); ok && l >= 0 {
				t.RoofLevels = &l
			} else {
				diags.Add(model.UnparsableTag, e.Type, id, "roof:levels=%v is not a level count", v)
			}
		}
	}

	return t
}

func firstTag(e *model.Element, keys ...string) (string, any) {
	for _, k := range keys {
		if v := e.Tag(k); v != nil {
			return k, v
		}
	}

	return "", nil
}

// parseHeight accepts a plain number or a string in meters such as "12",
// "12.5 m" or "12m".
func parseHeight(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		s = strings.TrimSpace(strings.TrimSuffix(s, "m"))

		return parseNumber(s)
	}

	return parseNumber(v)
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}
