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

// Package trees decodes tree locations and turns them into tree solids.
package trees

import (
	"encoding/json"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/geo"
	"m4o.io/citymesh/model"
)

// ErrNotFeatureCollection is returned when the tree source answers with
// anything but a GeoJSON FeatureCollection.
var ErrNotFeatureCollection = eris.New("tree response is not a FeatureCollection")

// Tree is a tree position on the planar frame.
type Tree struct {
	ID       model.ID
	Position geo.PlanarPoint
}

// Result is the output of Decode.
type Result struct {
	Trees       []Tree
	Diagnostics *model.Diagnostics
}

type envelope struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	Type     string `json:"type"`
	Geometry *struct {
		Type        string            `json:"type"`
		Coordinates []json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// MercatorBounds returns bounds in web mercator (EPSG:3857) meters, the
// coordinate system the tree source is queried in.
func MercatorBounds(b model.BoundingBox) orb.Bound {
	bl := project.WGS84.ToMercator(orb.Point{float64(b.Left), float64(b.Bottom)})
	tr := project.WGS84.ToMercator(orb.Point{float64(b.Right), float64(b.Top)})

	return orb.Bound{Min: bl, Max: tr}
}

// Decode reads a FeatureCollection of Point features in web mercator and
// projects every tree inside the frame onto it. Features that are not
// points with exactly two coordinates are reported and skipped, as are
// trees outside the frame. Trees are numbered by their position in the
// collection.
func Decode(r io.Reader, frame *geo.Frame) (*Result, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, eris.Wrap(err, "decoding tree response")
	}

	if env.Type != "FeatureCollection" {
		return nil, eris.Wrapf(ErrNotFeatureCollection, "got type %q", env.Type)
	}

	if env.Features == nil {
		return nil, eris.Wrap(ErrNotFeatureCollection, "missing features")
	}

	res := &Result{Diagnostics: &model.Diagnostics{}}
	outside := 0

	for i, raw := range env.Features {
		id := model.ID(i)

		loc, ok := point(raw, id, res.Diagnostics)
		if !ok {
			continue
		}

		p, err := frame.Project(loc)
		if err != nil {
			outside++
			continue
		}

		res.Trees = append(res.Trees, Tree{ID: id, Position: p})
	}

	zap.L().Info("trees decoded",
		zap.Int("features", len(env.Features)),
		zap.Int("trees", len(res.Trees)),
		zap.Int("outside", outside),
		zap.Int("diagnostics", res.Diagnostics.Len()))

	return res, nil
}

func point(raw json.RawMessage, id model.ID, diags *model.Diagnostics) (model.Geolocation, bool) {
	var rf rawFeature
	if err := json.Unmarshal(raw, &rf); err != nil {
		diags.Add(model.InvalidGeometry, model.TREE, id, "unreadable feature: %v", err)
		return model.Geolocation{}, false
	}

	if rf.Type != "Feature" {
		diags.Add(model.UnknownType, model.TREE, id, "unknown feature type %q", rf.Type)
		return model.Geolocation{}, false
	}

	if rf.Geometry == nil {
		diags.Add(model.InvalidGeometry, model.TREE, id, "feature without geometry")
		return model.Geolocation{}, false
	}

	if rf.Geometry.Type != "Point" {
		diags.Add(model.UnknownType, model.TREE, id, "unknown geometry type %q", rf.Geometry.Type)
		return model.Geolocation{}, false
	}

	if len(rf.Geometry.Coordinates) != 2 {
		diags.Add(model.InvalidGeometry, model.TREE, id, "point with %d coordinates", len(rf.Geometry.Coordinates))
		return model.Geolocation{}, false
	}

	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		diags.Add(model.InvalidGeometry, model.TREE, id, "bad point: %v", err)
		return model.Geolocation{}, false
	}

	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		diags.Add(model.InvalidGeometry, model.TREE, id, "geometry is a %s", f.Geometry.GeoJSONType())
		return model.Geolocation{}, false
	}

	wgs := project.Mercator.ToWGS84(pt)

	return model.Geolocation{Lat: model.Degrees(wgs.Lat()), Lon: model.Degrees(wgs.Lon())}, true
}
