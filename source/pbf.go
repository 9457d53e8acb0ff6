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

package source

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/model"
)

// PBFFile reads buildings from a local OSM PBF extract.
type PBFFile struct {
	path  string
	procs int
	wrap  func(*os.File) (io.ReadCloser, error)
}

// PBFOption configures a PBFFile.
type PBFOption func(*PBFFile)

// WithProcs sets the number of goroutines decoding blobs.
func WithProcs(n int) PBFOption {
	return func(p *PBFFile) {
		if n > 0 {
			p.procs = n
		}
	}
}

// WithFileWrapper wraps the opened file, e.g. to report progress.
func WithFileWrapper(wrap func(*os.File) (io.ReadCloser, error)) PBFOption {
	return func(p *PBFFile) {
		p.wrap = wrap
	}
}

// NewPBFFile creates a source reading the extract at path.
func NewPBFFile(path string, opts ...PBFOption) *PBFFile {
	p := &PBFFile{path: path, procs: runtime.GOMAXPROCS(-1)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Elements scans the extract for buildings in bounds.
func (p *PBFFile) Elements(ctx context.Context, bounds model.BoundingBox) ([]model.Element, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", p.path)
	}

	var in io.ReadCloser = f
	if p.wrap != nil {
		if in, err = p.wrap(f); err != nil {
			f.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "wrapping %s", p.path)
		}
	}
	defer in.Close() //nolint:errcheck

	scanner := osmpbf.New(ctx, in, p.procs)
	defer scanner.Close() //nolint:errcheck

	elements, err := extract(scanner, bounds)
	if err != nil {
		return nil, eris.Wrapf(err, "scanning %s", p.path)
	}

	return elements, nil
}

type objectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
}

// extract keeps the nodes inside bounds, the ways touching them that are
// buildings or closed, and the building relations referring to kept ways.
// Closed untagged ways are kept only when a kept relation refers to them.
// PBF files store nodes before ways before relations, which a single pass
// relies on.
func extract(s objectScanner, bounds model.BoundingBox) ([]model.Element, error) {
	nodes := make(map[osm.NodeID]struct{})

	var (
		elements  []model.Element
		ways      = make(map[osm.WayID]*osm.Way)
		wayOrder  []osm.WayID
		relations []*osm.Relation
		used      = make(map[osm.WayID]bool)
	)

	for s.Scan() {
		switch v := s.Object().(type) {
		case *osm.Node:
			if !bounds.Contains(model.Degrees(v.Lat), model.Degrees(v.Lon)) {
				continue
			}

			nodes[v.ID] = struct{}{}

			e, _ := feature.FromOSM(v)
			elements = append(elements, e)
		case *osm.Way:
			if !touches(v, nodes) {
				continue
			}

			if feature.IsBuilding(v) || closed(v) {
				ways[v.ID] = v
				wayOrder = append(wayOrder, v.ID)
			}
		case *osm.Relation:
			if !feature.IsBuilding(v) {
				continue
			}

			refs := false
			for _, m := range v.Members {
				if m.Type == osm.TypeWay {
					if _, ok := ways[osm.WayID(m.Ref)]; ok {
						refs = true
						used[osm.WayID(m.Ref)] = true
					}
				}
			}

			if refs {
				relations = append(relations, v)
			}
		}
	}

	if err := s.Err(); err != nil && err != io.EOF {
		return nil, err
	}

	for _, id := range wayOrder {
		w := ways[id]
		if feature.IsBuilding(w) || used[id] {
			e, _ := feature.FromOSM(w)
			elements = append(elements, e)
		}
	}

	for _, r := range relations {
		e, _ := feature.FromOSM(r)
		elements = append(elements, e)
	}

	zap.L().Info("extract scanned",
		zap.Int("nodes", len(nodes)),
		zap.Int("ways", len(wayOrder)),
		zap.Int("relations", len(relations)),
		zap.Int("elements", len(elements)))

	return elements, nil
}

func touches(w *osm.Way, nodes map[osm.NodeID]struct{}) bool {
	for _, n := range w.Nodes {
		if _, ok := nodes[n.ID]; ok {
			return true
		}
	}

	return false
}

func closed(w *osm.Way) bool {
	return len(w.Nodes) >= 4 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID
}
