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
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/rotisserie/eris"

	"m4o.io/citymesh/heightmap"
	"m4o.io/citymesh/internal/fetch"
	"m4o.io/citymesh/model"
)

// DefaultTerrainURL is the terrain.party export endpoint.
const DefaultTerrainURL = "https://terrain.party/api/export"

// TerrainParty downloads height map archives from a terrain.party style
// export service.
type TerrainParty struct {
	client *fetch.Client
	url    string
	name   string
}

// NewTerrainParty creates a raster source. The name is the map name
// requested from the service, which prefixes every file of the archive.
func NewTerrainParty(client *fetch.Client, endpoint, name string) *TerrainParty {
	if endpoint == "" {
		endpoint = DefaultTerrainURL
	}

	if name == "" {
		name = heightmap.DefaultName
	}

	return &TerrainParty{client: client, url: endpoint, name: name}
}

// Name is the map name of the archives.
func (t *TerrainParty) Name() string {
	return t.name
}

// URL returns the export URL for bounds. The box is given as east, north,
// west and south edges.
func (t *TerrainParty) URL(bounds model.BoundingBox) string {
	q := url.Values{}
	q.Set("name", t.name)
	q.Set("box", fmt.Sprintf("%s,%s,%s,%s",
		coord(bounds.Right), coord(bounds.Top), coord(bounds.Left), coord(bounds.Bottom)))

	return t.url + "?" + q.Encode()
}

// Raster downloads the archive covering bounds.
func (t *TerrainParty) Raster(ctx context.Context, bounds model.BoundingBox) (*bytes.Reader, error) {
	data, err := t.client.Get(ctx, t.URL(bounds))
	if err != nil {
		return nil, eris.Wrap(err, "downloading height map")
	}

	return bytes.NewReader(data), nil
}

// RasterFile serves a previously downloaded archive.
type RasterFile struct {
	path string
	name string
}

// NewRasterFile creates a raster source for the archive at path.
func NewRasterFile(path, name string) *RasterFile {
	if name == "" {
		name = heightmap.DefaultName
	}

	return &RasterFile{path: path, name: name}
}

// Name is the map name of the archive.
func (r *RasterFile) Name() string {
	return r.name
}

// Raster reads the archive. The bounds are not checked against it.
func (r *RasterFile) Raster(_ context.Context, _ model.BoundingBox) (*bytes.Reader, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", r.path)
	}

	return bytes.NewReader(data), nil
}
