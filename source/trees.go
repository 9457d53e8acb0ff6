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

	"m4o.io/citymesh/internal/fetch"
	"m4o.io/citymesh/model"
	"m4o.io/citymesh/trees"
)

// DefaultTreeURL is the Zagreb tree registry.
const DefaultTreeURL = "https://gis.zrinjevac.hr/stabla_geom.php"

// TreeService queries a GeoJSON tree service in web mercator.
type TreeService struct {
	client *fetch.Client
	url    string
}

// NewTreeService creates a tree source.
func NewTreeService(client *fetch.Client, endpoint string) *TreeService {
	if endpoint == "" {
		endpoint = DefaultTreeURL
	}

	return &TreeService{client: client, url: endpoint}
}

// URL returns the query URL for bounds.
func (t *TreeService) URL(bounds model.BoundingBox) string {
	b := trees.MercatorBounds(bounds)

	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", b.Min[0], b.Min[1], b.Max[0], b.Max[1]))
	q.Set("srid", "3857")

	return t.url + "?" + q.Encode()
}

// Trees fetches the FeatureCollection of trees in bounds.
func (t *TreeService) Trees(ctx context.Context, bounds model.BoundingBox) (*bytes.Reader, error) {
	data, err := t.client.Get(ctx, t.URL(bounds))
	if err != nil {
		return nil, eris.Wrap(err, "downloading trees")
	}

	return bytes.NewReader(data), nil
}

// TreeFile serves a FeatureCollection stored on disk.
type TreeFile struct {
	path string
}

// NewTreeFile creates a tree source for the file at path.
func NewTreeFile(path string) *TreeFile {
	return &TreeFile{path: path}
}

// Trees reads the file. Trees outside bounds are dropped by the decoder.
func (t *TreeFile) Trees(_ context.Context, _ model.BoundingBox) (*bytes.Reader, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", t.path)
	}

	return bytes.NewReader(data), nil
}
