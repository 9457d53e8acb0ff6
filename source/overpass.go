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

// Package source implements the remote and local providers of feature,
// raster and tree data.
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"m4o.io/citymesh/feature"
	"m4o.io/citymesh/internal/fetch"
	"m4o.io/citymesh/model"
)

// DefaultOverpassURL is the public Overpass API interpreter.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// Overpass queries an Overpass API interpreter for buildings.
type Overpass struct {
	client  *fetch.Client
	url     string
	timeout time.Duration
}

// NewOverpass creates an Overpass source. The timeout is passed to the
// server as the query timeout.
func NewOverpass(client *fetch.Client, endpoint string, timeout time.Duration) *Overpass {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}

	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}

	return &Overpass{client: client, url: endpoint, timeout: timeout}
}

// Query builds the Overpass QL query selecting every way and relation
// tagged building or building:part in bounds, followed by their members.
func Query(bounds model.BoundingBox, timeout time.Duration) string {
	bbox := fmt.Sprintf("%s,%s,%s,%s",
		coord(bounds.Bottom), coord(bounds.Left), coord(bounds.Top), coord(bounds.Right))

	var sb strings.Builder

	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))

	for _, sel := range []string{
		`way["building"]`,
		`relation["building"]`,
		`way["building:part"]`,
		`relation["building:part"]`,
	} {
		fmt.Fprintf(&sb, "  %s(%s);\n", sel, bbox)
	}

	sb.WriteString(");\nout body;\n>;\nout skel qt;")

	return sb.String()
}

// Elements fetches the raw elements in bounds.
func (o *Overpass) Elements(ctx context.Context, bounds model.BoundingBox) ([]model.Element, error) {
	form := url.Values{"data": {Query(bounds, o.timeout)}}

	data, err := o.client.Post(ctx, o.url, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "querying overpass")
	}

	elements, err := feature.DecodeOverpass(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "decoding overpass response")
	}

	return elements, nil
}

func coord(d model.Degrees) string {
	return fmt.Sprintf("%.7f", float64(d))
}

// OverpassFile serves an Overpass JSON document stored on disk.
type OverpassFile struct {
	path string
}

// NewOverpassFile creates a feature source for the document at path.
func NewOverpassFile(path string) *OverpassFile {
	return &OverpassFile{path: path}
}

// Elements reads the document. Elements outside bounds are dropped by the
// resolver.
func (o *OverpassFile) Elements(_ context.Context, _ model.BoundingBox) ([]model.Element, error) {
	f, err := os.Open(o.path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", o.path)
	}
	defer f.Close() //nolint:errcheck

	elements, err := feature.DecodeOverpass(f)
	if err != nil {
		return nil, eris.Wrapf(err, "decoding %s", o.path)
	}

	return elements, nil
}
