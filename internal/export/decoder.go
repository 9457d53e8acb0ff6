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

package export

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/destel/rill"
	"github.com/rotisserie/eris"

	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
)

// Decoder reads a mesh file.
type Decoder struct {
	r      io.Reader
	header model.Header
}

// NewDecoder reads the header of the mesh file in r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	typ, blob, err := readFrame(r)
	if err != nil {
		if err == io.EOF {
			return nil, eris.Wrap(io.ErrUnexpectedEOF, "reading header")
		}

		return nil, eris.Wrap(err, "reading header")
	}

	if typ != headerType {
		return nil, eris.Wrapf(ErrUnexpectedBlob, "expected %s, got %q", headerType, typ)
	}

	raw, err := unpack(blob)
	if err != nil {
		return nil, eris.Wrap(err, "unpacking header")
	}

	h, err := unmarshalHeader(raw)
	if err != nil {
		return nil, eris.Wrap(err, "decoding header")
	}

	return &Decoder{r: r, header: h}, nil
}

// Header returns the header of the file.
func (d *Decoder) Header() model.Header {
	return d.header
}

// Blocks reads the remaining blobs and decodes them with procs goroutines.
// Blocks are delivered in file order. The channel must be drained.
func (d *Decoder) Blocks(ctx context.Context, procs int) <-chan rill.Try[[]*mesh.Solid] {
	if procs < 1 {
		procs = runtime.GOMAXPROCS(-1)
	}

	blobs := make(chan rill.Try[[]byte])

	go func() {
		defer close(blobs)

		for {
			typ, blob, err := readFrame(d.r)
			if err == io.EOF {
				return
			}

			if err == nil && typ != dataType {
				err = eris.Wrapf(ErrUnexpectedBlob, "expected %s, got %q", dataType, typ)
			}

			select {
			case <-ctx.Done():
				return
			case blobs <- rill.Wrap(blob, err):
			}

			if err != nil {
				return
			}
		}
	}()

	return rill.OrderedMap(blobs, procs, func(blob []byte) ([]*mesh.Solid, error) {
		raw, err := unpack(blob)
		if err != nil {
			return nil, eris.Wrap(err, "unpacking block")
		}

		return unmarshalBlock(raw)
	})
}

// ReadAll decodes every remaining solid.
func (d *Decoder) ReadAll(ctx context.Context) ([]*mesh.Solid, error) {
	var (
		solids []*mesh.Solid
		first  error
	)

	for block := range d.Blocks(ctx, 0) {
		if block.Error != nil {
			if first == nil {
				first = block.Error
			}

			continue
		}

		solids = append(solids, block.Value...)
	}

	if first != nil {
		return nil, first
	}

	return solids, ctx.Err()
}

func unixTime(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}
