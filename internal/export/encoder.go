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
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
)

var (
	// ErrHeaderNotWritten is returned when solids are encoded before the
	// header.
	ErrHeaderNotWritten = eris.New("header must be written first")

	// ErrHeaderWritten is returned when the header is written twice.
	ErrHeaderWritten = eris.New("header already written")
)

// Encoder writes a mesh file: the header followed by blocks of solids.
type Encoder struct {
	w    io.Writer
	opts encoderOptions

	header  bool
	pending []byte
	count   int

	blocks int
	solids int
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	o := defaultEncoderConfig
	for _, opt := range opts {
		opt(&o)
	}

	return &Encoder{w: w, opts: o}
}

// EncodeHeader writes the header block. It must be called once, before any
// solid is encoded.
func (e *Encoder) EncodeHeader(h model.Header) error {
	if e.header {
		return ErrHeaderWritten
	}

	blob, err := pack(marshalHeader(h), e.opts.compression)
	if err != nil {
		return eris.Wrap(err, "could not pack header")
	}

	if err = writeFrame(e.w, headerType, blob); err != nil {
		return eris.Wrap(err, "could not write header")
	}

	e.header = true

	return nil
}

// Encode queues a solid, writing a block once the solid limit is reached.
func (e *Encoder) Encode(s *mesh.Solid) error {
	if !e.header {
		return ErrHeaderNotWritten
	}

	e.pending = marshalSolid(e.pending, s)
	e.count++

	if e.count >= e.opts.limit {
		return e.flush()
	}

	return nil
}

// Close writes any queued solids. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if err := e.flush(); err != nil {
		return err
	}

	zap.L().Debug("mesh file written",
		zap.Stringer("compression", e.opts.compression),
		zap.Int("blocks", e.blocks),
		zap.Int("solids", e.solids))

	return nil
}

func (e *Encoder) flush() error {
	if e.count == 0 {
		return nil
	}

	blob, err := pack(e.pending, e.opts.compression)
	if err != nil {
		return eris.Wrapf(err, "could not pack block %d", e.blocks)
	}

	if err = writeFrame(e.w, dataType, blob); err != nil {
		return eris.Wrapf(err, "could not write block %d", e.blocks)
	}

	e.blocks++
	e.solids += e.count
	e.pending = e.pending[:0]
	e.count = 0

	return nil
}
