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

// Package packers compresses the payload of an export blob. Each packer
// knows the blob field its output is stored under.
package packers

import (
	"bytes"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Blob field numbers of the supported encodings.
const (
	RawField  protowire.Number = 1
	ZlibField protowire.Number = 3
	LzmaField protowire.Number = 4
	Lz4Field  protowire.Number = 6
	ZstdField protowire.Number = 7
)

// Packer compresses whatever is written to it. Close must be called before
// Bytes to flush the compressor.
type Packer interface {
	io.WriteCloser

	// Field is the blob field the packed bytes belong to.
	Field() protowire.Number

	// Bytes returns the packed data.
	Bytes() []byte
}

type base struct {
	w   io.WriteCloser
	buf *bytes.Buffer
}

func newBasePacker(buf *bytes.Buffer, w io.WriteCloser) *base {
	return &base{w: w, buf: buf}
}

func (b *base) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *base) Close() error {
	return b.w.Close()
}

func (b *base) Bytes() []byte {
	return b.buf.Bytes()
}
