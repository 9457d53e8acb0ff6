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

// Package export reads and writes the framed, compressed mesh files the
// generator produces.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"m4o.io/citymesh/internal/export/packers"
)

// ErrUnknownCompressionType is returned for blobs or names of an unsupported
// compression.
var ErrUnknownCompressionType = eris.New("unknown blob compression type")

// BlobCompression is the compression applied to the payload of a blob.
type BlobCompression int

const (
	RAW BlobCompression = iota
	ZLIB
	LZMA
	LZ4
	ZSTD
)

// DefaultBlobCompression is used when no compression is configured.
const DefaultBlobCompression = ZSTD

var compressionNames = [...]string{"raw", "zlib", "lzma", "lz4", "zstd"}

func (c BlobCompression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return fmt.Sprintf("BlobCompression(%d)", int(c))
	}

	return compressionNames[c]
}

// ParseCompression returns the compression named s, ignoring case.
func ParseCompression(s string) (BlobCompression, error) {
	for i, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return BlobCompression(i), nil
		}
	}

	return 0, eris.Wrapf(ErrUnknownCompressionType, "%q", s)
}

// newPacker creates the appropriate Packer for the compression.
func newPacker(c BlobCompression) (packers.Packer, error) {
	switch c {
	case RAW:
		return packers.NewRawPacker(), nil
	case ZLIB:
		return packers.NewZlibPacker(), nil
	case LZMA:
		return packers.NewLzmaPacker(), nil
	case LZ4:
		return packers.NewLz4Packer(), nil
	case ZSTD:
		return packers.NewZstdPacker(), nil
	default:
		return nil, eris.Wrapf(ErrUnknownCompressionType, "%v", c)
	}
}
