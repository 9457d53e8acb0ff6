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
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz/lzma"
	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/citymesh/internal/export/packers"
)

const (
	headerType = "MeshHeader"
	dataType   = "MeshData"

	// MaxBlobHeaderSize bounds the size of a blob header.
	MaxBlobHeaderSize = 64 * 1024

	// MaxBlobSize bounds the size of a blob, packed or not.
	MaxBlobSize = 32 * 1024 * 1024
)

var (
	// ErrBlobTooLarge is returned for frames exceeding the size limits.
	ErrBlobTooLarge = eris.New("blob exceeds size limit")

	// ErrUnexpectedBlob is returned when a frame has the wrong type.
	ErrUnexpectedBlob = eris.New("unexpected blob type")
)

// Blob field numbers.
const (
	blobRawSize protowire.Number = 2

	blobHeaderType     protowire.Number = 1
	blobHeaderDatasize protowire.Number = 3
)

// pack compresses msg into a marshalled blob.
func pack(msg []byte, c BlobCompression) ([]byte, error) {
	p, err := newPacker(c)
	if err != nil {
		return nil, err
	}

	if _, err = p.Write(msg); err != nil {
		return nil, eris.Wrap(err, "could not compress message")
	}

	if err = p.Close(); err != nil {
		return nil, eris.Wrap(err, "could not close writer")
	}

	var b []byte
	b = protowire.AppendTag(b, blobRawSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(len(msg)))
	b = protowire.AppendTag(b, p.Field(), protowire.BytesType)
	b = protowire.AppendBytes(b, p.Bytes())

	return b, nil
}

// unpack uncompresses a marshalled blob.
func unpack(blob []byte) ([]byte, error) {
	var (
		rawSize uint64
		field   protowire.Number
		data    []byte
	)

	err := walk(blob, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case blobRawSize:
			rawSize = varint(typ, v)
		case packers.RawField, packers.ZlibField, packers.LzmaField, packers.Lz4Field, packers.ZstdField:
			field, data = num, bytesOf(typ, v)
		default:
			return eris.Wrapf(ErrUnknownCompressionType, "blob field %d", num)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if rawSize > MaxBlobSize {
		return nil, eris.Wrapf(ErrBlobTooLarge, "raw size %d", rawSize)
	}

	var rdr io.Reader

	switch field {
	case packers.RawField:
		return data, nil
	case packers.ZlibField:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, eris.Wrap(err, "unpacker factory error")
		}
		defer zr.Close() //nolint:errcheck

		rdr = zr
	case packers.LzmaField:
		if rdr, err = lzma.NewReader(bytes.NewReader(data)); err != nil {
			return nil, eris.Wrap(err, "unpacker factory error")
		}
	case packers.Lz4Field:
		rdr = lz4.NewReader(bytes.NewReader(data))
	case packers.ZstdField:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, eris.Wrap(err, "unpacker factory error")
		}
		defer zr.Close()

		rdr = zr
	default:
		return nil, ErrUnknownCompressionType
	}

	buf := bytes.NewBuffer(make([]byte, 0, rawSize+bytes.MinRead))

	if n, err := buf.ReadFrom(io.LimitReader(rdr, MaxBlobSize+1)); err != nil {
		return nil, eris.Wrap(err, "unpacker read error")
	} else if n != int64(rawSize) {
		return nil, eris.Errorf("raw blob data size %d but expected %d", n, rawSize)
	}

	return buf.Bytes(), nil
}

// writeFrame writes a blob header announcing blob, then blob itself.
func writeFrame(w io.Writer, typ string, blob []byte) error {
	var hb []byte
	hb = protowire.AppendTag(hb, blobHeaderType, protowire.BytesType)
	hb = protowire.AppendString(hb, typ)
	hb = protowire.AppendTag(hb, blobHeaderDatasize, protowire.VarintType)
	hb = protowire.AppendVarint(hb, uint64(len(blob)))

	if err := binary.Write(w, binary.BigEndian, uint32(len(hb))); err != nil {
		return eris.Wrap(err, "could not write header size")
	}

	if _, err := w.Write(hb); err != nil {
		return eris.Wrap(err, "could not write blob header")
	}

	if _, err := w.Write(blob); err != nil {
		return eris.Wrap(err, "could not write blob data")
	}

	return nil
}

// readFrame reads the next frame. It returns io.EOF, unwrapped, when the
// reader is exhausted at a frame boundary.
func readFrame(r io.Reader) (string, []byte, error) {
	var size uint32

	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		if err == io.EOF {
			return "", nil, err
		}

		return "", nil, eris.Wrap(err, "error reading blob header size")
	}

	if size > MaxBlobHeaderSize {
		return "", nil, eris.Wrapf(ErrBlobTooLarge, "blob header size %d", size)
	}

	hb := make([]byte, size)
	if _, err := io.ReadFull(r, hb); err != nil {
		return "", nil, eris.Wrap(err, "error reading blob header")
	}

	var (
		typ      string
		datasize uint64
	)

	err := walk(hb, func(num protowire.Number, t protowire.Type, v []byte) error {
		switch num {
		case blobHeaderType:
			typ = string(bytesOf(t, v))
		case blobHeaderDatasize:
			datasize = varint(t, v)
		}

		return nil
	})
	if err != nil {
		return "", nil, eris.Wrap(err, "error unmarshalling blob header")
	}

	if datasize > MaxBlobSize {
		return "", nil, eris.Wrapf(ErrBlobTooLarge, "blob size %d", datasize)
	}

	blob := make([]byte, datasize)
	if _, err := io.ReadFull(r, blob); err != nil {
		return "", nil, eris.Wrap(err, "error reading blob")
	}

	return typ, blob, nil
}
