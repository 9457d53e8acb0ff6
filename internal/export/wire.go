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
	"math"

	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"
	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/citymesh/mesh"
	"m4o.io/citymesh/model"
)

// ErrMalformed is returned when a message does not follow the wire layout.
var ErrMalformed = eris.New("malformed message")

// HeaderBlock field numbers.
const (
	headerBBox           protowire.Number = 1
	headerWritingProgram protowire.Number = 16
	headerSource         protowire.Number = 17
	headerGenerated      protowire.Number = 32
	headerRunID          protowire.Number = 33

	bboxTop    protowire.Number = 1
	bboxLeft   protowire.Number = 2
	bboxBottom protowire.Number = 3
	bboxRight  protowire.Number = 4
)

// Solid field numbers.
const (
	blockSolid protowire.Number = 1

	solidName     protowire.Number = 1
	solidKind     protowire.Number = 2
	solidOffset   protowire.Number = 3
	solidVertices protowire.Number = 4
	solidFace     protowire.Number = 5

	faceIndices protowire.Number = 1
)

// walk calls fn with the number, type and encoded value of every field in b.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return eris.Wrap(protowire.ParseError(n), "consuming tag")
		}

		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return eris.Wrapf(protowire.ParseError(m), "consuming field %d", num)
		}

		if err := fn(num, typ, b[:m]); err != nil {
			return err
		}

		b = b[m:]
	}

	return nil
}

func varint(typ protowire.Type, v []byte) uint64 {
	if typ != protowire.VarintType {
		return 0
	}

	x, _ := protowire.ConsumeVarint(v)

	return x
}

func bytesOf(typ protowire.Type, v []byte) []byte {
	if typ != protowire.BytesType {
		return nil
	}

	b, _ := protowire.ConsumeBytes(v)

	return b
}

func double(typ protowire.Type, v []byte) float64 {
	if typ != protowire.Fixed64Type {
		return 0
	}

	x, _ := protowire.ConsumeFixed64(v)

	return math.Float64frombits(x)
}

func appendDouble(b []byte, num protowire.Number, f float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(f))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, s)
}

func appendPackedDoubles(b []byte, num protowire.Number, fs ...float64) []byte {
	var packed []byte
	for _, f := range fs {
		packed = protowire.AppendFixed64(packed, math.Float64bits(f))
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, packed)
}

func packedDoubles(typ protowire.Type, v []byte) ([]float64, error) {
	packed := bytesOf(typ, v)
	if len(packed)%8 != 0 {
		return nil, eris.Wrapf(ErrMalformed, "packed doubles of %d bytes", len(packed))
	}

	out := make([]float64, 0, len(packed)/8)
	for len(packed) > 0 {
		x, n := protowire.ConsumeFixed64(packed)
		out = append(out, math.Float64frombits(x))
		packed = packed[n:]
	}

	return out, nil
}

func marshalHeader(h model.Header) []byte {
	var b []byte

	if bb := h.BoundingBox; bb != nil {
		var box []byte
		box = appendDouble(box, bboxTop, float64(bb.Top))
		box = appendDouble(box, bboxLeft, float64(bb.Left))
		box = appendDouble(box, bboxBottom, float64(bb.Bottom))
		box = appendDouble(box, bboxRight, float64(bb.Right))

		b = protowire.AppendTag(b, headerBBox, protowire.BytesType)
		b = protowire.AppendBytes(b, box)
	}

	b = appendString(b, headerWritingProgram, h.WritingProgram)
	b = appendString(b, headerSource, h.Source)

	if !h.Generated.IsZero() {
		b = protowire.AppendTag(b, headerGenerated, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(h.Generated.Unix()))
	}

	return appendString(b, headerRunID, h.RunID)
}

func unmarshalHeader(b []byte) (model.Header, error) {
	var h model.Header

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case headerBBox:
			bb := &model.BoundingBox{}
			h.BoundingBox = bb

			return walk(bytesOf(typ, v), func(num protowire.Number, typ protowire.Type, v []byte) error {
				d := model.Degrees(double(typ, v))

				switch num {
				case bboxTop:
					bb.Top = d
				case bboxLeft:
					bb.Left = d
				case bboxBottom:
					bb.Bottom = d
				case bboxRight:
					bb.Right = d
				}

				return nil
			})
		case headerWritingProgram:
			h.WritingProgram = string(bytesOf(typ, v))
		case headerSource:
			h.Source = string(bytesOf(typ, v))
		case headerGenerated:
			h.Generated = unixTime(protowire.DecodeZigZag(varint(typ, v)))
		case headerRunID:
			h.RunID = string(bytesOf(typ, v))
		}

		return nil
	})

	return h, err
}

func marshalSolid(b []byte, s *mesh.Solid) []byte {
	var m []byte
	m = appendString(m, solidName, s.Name)
	m = protowire.AppendTag(m, solidKind, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(s.Kind))
	m = appendPackedDoubles(m, solidOffset, s.Offset.X, s.Offset.Y, s.Offset.Z)

	coords := make([]float64, 0, 3*len(s.Vertices))
	for _, v := range s.Vertices {
		coords = append(coords, v.X, v.Y, v.Z)
	}

	m = appendPackedDoubles(m, solidVertices, coords...)

	for _, f := range s.Faces {
		var idx []byte
		for _, d := range calcDeltas(f) {
			idx = protowire.AppendVarint(idx, protowire.EncodeZigZag(int64(d)))
		}

		var face []byte
		face = protowire.AppendTag(face, faceIndices, protowire.BytesType)
		face = protowire.AppendBytes(face, idx)

		m = protowire.AppendTag(m, solidFace, protowire.BytesType)
		m = protowire.AppendBytes(m, face)
	}

	b = protowire.AppendTag(b, blockSolid, protowire.BytesType)

	return protowire.AppendBytes(b, m)
}

func unmarshalSolid(b []byte) (*mesh.Solid, error) {
	s := &mesh.Solid{}

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case solidName:
			s.Name = string(bytesOf(typ, v))
		case solidKind:
			s.Kind = mesh.Kind(varint(typ, v))
		case solidOffset:
			xyz, err := packedDoubles(typ, v)
			if err != nil {
				return err
			}

			if len(xyz) != 3 {
				return eris.Wrapf(ErrMalformed, "offset of %d doubles", len(xyz))
			}

			s.Offset = r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		case solidVertices:
			coords, err := packedDoubles(typ, v)
			if err != nil {
				return err
			}

			if len(coords)%3 != 0 {
				return eris.Wrapf(ErrMalformed, "%d vertex coordinates", len(coords))
			}

			for i := 0; i < len(coords); i += 3 {
				s.Vertices = append(s.Vertices, r3.Vector{X: coords[i], Y: coords[i+1], Z: coords[i+2]})
			}
		case solidFace:
			face, err := unmarshalFace(bytesOf(typ, v))
			if err != nil {
				return err
			}

			s.Faces = append(s.Faces, face)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func unmarshalFace(b []byte) ([]int, error) {
	var face []int

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != faceIndices {
			return nil
		}

		var (
			packed = bytesOf(typ, v)
			index  int
		)

		for len(packed) > 0 {
			x, n := protowire.ConsumeVarint(packed)
			if n < 0 {
				return eris.Wrap(protowire.ParseError(n), "face index")
			}

			index += int(protowire.DecodeZigZag(x))
			face = append(face, index)
			packed = packed[n:]
		}

		return nil
	})

	return face, err
}

// calcDeltas returns the difference of every element to its predecessor,
// the first being relative to zero.
func calcDeltas[T constraints.Integer | constraints.Float](in []T) []T {
	out := make([]T, len(in))

	var prev T
	for i, v := range in {
		out[i] = v - prev
		prev = v
	}

	return out
}

func unmarshalBlock(b []byte) ([]*mesh.Solid, error) {
	var solids []*mesh.Solid

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != blockSolid {
			return nil
		}

		s, err := unmarshalSolid(bytesOf(typ, v))
		if err != nil {
			return eris.Wrapf(err, "solid %d", len(solids))
		}

		solids = append(solids, s)

		return nil
	})

	return solids, err
}
