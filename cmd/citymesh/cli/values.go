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

package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"m4o.io/citymesh/internal/export"
	"m4o.io/citymesh/model"
)

// -- model.BoundingBox Value
type boundsValue struct {
	value    *model.BoundingBox
	typename string
}

// NewBoundsValue creates a cobra Value object for a bounding box given as
// "bottom,left,top,right".
func NewBoundsValue(def model.BoundingBox, p *model.BoundingBox, typename string) pflag.Value {
	bv := &boundsValue{
		value:    p,
		typename: typename,
	}
	*bv.value = def

	return bv
}

func (b *boundsValue) Set(val string) error {
	bbox, err := model.ParseBoundingBox(val)
	if err != nil {
		return err
	}

	*b.value = bbox

	return nil
}

func (b *boundsValue) Type() string {
	return b.typename
}

func (b *boundsValue) String() string {
	v := b.value
	return fmt.Sprintf("%v,%v,%v,%v", float64(v.Bottom), float64(v.Left), float64(v.Top), float64(v.Right))
}

// -- export.BlobCompression Value
type compressionValue struct {
	value *export.BlobCompression
}

// NewCompressionValue creates a cobra Value object for a blob compression.
func NewCompressionValue(def export.BlobCompression, p *export.BlobCompression) pflag.Value {
	*p = def

	return &compressionValue{value: p}
}

func (c *compressionValue) Set(val string) error {
	v, err := export.ParseCompression(val)
	if err != nil {
		return err
	}

	*c.value = v

	return nil
}

func (c *compressionValue) Type() string {
	return "compression"
}

func (c *compressionValue) String() string {
	return c.value.String()
}
