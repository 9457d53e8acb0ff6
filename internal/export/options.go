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

// DefaultSolidLimit is the number of solids stored in one data blob.
const DefaultSolidLimit = 256

// encoderOptions provides optional configuration parameters for Encoder
// construction.
type encoderOptions struct {
	compression BlobCompression
	limit       int
}

// EncoderOption configures how we set up the encoder.
type EncoderOption func(*encoderOptions)

// WithCompression specifies the compression algorithm to use when encoding
// blobs. The default is ZSTD.
func WithCompression(compression BlobCompression) EncoderOption {
	return func(o *encoderOptions) {
		o.compression = compression
	}
}

// WithSolidLimit sets how many solids a data blob holds at most.
func WithSolidLimit(n int) EncoderOption {
	return func(o *encoderOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

// defaultEncoderConfig provides a default configuration for encoders.
var defaultEncoderConfig = encoderOptions{
	compression: DefaultBlobCompression,
	limit:       DefaultSolidLimit,
}
