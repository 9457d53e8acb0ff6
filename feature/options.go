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

package feature

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	heights  HeightSource
	seed     uint64
	perLevel float64
}

var defaultResolverConfig = resolverOptions{
	perLevel: HeightPerLevel,
}

// WithHeightSource sets the source of fallback heights. It takes precedence
// over WithSeed.
func WithHeightSource(src HeightSource) ResolverOption {
	return func(o *resolverOptions) {
		o.heights = src
	}
}

// WithSeed seeds the default fallback height source.
func WithSeed(seed uint64) ResolverOption {
	return func(o *resolverOptions) {
		o.seed = seed
	}
}

// WithHeightPerLevel sets the storey height used to convert level counts.
func WithHeightPerLevel(h float64) ResolverOption {
	return func(o *resolverOptions) {
		if h > 0 {
			o.perLevel = h
		}
	}
}
