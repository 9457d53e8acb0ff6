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

package heightmap

import "os"

// Option configures Prepare.
type Option func(*options)

type options struct {
	name    string
	workDir string
}

var defaultConfig = options{
	name:    DefaultName,
	workDir: os.TempDir(),
}

// WithName sets the map name the archive files are prefixed with.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithWorkDir sets the directory the resized height map is written to.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.workDir = dir
		}
	}
}
