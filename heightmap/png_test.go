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

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePNG(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))

	f, err := os.Create(filepath.Join(t.TempDir(), "ok.png"))
	require.NoError(t, err)
	require.NoError(t, writePNG(f, img))

	st, err := os.Stat(f.Name())
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	closed, err := os.Create(filepath.Join(t.TempDir(), "closed.png"))
	require.NoError(t, err)
	require.NoError(t, closed.Close())

	assert.Error(t, writePNG(closed, img))
}
