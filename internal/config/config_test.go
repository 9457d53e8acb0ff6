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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/citymesh/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 40*time.Second, cfg.Network.Timeout)
	assert.Equal(t, "map", cfg.Terrain.Name)
	assert.Equal(t, 4.0, cfg.Terrain.Spacing)
	assert.Equal(t, 0.2, cfg.Generation.MaxExtent)
	assert.Equal(t, 4.0, cfg.Generation.HeightPerLevel)
	assert.Equal(t, "zstd", cfg.Export.Compression)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Cache.Path)
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
terrain:
  name: zagreb
  scale: 1.5
network:
  timeout: 10s
generation:
  seed: 42
`), 0o600))

	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, "zagreb", cfg.Terrain.Name)
	assert.Equal(t, 1.5, cfg.Terrain.Scale)
	assert.Equal(t, 10*time.Second, cfg.Network.Timeout)
	assert.Equal(t, uint64(42), cfg.Generation.Seed)
	assert.Equal(t, 4.0, cfg.Terrain.Spacing)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CITYMESH_LOG_LEVEL", "debug")
	t.Setenv("CITYMESH_OVERPASS_RATE_PER_MINUTE", "3")

	p := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log:\n  format: json\n"), 0o600))

	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Overpass.RatePerMinute)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveTo(t *testing.T) {
	p := filepath.Join(t.TempDir(), config.FileName)

	cfg := config.Default()
	cfg.Terrain.Name = "zagreb"
	cfg.Network.Timeout = 15 * time.Second

	require.NoError(t, cfg.SaveTo(p, false))

	err := cfg.SaveTo(p, false)
	assert.True(t, eris.Is(err, config.ErrExists), "got %v", err)

	require.NoError(t, cfg.SaveTo(p, true))

	loaded, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
