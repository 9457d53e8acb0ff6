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

package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"m4o.io/citymesh/internal/logger"
)

func restore(t *testing.T) {
	t.Helper()

	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })
}

func TestInit_Console(t *testing.T) {
	restore(t)

	var buf bytes.Buffer

	require.NoError(t, logger.InitWithFileConfig("warn", "json", logger.FileConfig{}, &buf))

	zap.L().Info("hidden")
	zap.L().Warn("shown", zap.String("run_id", "abc"))
	logger.Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestInit_File(t *testing.T) {
	restore(t)

	p := filepath.Join(t.TempDir(), "citymesh.log")

	cfg := logger.DefaultFileConfig(p)
	cfg.Compress = false

	require.NoError(t, logger.InitWithFileConfig("debug", "console", cfg, nil))

	zap.L().Debug("terrain displaced", zap.Float64("strength", 12.5))
	logger.Sync()

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "terrain displaced")
}

func TestInit_BadLevel(t *testing.T) {
	restore(t)

	var buf bytes.Buffer

	require.NoError(t, logger.InitWithFileConfig("loud", "console", logger.FileConfig{}, &buf))

	zap.L().Debug("hidden")
	zap.L().Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
