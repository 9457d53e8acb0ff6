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

package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, ttl time.Duration) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	return s
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := open(t, 0)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := bytes.Repeat([]byte(`{"type":"node","id":1}`), 500)
	require.NoError(t, s.Put(ctx, "k", payload))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	require.NoError(t, s.Put(ctx, "k", []byte("replaced")))

	got, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "replaced", string(got))
}

func TestStore_Empty(t *testing.T) {
	ctx := context.Background()
	s := open(t, 0)

	require.NoError(t, s.Put(ctx, "empty", nil))

	got, ok, err := s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := open(t, time.Hour)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "old", []byte("a")))

	now = now.Add(30 * time.Minute)
	require.NoError(t, s.Put(ctx, "new", []byte("b")))

	_, ok, err := s.Get(ctx, "old")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(45 * time.Minute)

	_, ok, err = s.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = s.Get(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(ctx, path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, 0)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", string(got))
}
