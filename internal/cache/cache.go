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

// Package cache keeps fetched payloads in a local SQLite database so that
// repeated generations of the same area do not hit remote services.
package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const migration = `
CREATE TABLE IF NOT EXISTS responses (
	key       TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	size      INTEGER NOT NULL,
	stored_at INTEGER NOT NULL
);
`

// Store is a key/value store of zstd compressed payloads. Entries older
// than the store's TTL are treated as missing.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// Open opens or creates the cache database at path. A zero ttl keeps
// entries forever.
func Open(ctx context.Context, path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		migration,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: exec %s", stmt)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "cache: zstd encoder")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "cache: zstd decoder")
	}

	return &Store{db: db, ttl: ttl, enc: enc, dec: dec, now: time.Now}, nil
}

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload  []byte
		size     int
		storedAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT payload, size, stored_at FROM responses WHERE key = ?`, key,
	).Scan(&payload, &size, &storedAt)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s", key)
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(0, storedAt)) > s.ttl {
		return nil, false, nil
	}

	if size == 0 {
		return []byte{}, true, nil
	}

	data, err := s.dec.DecodeAll(payload, make([]byte, 0, size))
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: decompress %s", key)
	}

	return data, true, nil
}

// Put stores value under key, replacing any previous payload.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	payload := s.enc.EncodeAll(value, []byte{})

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (key, payload, size, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, size = excluded.size, stored_at = excluded.stored_at`,
		key, payload, len(value), s.now().UnixNano(),
	)
	if err != nil {
		return eris.Wrapf(err, "cache: put %s", key)
	}

	zap.L().Debug("cached",
		zap.String("key", key),
		zap.Int("bytes", len(value)),
		zap.Int("compressed", len(payload)))

	return nil
}

// Prune deletes the entries older than the TTL and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE stored_at < ?`, s.now().Add(-s.ttl).UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "cache: prune")
	}

	return res.RowsAffected()
}

// Close releases the database.
func (s *Store) Close() error {
	s.dec.Close()

	if err := s.enc.Close(); err != nil {
		return eris.Wrap(err, "cache: close encoder")
	}

	return s.db.Close()
}
