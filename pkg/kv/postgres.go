/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createKVTable = `CREATE TABLE IF NOT EXISTS punchsync_kv (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    expires_at TIMESTAMPTZ
)`

	selectKV = `SELECT value FROM punchsync_kv
WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	upsertKV = `INSERT INTO punchsync_kv (key, value, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	deleteKV = `DELETE FROM punchsync_kv WHERE key = $1`
)

// PostgresStore keeps entries in a single table, for sites that already run Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the backing table if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createKVTable); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := p.pool.QueryRow(ctx, selectKV, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if _, err := p.pool.Exec(ctx, upsertKV, key, value, expiresAt(ttl)); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

// PutMany upserts all entries in one batch.
func (p *PostgresStore) PutMany(ctx context.Context, entries []KeyValueEntry, ttl time.Duration) error {
	batch := &pgx.Batch{}
	expiry := expiresAt(ttl)

	for _, entry := range entries {
		batch.Queue(upsertKV, entry.Key, entry.Value, expiry)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to put %d entries: %w", len(entries), err)
	}

	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, deleteKV, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()

	return nil
}

func expiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}

	t := time.Now().Add(ttl)

	return &t
}

var _ KVStore = (*PostgresStore)(nil)
