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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/carverauto/punchsync/pkg/kv KVStore

// Package kv provides the key-value backends punchsync persists terminals and event history in.
package kv

import (
	"context"
	"time"
)

// KVStore is a byte-oriented key-value store.
type KVStore interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key. A zero ttl keeps the value until it is deleted;
	// backends without per-key expiry ignore ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// PutMany stores several entries. The ttl applies to all of them.
	PutMany(ctx context.Context, entries []KeyValueEntry, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// KeyValueEntry is one entry of a PutMany batch.
type KeyValueEntry struct {
	Key   string
	Value []byte
}
