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

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is the default single-station backend, an embedded Badger database on local disk.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at path. inMemory skips the disk entirely.
func NewBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	if path == "" && !inMemory {
		return nil, errPathRequired
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (b *BadgerStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.PutMany(ctx, []KeyValueEntry{{Key: key, Value: value}}, ttl)
}

// PutMany writes all entries in one transaction.
func (b *BadgerStore) PutMany(_ context.Context, entries []KeyValueEntry, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			e := badger.NewEntry([]byte(entry.Key), entry.Value)
			if ttl > 0 {
				e = e.WithTTL(ttl)
			}

			if err := txn.SetEntry(e); err != nil {
				return fmt.Errorf("set %s: %w", entry.Key, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put entries: %w", err)
	}

	return nil
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

var _ KVStore = (*BadgerStore)(nil)
