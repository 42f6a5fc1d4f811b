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
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsStore keeps entries in a JetStream key-value bucket so several stations can share one registry.
type NatsStore struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// NewNatsStore connects to natsURL and creates or opens bucket. A positive ttl is applied bucket-wide.
// Without opts the connection is anonymous and unencrypted.
func NewNatsStore(ctx context.Context, natsURL, bucket string, ttl time.Duration, opts ...nats.Option) (*NatsStore, error) {
	if natsURL == "" {
		return nil, errNatsURLRequired
	}

	if bucket == "" {
		return nil, errBucketRequired
	}

	if len(opts) == 0 {
		opts = []nats.Option{nats.Name("punchsync")}
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	config := jetstream.KeyValueConfig{
		Bucket: bucket,
	}

	if ttl > 0 {
		config.TTL = ttl
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, config)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	return &NatsStore{
		nc: nc,
		kv: kv,
	}, nil
}

// natsKey maps a store key onto the JetStream key alphabet. The namespace before the first ':'
// is an internal constant and stays readable; the rest carries device serials and host names
// and is base64url encoded so every key is valid and distinct. Keys without ':' pass through.
func natsKey(key string) string {
	namespace, rest, found := strings.Cut(key, ":")
	if !found {
		return key
	}

	return namespace + "." + base64.RawURLEncoding.EncodeToString([]byte(rest))
}

func (n *NatsStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	entry, err := n.kv.Get(ctx, natsKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *NatsStore) Put(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := n.kv.Put(ctx, natsKey(key), value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) PutMany(ctx context.Context, entries []KeyValueEntry, ttl time.Duration) error {
	for _, entry := range entries {
		if err := n.Put(ctx, entry.Key, entry.Value, ttl); err != nil {
			return err
		}
	}

	return nil
}

func (n *NatsStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Close() error {
	n.nc.Close()

	return nil
}

var _ KVStore = (*NatsStore)(nil)
