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
	"fmt"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/natsutil"
)

// Backend names accepted in Config.Backend.
const (
	BackendBadger   = "badger"
	BackendNATS     = "nats"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string `json:"backend" validate:"omitempty,oneof=badger nats postgres"`
	Path        string `json:"path"`
	InMemory    bool   `json:"in_memory"`
	NatsURL     string `json:"nats_url"`
	Bucket      string `json:"bucket"`
	DatabaseURL string `json:"database_url"`
	// NatsSecurity adds TLS or credentials to the NATS connection.
	NatsSecurity *natsutil.Security `json:"nats_security"`
}

// Open returns the backend named by cfg.Backend; an empty name selects Badger.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (KVStore, error) {
	switch cfg.Backend {
	case BackendBadger, "":
		return NewBadgerStore(cfg.Path, cfg.InMemory)
	case BackendNATS:
		opts, err := natsutil.Options(cfg.NatsSecurity, log)
		if err != nil {
			return nil, err
		}

		return NewNatsStore(ctx, cfg.NatsURL, cfg.Bucket, 0, opts...)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}
}
