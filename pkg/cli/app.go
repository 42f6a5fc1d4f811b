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

package cli

import (
	"context"
	"fmt"

	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/kv"
	"github.com/carverauto/punchsync/pkg/lifecycle"
	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/natsutil"
	"github.com/carverauto/punchsync/pkg/scan"
	"github.com/carverauto/punchsync/pkg/store"
	"github.com/carverauto/punchsync/pkg/sync"
	"github.com/carverauto/punchsync/pkg/zk"
)

// App is a wired sync service and the store it owns.
type App struct {
	Service   *sync.Service
	store     *store.Store
	publisher *natsutil.EventPublisher
	logger    logger.Logger
}

// NewApp opens the configured store and wires the terminal client, sweeper and remote endpoint.
func NewApp(ctx context.Context, cfg *AppConfig, log logger.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backend, err := kv.Open(ctx, &cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	app := &App{store: store.New(backend, log), logger: log}

	deps := sync.Dependencies{
		Store:      app.store,
		Source:     zk.NewSource(cfg.deviceOptions(loc), log),
		Discoverer: scan.NewTCPSweeper(cfg.sweepConfig(), log),
		Endpoint:   erp.NewClient(cfg.erpConfig(), log),
	}

	if cfg.Events.NatsURL != "" {
		app.publisher, err = natsutil.NewEventPublisher(ctx, cfg.Events.NatsURL, cfg.Events.Stream, cfg.Events.Security, log)
		if err != nil {
			_ = app.Close()

			return nil, err
		}

		deps.Notifier = app.publisher
	}

	app.Service, err = sync.NewService(ctx, deps, cfg.syncConfig(loc), log)
	if err != nil {
		_ = app.Close()

		return nil, err
	}

	return app, nil
}

// Close drains the event publisher and releases the store.
func (a *App) Close() error {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to drain event publisher")
		}
	}

	return a.store.Close()
}

func newLogger(ctx context.Context, cfg *AppConfig) (logger.Logger, error) {
	log, err := lifecycle.CreateComponentLogger(ctx, "punchsync", cfg.Logging)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.InitializeMetrics(ctx, cfg.Logging, log); err != nil {
		log.Warn().Err(err).Msg("Continuing without metrics export")
	}

	return log, nil
}
