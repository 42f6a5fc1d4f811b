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

// Package lifecycle wires process-level logging and metrics for punchsync binaries.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/version"
)

// InitializeLogger initializes the global logger. A nil config uses the environment defaults.
func InitializeLogger(ctx context.Context, config *logger.Config) error {
	if config == nil {
		config = logger.DefaultConfig()
	}

	if err := logger.Init(ctx, config); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// CreateComponentLogger creates an injectable logger tagged with a component name.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	zl, err := logger.NewZerolog(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s logger: %w", component, err)
	}

	return logger.Wrap(zl.With().Str("component", component).Logger()), nil
}

// InitializeMetrics starts the OTLP metrics pipeline when the log exporter is configured.
// A disabled exporter is not an error.
func InitializeMetrics(ctx context.Context, config *logger.Config, log logger.Logger) error {
	if config == nil {
		return nil
	}

	_, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    config.OTel.ServiceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &config.OTel,
	})
	if errors.Is(err, logger.ErrOTelMetricsDisabled) {
		log.Debug().Msg("OTel metrics exporter disabled")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Info().Str("endpoint", config.OTel.Endpoint).Msg("OTel metrics exporter started")

	return nil
}

// ShutdownLogger flushes any pending logs and metrics.
func ShutdownLogger() error {
	return logger.Shutdown()
}
