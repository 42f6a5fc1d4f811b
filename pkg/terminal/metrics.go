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

package terminal

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName          = "github.com/carverauto/punchsync/pkg/terminal"
	metricMergeTotal   = "punchsync_registry_merge_total"
	metricRegistrySize = "punchsync_registry_terminals"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	mergeCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	sizeGauge metric.Int64Gauge
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(
		metricMergeTotal,
		metric.WithDescription("Observed terminals merged into the registry, by match kind"),
	)
	if err != nil {
		otel.Handle(err)
	}
	mergeCounter = counter

	gauge, err := meter.Int64Gauge(
		metricRegistrySize,
		metric.WithDescription("Terminals currently in the registry"),
	)
	if err != nil {
		otel.Handle(err)
	}
	sizeGauge = gauge
}

func recordMerge(ctx context.Context, kind MatchKind) {
	meterOnce.Do(initMeter)
	if mergeCounter == nil {
		return
	}

	mergeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("match", kind.String())))
}

func recordSize(ctx context.Context, size int) {
	meterOnce.Do(initMeter)
	if sizeGauge == nil {
		return
	}

	sizeGauge.Record(ctx, int64(size))
}
