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

package sync

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName           = "github.com/carverauto/punchsync/pkg/sync"
	metricFetchTotal    = "punchsync_terminal_fetch_total"
	metricFetchDuration = "punchsync_terminal_fetch_duration_seconds"
	metricEventsTotal   = "punchsync_events_fetched_total"
	metricPushRecords   = "punchsync_push_records_total"
	metricPushFailures  = "punchsync_push_failures_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	fetchCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	fetchHistogram metric.Float64Histogram
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	eventsCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	pushCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	pushFailureCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if fetchCounter, err = meter.Int64Counter(
		metricFetchTotal,
		metric.WithDescription("Terminal fetch attempts by outcome"),
	); err != nil {
		otel.Handle(err)
	}

	if fetchHistogram, err = meter.Float64Histogram(
		metricFetchDuration,
		metric.WithDescription("Duration of terminal fetches"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}

	if eventsCounter, err = meter.Int64Counter(
		metricEventsTotal,
		metric.WithDescription("Raw punch events read from terminals"),
	); err != nil {
		otel.Handle(err)
	}

	if pushCounter, err = meter.Int64Counter(
		metricPushRecords,
		metric.WithDescription("Attendance records reported by the remote endpoint, by result"),
	); err != nil {
		otel.Handle(err)
	}

	if pushFailureCounter, err = meter.Int64Counter(
		metricPushFailures,
		metric.WithDescription("Attendance pushes that failed as a whole"),
	); err != nil {
		otel.Handle(err)
	}
}

func recordFetch(ctx context.Context, outcome string, duration time.Duration, events int) {
	meterOnce.Do(initMeter)

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	if fetchCounter != nil {
		fetchCounter.Add(ctx, 1, attrs)
	}

	if fetchHistogram != nil {
		fetchHistogram.Record(ctx, duration.Seconds(), attrs)
	}

	if eventsCounter != nil && events > 0 {
		eventsCounter.Add(ctx, int64(events))
	}
}

func recordPushOutcome(ctx context.Context, accepted, skipped, failed int) {
	meterOnce.Do(initMeter)
	if pushCounter == nil {
		return
	}

	for result, n := range map[string]int{"accepted": accepted, "skipped": skipped, "failed": failed} {
		if n > 0 {
			pushCounter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("result", result)))
		}
	}
}

func recordPushFailure(ctx context.Context, reason string) {
	meterOnce.Do(initMeter)
	if pushFailureCounter == nil {
		return
	}

	pushFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
