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

package natsutil

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

const (
	// DefaultEventStream is the JetStream stream sync events are published to.
	DefaultEventStream = "PUNCHSYNC_EVENTS"

	subjectPrefix      = "punchsync.events."
	subjectSyncDone    = subjectPrefix + "sync.completed"
	subjectPushDone    = subjectPrefix + "push.completed"
	eventSource        = "punchsync/sync"
	eventTypeSyncDone  = "org.alagappa.punchsync.sync.completed"
	eventTypePushDone  = "org.alagappa.punchsync.push.completed"
	cloudEventsVersion = "1.0"
)

// CloudEvent is the CloudEvents 1.0 envelope used for published events.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	Subject         string      `json:"subject"`
	DataContentType string      `json:"datacontenttype"`
	Time            time.Time   `json:"time"`
	Data            interface{} `json:"data"`
}

// SyncCompletedData is the payload of a sync.completed event.
type SyncCompletedData struct {
	RunID           string   `json:"run_id"`
	Events          int      `json:"events"`
	Summaries       int      `json:"summaries"`
	FailedTerminals []string `json:"failed_terminals,omitempty"`
	Warnings        int      `json:"warnings"`
}

// PushCompletedData is the payload of a push.completed event.
type PushCompletedData struct {
	Accepted int      `json:"accepted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// EventPublisher publishes sync and push results as CloudEvents to JetStream.
type EventPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	now    func() time.Time
	logger logger.Logger
}

// NewEventPublisher connects to natsURL and makes sure the event stream exists.
func NewEventPublisher(ctx context.Context, natsURL, stream string, sec *Security, log logger.Logger) (*EventPublisher, error) {
	if stream == "" {
		stream = DefaultEventStream
	}

	nc, err := Connect(natsURL, sec, log)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{subjectPrefix + ">"},
	}); err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create or get stream %s: %w", stream, err)
	}

	return &EventPublisher{nc: nc, js: js, stream: stream, now: time.Now, logger: log}, nil
}

// SyncCompleted publishes the outcome of a sync run.
func (p *EventPublisher) SyncCompleted(ctx context.Context, result *models.SyncResult) error {
	data := SyncCompletedData{
		RunID:     result.RunID,
		Events:    len(result.Events),
		Summaries: len(result.Summaries),
		Warnings:  len(result.Warnings),
	}

	for i := range result.TerminalErrors {
		data.FailedTerminals = append(data.FailedTerminals, result.TerminalErrors[i].Address)
	}

	return p.publish(ctx, subjectSyncDone, eventTypeSyncDone, data)
}

// PushCompleted publishes what the remote endpoint did with a batch.
func (p *EventPublisher) PushCompleted(ctx context.Context, outcome *models.SyncOutcome) error {
	return p.publish(ctx, subjectPushDone, eventTypePushDone, PushCompletedData{
		Accepted: outcome.Accepted,
		Skipped:  outcome.Skipped,
		Failed:   outcome.Failed,
		Errors:   outcome.Errors,
	})
}

func (p *EventPublisher) publish(ctx context.Context, subject, eventType string, data interface{}) error {
	event := CloudEvent{
		SpecVersion:     cloudEventsVersion,
		ID:              uuid.NewString(),
		Source:          eventSource,
		Type:            eventType,
		Subject:         subject,
		DataContentType: "application/json",
		Time:            p.now().UTC(),
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// Close drains the connection.
func (p *EventPublisher) Close() error {
	return p.nc.Drain()
}
