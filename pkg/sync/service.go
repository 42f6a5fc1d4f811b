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

// Package sync drives terminal fetches, event persistence, reconciliation and
// pushes to the remote attendance endpoint.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/punchsync/pkg/attendance"
	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
	"github.com/carverauto/punchsync/pkg/terminal"
)

// DefaultFetchTimeout bounds a single terminal fetch.
const DefaultFetchTimeout = 2 * time.Minute

const (
	outcomeOK          = "ok"
	outcomeUnreachable = "unreachable"
)

// Dependencies are the collaborators a Service drives. Discoverer, Endpoint and Notifier are optional.
type Dependencies struct {
	Store      Store
	Source     EventSource
	Discoverer Discoverer
	Endpoint   Endpoint
	Notifier   Notifier
}

// Config tunes a Service.
type Config struct {
	FetchTimeout time.Duration
	Reconciler   *attendance.Reconciler
	Clock        attendance.Clock
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service owns the terminal registry and runs syncs against it.
type Service struct {
	store      Store
	source     EventSource
	discoverer Discoverer
	endpoint   Endpoint
	notifier   Notifier

	registry     *terminal.Registry
	reconciler   *attendance.Reconciler
	clock        attendance.Clock
	fetchTimeout time.Duration

	running sync.Mutex
	logger  logger.Logger
}

// NewService loads the persisted registry and returns a ready Service.
func NewService(ctx context.Context, deps Dependencies, cfg *Config, log logger.Logger) (*Service, error) {
	if deps.Store == nil || deps.Source == nil {
		return nil, ErrMissingDependency
	}

	if cfg == nil {
		cfg = &Config{}
	}

	snapshot, err := deps.Store.LoadRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s := &Service{
		store:        deps.Store,
		source:       deps.Source,
		discoverer:   deps.Discoverer,
		endpoint:     deps.Endpoint,
		notifier:     deps.Notifier,
		registry:     terminal.NewRegistry(snapshot, log),
		reconciler:   cfg.Reconciler,
		clock:        cfg.Clock,
		fetchTimeout: cfg.FetchTimeout,
		logger:       log,
	}

	if s.clock == nil {
		s.clock = systemClock{}
	}

	if s.reconciler == nil {
		s.reconciler = attendance.NewReconciler(attendance.WithClock(s.clock))
	}

	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}

	log.Info().
		Int("terminals", len(snapshot.Terminals)).
		Int("selected", len(snapshot.Selected)).
		Msg("Loaded terminal registry")

	return s, nil
}

// Registry exposes the live registry for read access.
func (s *Service) Registry() *terminal.Registry {
	return s.registry
}

// Terminals lists every registered terminal.
func (s *Service) Terminals() []models.Terminal {
	return s.registry.List()
}

// SyncTerminals fetches each referenced terminal in turn, persists what it returned and
// reconciles everything fetched into daily summaries. No refs means the current selection.
// Unreachable terminals are reported in the result and do not stop the run. When ctx is
// cancelled the run stops before the next terminal and returns what it has so far.
func (s *Service) SyncTerminals(ctx context.Context, refs []string) (*models.SyncResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	keys, err := s.targets(refs)
	if err != nil {
		return nil, err
	}

	result := &models.SyncResult{RunID: uuid.NewString()}
	runLog := s.logger.With().Str("run_id", result.RunID).Logger()

	runLog.Info().Int("terminals", len(keys)).Msg("Starting sync")

	// Persistence and fetches must complete even when the caller gives up mid-terminal.
	bg := context.WithoutCancel(ctx)

	var cancelled error

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			cancelled = err

			runLog.Warn().Err(err).Msg("Sync cancelled, stopping before next terminal")

			break
		}

		events, err := s.syncOne(bg, key, result)
		if err != nil {
			return nil, err
		}

		result.Events = append(result.Events, events...)
	}

	if err := s.saveRegistry(bg); err != nil {
		return nil, err
	}

	s.reconcile(result)

	runLog.Info().
		Int("events", len(result.Events)).
		Int("summaries", len(result.Summaries)).
		Int("failed_terminals", len(result.TerminalErrors)).
		Int("warnings", len(result.Warnings)).
		Msg("Sync finished")

	if s.notifier != nil {
		if err := s.notifier.SyncCompleted(bg, result); err != nil {
			runLog.Warn().Err(err).Msg("Failed to publish sync event")
		}
	}

	if cancelled != nil {
		return result, fmt.Errorf("sync cancelled: %w", cancelled)
	}

	return result, nil
}

// syncOne fetches one terminal. Only store failures are returned; fetch failures land in result.
func (s *Service) syncOne(ctx context.Context, key string, result *models.SyncResult) ([]models.RawEvent, error) {
	t, ok := s.registry.Get(key)
	if !ok {
		// A collapse earlier in the run may have folded this entry into another one.
		result.Warnings = append(result.Warnings, fmt.Sprintf("terminal %s is no longer registered", key))

		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	start := time.Now()

	desc, events, err := s.source.FetchEvents(fetchCtx, t.Address, t.SyncPort())
	if err != nil {
		recordFetch(ctx, outcomeUnreachable, time.Since(start), 0)

		s.logger.Warn().
			Err(err).
			Str("terminal", key).
			Str("address", t.Address).
			Msg("Failed to fetch terminal")

		result.TerminalErrors = append(result.TerminalErrors, models.TerminalError{
			Terminal: t.Name(),
			Address:  t.Address,
			Err:      fmt.Errorf("%w: %w", ErrTerminalUnreachable, err),
		})

		return nil, nil
	}

	recordFetch(ctx, outcomeOK, time.Since(start), len(events))

	newKey, err := s.registry.LearnIdentity(ctx, key, desc, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveEvents(ctx, newKey, events); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if newKey != key {
		if _, stillRegistered := s.registry.Get(key); !stillRegistered {
			if err := s.store.DeleteEvents(ctx, key); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
			}
		}
	}

	s.logger.Info().
		Str("terminal", newKey).
		Str("address", t.Address).
		Int("events", len(events)).
		Msg("Fetched terminal")

	return events, nil
}

// Summaries reconciles the persisted history of the referenced terminals without contacting them.
func (s *Service) Summaries(ctx context.Context, refs []string) (*models.SyncResult, error) {
	keys, err := s.targets(refs)
	if err != nil {
		return nil, err
	}

	result := &models.SyncResult{RunID: uuid.NewString()}

	for _, key := range keys {
		events, err := s.store.LoadEvents(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		if len(events) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("no stored history for terminal %s", key))

			continue
		}

		result.Events = append(result.Events, events...)
	}

	s.reconcile(result)

	return result, nil
}

func (s *Service) reconcile(result *models.SyncResult) {
	summaries, malformed := s.reconciler.Reconcile(result.Events)
	result.Summaries = summaries

	for _, err := range malformed {
		result.Warnings = append(result.Warnings, err.Error())
	}

	if len(malformed) > 0 {
		s.logger.Warn().Int("dropped", len(malformed)).Msg("Dropped malformed events")
	}
}

// Push sends the summaries to the remote endpoint as one batch and returns its per-record counts.
func (s *Service) Push(ctx context.Context, summaries []models.DailySummary) (*models.SyncOutcome, error) {
	if s.endpoint == nil {
		return nil, ErrEndpointNotConfigured
	}

	records := erp.RecordsFromSummaries(summaries)

	outcome, err := s.endpoint.PushAttendance(ctx, records)
	if err != nil {
		reason := "transport"
		if errors.Is(err, erp.ErrInvalidCredential) {
			reason = "credential"
		}

		recordPushFailure(ctx, reason)

		return nil, fmt.Errorf("push attendance: %w", err)
	}

	recordPushOutcome(ctx, outcome.Accepted, outcome.Skipped, outcome.Failed)

	s.logger.Info().
		Int("records", len(records)).
		Int("accepted", outcome.Accepted).
		Int("skipped", outcome.Skipped).
		Int("failed", outcome.Failed).
		Msg("Pushed attendance")

	if s.notifier != nil {
		if err := s.notifier.PushCompleted(context.WithoutCancel(ctx), outcome); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish push event")
		}
	}

	return outcome, nil
}

// TestConnection checks the configured credential without sending attendance.
func (s *Service) TestConnection(ctx context.Context) (*erp.CredentialInfo, error) {
	if s.endpoint == nil {
		return nil, ErrEndpointNotConfigured
	}

	return s.endpoint.VerifyCredential(ctx)
}

// Discover sweeps the network and merges what it found into the registry. A cancelled
// sweep leaves the registry untouched.
func (s *Service) Discover(ctx context.Context) (*terminal.MergeReport, error) {
	if s.discoverer == nil {
		return nil, ErrDiscoveryNotConfigured
	}

	found, err := s.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover terminals: %w", err)
	}

	report := s.registry.Merge(ctx, found)

	if err := s.persistMerge(context.WithoutCancel(ctx), report.Rekeyed); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("found", len(found)).
		Int("inserted", report.Inserted).
		Int("merged_by_serial", report.MergedBySerial).
		Int("merged_by_address", report.MergedByAddress).
		Msg("Discovery merged")

	return &report, nil
}

// persistMerge saves the registry and the history moved to rekeyed terminals in one batch,
// then drops the histories left under the old keys.
func (s *Service) persistMerge(ctx context.Context, rekeyed map[string]string) error {
	moved := make(map[string][]models.RawEvent, len(rekeyed))

	for oldKey, newKey := range rekeyed {
		events, err := s.store.LoadEvents(ctx, oldKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		if len(events) > 0 {
			moved[newKey] = append(moved[newKey], events...)
		}
	}

	if err := s.store.SaveRegistryWithEvents(ctx, s.registry.Snapshot(), moved); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	for oldKey := range rekeyed {
		if _, reused := moved[oldKey]; reused {
			continue
		}

		if err := s.store.DeleteEvents(ctx, oldKey); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	return nil
}

// AddTerminal registers a terminal by address.
func (s *Service) AddTerminal(ctx context.Context, address string) (models.Terminal, error) {
	t, err := s.registry.AddManual(ctx, address)
	if err != nil {
		return models.Terminal{}, err
	}

	return t, s.saveRegistry(ctx)
}

// RemoveTerminal unregisters a terminal and drops its stored history.
func (s *Service) RemoveTerminal(ctx context.Context, ref string) error {
	key, err := s.registry.Resolve(ref)
	if err != nil {
		return err
	}

	if err := s.registry.Remove(ctx, key); err != nil {
		return err
	}

	if err := s.store.DeleteEvents(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return s.saveRegistry(ctx)
}

// RenameTerminal sets or clears the operator-assigned name.
func (s *Service) RenameTerminal(ctx context.Context, ref, name string) error {
	key, err := s.registry.Resolve(ref)
	if err != nil {
		return err
	}

	if err := s.registry.Rename(key, name); err != nil {
		return err
	}

	return s.saveRegistry(ctx)
}

// SelectTerminals adds terminals to the default sync set.
func (s *Service) SelectTerminals(ctx context.Context, refs ...string) error {
	keys, err := s.resolveAll(refs)
	if err != nil {
		return err
	}

	if err := s.registry.Select(keys...); err != nil {
		return err
	}

	return s.saveRegistry(ctx)
}

// DeselectTerminals removes terminals from the default sync set.
func (s *Service) DeselectTerminals(ctx context.Context, refs ...string) error {
	keys, err := s.resolveAll(refs)
	if err != nil {
		return err
	}

	s.registry.Deselect(keys...)

	return s.saveRegistry(ctx)
}

func (s *Service) targets(refs []string) ([]string, error) {
	if len(refs) == 0 {
		keys := s.registry.Selected()
		if len(keys) == 0 {
			return nil, ErrNoTerminalsSelected
		}

		return keys, nil
	}

	return s.resolveAll(refs)
}

func (s *Service) resolveAll(refs []string) ([]string, error) {
	keys := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		key, err := s.registry.Resolve(ref)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	return keys, nil
}

func (s *Service) saveRegistry(ctx context.Context) error {
	if err := s.store.SaveRegistry(ctx, s.registry.Snapshot()); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return nil
}
