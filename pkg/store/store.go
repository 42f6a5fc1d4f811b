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

// Package store persists the terminal registry and per-terminal event history on top of a kv.KVStore.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"

	"github.com/carverauto/punchsync/pkg/kv"
	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

var (
	// ErrUnavailable wraps every backend failure.
	ErrUnavailable = errors.New("store unavailable")
	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("stored record is corrupt")
)

const (
	registryKey     = "terminals"
	eventsKeyPrefix = "events:"
)

// Store is the typed view over the key-value backend.
type Store struct {
	kv     kv.KVStore
	logger logger.Logger
}

func New(backend kv.KVStore, log logger.Logger) *Store {
	return &Store{
		kv:     backend,
		logger: log,
	}
}

// EventsKey is the backend key holding the history of the terminal with the given identity key.
func EventsKey(identityKey string) string {
	return eventsKeyPrefix + identityKey
}

// LoadRegistry returns the saved registry, or an empty snapshot on first run.
func (s *Store) LoadRegistry(ctx context.Context) (models.RegistrySnapshot, error) {
	var snapshot models.RegistrySnapshot

	found, err := s.getJSON(ctx, registryKey, &snapshot)
	if err != nil {
		return models.RegistrySnapshot{}, err
	}

	if !found {
		s.logger.Debug().Msg("No saved registry, starting empty")
	}

	return snapshot, nil
}

// SaveRegistry replaces the saved registry.
func (s *Store) SaveRegistry(ctx context.Context, snapshot models.RegistrySnapshot) error {
	return s.putJSON(ctx, registryKey, snapshot)
}

// SaveRegistryWithEvents writes the registry together with the given histories, keyed by
// identity key, in one backend batch.
func (s *Store) SaveRegistryWithEvents(
	ctx context.Context, snapshot models.RegistrySnapshot, events map[string][]models.RawEvent) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", registryKey, err)
	}

	entries := make([]kv.KeyValueEntry, 0, len(events)+1)
	entries = append(entries, kv.KeyValueEntry{Key: registryKey, Value: data})

	for _, identityKey := range slices.Sorted(maps.Keys(events)) {
		history := events[identityKey]
		if history == nil {
			history = []models.RawEvent{}
		}

		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", EventsKey(identityKey), err)
		}

		entries = append(entries, kv.KeyValueEntry{Key: EventsKey(identityKey), Value: data})
	}

	if err := s.kv.PutMany(ctx, entries, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.logger.Debug().
		Int("terminals", len(snapshot.Terminals)).
		Int("histories", len(events)).
		Msg("Saved registry with event history")

	return nil
}

// LoadEvents returns the cached history of one terminal. A terminal never fetched has no history.
func (s *Store) LoadEvents(ctx context.Context, identityKey string) ([]models.RawEvent, error) {
	var events []models.RawEvent

	if _, err := s.getJSON(ctx, EventsKey(identityKey), &events); err != nil {
		return nil, err
	}

	return events, nil
}

// SaveEvents replaces the cached history of one terminal.
func (s *Store) SaveEvents(ctx context.Context, identityKey string, events []models.RawEvent) error {
	if events == nil {
		events = []models.RawEvent{}
	}

	if err := s.putJSON(ctx, EventsKey(identityKey), events); err != nil {
		return err
	}

	s.logger.Debug().
		Str("terminal", identityKey).
		Int("events", len(events)).
		Msg("Saved event history")

	return nil
}

// DeleteEvents drops the cached history of one terminal.
func (s *Store) DeleteEvents(ctx context.Context, identityKey string) error {
	if err := s.kv.Delete(ctx, EventsKey(identityKey)); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !found {
		return false, nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}

	return true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := s.kv.Put(ctx, key, data, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}
