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

// Package terminal keeps the registry of known attendance terminals and resolves their identity
// across changing network addresses.
package terminal

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

// MatchKind says how an observed terminal was resolved against the registry.
type MatchKind int

const (
	// Unmatched observations are inserted as new terminals.
	Unmatched MatchKind = iota
	// MatchedBySerial means an entry with the same serial exists.
	MatchedBySerial
	// MatchedByAddress means a serial-less entry has the same address.
	MatchedByAddress
)

func (k MatchKind) String() string {
	switch k {
	case Unmatched:
		return "unmatched"
	case MatchedBySerial:
		return "serial"
	case MatchedByAddress:
		return "address"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// MergeReport summarizes a Merge call.
type MergeReport struct {
	Inserted        int `json:"inserted"`
	MergedBySerial  int `json:"merged_by_serial"`
	MergedByAddress int `json:"merged_by_address"`
	// Rekeyed maps identity keys that changed during the merge (a serial was learned) to their new key.
	Rekeyed map[string]string `json:"rekeyed,omitempty"`
}

// Registry is the set of known terminals. It holds at most one terminal per identity key.
type Registry struct {
	mu        sync.RWMutex
	terminals []models.Terminal
	selected  map[string]struct{}
	logger    logger.Logger
}

// NewRegistry rebuilds a registry from a snapshot. Selections of unknown keys are dropped.
func NewRegistry(snapshot models.RegistrySnapshot, log logger.Logger) *Registry {
	r := &Registry{
		terminals: make([]models.Terminal, 0, len(snapshot.Terminals)),
		selected:  make(map[string]struct{}, len(snapshot.Selected)),
		logger:    log,
	}

	for i := range snapshot.Terminals {
		r.terminals = append(r.terminals, snapshot.Terminals[i].Clone())
	}

	for _, key := range snapshot.Selected {
		if r.indexOf(key) >= 0 {
			r.selected[key] = struct{}{}
		}
	}

	return r
}

// Snapshot returns a copy of the registry suitable for persisting.
func (r *Registry) Snapshot() models.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return models.RegistrySnapshot{
		Terminals: r.cloneAll(),
		Selected:  r.selectedKeys(),
	}
}

// List returns every terminal in insertion order.
func (r *Registry) List() []models.Terminal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cloneAll()
}

// Get returns the terminal with the given identity key.
func (r *Registry) Get(key string) (models.Terminal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(key)
	if i < 0 {
		return models.Terminal{}, false
	}

	return r.terminals[i].Clone(), true
}

// Len is the number of terminals in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.terminals)
}

// Match reports how observed would be resolved, without changing the registry.
func (r *Registry) Match(observed *models.Terminal) MatchKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, _ := r.match(observed)

	return kind
}

// match applies the identity rule: serial first, then address against serial-less entries only.
func (r *Registry) match(observed *models.Terminal) (MatchKind, int) {
	if observed.Serial != "" {
		for i := range r.terminals {
			if r.terminals[i].Serial == observed.Serial {
				return MatchedBySerial, i
			}
		}
	}

	for i := range r.terminals {
		if r.terminals[i].Serial == "" && r.terminals[i].Address == observed.Address {
			return MatchedByAddress, i
		}
	}

	return Unmatched, -1
}

// Merge folds freshly observed terminals into the registry.
func (r *Registry) Merge(ctx context.Context, observed []models.Terminal) MergeReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := MergeReport{Rekeyed: make(map[string]string)}

	for i := range observed {
		obs := &observed[i]

		kind, idx := r.match(obs)
		recordMerge(ctx, kind)

		switch kind {
		case MatchedBySerial, MatchedByAddress:
			oldKey := r.terminals[idx].IdentityKey()
			mergeInto(&r.terminals[idx], obs)

			if newKey := r.terminals[idx].IdentityKey(); newKey != oldKey {
				r.rekeySelection(oldKey, newKey)
				report.Rekeyed[oldKey] = newKey
			}

			if kind == MatchedBySerial {
				report.MergedBySerial++
			} else {
				report.MergedByAddress++
			}
		case Unmatched:
			r.terminals = append(r.terminals, obs.Clone())
			report.Inserted++
		}

		r.logger.Debug().
			Str("address", obs.Address).
			Str("serial", obs.Serial).
			Str("match", kind.String()).
			Msg("Merged observed terminal")
	}

	recordSize(ctx, len(r.terminals))

	return report
}

// mergeInto updates the volatile address, fills empty descriptive fields and
// leaves the operator-owned custom name and last sync time alone.
func mergeInto(existing *models.Terminal, observed *models.Terminal) {
	if observed.Address != "" {
		existing.Address = observed.Address
	}

	if existing.DisplayName == "" {
		existing.DisplayName = observed.DisplayName
	}

	if existing.FirmwareVersion == "" {
		existing.FirmwareVersion = observed.FirmwareVersion
	}

	if existing.Serial == "" {
		existing.Serial = observed.Serial
	}

	if !existing.HasHardwareAddress() && observed.HardwareAddress != "" {
		existing.HardwareAddress = observed.HardwareAddress
	}

	if len(observed.OpenPorts) > 0 {
		existing.OpenPorts = append([]int(nil), observed.OpenPorts...)
	}
}

// AddManual registers a terminal typed in by an operator.
func (r *Registry) AddManual(ctx context.Context, address string) (models.Terminal, error) {
	address = strings.TrimSpace(address)
	if !validAddress(address) {
		return models.Terminal{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.terminals {
		if r.terminals[i].Address == address {
			return models.Terminal{}, fmt.Errorf("%w: %s", ErrDuplicateAddress, address)
		}
	}

	t := models.Terminal{
		Address:   address,
		OpenPorts: []int{models.DefaultSyncPort},
	}

	r.terminals = append(r.terminals, t)
	recordSize(ctx, len(r.terminals))

	r.logger.Info().Str("address", address).Msg("Added terminal manually")

	return t.Clone(), nil
}

func validAddress(address string) bool {
	if address == "" || strings.ContainsAny(address, " /:") {
		return false
	}

	if net.ParseIP(address) != nil {
		return true
	}

	// Hostnames are allowed for terminals behind DNS.
	for _, label := range strings.Split(address, ".") {
		if label == "" {
			return false
		}
	}

	return true
}

// Remove deletes the terminal and drops it from the selection.
func (r *Registry) Remove(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTerminalNotFound, key)
	}

	r.terminals = append(r.terminals[:i], r.terminals[i+1:]...)
	delete(r.selected, key)
	recordSize(ctx, len(r.terminals))

	r.logger.Info().Str("terminal", key).Msg("Removed terminal")

	return nil
}

// Rename sets the operator-assigned name. An empty name clears it.
func (r *Registry) Rename(key, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTerminalNotFound, key)
	}

	r.terminals[i].CustomName = strings.TrimSpace(name)

	return nil
}

// Select adds terminals to the sync selection.
func (r *Registry) Select(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		if r.indexOf(key) < 0 {
			return fmt.Errorf("%w: %s", ErrTerminalNotFound, key)
		}
	}

	for _, key := range keys {
		r.selected[key] = struct{}{}
	}

	return nil
}

// Deselect removes terminals from the sync selection. Unknown keys are ignored.
func (r *Registry) Deselect(keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.selected, key)
	}
}

// Selected returns the selected identity keys in sorted order.
func (r *Registry) Selected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.selectedKeys()
}

// IsSelected reports whether key is in the sync selection.
func (r *Registry) IsSelected(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.selected[key]

	return ok
}

// LearnIdentity records what a successful fetch of the terminal at key reported and returns
// the identity key its events belong under. When the learned serial already belongs to another
// entry, the fetched entry is folded into that one so the registry keeps one entry per identity.
func (r *Registry) LearnIdentity(ctx context.Context, key string, desc models.TerminalDescriptor, syncedAt time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(key)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrTerminalNotFound, key)
	}

	fetched := r.terminals[idx]
	obs := models.Terminal{
		Address:         fetched.Address,
		Serial:          desc.Serial,
		DisplayName:     desc.DisplayName,
		FirmwareVersion: desc.FirmwareVersion,
		HardwareAddress: desc.HardwareAddress,
	}

	synced := syncedAt

	if obs.Serial != "" && obs.Serial != fetched.Serial {
		if owner := r.indexBySerial(obs.Serial); owner >= 0 {
			return r.collapseInto(ctx, idx, owner, &obs, synced), nil
		}

		if fetched.Serial != "" {
			// The address now answers with a different device.
			r.logger.Warn().
				Str("terminal", key).
				Str("reported_serial", obs.Serial).
				Msg("Terminal reported a different serial, registering it separately")

			t := obs.Clone()
			t.OpenPorts = append([]int(nil), fetched.OpenPorts...)
			t.LastSyncedAt = &synced
			r.terminals = append(r.terminals, t)
			recordMerge(ctx, Unmatched)
			recordSize(ctx, len(r.terminals))

			return t.IdentityKey(), nil
		}
	}

	mergeInto(&r.terminals[idx], &obs)
	r.terminals[idx].LastSyncedAt = &synced

	newKey := r.terminals[idx].IdentityKey()
	if newKey != key {
		r.rekeySelection(key, newKey)
		r.logger.Info().Str("old_key", key).Str("new_key", newKey).Msg("Learned terminal serial")
	}

	return newKey, nil
}

// collapseInto merges entry idx into entry owner and removes idx when it had no serial of its own.
func (r *Registry) collapseInto(ctx context.Context, idx, owner int, obs *models.Terminal, synced time.Time) string {
	from := r.terminals[idx]
	fromKey := from.IdentityKey()

	target := &r.terminals[owner]
	mergeInto(target, obs)

	// A serial-bearing source is another device that moved off this address; it keeps its own labels.
	sameDevice := from.Serial == ""
	if sameDevice {
		if target.CustomName == "" {
			target.CustomName = from.CustomName
		}

		if len(target.OpenPorts) == 0 {
			target.OpenPorts = append([]int(nil), from.OpenPorts...)
		}
	}

	target.LastSyncedAt = &synced
	ownerKey := target.IdentityKey()

	recordMerge(ctx, MatchedBySerial)

	if sameDevice {
		r.rekeySelection(fromKey, ownerKey)
		r.terminals = append(r.terminals[:idx], r.terminals[idx+1:]...)
		recordSize(ctx, len(r.terminals))
	}

	r.logger.Info().
		Str("from", fromKey).
		Str("into", ownerKey).
		Msg("Collapsed terminal into existing entry with the same serial")

	return ownerKey
}

func (r *Registry) rekeySelection(oldKey, newKey string) {
	if _, ok := r.selected[oldKey]; ok {
		delete(r.selected, oldKey)
		r.selected[newKey] = struct{}{}
	}
}

func (r *Registry) indexOf(key string) int {
	for i := range r.terminals {
		if r.terminals[i].IdentityKey() == key {
			return i
		}
	}

	return -1
}

func (r *Registry) indexBySerial(serial string) int {
	for i := range r.terminals {
		if r.terminals[i].Serial == serial {
			return i
		}
	}

	return -1
}

func (r *Registry) cloneAll() []models.Terminal {
	out := make([]models.Terminal, len(r.terminals))
	for i := range r.terminals {
		out[i] = r.terminals[i].Clone()
	}

	return out
}

func (r *Registry) selectedKeys() []string {
	keys := make([]string, 0, len(r.selected))
	for key := range r.selected {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// Resolve turns an identity key, serial number or address into the identity key of a registered terminal.
func (r *Registry) Resolve(ref string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.indexOf(ref) >= 0 {
		return ref, nil
	}

	if i := r.indexBySerial(ref); i >= 0 && ref != "" {
		return r.terminals[i].IdentityKey(), nil
	}

	for i := range r.terminals {
		if r.terminals[i].Address == ref {
			return r.terminals[i].IdentityKey(), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrTerminalNotFound, ref)
}
