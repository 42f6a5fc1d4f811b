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

// Package models holds the data types shared across punchsync packages.
package models

import (
	"strings"
	"time"
)

const (
	// DefaultSyncPort is the TCP port ZKTeco terminals listen on for the attendance protocol.
	DefaultSyncPort = 4370

	// UnknownHardwareAddress is recorded when discovery could not resolve a MAC address.
	UnknownHardwareAddress = "Unknown"

	identityKeySerialPrefix  = "serial:"
	identityKeyAddressPrefix = "addr:"
)

// Terminal is a biometric attendance terminal known to the registry.
type Terminal struct {
	Address         string     `json:"address"`
	HardwareAddress string     `json:"hardware_address,omitempty"`
	OpenPorts       []int      `json:"open_ports,omitempty"`
	Serial          string     `json:"serial,omitempty"`
	DisplayName     string     `json:"display_name,omitempty"`
	CustomName      string     `json:"custom_name,omitempty"`
	FirmwareVersion string     `json:"firmware_version,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
}

// TerminalDescriptor carries what a successful fetch learned about a terminal.
type TerminalDescriptor struct {
	Serial          string `json:"serial,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	HardwareAddress string `json:"hardware_address,omitempty"`
}

// IdentityKey returns the stable key for the terminal: the serial when known, otherwise the address.
func (t *Terminal) IdentityKey() string {
	if t.Serial != "" {
		return SerialIdentityKey(t.Serial)
	}

	return AddressIdentityKey(t.Address)
}

// SerialIdentityKey builds the identity key for a serial number.
func SerialIdentityKey(serial string) string {
	return identityKeySerialPrefix + serial
}

// AddressIdentityKey builds the identity key for a network address.
func AddressIdentityKey(address string) string {
	return identityKeyAddressPrefix + address
}

// IsSerialIdentityKey reports whether key was derived from a serial number.
func IsSerialIdentityKey(key string) bool {
	return strings.HasPrefix(key, identityKeySerialPrefix)
}

// Name is the label shown to operators.
func (t *Terminal) Name() string {
	switch {
	case t.CustomName != "":
		return t.CustomName
	case t.DisplayName != "":
		return t.DisplayName
	default:
		return t.Address
	}
}

// SyncPort picks the port used to fetch events: the protocol port when open, else the first open port.
func (t *Terminal) SyncPort() int {
	for _, p := range t.OpenPorts {
		if p == DefaultSyncPort {
			return DefaultSyncPort
		}
	}

	if len(t.OpenPorts) > 0 {
		return t.OpenPorts[0]
	}

	return DefaultSyncPort
}

// HasHardwareAddress reports whether a real MAC address has been recorded.
func (t *Terminal) HasHardwareAddress() bool {
	return t.HardwareAddress != "" && t.HardwareAddress != UnknownHardwareAddress
}

// Clone returns a deep copy so callers never share slices or pointers with the registry.
func (t *Terminal) Clone() Terminal {
	c := *t

	if t.OpenPorts != nil {
		c.OpenPorts = append([]int(nil), t.OpenPorts...)
	}

	if t.LastSyncedAt != nil {
		ts := *t.LastSyncedAt
		c.LastSyncedAt = &ts
	}

	return c
}

// RegistrySnapshot is the persisted form of the terminal registry.
type RegistrySnapshot struct {
	Terminals []Terminal `json:"terminals"`
	Selected  []string   `json:"selected,omitempty"`
}
