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

//go:generate mockgen -destination=mock_sync.go -package=sync github.com/carverauto/punchsync/pkg/sync EventSource,Discoverer,Endpoint,Store,Notifier

package sync

import (
	"context"

	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/models"
)

// EventSource reads a terminal's descriptor and full punch history.
type EventSource interface {
	FetchEvents(ctx context.Context, address string, port int) (models.TerminalDescriptor, []models.RawEvent, error)
}

// Discoverer finds terminals on the network.
type Discoverer interface {
	Discover(ctx context.Context) ([]models.Terminal, error)
}

// Endpoint is the remote attendance API.
type Endpoint interface {
	PushAttendance(ctx context.Context, records []erp.AttendanceRecord) (*models.SyncOutcome, error)
	VerifyCredential(ctx context.Context) (*erp.CredentialInfo, error)
}

// Store persists the registry and per-terminal history.
type Store interface {
	LoadRegistry(ctx context.Context) (models.RegistrySnapshot, error)
	SaveRegistry(ctx context.Context, snapshot models.RegistrySnapshot) error
	SaveRegistryWithEvents(ctx context.Context, snapshot models.RegistrySnapshot, events map[string][]models.RawEvent) error
	LoadEvents(ctx context.Context, identityKey string) ([]models.RawEvent, error)
	SaveEvents(ctx context.Context, identityKey string, events []models.RawEvent) error
	DeleteEvents(ctx context.Context, identityKey string) error
}

// Notifier is told about finished syncs and pushes. Its failures never fail the operation.
type Notifier interface {
	SyncCompleted(ctx context.Context, result *models.SyncResult) error
	PushCompleted(ctx context.Context, outcome *models.SyncOutcome) error
}
