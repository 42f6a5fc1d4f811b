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

import "errors"

var (
	// ErrTerminalUnreachable wraps a failed fetch of one terminal. The run continues with the next one.
	ErrTerminalUnreachable = errors.New("terminal unreachable")
	// ErrStoreUnavailable aborts the current operation when persistence fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSyncInProgress is returned when a sync is requested while another is running.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNoTerminalsSelected is returned when a sync has nothing to visit.
	ErrNoTerminalsSelected = errors.New("no terminals selected")
	// ErrEndpointNotConfigured is returned by push operations without an endpoint.
	ErrEndpointNotConfigured = errors.New("remote endpoint not configured")
	// ErrDiscoveryNotConfigured is returned by Discover without a discoverer.
	ErrDiscoveryNotConfigured = errors.New("discovery not configured")
	// ErrMissingDependency is returned by NewService without a store or event source.
	ErrMissingDependency = errors.New("store and event source are required")
)
