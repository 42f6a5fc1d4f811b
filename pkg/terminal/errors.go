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

import "errors"

var (
	// ErrDuplicateAddress rejects a manual add for an address already in the registry.
	ErrDuplicateAddress = errors.New("terminal with this address already exists")
	// ErrTerminalNotFound is returned for an unknown identity key.
	ErrTerminalNotFound = errors.New("terminal not found")
	// ErrInvalidAddress rejects a manual add that is not a host or IP address.
	ErrInvalidAddress = errors.New("invalid terminal address")
)
