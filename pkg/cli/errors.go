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

package cli

import "errors"

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1

	// ExitCredential tells a wrapper the API key must be re-entered.
	ExitCredential = 2
)

var (
	errUnknownCommand  = errors.New("unknown command")
	errMissingArgument = errors.New("missing argument")
	errMissingSetting  = errors.New("missing required setting")
	errSyncIncomplete  = errors.New("one or more terminals could not be fetched")
)
