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

package erp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential is returned when the endpoint rejects the API key. Callers should re-authenticate.
	ErrInvalidCredential = errors.New("invalid api credential")
	// ErrUnexpectedStatus is returned for any other non-success response.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is returned while the endpoint is considered down after repeated failures.
	ErrCircuitOpen = errors.New("erp endpoint circuit open")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("erp api key not configured")
)

// APIError carries the status and server message of a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("erp api error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return ErrInvalidCredential
	}

	return ErrUnexpectedStatus
}
