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

package attendance

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is wrapped by every normalization failure.
var ErrMalformedEvent = errors.New("malformed event")

// MalformedEventError names the event and field that could not be parsed.
type MalformedEventError struct {
	UserID   int
	Sequence int
	Field    string
	Value    string
	Err      error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("%v: user %d event #%d: bad %s %q: %v",
		ErrMalformedEvent, e.UserID, e.Sequence, e.Field, e.Value, e.Err)
}

func (e *MalformedEventError) Unwrap() []error {
	return []error{ErrMalformedEvent, e.Err}
}
