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

package zk

import "errors"

var (
	// ErrProtocol is returned when a terminal answers with an unexpected or malformed packet.
	ErrProtocol = errors.New("zk protocol error")
	// ErrAuthFailed is returned when the terminal rejects the communication key.
	ErrAuthFailed = errors.New("zk authentication failed")
	// ErrUnsupportedRecord is returned for an attendance record size the decoder does not know.
	ErrUnsupportedRecord = errors.New("unsupported attendance record size")
)
