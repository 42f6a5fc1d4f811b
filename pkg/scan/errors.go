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

package scan

import "errors"

var (
	// ErrNoSuitableInterface is returned when no outbound IPv4 address could be determined.
	ErrNoSuitableInterface = errors.New("no suitable local IPv4 address found")
	// ErrInvalidSubnet rejects a configured subnet that is not an IPv4 CIDR.
	ErrInvalidSubnet = errors.New("invalid IPv4 subnet")
	// ErrSubnetTooLarge rejects sweeps wider than a /16.
	ErrSubnetTooLarge = errors.New("subnet too large to sweep")
)
