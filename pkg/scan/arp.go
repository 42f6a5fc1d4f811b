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

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// DefaultARPTable is the Linux kernel neighbour table.
const DefaultARPTable = "/proc/net/arp"

const incompleteMAC = "00:00:00:00:00:00"

// readARPTable maps IPv4 addresses to hardware addresses. A missing table
// yields an empty map; discovery then reports unknown hardware addresses.
func readARPTable(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return map[string]string{}
	}

	defer func() { _ = f.Close() }()

	return parseARPTable(f)
}

// parseARPTable reads the /proc/net/arp layout:
// IP address, HW type, Flags, HW address, Mask, Device.
func parseARPTable(r io.Reader) map[string]string {
	entries := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for first := true; scanner.Scan(); first = false {
		if first {
			continue
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		mac := strings.ToUpper(fields[3])
		if mac == incompleteMAC {
			continue
		}

		entries[fields[0]] = mac
	}

	return entries
}
