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

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage message.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `punchsync: collect attendance from ZKTeco terminals and push it to the ERP
Usage:
  punchsync [-config file] <command> [options] [arguments]

Commands:
`)

	cmds := commands()
	for _, name := range commandNames() {
		fmt.Fprintf(w, "  %s\n", cmds[name].usage)
	}

	fmt.Fprintln(w, "  version")

	fmt.Fprint(w, `
Terminals can be named by identity key (serial:XYZ or addr:10.0.0.5),
serial number or address. Commands that take terminals default to the
selected set.

Configuration:
  -config string   JSON config file; CONFIG_SOURCE=env reads PUNCHSYNC_* variables instead
  PUNCHSYNC_API_KEY  ERP API key when erp.api_key is not set

Exit codes:
  0  success
  1  error, including terminals that could not be fetched
  2  the ERP rejected the API key

Examples:
  # Find terminals on the local network and select one
  punchsync scan
  punchsync select 10.0.0.5

  # Fetch the selected terminals and upload the daily records
  punchsync sync -push

  # Show what is stored without contacting terminals
  punchsync summaries
`)
}
