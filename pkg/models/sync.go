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

package models

import "fmt"

// SyncOutcome reports what the remote endpoint did with one pushed batch.
type SyncOutcome struct {
	Accepted int      `json:"accepted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Clean reports whether every record was accepted.
func (o *SyncOutcome) Clean() bool {
	return o.Skipped == 0 && o.Failed == 0
}

// Partial reports whether some records were accepted while others were skipped or failed.
func (o *SyncOutcome) Partial() bool {
	return o.Accepted > 0 && !o.Clean()
}

// Total is the number of records the endpoint reported on.
func (o *SyncOutcome) Total() int {
	return o.Accepted + o.Skipped + o.Failed
}

// TerminalError is a fetch failure for one terminal during a sync run.
type TerminalError struct {
	Terminal string `json:"terminal"`
	Address  string `json:"address"`
	Err      error  `json:"-"`
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal %s (%s): %v", e.Terminal, e.Address, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// SyncResult is the outcome of fetching a set of terminals and reconciling their events.
type SyncResult struct {
	RunID          string          `json:"run_id"`
	Summaries      []DailySummary  `json:"summaries"`
	Events         []RawEvent      `json:"-"`
	TerminalErrors []TerminalError `json:"terminal_errors,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// Failed reports whether any terminal could not be fetched.
func (r *SyncResult) Failed() bool {
	return len(r.TerminalErrors) > 0
}
