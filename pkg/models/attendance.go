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

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Terminal status codes as reported in attendance records.
const (
	StatusCheckIn  = 0
	StatusCheckOut = 1
	StatusBreakOut = 2
	StatusBreakIn  = 3
	StatusOTIn     = 4
	StatusOTOut    = 5
)

const ongoingLiteral = "ongoing"

// RawEvent is one punch as read from a terminal. Date is YYYY-MM-DD and Time is HH:MM:SS local wall clock.
type RawEvent struct {
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    int       `json:"status"`
	Punch     int       `json:"punch"`
	Timestamp time.Time `json:"timestamp"`
}

// Event returns the label of the status code.
func (e *RawEvent) Event() string {
	return StatusLabel(e.Status)
}

// StatusLabel maps a terminal status code to a label.
func StatusLabel(status int) string {
	switch status {
	case StatusCheckIn:
		return "Check In"
	case StatusCheckOut:
		return "Check Out"
	case StatusBreakOut:
		return "Break Out"
	case StatusBreakIn:
		return "Break In"
	case StatusOTIn:
		return "OT In"
	case StatusOTOut:
		return "OT Out"
	default:
		return "Unknown"
	}
}

// PunchState describes how the last punch of a day was resolved.
type PunchState int

const (
	// PunchUnresolved means a past day ended on an unmatched check-in. It is the zero value,
	// so a mark nobody filled in never claims a check-out.
	PunchUnresolved PunchState = iota
	// PunchResolved means the last punch closed a check-in/check-out pair.
	PunchResolved
	// PunchOngoing means the day is today and the last check-in is still open.
	PunchOngoing
)

func (s PunchState) String() string {
	switch s {
	case PunchResolved:
		return "resolved"
	case PunchOngoing:
		return ongoingLiteral
	case PunchUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("PunchState(%d)", int(s))
	}
}

// PunchMark is the last punch of a day. Time is only meaningful when State is PunchResolved.
type PunchMark struct {
	State PunchState
	Time  string
}

// ResolvedPunch returns a mark for a paired punch at t.
func ResolvedPunch(t string) PunchMark {
	return PunchMark{State: PunchResolved, Time: t}
}

// MarshalJSON encodes the mark as the punch time, the literal "ongoing", or null.
func (m PunchMark) MarshalJSON() ([]byte, error) {
	switch m.State {
	case PunchResolved:
		return json.Marshal(m.Time)
	case PunchOngoing:
		return json.Marshal(ongoingLiteral)
	case PunchUnresolved:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownPunchState, int(m.State))
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *PunchMark) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*m = PunchMark{State: PunchUnresolved}

		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == ongoingLiteral {
		*m = PunchMark{State: PunchOngoing}

		return nil
	}

	*m = ResolvedPunch(s)

	return nil
}

// DailySummary is the reconciled attendance of one employee on one date.
type DailySummary struct {
	UserID         int           `json:"user_id"`
	UserName       string        `json:"user_name"`
	Date           string        `json:"date"`
	FirstPunch     string        `json:"first_punch"`
	LastPunch      PunchMark     `json:"last_punch"`
	PunchCount     int           `json:"punch_count"`
	WorkedDuration time.Duration `json:"worked_duration"`
}

// WorkedHours renders the worked duration as "Hh Mm".
func (s *DailySummary) WorkedHours() string {
	total := int(s.WorkedDuration / time.Minute)

	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
