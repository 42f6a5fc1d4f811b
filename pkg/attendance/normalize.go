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

// Package attendance turns raw terminal punches into per-employee daily summaries.
package attendance

import (
	"time"

	"github.com/carverauto/punchsync/pkg/models"
)

const (
	// DateLayout is the calendar date format carried by raw events.
	DateLayout = "2006-01-02"
	// TimeLayout is the wall-clock format carried by raw events.
	TimeLayout = "15:04:05"
)

// NormalizedEvent is a RawEvent with its time of day parsed to seconds since midnight.
type NormalizedEvent struct {
	UserID   int
	UserName string
	Date     string
	Time     string
	Seconds  int
	// Sequence is the position in the input batch; it breaks ties between equal timestamps.
	Sequence int
}

// Normalize validates one raw event.
func Normalize(ev *models.RawEvent, sequence int) (NormalizedEvent, error) {
	if _, err := time.Parse(DateLayout, ev.Date); err != nil {
		return NormalizedEvent{}, &MalformedEventError{
			UserID: ev.UserID, Sequence: sequence, Field: "date", Value: ev.Date, Err: err,
		}
	}

	tod, err := time.Parse(TimeLayout, ev.Time)
	if err != nil {
		return NormalizedEvent{}, &MalformedEventError{
			UserID: ev.UserID, Sequence: sequence, Field: "time", Value: ev.Time, Err: err,
		}
	}

	return NormalizedEvent{
		UserID:   ev.UserID,
		UserName: ev.UserName,
		Date:     ev.Date,
		Time:     ev.Time,
		Seconds:  tod.Hour()*3600 + tod.Minute()*60 + tod.Second(),
		Sequence: sequence,
	}, nil
}

// NormalizeAll normalizes a batch. Malformed events are skipped and returned as errors.
func NormalizeAll(events []models.RawEvent) ([]NormalizedEvent, []error) {
	out := make([]NormalizedEvent, 0, len(events))

	var malformed []error

	for i := range events {
		ne, err := Normalize(&events[i], i)
		if err != nil {
			malformed = append(malformed, err)

			continue
		}

		out = append(out, ne)
	}

	return out, malformed
}
