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
	"github.com/goccy/go-json"

	"github.com/carverauto/punchsync/pkg/models"
)

const (
	noteOngoing    = "Checked in, no check-out recorded yet"
	noteUnresolved = "No check-out recorded"
)

// AttendanceRecord is one faculty attendance day in the bulk endpoint's shape.
type AttendanceRecord struct {
	Faculty      int     `json:"faculty"`
	Date         string  `json:"date"`
	CheckInTime  *string `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
	IsPresent    bool    `json:"is_present"`
	Notes        *string `json:"notes"`
}

// CredentialInfo describes the application an API key belongs to.
type CredentialInfo struct {
	Valid         bool   `json:"valid"`
	AppName       string `json:"app_name,omitempty"`
	AppIdentifier string `json:"app_identifier,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Intent        string `json:"intent,omitempty"`
}

type bulkResponse struct {
	CreatedCount int               `json:"created_count"`
	UpdatedCount int               `json:"updated_count"`
	SkippedCount int               `json:"skipped_count"`
	FailedCount  int               `json:"failed_count"`
	Errors       []json.RawMessage `json:"errors"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// RecordsFromSummaries maps daily summaries to endpoint records. A check-out
// time is only reported for a resolved last punch; an ongoing session or a
// missing check-out is sent as null with an explanatory note.
func RecordsFromSummaries(summaries []models.DailySummary) []AttendanceRecord {
	records := make([]AttendanceRecord, 0, len(summaries))

	for i := range summaries {
		s := &summaries[i]

		rec := AttendanceRecord{
			Faculty:   s.UserID,
			Date:      s.Date,
			IsPresent: true,
		}

		if s.FirstPunch != "" {
			rec.CheckInTime = stringPtr(s.FirstPunch)
		}

		switch s.LastPunch.State {
		case models.PunchResolved:
			rec.CheckOutTime = stringPtr(s.LastPunch.Time)
		case models.PunchOngoing:
			rec.Notes = stringPtr(noteOngoing)
		case models.PunchUnresolved:
			rec.Notes = stringPtr(noteUnresolved)
		}

		records = append(records, rec)
	}

	return records
}

func (r *bulkResponse) outcome() *models.SyncOutcome {
	out := &models.SyncOutcome{
		Accepted: r.CreatedCount + r.UpdatedCount,
		Skipped:  r.SkippedCount,
		Failed:   r.FailedCount,
		Errors:   make([]string, 0, len(r.Errors)),
	}

	for _, raw := range r.Errors {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			out.Errors = append(out.Errors, msg)

			continue
		}

		out.Errors = append(out.Errors, string(raw))
	}

	return out
}

func stringPtr(s string) *string {
	return &s
}
