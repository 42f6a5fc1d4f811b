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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsersPicksRecordWidth(t *testing.T) {
	small := parseUsers(smallUserTable(testUser{uid: 1, userID: 7, name: "Asha"}, testUser{uid: 2, userID: 8}))
	assert.Equal(t, []User{{UID: 1, UserID: "7", Name: "Asha"}, {UID: 2, UserID: "8", Name: "NN-8"}}, small)

	large := parseUsers(largeUserTable(testUser{uid: 3, userID: 1042, name: "Ravi Kumar"}))
	assert.Equal(t, []User{{UID: 3, UserID: "1042", Name: "Ravi Kumar"}}, large)

	assert.Empty(t, parseUsers([]byte{0, 0, 0, 0}))
}

func TestParseAttendanceWidths(t *testing.T) {
	at := time.Date(2024, time.March, 1, 9, 15, 0, 0, time.UTC)
	users := []User{{UID: 1, UserID: "7", Name: "Asha"}}

	tests := []struct {
		name string
		data []byte
		id   int
	}{
		{"compact", compactAttendance(testPunch{userID: 1, at: at}), 1},
		{"medium", mediumAttendance(testPunch{userID: 7, at: at}), 7},
		{"large", largeAttendance(testPunch{userID: 7, at: at}), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := parseAttendance(tt.data, 1, users, time.UTC)
			require.NoError(t, err)
			require.Len(t, events, 1)

			assert.Equal(t, tt.id, events[0].UserID)
			assert.Equal(t, "Asha", events[0].UserName)
			assert.Equal(t, "2024-03-01", events[0].Date)
			assert.Equal(t, "09:15:00", events[0].Time)
		})
	}
}

func TestParseAttendanceInfersWidthWithoutCounters(t *testing.T) {
	at := time.Date(2024, time.March, 1, 9, 15, 0, 0, time.UTC)

	events, err := parseAttendance(mediumAttendance(testPunch{userID: 7, at: at}, testPunch{userID: 7, at: at}), 0, nil, time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Unknown (ID: 7)", events[0].UserName)
}

func TestParseAttendanceUnsupportedWidth(t *testing.T) {
	data := []byte{12, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	_, err := parseAttendance(data, 1, nil, time.UTC)
	require.ErrorIs(t, err, ErrUnsupportedRecord)
}

func TestParseAttendanceTooShort(t *testing.T) {
	events, err := parseAttendance([]byte{1, 2}, 3, nil, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, events)
}
