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
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/punchsync/pkg/models"
)

const (
	userRecordSmall = 28
	userRecordLarge = 72

	attRecordCompact = 8
	attRecordMedium  = 16
	attRecordLarge   = 40

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// User is one entry of the terminal's user table.
type User struct {
	UID    int
	UserID string
	Name   string
}

// parseUsers decodes the user table. The payload starts with a 4-byte total
// size followed by fixed-size records of 72 or 28 bytes depending on firmware.
func parseUsers(data []byte) []User {
	if len(data) <= 4 {
		return nil
	}

	records := data[4:]

	size := userRecordSmall
	if len(records) >= userRecordLarge && len(records)%userRecordLarge == 0 {
		size = userRecordLarge
	}

	users := make([]User, 0, len(records)/size)

	for off := 0; off+size <= len(records); off += size {
		rec := records[off : off+size]

		if size == userRecordSmall {
			users = append(users, parseSmallUser(rec))
		} else {
			users = append(users, parseLargeUser(rec))
		}
	}

	return users
}

func parseSmallUser(rec []byte) User {
	userID := strconv.FormatUint(uint64(binary.LittleEndian.Uint32(rec[24:28])), 10)

	name := strings.TrimSpace(cString(rec[8:16]))
	if name == "" {
		name = "NN-" + userID
	}

	return User{
		UID:    int(binary.LittleEndian.Uint16(rec[0:2])),
		UserID: userID,
		Name:   name,
	}
}

func parseLargeUser(rec []byte) User {
	uid := int(binary.LittleEndian.Uint16(rec[0:2]))
	userID := strings.TrimSpace(cString(rec[48:72]))

	name := strings.TrimSpace(cString(rec[11:35]))
	if name == "" {
		name = "NN-" + userID
	}

	if userID == "" {
		userID = strconv.Itoa(uid)
	}

	return User{UID: uid, UserID: userID, Name: name}
}

type userDirectory map[string]string

func newUserDirectory(users []User) userDirectory {
	dir := make(userDirectory, len(users)*2)
	for _, u := range users {
		dir[strconv.Itoa(u.UID)] = u.Name
		dir[u.UserID] = u.Name
	}

	return dir
}

func (d userDirectory) name(id string) (string, bool) {
	name, ok := d[id]

	return name, ok
}

// attendanceRecordSize derives the record width from the reported counters,
// falling back to the widths that divide the payload evenly.
func attendanceRecordSize(totalSize, payloadLen, expected int) int {
	if expected > 0 && totalSize > 0 {
		return totalSize / expected
	}

	switch {
	case payloadLen%attRecordLarge == 0:
		return attRecordLarge
	case payloadLen%attRecordMedium == 0:
		return attRecordMedium
	case payloadLen%attRecordCompact == 0:
		return attRecordCompact
	default:
		return attRecordMedium
	}
}

// parseAttendance decodes the attendance log into raw events in terminal order.
func parseAttendance(data []byte, expected int, users []User, loc *time.Location) ([]models.RawEvent, error) {
	if len(data) < 4 {
		return nil, nil
	}

	total := int(binary.LittleEndian.Uint32(data))
	payload := data[4:]

	size := attendanceRecordSize(total, len(payload), expected)

	var decode func([]byte) rawRecord

	switch {
	case size == attRecordCompact:
		decode = decodeCompact
	case size == attRecordMedium:
		decode = decodeMedium
	case size >= attRecordLarge:
		decode = decodeLarge
		size = attRecordLarge
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrUnsupportedRecord, size)
	}

	dir := newUserDirectory(users)
	events := make([]models.RawEvent, 0, len(payload)/size)

	for off := 0; off+size <= len(payload); off += size {
		rec := decode(payload[off : off+size])
		ts := decodeTime(rec.timestamp, loc)

		events = append(events, models.RawEvent{
			UserID:    rec.userID,
			UserName:  rec.resolveName(dir),
			Date:      ts.Format(dateLayout),
			Time:      ts.Format(timeLayout),
			Status:    int(rec.status),
			Punch:     int(rec.punch),
			Timestamp: ts,
		})
	}

	return events, nil
}

type rawRecord struct {
	uid       int
	userID    int
	userIDRaw string
	status    uint8
	punch     uint8
	timestamp uint32
}

func (r *rawRecord) resolveName(dir userDirectory) string {
	if r.userIDRaw != "" {
		if name, ok := dir.name(r.userIDRaw); ok {
			return name
		}
	}

	if name, ok := dir.name(strconv.Itoa(r.uid)); ok {
		return name
	}

	if r.userIDRaw == "" {
		return fmt.Sprintf("Unknown (UID: %d)", r.uid)
	}

	return fmt.Sprintf("Unknown (ID: %s)", r.userIDRaw)
}

func decodeCompact(rec []byte) rawRecord {
	uid := int(binary.LittleEndian.Uint16(rec[0:2]))

	return rawRecord{
		uid:       uid,
		userID:    uid,
		userIDRaw: strconv.Itoa(uid),
		status:    rec[2],
		timestamp: binary.LittleEndian.Uint32(rec[3:7]),
		punch:     rec[7],
	}
}

func decodeMedium(rec []byte) rawRecord {
	id := binary.LittleEndian.Uint32(rec[0:4])

	return rawRecord{
		uid:       int(id),
		userID:    int(id),
		userIDRaw: strconv.FormatUint(uint64(id), 10),
		timestamp: binary.LittleEndian.Uint32(rec[4:8]),
		status:    rec[8],
		punch:     rec[9],
	}
}

func decodeLarge(rec []byte) rawRecord {
	uid := int(binary.LittleEndian.Uint16(rec[0:2]))
	raw := strings.TrimSpace(cString(rec[2:26]))

	userID := uid
	if n, err := strconv.Atoi(raw); err == nil {
		userID = n
	}

	return rawRecord{
		uid:       uid,
		userID:    userID,
		userIDRaw: raw,
		status:    rec[26],
		timestamp: binary.LittleEndian.Uint32(rec[27:31]),
		punch:     rec[31],
	}
}
