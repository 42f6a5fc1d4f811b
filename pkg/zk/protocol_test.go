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
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTime(ts time.Time) uint32 {
	days := (ts.Year()%100)*12*31 + (int(ts.Month())-1)*31 + ts.Day() - 1

	return uint32(days*24*60*60 + (ts.Hour()*60+ts.Minute())*60 + ts.Second())
}

func TestConnectPacket(t *testing.T) {
	packet := encodePacket(cmdConnect, 0, initialReply, nil)

	assert.Equal(t, "5050827d08000000e80317fc00000000", hex.EncodeToString(packet))
}

func TestChecksum(t *testing.T) {
	body := make([]byte, headerSize, headerSize+3)
	binary.LittleEndian.PutUint16(body[0:], cmdAttLogRRQ)
	binary.LittleEndian.PutUint16(body[4:], 0x1a2b)
	binary.LittleEndian.PutUint16(body[6:], 7)
	body = append(body, "abc"...)

	assert.Equal(t, uint16(33531), checksum(body))
	assert.Equal(t, uint16(ushrtMax-1), checksum(nil))
}

func TestNextReplyIDWraps(t *testing.T) {
	assert.Equal(t, uint16(8), nextReplyID(7))
	assert.Equal(t, uint16(0), nextReplyID(initialReply))
	assert.Equal(t, uint16(0), nextReplyID(ushrtMax))
}

func TestEncodePacketCarriesPayload(t *testing.T) {
	packet := encodePacket(cmdOptionsRRQ, 42, 9, []byte("~SerialNumber\x00"))

	length, err := parseTCPTop(packet[:tcpTopSize])
	require.NoError(t, err)
	assert.Equal(t, headerSize+14, length)

	hdr := parseHeader(packet[tcpTopSize:])
	assert.Equal(t, cmdOptionsRRQ, hdr.command)
	assert.Equal(t, uint16(42), hdr.session)
	assert.Equal(t, uint16(10), hdr.reply)
	assert.Equal(t, "~SerialNumber", cString(packet[tcpTopSize+headerSize:]))
}

func TestParseTCPTopRejectsGarbage(t *testing.T) {
	_, err := parseTCPTop([]byte{0, 1, 2, 3, 8, 0, 0, 0})
	require.ErrorIs(t, err, ErrProtocol)

	short := encodePacket(cmdAckOK, 0, 0, nil)[:tcpTopSize]
	binary.LittleEndian.PutUint32(short[4:], 4)
	_, err = parseTCPTop(short)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestCommKey(t *testing.T) {
	assert.Equal(t, "617d327d", hex.EncodeToString(commKey(0, 1234)))
	assert.Equal(t, "267f32e3", hex.EncodeToString(commKey(123456, 0x1a2b)))
}

func TestDecodeTime(t *testing.T) {
	want := time.Date(2024, time.March, 1, 17, 30, 5, 0, time.UTC)

	assert.Equal(t, want, decodeTime(encodeTime(want), time.UTC))
	assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), decodeTime(0, time.UTC))
}

func TestDecodeTimeUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*60*60+30*60)
	want := time.Date(2024, time.December, 31, 23, 59, 59, 0, loc)

	got := decodeTime(encodeTime(want), loc)
	assert.Equal(t, "2024-12-31 23:59:59", got.Format("2006-01-02 15:04:05"))
	assert.Equal(t, loc, got.Location())
}
