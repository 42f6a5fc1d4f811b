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

// Package zk implements the ZKTeco TCP protocol used to read users and
// attendance logs from biometric terminals.
package zk

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	cmdConnect       uint16 = 1000
	cmdExit          uint16 = 1001
	cmdEnableDevice  uint16 = 1002
	cmdDisableDevice uint16 = 1003
	cmdUserTempRRQ   uint16 = 9
	cmdOptionsRRQ    uint16 = 11
	cmdAttLogRRQ     uint16 = 13
	cmdGetFreeSizes  uint16 = 50
	cmdGetVersion    uint16 = 1100
	cmdAuth          uint16 = 1102
	cmdPrepareData   uint16 = 1500
	cmdData          uint16 = 1501
	cmdFreeData      uint16 = 1502
	cmdDataWRRQ      uint16 = 1503
	cmdDataRdy       uint16 = 1504
	cmdAckOK         uint16 = 2000
	cmdAckError      uint16 = 2001
	cmdAckUnauth     uint16 = 2005

	fctUser = 5

	tcpMagic1 uint16 = 0x5050
	tcpMagic2 uint16 = 0x7D82

	tcpTopSize   = 8
	headerSize   = 8
	ushrtMax     = 65535
	maxChunk     = 0xFFC0
	maxTransfer  = 100_000_000
	initialReply = ushrtMax - 1

	// sizesMinLength is the shortest GET_FREE_SIZES answer carrying the counters.
	sizesMinLength = 80
)

// checksum is the terminal's 16-bit one's complement sum over the header and payload.
func checksum(data []byte) uint16 {
	sum := 0

	i := 0
	for ; i+1 < len(data); i += 2 {
		sum += int(binary.LittleEndian.Uint16(data[i:]))
		if sum > ushrtMax {
			sum -= ushrtMax
		}
	}

	if i < len(data) {
		sum += int(data[i])
	}

	for sum > ushrtMax {
		sum -= ushrtMax
	}

	sum = ^sum
	for sum < 0 {
		sum += ushrtMax
	}

	return uint16(sum)
}

func nextReplyID(reply uint16) uint16 {
	next := reply + 1
	if next == ushrtMax {
		return 0
	}

	return next
}

// encodePacket frames one command: TCP top, header with checksum, payload.
// The checksum covers the header carrying the current reply id; the packet
// itself carries the next one.
func encodePacket(command, session, reply uint16, payload []byte) []byte {
	body := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint16(body[0:], command)
	binary.LittleEndian.PutUint16(body[4:], session)
	binary.LittleEndian.PutUint16(body[6:], reply)
	copy(body[headerSize:], payload)

	sum := checksum(body)

	binary.LittleEndian.PutUint16(body[2:], sum)
	binary.LittleEndian.PutUint16(body[6:], nextReplyID(reply))

	packet := make([]byte, tcpTopSize, tcpTopSize+len(body))
	binary.LittleEndian.PutUint16(packet[0:], tcpMagic1)
	binary.LittleEndian.PutUint16(packet[2:], tcpMagic2)
	binary.LittleEndian.PutUint32(packet[4:], uint32(len(body)))

	return append(packet, body...)
}

type packetHeader struct {
	command uint16
	session uint16
	reply   uint16
}

func parseTCPTop(top []byte) (int, error) {
	if binary.LittleEndian.Uint16(top[0:]) != tcpMagic1 || binary.LittleEndian.Uint16(top[2:]) != tcpMagic2 {
		return 0, fmt.Errorf("%w: invalid tcp header % X", ErrProtocol, top)
	}

	length := int(binary.LittleEndian.Uint32(top[4:]))
	if length < headerSize {
		return 0, fmt.Errorf("%w: packet length %d shorter than header", ErrProtocol, length)
	}

	if length > maxTransfer {
		return 0, fmt.Errorf("%w: packet length %d too large", ErrProtocol, length)
	}

	return length, nil
}

func parseHeader(body []byte) packetHeader {
	return packetHeader{
		command: binary.LittleEndian.Uint16(body[0:]),
		session: binary.LittleEndian.Uint16(body[4:]),
		reply:   binary.LittleEndian.Uint16(body[6:]),
	}
}

// commKey scrambles the numeric communication password with the session id.
func commKey(password uint32, session uint16) []byte {
	var k uint32

	for i := 0; i < 32; i++ {
		k <<= 1
		if password&(1<<i) != 0 {
			k |= 1
		}
	}

	k += uint32(session)

	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], k)

	x := [4]byte{raw[0] ^ 'Z', raw[1] ^ 'K', raw[2] ^ 'S', raw[3] ^ 'O'}

	const salt = 50

	return []byte{x[2] ^ salt, x[3] ^ salt, salt, x[1] ^ salt}
}

// bufferedReadPayload asks the terminal to stage the reply to command in its transfer buffer.
func bufferedReadPayload(command uint16, fct int32) []byte {
	payload := make([]byte, 11)
	payload[0] = 1
	binary.LittleEndian.PutUint16(payload[1:], command)
	binary.LittleEndian.PutUint32(payload[3:], uint32(fct))

	return payload
}

func chunkPayload(start, size int) []byte {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:], uint32(start))
	binary.LittleEndian.PutUint32(payload[4:], uint32(size))

	return payload
}

// decodeTime unpacks the terminal's packed timestamp. Months are 31 days
// wide in the encoding, so impossible dates roll over as time.Date does.
func decodeTime(t uint32, loc *time.Location) time.Time {
	second := int(t % 60)
	t /= 60
	minute := int(t % 60)
	t /= 60
	hour := int(t % 24)
	t /= 24
	day := int(t%31) + 1
	t /= 31
	month := time.Month(t%12 + 1)
	t /= 12
	year := int(t) + 2000

	return time.Date(year, month, day, hour, minute, second, 0, loc)
}
