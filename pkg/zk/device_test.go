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
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type attendanceDelivery int

const (
	deliverDirect attendanceDelivery = iota
	deliverPrepared
	deliverBuffered
)

// fakeDevice speaks enough of the terminal protocol to serve one client at a time.
type fakeDevice struct {
	t  *testing.T
	ln net.Listener

	session     uint16
	requireAuth bool
	password    uint32

	serial   string
	name     string
	firmware string
	mac      string

	users      []byte
	attendance []byte
	userCount  int
	records    int
	delivery   attendanceDelivery

	mu       sync.Mutex
	commands []uint16
	staged   []byte
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	d := &fakeDevice{
		t:        t,
		ln:       ln,
		session:  0x1a2b,
		serial:   "CKJ4201760123",
		name:     "K40",
		firmware: "Ver 6.60 Apr 28 2017",
		mac:      "00:17:61:12:34:56",
	}

	t.Cleanup(func() { _ = ln.Close() })

	return d
}

func (d *fakeDevice) start() {
	go func() {
		for {
			conn, err := d.ln.Accept()
			if err != nil {
				return
			}

			d.serve(conn)
		}
	}()
}

func (d *fakeDevice) port() int {
	return d.ln.Addr().(*net.TCPAddr).Port
}

func (d *fakeDevice) seen() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]uint16(nil), d.commands...)
}

func (d *fakeDevice) serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	for {
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		var top [tcpTopSize]byte
		if _, err := io.ReadFull(conn, top[:]); err != nil {
			return
		}

		length, err := parseTCPTop(top[:])
		if err != nil {
			d.t.Errorf("client sent bad tcp top: %v", err)

			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		d.verifyChecksum(body)

		hdr := parseHeader(body)
		payload := body[headerSize:]

		d.mu.Lock()
		d.commands = append(d.commands, hdr.command)
		d.mu.Unlock()

		if !d.handle(conn, hdr, payload) {
			return
		}
	}
}

func (d *fakeDevice) verifyChecksum(body []byte) {
	got := binary.LittleEndian.Uint16(body[2:])
	reply := binary.LittleEndian.Uint16(body[6:])

	prev := reply - 1
	if reply == 0 {
		prev = initialReply
	}

	check := append([]byte(nil), body...)
	binary.LittleEndian.PutUint16(check[2:], 0)
	binary.LittleEndian.PutUint16(check[6:], prev)

	if want := checksum(check); got != want {
		d.t.Errorf("command %d checksum %d, want %d", binary.LittleEndian.Uint16(body), got, want)
	}
}

func (d *fakeDevice) handle(conn net.Conn, hdr packetHeader, payload []byte) bool {
	ack := func(data []byte) { d.write(conn, cmdAckOK, hdr.reply, data) }

	switch hdr.command {
	case cmdConnect:
		if d.requireAuth {
			d.write(conn, cmdAckUnauth, hdr.reply, nil)

			return true
		}

		session := make([]byte, 2)
		binary.LittleEndian.PutUint16(session, d.session)
		ack(session)
	case cmdAuth:
		if string(payload) != string(commKey(d.password, d.session)) {
			d.write(conn, cmdAckUnauth, hdr.reply, nil)

			return true
		}

		ack(nil)
	case cmdDisableDevice, cmdEnableDevice, cmdFreeData:
		ack(nil)
	case cmdExit:
		ack(nil)

		return false
	case cmdGetFreeSizes:
		sizes := make([]byte, sizesMinLength)
		binary.LittleEndian.PutUint32(sizes[16:], uint32(d.userCount))
		binary.LittleEndian.PutUint32(sizes[32:], uint32(d.records))
		ack(sizes)
	case cmdOptionsRRQ:
		d.answerOption(conn, hdr, cString(payload))
	case cmdGetVersion:
		ack(append([]byte(d.firmware), 0))
	case cmdAttLogRRQ:
		d.answerAttendance(conn, hdr)
	case cmdDataWRRQ:
		d.stage(conn, hdr, payload)
	case cmdDataRdy:
		start := int(binary.LittleEndian.Uint32(payload[0:]))
		size := int(binary.LittleEndian.Uint32(payload[4:]))
		d.write(conn, cmdData, hdr.reply, d.staged[start:start+size])
	default:
		d.write(conn, cmdAckError, hdr.reply, nil)
	}

	return true
}

func (d *fakeDevice) answerOption(conn net.Conn, hdr packetHeader, name string) {
	values := map[string]string{
		optionSerialNumber: d.serial,
		optionDeviceName:   d.name,
		optionMAC:          d.mac,
	}

	value, ok := values[name]
	if !ok || value == "" {
		d.write(conn, cmdAckError, hdr.reply, nil)

		return
	}

	d.write(conn, cmdAckOK, hdr.reply, []byte(name+"="+value+"\x00"))
}

func (d *fakeDevice) answerAttendance(conn net.Conn, hdr packetHeader) {
	switch d.delivery {
	case deliverDirect:
		d.write(conn, cmdData, hdr.reply, d.attendance)
	case deliverPrepared:
		size := make([]byte, 4)
		binary.LittleEndian.PutUint32(size, uint32(len(d.attendance)))
		d.write(conn, cmdPrepareData, hdr.reply, size)

		for off := 0; off < len(d.attendance); off += 1024 {
			d.write(conn, cmdData, hdr.reply, d.attendance[off:min(off+1024, len(d.attendance))])
		}

		d.write(conn, cmdAckOK, hdr.reply, nil)
	case deliverBuffered:
		d.write(conn, cmdAckOK, hdr.reply, nil)
	}
}

func (d *fakeDevice) stage(conn net.Conn, hdr packetHeader, payload []byte) {
	switch binary.LittleEndian.Uint16(payload[1:]) {
	case cmdUserTempRRQ:
		d.staged = d.users
	case cmdAttLogRRQ:
		d.staged = d.attendance
	default:
		d.staged = nil
	}

	if len(d.staged) == 0 {
		d.write(conn, cmdAckOK, hdr.reply, nil)

		return
	}

	answer := make([]byte, 9)
	binary.LittleEndian.PutUint32(answer[1:], uint32(len(d.staged)))
	d.write(conn, cmdAckOK, hdr.reply, answer)
}

func (d *fakeDevice) write(conn net.Conn, command, reply uint16, data []byte) {
	body := make([]byte, headerSize+len(data))
	binary.LittleEndian.PutUint16(body[0:], command)
	binary.LittleEndian.PutUint16(body[4:], d.session)
	binary.LittleEndian.PutUint16(body[6:], reply)
	copy(body[headerSize:], data)

	top := make([]byte, tcpTopSize)
	binary.LittleEndian.PutUint16(top[0:], tcpMagic1)
	binary.LittleEndian.PutUint16(top[2:], tcpMagic2)
	binary.LittleEndian.PutUint32(top[4:], uint32(len(body)))

	if _, err := conn.Write(append(top, body...)); err != nil && !errors.Is(err, net.ErrClosed) {
		d.t.Logf("fake device write: %v", err)
	}
}

type testUser struct {
	uid    int
	userID int
	name   string
}

func smallUserTable(users ...testUser) []byte {
	out := make([]byte, 4, 4+len(users)*userRecordSmall)
	binary.LittleEndian.PutUint32(out, uint32(len(users)*userRecordSmall))

	for _, u := range users {
		rec := make([]byte, userRecordSmall)
		binary.LittleEndian.PutUint16(rec[0:], uint16(u.uid))
		copy(rec[8:16], u.name)
		binary.LittleEndian.PutUint32(rec[24:], uint32(u.userID))
		out = append(out, rec...)
	}

	return out
}

func largeUserTable(users ...testUser) []byte {
	out := make([]byte, 4, 4+len(users)*userRecordLarge)
	binary.LittleEndian.PutUint32(out, uint32(len(users)*userRecordLarge))

	for _, u := range users {
		rec := make([]byte, userRecordLarge)
		binary.LittleEndian.PutUint16(rec[0:], uint16(u.uid))
		copy(rec[11:35], u.name)
		copy(rec[48:72], strconv.Itoa(u.userID))
		out = append(out, rec...)
	}

	return out
}

type testPunch struct {
	userID int
	at     time.Time
	status uint8
}

func mediumAttendance(punches ...testPunch) []byte {
	out := make([]byte, 4, 4+len(punches)*attRecordMedium)
	binary.LittleEndian.PutUint32(out, uint32(len(punches)*attRecordMedium))

	for _, p := range punches {
		rec := make([]byte, attRecordMedium)
		binary.LittleEndian.PutUint32(rec[0:], uint32(p.userID))
		binary.LittleEndian.PutUint32(rec[4:], encodeTime(p.at))
		rec[8] = p.status
		rec[9] = 1
		out = append(out, rec...)
	}

	return out
}

func largeAttendance(punches ...testPunch) []byte {
	out := make([]byte, 4, 4+len(punches)*attRecordLarge)
	binary.LittleEndian.PutUint32(out, uint32(len(punches)*attRecordLarge))

	for _, p := range punches {
		rec := make([]byte, attRecordLarge)
		binary.LittleEndian.PutUint16(rec[0:], uint16(p.userID))
		copy(rec[2:26], strconv.Itoa(p.userID))
		rec[26] = p.status
		binary.LittleEndian.PutUint32(rec[27:], encodeTime(p.at))
		rec[31] = 15
		out = append(out, rec...)
	}

	return out
}

func compactAttendance(punches ...testPunch) []byte {
	out := make([]byte, 4, 4+len(punches)*attRecordCompact)
	binary.LittleEndian.PutUint32(out, uint32(len(punches)*attRecordCompact))

	for _, p := range punches {
		rec := make([]byte, attRecordCompact)
		binary.LittleEndian.PutUint16(rec[0:], uint16(p.userID))
		rec[2] = p.status
		binary.LittleEndian.PutUint32(rec[3:], encodeTime(p.at))
		out = append(out, rec...)
	}

	return out
}
