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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/punchsync/pkg/logger"
)

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultIOTimeout      = 30 * time.Second

	optionSerialNumber = "~SerialNumber"
	optionDeviceName   = "~DeviceName"
	optionMAC          = "MAC"
)

// Options tunes a terminal connection.
type Options struct {
	ConnectTimeout time.Duration
	IOTimeout      time.Duration
	// Password is the numeric communication key configured on the terminal; 0 when unset.
	Password uint32
	// Location is the zone terminal wall clocks are read in. Defaults to time.Local.
	Location *time.Location
}

func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}

	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}

	if out.IOTimeout <= 0 {
		out.IOTimeout = DefaultIOTimeout
	}

	if out.Location == nil {
		out.Location = time.Local
	}

	return out
}

// Sizes are the record counters a terminal reports.
type Sizes struct {
	Users   int
	Fingers int
	Records int
}

// Client is a single session with one terminal. It is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	session uint16
	reply   uint16
	opts    Options
	logger  logger.Logger
}

// Dial connects to a terminal and completes the protocol handshake.
func Dial(ctx context.Context, address string, port int, opts *Options, log logger.Logger) (*Client, error) {
	o := opts.withDefaults()

	dialer := net.Dialer{Timeout: o.ConnectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", address, port, err)
	}

	c := &Client{
		conn:   conn,
		reply:  initialReply,
		opts:   o,
		logger: log,
	}

	if err := c.handshake(ctx); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	hdr, data, err := c.send(ctx, cmdConnect, nil)
	if err != nil {
		return fmt.Errorf("connect command: %w", err)
	}

	switch hdr.command {
	case cmdAckOK:
		if len(data) >= 2 {
			c.session = binary.LittleEndian.Uint16(data)
		}

		c.logger.Debug().Uint16("session", c.session).Msg("Connected to terminal")

		return nil
	case cmdAckUnauth:
		auth, _, err := c.send(ctx, cmdAuth, commKey(c.opts.Password, c.session))
		if err != nil {
			return fmt.Errorf("auth command: %w", err)
		}

		if auth.command != cmdAckOK {
			return fmt.Errorf("%w: terminal answered %d", ErrAuthFailed, auth.command)
		}

		c.logger.Debug().Uint16("session", c.session).Msg("Connected to terminal (authenticated)")

		return nil
	default:
		return fmt.Errorf("%w: handshake answered %d", ErrProtocol, hdr.command)
	}
}

// Close releases the connection without the exit handshake.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Disconnect re-enables the terminal, ends the session and closes the connection.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.EnableDevice(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to re-enable terminal")
	}

	_, _, exitErr := c.send(ctx, cmdExit, nil)

	if err := c.conn.Close(); err != nil && exitErr == nil {
		return err
	}

	return exitErr
}

// DisableDevice locks the terminal keypad while data is transferred.
func (c *Client) DisableDevice(ctx context.Context) error {
	return c.expectAck(ctx, cmdDisableDevice, nil)
}

// EnableDevice unlocks the terminal.
func (c *Client) EnableDevice(ctx context.Context) error {
	return c.expectAck(ctx, cmdEnableDevice, nil)
}

// ReadSizes returns the terminal's counters. A terminal that does not answer
// with the full counter block reports zero everywhere.
func (c *Client) ReadSizes(ctx context.Context) (Sizes, error) {
	hdr, data, err := c.send(ctx, cmdGetFreeSizes, nil)
	if err != nil {
		return Sizes{}, err
	}

	if hdr.command != cmdAckOK || len(data) < sizesMinLength {
		c.logger.Warn().Uint16("command", hdr.command).Int("length", len(data)).Msg("Could not read terminal sizes")

		return Sizes{}, nil
	}

	return Sizes{
		Users:   int(int32(binary.LittleEndian.Uint32(data[16:]))),
		Fingers: int(int32(binary.LittleEndian.Uint32(data[24:]))),
		Records: int(int32(binary.LittleEndian.Uint32(data[32:]))),
	}, nil
}

// SerialNumber reads the terminal's serial number option.
func (c *Client) SerialNumber(ctx context.Context) (string, error) {
	return c.readOption(ctx, optionSerialNumber)
}

// DeviceName reads the terminal's model name option.
func (c *Client) DeviceName(ctx context.Context) (string, error) {
	return c.readOption(ctx, optionDeviceName)
}

// MACAddress reads the terminal's hardware address option.
func (c *Client) MACAddress(ctx context.Context) (string, error) {
	return c.readOption(ctx, optionMAC)
}

// FirmwareVersion reads the terminal firmware string.
func (c *Client) FirmwareVersion(ctx context.Context) (string, error) {
	hdr, data, err := c.send(ctx, cmdGetVersion, nil)
	if err != nil {
		return "", err
	}

	if hdr.command != cmdAckOK {
		return "", fmt.Errorf("%w: version answered %d", ErrProtocol, hdr.command)
	}

	return cString(data), nil
}

func (c *Client) readOption(ctx context.Context, name string) (string, error) {
	hdr, data, err := c.send(ctx, cmdOptionsRRQ, append([]byte(name), 0))
	if err != nil {
		return "", err
	}

	if hdr.command != cmdAckOK {
		return "", fmt.Errorf("%w: option %s answered %d", ErrProtocol, name, hdr.command)
	}

	_, value, found := strings.Cut(cString(data), "=")
	if !found {
		return "", nil
	}

	return strings.TrimSpace(value), nil
}

// Users downloads the user table.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	data, err := c.readBuffered(ctx, cmdUserTempRRQ, fctUser)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	return parseUsers(data), nil
}

// AttendanceLog downloads the raw attendance log. Terminals differ in which
// request form they answer, so the direct request is tried first and the
// buffered forms only when the terminal claims to hold records.
func (c *Client) AttendanceLog(ctx context.Context, expected int) ([]byte, error) {
	data, err := c.readDirect(ctx, cmdAttLogRRQ)
	if err != nil {
		return nil, fmt.Errorf("read attendance: %w", err)
	}

	for _, fct := range []int32{0, 1} {
		if len(data) >= 4 || expected <= 0 {
			break
		}

		c.logger.Debug().Int32("fct", fct).Msg("Direct attendance read empty, trying buffered read")

		if data, err = c.readBuffered(ctx, cmdAttLogRRQ, fct); err != nil {
			return nil, fmt.Errorf("read attendance: %w", err)
		}
	}

	return data, nil
}

func (c *Client) expectAck(ctx context.Context, command uint16, payload []byte) error {
	hdr, _, err := c.send(ctx, command, payload)
	if err != nil {
		return err
	}

	if hdr.command != cmdAckOK {
		return fmt.Errorf("%w: command %d answered %d", ErrProtocol, command, hdr.command)
	}

	return nil
}

// readDirect issues command without the transfer buffer.
func (c *Client) readDirect(ctx context.Context, command uint16) ([]byte, error) {
	hdr, data, err := c.send(ctx, command, nil)
	if err != nil {
		return nil, err
	}

	switch hdr.command {
	case cmdData:
		return data, nil
	case cmdPrepareData:
		return c.receivePrepared(ctx, data)
	case cmdAckOK:
		return data, nil
	default:
		return nil, nil
	}
}

// readBuffered stages command in the terminal's transfer buffer and downloads it.
func (c *Client) readBuffered(ctx context.Context, command uint16, fct int32) ([]byte, error) {
	hdr, data, err := c.send(ctx, cmdDataWRRQ, bufferedReadPayload(command, fct))
	if err != nil {
		return nil, err
	}

	switch hdr.command {
	case cmdData:
		return data, nil
	case cmdPrepareData:
		return c.receivePrepared(ctx, data)
	case cmdAckOK:
		if len(data) >= 5 {
			size := int(binary.LittleEndian.Uint32(data[1:]))
			if size > 0 && size < maxTransfer {
				return c.readChunks(ctx, size)
			}
		}
	}

	c.freeData(ctx)

	return nil, nil
}

func (c *Client) receivePrepared(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, nil
	}

	size := int(binary.LittleEndian.Uint32(data))
	if size == 0 {
		return nil, nil
	}

	out, err := c.receiveStream(ctx, size)
	if err != nil {
		return nil, err
	}

	c.freeData(ctx)

	return out, nil
}

// receiveStream collects DATA packets following PREPARE_DATA up to size
// bytes and consumes the closing ACK.
func (c *Client) receiveStream(ctx context.Context, size int) ([]byte, error) {
	out := make([]byte, 0, size)

	for len(out) < size {
		hdr, data, err := c.readPacket(ctx)
		if err != nil {
			return nil, err
		}

		switch hdr.command {
		case cmdData:
			out = append(out, data...)
		case cmdAckOK:
			return out, nil
		default:
			return nil, fmt.Errorf("%w: unexpected command %d in data stream", ErrProtocol, hdr.command)
		}
	}

	hdr, _, err := c.readPacket(ctx)
	if err != nil {
		return nil, err
	}

	if hdr.command != cmdAckOK {
		return nil, fmt.Errorf("%w: data stream closed with %d", ErrProtocol, hdr.command)
	}

	return out[:size], nil
}

func (c *Client) readChunks(ctx context.Context, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	start := time.Now()

	for offset := 0; offset < size; offset += maxChunk {
		n := min(maxChunk, size-offset)

		chunk, err := c.readChunk(ctx, offset, n)
		if err != nil {
			return nil, err
		}

		out = append(out, chunk...)
	}

	c.freeData(ctx)

	c.logger.Debug().Int("bytes", len(out)).Dur("elapsed", time.Since(start)).Msg("Downloaded transfer buffer")

	return out, nil
}

func (c *Client) readChunk(ctx context.Context, start, size int) ([]byte, error) {
	hdr, data, err := c.send(ctx, cmdDataRdy, chunkPayload(start, size))
	if err != nil {
		return nil, err
	}

	// Some firmware acknowledges the request before sending the chunk.
	if hdr.command == cmdAckOK {
		if hdr, data, err = c.readPacket(ctx); err != nil {
			return nil, err
		}
	}

	switch hdr.command {
	case cmdData:
		return data[:min(size, len(data))], nil
	case cmdPrepareData:
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: prepare data without size", ErrProtocol)
		}

		out, err := c.receiveStream(ctx, int(binary.LittleEndian.Uint32(data)))
		if err != nil {
			return nil, err
		}

		return out[:min(size, len(out))], nil
	default:
		return nil, fmt.Errorf("%w: chunk request answered %d", ErrProtocol, hdr.command)
	}
}

func (c *Client) freeData(ctx context.Context) {
	if err := c.expectAck(ctx, cmdFreeData, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Free data not acknowledged")
	}
}

func (c *Client) send(ctx context.Context, command uint16, payload []byte) (packetHeader, []byte, error) {
	if err := ctx.Err(); err != nil {
		return packetHeader{}, nil, err
	}

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return packetHeader{}, nil, err
	}

	if _, err := c.conn.Write(encodePacket(command, c.session, c.reply, payload)); err != nil {
		return packetHeader{}, nil, fmt.Errorf("failed to send command %d: %w", command, err)
	}

	return c.readPacket(ctx)
}

func (c *Client) readPacket(ctx context.Context) (packetHeader, []byte, error) {
	if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
		return packetHeader{}, nil, err
	}

	var top [tcpTopSize]byte
	if _, err := io.ReadFull(c.conn, top[:]); err != nil {
		return packetHeader{}, nil, wrapRead(err)
	}

	length, err := parseTCPTop(top[:])
	if err != nil {
		return packetHeader{}, nil, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return packetHeader{}, nil, wrapRead(err)
	}

	hdr := parseHeader(body)
	if hdr.session != 0 {
		c.session = hdr.session
	}

	c.reply = hdr.reply

	return hdr, body[headerSize:], nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.opts.IOTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}

	return d
}

func wrapRead(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: connection closed mid-packet", ErrProtocol)
	}

	return fmt.Errorf("failed to read packet: %w", err)
}

// cString returns data up to the first NUL.
func cString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	return string(data)
}
