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
	"context"
	"time"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

// Source fetches identity and punch history from terminals, one session per call.
type Source struct {
	opts   Options
	logger logger.Logger
}

// NewSource returns an event source using opts for every connection.
func NewSource(opts *Options, log logger.Logger) *Source {
	return &Source{
		opts:   opts.withDefaults(),
		logger: log,
	}
}

// FetchEvents connects to the terminal at address:port and downloads its
// descriptor and full attendance log. Descriptor and user table failures are
// logged and tolerated; the attendance log is not.
func (s *Source) FetchEvents(ctx context.Context, address string, port int) (models.TerminalDescriptor, []models.RawEvent, error) {
	start := time.Now()

	client, err := Dial(ctx, address, port, &s.opts, s.logger)
	if err != nil {
		return models.TerminalDescriptor{}, nil, err
	}

	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			s.logger.Debug().Err(err).Str("address", address).Msg("Terminal disconnect failed")
		}
	}()

	if err := client.DisableDevice(ctx); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("Failed to disable terminal, continuing")
	}

	desc := s.describe(ctx, client, address)

	sizes, err := client.ReadSizes(ctx)
	if err != nil {
		return desc, nil, err
	}

	users, err := client.Users(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("Failed to read users, names will be unknown")

		users = nil
	}

	raw, err := client.AttendanceLog(ctx, sizes.Records)
	if err != nil {
		return desc, nil, err
	}

	events, err := parseAttendance(raw, sizes.Records, users, s.opts.Location)
	if err != nil {
		return desc, nil, err
	}

	s.logger.Info().
		Str("address", address).
		Str("serial", desc.Serial).
		Int("users", len(users)).
		Int("events", len(events)).
		Int("reported_records", sizes.Records).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched attendance log")

	return desc, events, nil
}

func (s *Source) describe(ctx context.Context, client *Client, address string) models.TerminalDescriptor {
	var desc models.TerminalDescriptor

	reads := []struct {
		name string
		dst  *string
		read func(context.Context) (string, error)
	}{
		{"serial number", &desc.Serial, client.SerialNumber},
		{"device name", &desc.DisplayName, client.DeviceName},
		{"firmware version", &desc.FirmwareVersion, client.FirmwareVersion},
		{"mac address", &desc.HardwareAddress, client.MACAddress},
	}

	for _, r := range reads {
		value, err := r.read(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Str("address", address).Str("field", r.name).Msg("Terminal did not report field")

			continue
		}

		*r.dst = value
	}

	return desc
}
