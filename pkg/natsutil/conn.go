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

package natsutil

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/punchsync/pkg/logger"
)

const (
	clientName    = "punchsync"
	reconnectWait = 2 * time.Second
	maxReconnects = 10
)

// Security is the optional authentication for a NATS connection.
type Security struct {
	TLS       *TLSFiles `json:"tls"`
	CredsFile string    `json:"creds_file"`
}

// Options builds connection options with logging handlers and, when configured, TLS and credentials.
func Options(sec *Security, log logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if sec == nil {
		return opts, nil
	}

	if sec.TLS != nil && !sec.TLS.empty() {
		tlsConf, err := TLSConfig(sec.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	if sec.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(sec.CredsFile))
	}

	return opts, nil
}

// Connect dials natsURL with Options.
func Connect(natsURL string, sec *Security, log logger.Logger) (*nats.Conn, error) {
	opts, err := Options(sec, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Debug().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")

	return nc, nil
}
