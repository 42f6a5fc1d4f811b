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

// Package scan discovers attendance terminals by sweeping a subnet for their TCP ports.
package scan

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

const (
	defaultTimeout      = 300 * time.Millisecond
	defaultExtraTimeout = 200 * time.Millisecond
	defaultConcurrency  = 100
)

// Config controls a discovery sweep.
type Config struct {
	// Subnet is the IPv4 CIDR to sweep. Empty means the /24 of the outbound interface.
	Subnet string
	// Ports are the terminal protocol ports in priority order. A host is a
	// terminal when any of them accepts a connection.
	Ports []int
	// ExtraPorts are recorded for hosts that answered on the first protocol port.
	ExtraPorts   []int
	Timeout      time.Duration
	ExtraTimeout time.Duration
	Concurrency  int
	ARPTable     string
}

// DefaultConfig probes 4370 then 4360, recording the web ports of hits.
func DefaultConfig() Config {
	return Config{
		Ports:        []int{models.DefaultSyncPort, 4360},
		ExtraPorts:   []int{80, 8080},
		Timeout:      defaultTimeout,
		ExtraTimeout: defaultExtraTimeout,
		Concurrency:  defaultConcurrency,
		ARPTable:     DefaultARPTable,
	}
}

// TCPSweeper finds terminals with plain TCP connect probes.
type TCPSweeper struct {
	cfg    Config
	dialer net.Dialer
	logger logger.Logger
}

// NewTCPSweeper fills unset fields of cfg from DefaultConfig.
func NewTCPSweeper(cfg *Config, log logger.Logger) *TCPSweeper {
	c := DefaultConfig()

	if cfg != nil {
		c.Subnet = cfg.Subnet

		if len(cfg.Ports) > 0 {
			c.Ports = cfg.Ports
		}

		if cfg.ExtraPorts != nil {
			c.ExtraPorts = cfg.ExtraPorts
		}

		if cfg.Timeout > 0 {
			c.Timeout = cfg.Timeout
		}

		if cfg.ExtraTimeout > 0 {
			c.ExtraTimeout = cfg.ExtraTimeout
		}

		if cfg.Concurrency > 0 {
			c.Concurrency = cfg.Concurrency
		}

		if cfg.ARPTable != "" {
			c.ARPTable = cfg.ARPTable
		}
	}

	return &TCPSweeper{cfg: c, logger: log}
}

// Discover sweeps the subnet and returns every host answering on a terminal
// port, ordered by address. A cancelled sweep returns no results.
func (s *TCPSweeper) Discover(ctx context.Context) ([]models.Terminal, error) {
	subnet := s.cfg.Subnet
	if subnet == "" {
		local, err := LocalSubnet()
		if err != nil {
			return nil, err
		}

		subnet = local
	}

	hosts, err := ExpandCIDR(subnet)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	s.logger.Info().
		Str("subnet", subnet).
		Int("hosts", len(hosts)).
		Ints("ports", s.cfg.Ports).
		Msg("Scanning network for terminals")

	var (
		mu    sync.Mutex
		found []models.Terminal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, host := range hosts {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			ports := s.probeHost(gctx, host)
			if len(ports) == 0 {
				return nil
			}

			s.logger.Debug().Str("address", host).Ints("ports", ports).Msg("Found terminal")

			mu.Lock()
			found = append(found, models.Terminal{Address: host, OpenPorts: ports})
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	arp := readARPTable(s.cfg.ARPTable)
	for i := range found {
		found[i].HardwareAddress = models.UnknownHardwareAddress
		if mac, ok := arp[found[i].Address]; ok {
			found[i].HardwareAddress = mac
		}
	}

	slices.SortFunc(found, func(a, b models.Terminal) int {
		return compareAddr(a.Address, b.Address)
	})

	s.logger.Info().
		Int("terminals", len(found)).
		Dur("elapsed", time.Since(start)).
		Msg("Scan complete")

	return found, nil
}

// probeHost returns the open ports of host, or nil when it is not a terminal.
func (s *TCPSweeper) probeHost(ctx context.Context, host string) []int {
	primary := s.cfg.Ports[0]

	if s.checkPort(ctx, host, primary, s.cfg.Timeout) {
		open := []int{primary}

		for _, port := range append(slices.Clone(s.cfg.ExtraPorts), s.cfg.Ports[1:]...) {
			if s.checkPort(ctx, host, port, s.cfg.ExtraTimeout) {
				open = append(open, port)
			}
		}

		return open
	}

	for _, port := range s.cfg.Ports[1:] {
		if s.checkPort(ctx, host, port, s.cfg.Timeout) {
			return []int{port}
		}
	}

	return nil
}

func (s *TCPSweeper) checkPort(ctx context.Context, host string, port int, timeout time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := s.dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}

	if err := conn.Close(); err != nil {
		s.logger.Debug().Err(err).Str("address", host).Msg("Failed to close probe connection")
	}

	return true
}

func compareAddr(a, b string) int {
	ipA, errA := netip.ParseAddr(a)
	ipB, errB := netip.ParseAddr(b)

	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}

	return ipA.Compare(ipB)
}
