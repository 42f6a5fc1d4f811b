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

package scan

import (
	"fmt"
	"net"
)

const (
	localSubnetBits = 24
	maxSubnetHosts  = 1 << 16

	// probeAddress is only used to select the outbound interface; no packet is sent.
	probeAddress = "8.8.8.8:80"
)

// ExpandCIDR expands an IPv4 CIDR into its host addresses, skipping the
// network and broadcast addresses for anything wider than a /32.
func ExpandCIDR(cidr string) ([]string, error) {
	baseIP, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubnet, err)
	}

	if baseIP.To4() == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubnet, cidr)
	}

	ones, bits := ipnet.Mask.Size()
	if bits-ones > 16 {
		return nil, fmt.Errorf("%w: %s", ErrSubnetTooLarge, cidr)
	}

	ips := make([]string, 0, min(1<<(bits-ones), maxSubnetHosts))

	for currentIP := baseIP.Mask(ipnet.Mask).To4(); ipnet.Contains(currentIP); incIP(currentIP) {
		if ones != 32 && (currentIP.Equal(ipnet.IP) || isBroadcast(currentIP, ipnet)) {
			continue
		}

		ips = append(ips, currentIP.String())
	}

	return ips, nil
}

// LocalSubnet returns the /24 around the address the host would use to reach the internet.
func LocalSubnet() (string, error) {
	conn, err := net.Dial("udp4", probeAddress)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoSuitableInterface, err)
	}

	defer func() { _ = conn.Close() }()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return "", ErrNoSuitableInterface
	}

	network := addr.IP.Mask(net.CIDRMask(localSubnetBits, 32))

	return fmt.Sprintf("%s/%d", network, localSubnetBits), nil
}

// incIP increments an IP address in place.
func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

func isBroadcast(ip net.IP, ipnet *net.IPNet) bool {
	network := ipnet.IP.To4()
	broadcast := make(net.IP, len(network))

	for i := range network {
		broadcast[i] = network[i] | ^ipnet.Mask[i]
	}

	return ip.Equal(broadcast)
}
