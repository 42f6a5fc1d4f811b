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

// Package natsutil holds the NATS connection and event publishing helpers shared by punchsync components.
package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrCAParsingFailed is returned when the CA file holds no usable certificate.
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
	// ErrIncompleteKeyPair is returned when only one of cert_file and key_file is set.
	ErrIncompleteKeyPair = errors.New("cert_file and key_file must be set together")
)

// TLSFiles locates the PEM files for a TLS or mTLS NATS connection.
type TLSFiles struct {
	CAFile     string `json:"ca_file"`
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	ServerName string `json:"server_name"`
}

// TLSConfig builds a client tls.Config. A client certificate is loaded only when both files are given.
func TLSConfig(files *TLSFiles) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: files.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if (files.CertFile == "") != (files.KeyFile == "") {
		return nil, ErrIncompleteKeyPair
	}

	if files.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		cfg.Certificates = []tls.Certificate{cert}
	}

	if files.CAFile != "" {
		caCert, err := os.ReadFile(files.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, ErrCAParsingFailed
		}

		cfg.RootCAs = caPool
	}

	return cfg, nil
}

func (f *TLSFiles) empty() bool {
	return f.CAFile == "" && f.CertFile == "" && f.KeyFile == "" && f.ServerName == ""
}
