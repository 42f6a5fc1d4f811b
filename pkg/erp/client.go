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

// Package erp pushes reconciled attendance to the ERP bulk attendance API.
package erp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

const (
	DefaultBaseURL = "https://api.alagappa.org"

	bulkAttendancePath = "/api/v1/attendance/faculty-attendance/bulk/"
	verifyKeyPath      = "/api/v1/access-control/api-keys/verify/"

	defaultTimeout          = 30 * time.Second
	defaultRetryInterval    = 500 * time.Millisecond
	defaultMaxRetries       = 3
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second

	maxErrorBody = 512
)

var errServerStatus = errors.New("server error")

// HTTPClient is the subset of *http.Client the ERP client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds endpoint and resilience settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxRetries bounds retries of transport failures and 5xx answers. Zero uses the default.
	MaxRetries       uint
	RetryInterval    time.Duration
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

type response struct {
	status int
	body   []byte
}

// Client talks to the ERP attendance API.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a client; unset config fields take defaults.
func NewClient(cfg *Config, log logger.Logger, opts ...Option) *Client {
	c := &Client{cfg: withDefaults(cfg), logger: log}
	c.httpClient = &http.Client{Timeout: c.cfg.Timeout}

	threshold := c.cfg.FailureThreshold

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "erp",
		Timeout: c.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("circuit_breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ERP circuit breaker state changed")
		},
	})

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func withDefaults(cfg *Config) Config {
	out := Config{}
	if cfg != nil {
		out = *cfg
	}

	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}

	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}

	if out.MaxRetries == 0 {
		out.MaxRetries = defaultMaxRetries
	}

	if out.RetryInterval <= 0 {
		out.RetryInterval = defaultRetryInterval
	}

	if out.FailureThreshold == 0 {
		out.FailureThreshold = defaultFailureThreshold
	}

	if out.BreakerTimeout <= 0 {
		out.BreakerTimeout = defaultBreakerTimeout
	}

	return out
}

// PushAttendance submits records as one batch and returns the endpoint's
// per-record accounting. A rejected key yields ErrInvalidCredential; a batch
// the endpoint processed with per-record failures is not an error.
func (c *Client) PushAttendance(ctx context.Context, records []AttendanceRecord) (*models.SyncOutcome, error) {
	if len(records) == 0 {
		return &models.SyncOutcome{}, nil
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attendance batch: %w", err)
	}

	c.logger.Info().Int("records", len(records)).Str("endpoint", c.cfg.BaseURL+bulkAttendancePath).Msg("Pushing attendance batch")

	resp, err := c.call(ctx, bulkAttendancePath, body)
	if err != nil {
		return nil, err
	}

	var decoded bulkResponse
	if err := json.Unmarshal(resp.body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}

	outcome := decoded.outcome()

	c.logger.Info().
		Int("accepted", outcome.Accepted).
		Int("skipped", outcome.Skipped).
		Int("failed", outcome.Failed).
		Msg("Attendance batch processed")

	return outcome, nil
}

// VerifyCredential checks the API key without transferring attendance.
// A key the endpoint reports as invalid is returned with ErrInvalidCredential.
func (c *Client) VerifyCredential(ctx context.Context) (*CredentialInfo, error) {
	resp, err := c.call(ctx, verifyKeyPath, nil)
	if err != nil {
		return nil, err
	}

	var info CredentialInfo
	if err := json.Unmarshal(resp.body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	if !info.Valid {
		return &info, fmt.Errorf("%w: key reported invalid", ErrInvalidCredential)
	}

	return &info, nil
}

// call POSTs body to path through the circuit breaker, retrying transport
// failures and 5xx answers, and maps the final status to an error.
func (c *Client) call(ctx context.Context, path string, body []byte) (*response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryInterval

	operation := func() (*response, error) {
		resp, err := c.breaker.Execute(func() (*response, error) {
			return c.do(ctx, path, body)
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrCircuitOpen, err))
		case errors.Is(err, errServerStatus):
			c.logger.Warn().Int("status", resp.status).Str("path", path).Msg("ERP server error, retrying")

			return nil, apiError(resp)
		case err != nil:
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}

			c.logger.Warn().Err(err).Str("path", path).Msg("ERP request failed, retrying")

			return nil, err
		}

		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
	)
	if err != nil {
		return nil, err
	}

	if resp.status < 200 || resp.status >= 300 {
		return nil, apiError(resp)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, path string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Authorization", "Api-Key "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	resp := &response{status: httpResp.StatusCode, body: data}

	if resp.status >= http.StatusInternalServerError {
		return resp, errServerStatus
	}

	return resp, nil
}

func apiError(resp *response) *APIError {
	msg := strings.TrimSpace(string(resp.body))

	var decoded errorResponse
	if err := json.Unmarshal(resp.body, &decoded); err == nil {
		switch {
		case decoded.Error != "":
			msg = decoded.Error
		case decoded.Detail != "":
			msg = decoded.Detail
		}
	}

	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}

	if msg == "" {
		msg = http.StatusText(resp.status)
	}

	return &APIError{StatusCode: resp.status, Message: msg}
}
