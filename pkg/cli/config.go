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

package cli

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/punchsync/pkg/attendance"
	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/kv"
	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
	"github.com/carverauto/punchsync/pkg/natsutil"
	"github.com/carverauto/punchsync/pkg/scan"
	"github.com/carverauto/punchsync/pkg/sync"
	"github.com/carverauto/punchsync/pkg/zk"
)

const (
	defaultDataDir  = "punchsync"
	defaultBucket   = "punchsync"
)

// AppConfig is the punchsync configuration document.
type AppConfig struct {
	Store     kv.Config       `json:"store"`
	ERP       ERPConfig       `json:"erp"`
	Reconcile ReconcileConfig `json:"reconcile"`
	Scan      ScanConfig      `json:"scan"`
	Device    DeviceConfig    `json:"device"`
	Events    EventsConfig    `json:"events"`
	Logging   *logger.Config  `json:"logging"`
}

// EventsConfig enables publishing sync and push results to NATS JetStream.
type EventsConfig struct {
	NatsURL  string             `json:"nats_url"`
	Stream   string             `json:"stream"`
	Security *natsutil.Security `json:"security"`
}

// ERPConfig points at the remote attendance API.
type ERPConfig struct {
	APIURL     string          `json:"api_url" validate:"omitempty,url"`
	APIKey     string          `json:"api_key"`
	Timeout    models.Duration `json:"timeout"`
	MaxRetries uint            `json:"max_retries" validate:"lte=10"`
}

// ReconcileConfig tunes the daily reconciler.
type ReconcileConfig struct {
	SuppressionWindow models.Duration `json:"suppression_window"`
	Timezone          string          `json:"timezone"`
}

// ScanConfig tunes network discovery.
type ScanConfig struct {
	Subnet      string          `json:"subnet"`
	Ports       []int           `json:"ports" validate:"omitempty,dive,min=1,max=65535"`
	Timeout     models.Duration `json:"timeout"`
	Concurrency int             `json:"concurrency" validate:"gte=0,lte=1024"`
}

// DeviceConfig tunes the terminal protocol client.
type DeviceConfig struct {
	Timeout      models.Duration `json:"timeout"`
	FetchTimeout models.Duration `json:"fetch_timeout"`
	Password     uint32          `json:"password"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = kv.BackendBadger
	}

	if c.Store.Backend == kv.BackendBadger && c.Store.Path == "" && !c.Store.InMemory {
		c.Store.Path = defaultStorePath()
	}

	if c.Store.Bucket == "" {
		c.Store.Bucket = defaultBucket
	}

	if c.ERP.APIURL == "" {
		c.ERP.APIURL = erp.DefaultBaseURL
	}

	if c.ERP.APIKey == "" {
		c.ERP.APIKey = os.Getenv("PUNCHSYNC_API_KEY")
	}

	if c.Reconcile.SuppressionWindow == 0 {
		c.Reconcile.SuppressionWindow = models.Duration(attendance.DefaultSuppressionWindow)
	}

	if len(c.Scan.Ports) == 0 {
		c.Scan.Ports = scan.DefaultConfig().Ports
	}

	// Progress goes to stderr; only problems are interesting on a terminal.
	switch {
	case c.Logging == nil:
		c.Logging = logger.DefaultConfig()
		if os.Getenv("LOG_LEVEL") == "" {
			c.Logging.Level = "warn"
		}
	case c.Logging.Level == "":
		c.Logging.Level = "warn"
	}
}

// Validate checks what the struct tags cannot.
func (c *AppConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Scan.Subnet != "" {
		if _, err := netip.ParsePrefix(c.Scan.Subnet); err != nil {
			return fmt.Errorf("%w: %s", scan.ErrInvalidSubnet, c.Scan.Subnet)
		}
	}

	switch c.Store.Backend {
	case kv.BackendNATS:
		if c.Store.NatsURL == "" {
			return fmt.Errorf("%w: store.nats_url", errMissingSetting)
		}
	case kv.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: store.database_url", errMissingSetting)
		}
	}

	return nil
}

// Location is the timezone terminals keep their clocks in.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Reconcile.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Reconcile.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile.timezone %q: %w", c.Reconcile.Timezone, err)
	}

	return loc, nil
}

func (c *AppConfig) deviceOptions(loc *time.Location) *zk.Options {
	return &zk.Options{
		ConnectTimeout: c.Device.Timeout.Or(zk.DefaultConnectTimeout),
		IOTimeout:      zk.DefaultIOTimeout,
		Password:       c.Device.Password,
		Location:       loc,
	}
}

func (c *AppConfig) sweepConfig() *scan.Config {
	cfg := scan.DefaultConfig()
	cfg.Subnet = c.Scan.Subnet
	cfg.Ports = c.Scan.Ports
	cfg.Timeout = c.Scan.Timeout.Or(cfg.Timeout)

	if c.Scan.Concurrency > 0 {
		cfg.Concurrency = c.Scan.Concurrency
	}

	return &cfg
}

func (c *AppConfig) erpConfig() *erp.Config {
	return &erp.Config{
		BaseURL:    c.ERP.APIURL,
		APIKey:     c.ERP.APIKey,
		Timeout:    time.Duration(c.ERP.Timeout),
		MaxRetries: c.ERP.MaxRetries,
	}
}

func (c *AppConfig) syncConfig(loc *time.Location) *sync.Config {
	return &sync.Config{
		FetchTimeout: c.Device.FetchTimeout.Or(sync.DefaultFetchTimeout),
		Reconciler: attendance.NewReconciler(
			attendance.WithSuppressionWindow(time.Duration(c.Reconcile.SuppressionWindow)),
			attendance.WithLocation(loc),
		),
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, defaultDataDir, "data")
}
