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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
)

var errNoBackend = errors.New("backend must be set")

type testStoreConfig struct {
	Backend string `json:"backend" validate:"required,oneof=badger nats"`
	Path    string `json:"path"`
}

type testConfig struct {
	Store     testStoreConfig `json:"store"`
	Window    models.Duration `json:"window"`
	Timeout   time.Duration   `json:"timeout"`
	Ports     []int           `json:"ports"`
	Tags      []string        `json:"tags"`
	Verbose   bool            `json:"verbose"`
	Workers   int             `json:"workers" validate:"gte=0"`
	defaulted bool
}

func (c *testConfig) ApplyDefaults() {
	if c.Window == 0 {
		c.Window = models.Duration(50 * time.Second)
	}

	c.defaulted = true
}

func (c *testConfig) Validate() error {
	if c.Store.Backend == "" {
		return errNoBackend
	}

	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "punchsync.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeConfig(t, `{"store":{"backend":"badger","path":"/tmp/db"},"ports":[4370,80]}`)

	var cfg testConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, []int{4370, 80}, cfg.Ports)
	assert.Equal(t, 50*time.Second, time.Duration(cfg.Window))
	assert.True(t, cfg.defaulted)
}

func TestLoadAndValidateRejectsTagViolation(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfig(t, `{"store":{"backend":"sqlite"}}`)

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend")
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "/does/not/exist.json", &cfg)
	require.Error(t, err)
}

func TestLoadAndValidateInvalidSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvConfigLoader(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("PUNCHSYNC_CONFIG_JSON", "")
	t.Setenv("PUNCHSYNC_STORE_BACKEND", "nats")
	t.Setenv("PUNCHSYNC_STORE_PATH", "bucket")
	t.Setenv("PUNCHSYNC_WINDOW", "30s")
	t.Setenv("PUNCHSYNC_TIMEOUT", "2s")
	t.Setenv("PUNCHSYNC_PORTS", "[4370,8080]")
	t.Setenv("PUNCHSYNC_TAGS", "a, b")
	t.Setenv("PUNCHSYNC_VERBOSE", "true")
	t.Setenv("PUNCHSYNC_WORKERS", "12")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "nats", cfg.Store.Backend)
	assert.Equal(t, "bucket", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Window))
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, []int{4370, 8080}, cfg.Ports)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 12, cfg.Workers)
}

func TestEnvConfigLoaderConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("PUNCHSYNC_CONFIG_JSON", `{"store":{"backend":"badger"},"workers":3}`)

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Workers)
}

func TestEnvConfigLoaderRejectsNonPointer(t *testing.T) {
	t.Setenv("X_CONFIG_JSON", "")

	loader := NewEnvConfigLoader(logger.NewTestLogger(), "X_")

	var cfg testConfig
	require.ErrorIs(t, loader.Load(context.Background(), "", cfg), ErrDstMustBeNonNilPointer)

	s := "not a struct"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}
