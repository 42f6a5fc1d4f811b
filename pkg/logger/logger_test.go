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

package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestInit(t *testing.T) {
	err := Init(context.Background(), &Config{Level: "debug", Debug: true, Output: "stdout"})
	require.NoError(t, err)

	l := GetLogger()
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(context.Background(), &Config{Level: "loud"})
	require.Error(t, err)
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)
	l := GetLogger()
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	SetDebug(false)
	l = GetLogger()
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("test-component")
	assert.NotEqual(t, zerolog.Disabled, componentLogger.GetLevel())
}

func TestWrapWritesComponentField(t *testing.T) {
	var buf bytes.Buffer

	l := Wrap(zerolog.New(&buf))
	cl := l.WithComponent("registry")
	cl.Info().Str("terminal", "serial:SN1").Msg("Merged terminal")

	assert.Contains(t, buf.String(), `"component":"registry"`)
	assert.Contains(t, buf.String(), `"terminal":"serial:SN1"`)

	buf.Reset()
	l.SetLevel(zerolog.WarnLevel)
	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	config := DefaultConfig()
	assert.Equal(t, "info", config.Level)
	assert.NotEmpty(t, config.Output)
	assert.Equal(t, "punchsync", config.OTel.ServiceName)
	assert.False(t, config.OTel.Enabled)
}

func TestDefaultOTelConfigHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "x-api-key=abc, tenant = acme")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT", "2s")

	config := DefaultOTelConfig()
	assert.Equal(t, "abc", config.Headers["x-api-key"])
	assert.Equal(t, "acme", config.Headers["tenant"])
	assert.Equal(t, "2s", config.BatchTimeout.String())
}

func TestNewOTELWriterValidation(t *testing.T) {
	_, err := NewOTELWriter(context.Background(), OTelConfig{})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)

	_, err = NewOTELWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
}

func TestOTelWriterAcceptsZerologLines(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	w := newOTelWriter(context.Background(), provider)

	line := []byte(`{"level":"info","component":"sync","terminals":2,"time":"2025-01-02T03:04:05Z","message":"Sync finished"}`)
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	// Non-JSON input is swallowed rather than failing the primary writer.
	n, err = w.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	assert.Contains(t, w.loggers, "sync")
}

func TestMapZerologLevelToOTEL(t *testing.T) {
	assert.Equal(t, log.SeverityWarn, mapZerologLevelToOTEL("WARN"))
	assert.Equal(t, log.SeverityFatal, mapZerologLevelToOTEL("panic"))
	assert.Equal(t, log.SeverityInfo, mapZerologLevelToOTEL("bogus"))
}

func TestInitializeMetricsDisabled(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), MetricsConfig{})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer

	mw := NewMultiWriter(&a, &b)
	n, err := mw.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "x", a.String())
	assert.Equal(t, "x", b.String())
}
