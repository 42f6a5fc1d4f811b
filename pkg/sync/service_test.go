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

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/punchsync/pkg/attendance"
	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/kv"
	"github.com/carverauto/punchsync/pkg/logger"
	"github.com/carverauto/punchsync/pkg/models"
	"github.com/carverauto/punchsync/pkg/store"
	"github.com/carverauto/punchsync/pkg/terminal"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = fixedClock(time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC))

func newTestStore(t *testing.T, snapshot models.RegistrySnapshot) *store.Store {
	t.Helper()

	backend, err := kv.NewBadgerStore("", true)
	require.NoError(t, err)

	s := store.New(backend, logger.NewTestLogger())
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SaveRegistry(context.Background(), snapshot))

	return s
}

type fixture struct {
	svc        *Service
	store      *store.Store
	source     *MockEventSource
	discoverer *MockDiscoverer
	endpoint   *MockEndpoint
}

func newFixture(t *testing.T, snapshot models.RegistrySnapshot) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		store:      newTestStore(t, snapshot),
		source:     NewMockEventSource(ctrl),
		discoverer: NewMockDiscoverer(ctrl),
		endpoint:   NewMockEndpoint(ctrl),
	}

	svc, err := NewService(context.Background(), Dependencies{
		Store:      f.store,
		Source:     f.source,
		Discoverer: f.discoverer,
		Endpoint:   f.endpoint,
	}, &Config{
		FetchTimeout: time.Second,
		Reconciler:   attendance.NewReconciler(attendance.WithClock(testNow), attendance.WithLocation(time.UTC)),
		Clock:        testNow,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	f.svc = svc

	return f
}

func twoTerminals() models.RegistrySnapshot {
	return models.RegistrySnapshot{
		Terminals: []models.Terminal{
			{Address: "10.0.0.5", OpenPorts: []int{80, 4370}},
			{Address: "10.0.0.9"},
		},
		Selected: []string{"addr:10.0.0.5", "addr:10.0.0.9"},
	}
}

func punches() []models.RawEvent {
	return []models.RawEvent{
		{UserID: 7, UserName: "Asha", Date: "2024-03-01", Time: "09:00:00", Status: models.StatusCheckIn},
		{UserID: 7, UserName: "Asha", Date: "2024-03-01", Time: "09:00:20", Status: models.StatusCheckIn},
		{UserID: 7, UserName: "Asha", Date: "2024-03-01", Time: "17:30:00", Status: models.StatusCheckOut},
	}
}

func TestSyncContinuesPastUnreachableTerminal(t *testing.T) {
	f := newFixture(t, twoTerminals())
	ctx := context.Background()

	gomock.InOrder(
		f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", models.DefaultSyncPort).
			Return(models.TerminalDescriptor{Serial: "SN1", DisplayName: "K40"}, punches(), nil),
		f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.9", models.DefaultSyncPort).
			Return(models.TerminalDescriptor{}, nil, errors.New("connection refused")),
	)

	result, err := f.svc.SyncTerminals(ctx, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.TerminalErrors, 1)
	assert.Equal(t, "10.0.0.9", result.TerminalErrors[0].Address)
	require.ErrorIs(t, &result.TerminalErrors[0], ErrTerminalUnreachable)
	assert.True(t, result.Failed())

	require.Len(t, result.Summaries, 1)
	summary := result.Summaries[0]
	assert.Equal(t, 7, summary.UserID)
	assert.Equal(t, "09:00:00", summary.FirstPunch)
	assert.Equal(t, models.ResolvedPunch("17:30:00"), summary.LastPunch)
	assert.Equal(t, 3, summary.PunchCount)

	// The fetched terminal is now known by its serial, and its history moved with it.
	assert.Equal(t, []string{"addr:10.0.0.9", "serial:SN1"}, f.svc.Registry().Selected())

	stored, err := f.store.LoadEvents(ctx, "serial:SN1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	stale, err := f.store.LoadEvents(ctx, "addr:10.0.0.5")
	require.NoError(t, err)
	assert.Empty(t, stale)

	snapshot, err := f.store.LoadRegistry(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Terminals, 2)
	assert.Equal(t, "SN1", snapshot.Terminals[0].Serial)
	require.NotNil(t, snapshot.Terminals[0].LastSyncedAt)
	assert.True(t, time.Time(testNow).Equal(*snapshot.Terminals[0].LastSyncedAt))
	assert.Nil(t, snapshot.Terminals[1].LastSyncedAt)
}

func TestSyncExplicitRefs(t *testing.T) {
	f := newFixture(t, twoTerminals())

	f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.9", models.DefaultSyncPort).
		Return(models.TerminalDescriptor{}, punches(), nil)

	result, err := f.svc.SyncTerminals(context.Background(), []string{"10.0.0.9", "addr:10.0.0.9"})
	require.NoError(t, err)
	assert.Len(t, result.Events, 3)
	assert.False(t, result.Failed())
}

func TestSyncUnknownRef(t *testing.T) {
	f := newFixture(t, twoTerminals())

	_, err := f.svc.SyncTerminals(context.Background(), []string{"10.9.9.9"})
	require.ErrorIs(t, err, terminal.ErrTerminalNotFound)
}

func TestSyncRequiresSelection(t *testing.T) {
	f := newFixture(t, models.RegistrySnapshot{Terminals: []models.Terminal{{Address: "10.0.0.5"}}})

	_, err := f.svc.SyncTerminals(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoTerminalsSelected)
}

func TestSyncCancelledAtTerminalBoundary(t *testing.T) {
	f := newFixture(t, twoTerminals())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", gomock.Any()).
		DoAndReturn(func(fetchCtx context.Context, _ string, _ int) (models.TerminalDescriptor, []models.RawEvent, error) {
			cancel()

			// The in-flight fetch is not interrupted by the caller's cancellation.
			require.NoError(t, fetchCtx.Err())

			return models.TerminalDescriptor{}, punches(), nil
		})

	result, err := f.svc.SyncTerminals(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Len(t, result.Events, 3)
	assert.Len(t, result.Summaries, 1)

	stored, err := f.store.LoadEvents(context.Background(), "addr:10.0.0.5")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestSyncInProgress(t *testing.T) {
	f := newFixture(t, twoTerminals())

	started := make(chan struct{})
	release := make(chan struct{})

	f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", gomock.Any()).
		DoAndReturn(func(context.Context, string, int) (models.TerminalDescriptor, []models.RawEvent, error) {
			close(started)
			<-release

			return models.TerminalDescriptor{}, nil, nil
		})

	done := make(chan error, 1)

	go func() {
		_, err := f.svc.SyncTerminals(context.Background(), []string{"10.0.0.5"})
		done <- err
	}()

	<-started

	_, err := f.svc.SyncTerminals(context.Background(), nil)
	require.ErrorIs(t, err, ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestSyncStoreFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := NewMockStore(ctrl)
	source := NewMockEventSource(ctrl)

	st.EXPECT().LoadRegistry(gomock.Any()).Return(twoTerminals(), nil)

	svc, err := NewService(context.Background(), Dependencies{Store: st, Source: source}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	boom := errors.New("disk full")

	source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", gomock.Any()).
		Return(models.TerminalDescriptor{}, punches(), nil)
	st.EXPECT().SaveEvents(gomock.Any(), "addr:10.0.0.5", gomock.Any()).Return(boom)

	_, err = svc.SyncTerminals(context.Background(), nil)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, err, boom)
}

func TestNewServiceStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := NewMockStore(ctrl)

	st.EXPECT().LoadRegistry(gomock.Any()).Return(models.RegistrySnapshot{}, errors.New("locked"))

	_, err := NewService(context.Background(), Dependencies{Store: st, Source: NewMockEventSource(ctrl)}, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = NewService(context.Background(), Dependencies{Store: st}, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrMissingDependency)
}

func TestSyncMalformedEventsBecomeWarnings(t *testing.T) {
	f := newFixture(t, twoTerminals())

	events := append(punches(), models.RawEvent{UserID: 8, Date: "2024-13-45", Time: "08:00:00"})

	f.source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", gomock.Any()).
		Return(models.TerminalDescriptor{}, events, nil)

	result, err := f.svc.SyncTerminals(context.Background(), []string{"addr:10.0.0.5"})
	require.NoError(t, err)
	assert.Len(t, result.Summaries, 1)
	assert.Len(t, result.Warnings, 1)
}

func TestSummariesUseStoredHistory(t *testing.T) {
	f := newFixture(t, twoTerminals())
	ctx := context.Background()

	require.NoError(t, f.store.SaveEvents(ctx, "addr:10.0.0.5", punches()))

	result, err := f.svc.Summaries(ctx, nil)
	require.NoError(t, err)
	require.Len(t, result.Summaries, 1)
	assert.Equal(t, 3, result.Summaries[0].PunchCount)
	assert.Equal(t, []string{"no stored history for terminal addr:10.0.0.9"}, result.Warnings)
}

func TestPush(t *testing.T) {
	f := newFixture(t, twoTerminals())

	summaries := []models.DailySummary{
		{UserID: 7, Date: "2024-03-01", FirstPunch: "09:00:00", LastPunch: models.ResolvedPunch("17:30:00"), PunchCount: 2},
		{UserID: 8, Date: "2024-03-02", FirstPunch: "08:00:00", LastPunch: models.PunchMark{State: models.PunchOngoing}, PunchCount: 1},
	}

	f.endpoint.EXPECT().PushAttendance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, records []erp.AttendanceRecord) (*models.SyncOutcome, error) {
			require.Len(t, records, 2)
			assert.Equal(t, 7, records[0].Faculty)
			require.NotNil(t, records[0].CheckOutTime)
			assert.Equal(t, "17:30:00", *records[0].CheckOutTime)
			assert.Nil(t, records[1].CheckOutTime)

			return &models.SyncOutcome{Accepted: 1, Skipped: 1, Errors: []string{"duplicate"}}, nil
		})

	outcome, err := f.svc.Push(context.Background(), summaries)
	require.NoError(t, err)
	assert.True(t, outcome.Partial())
	assert.Equal(t, []string{"duplicate"}, outcome.Errors)
}

func TestPushInvalidCredential(t *testing.T) {
	f := newFixture(t, twoTerminals())

	f.endpoint.EXPECT().PushAttendance(gomock.Any(), gomock.Any()).
		Return(nil, &erp.APIError{StatusCode: 401, Message: "invalid key"})

	_, err := f.svc.Push(context.Background(), []models.DailySummary{{UserID: 7, Date: "2024-03-01", FirstPunch: "09:00:00"}})
	require.ErrorIs(t, err, erp.ErrInvalidCredential)
}

func TestPushWithoutEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)

	svc, err := NewService(context.Background(), Dependencies{
		Store:  newTestStore(t, models.RegistrySnapshot{}),
		Source: NewMockEventSource(ctrl),
	}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = svc.Push(context.Background(), nil)
	require.ErrorIs(t, err, ErrEndpointNotConfigured)

	_, err = svc.TestConnection(context.Background())
	require.ErrorIs(t, err, ErrEndpointNotConfigured)

	_, err = svc.Discover(context.Background())
	require.ErrorIs(t, err, ErrDiscoveryNotConfigured)
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t, twoTerminals())

	f.endpoint.EXPECT().VerifyCredential(gomock.Any()).
		Return(&erp.CredentialInfo{Valid: true, AppName: "punchsync"}, nil)

	info, err := f.svc.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "punchsync", info.AppName)
}

func TestDiscoverMovesRekeyedHistory(t *testing.T) {
	f := newFixture(t, twoTerminals())
	ctx := context.Background()

	require.NoError(t, f.store.SaveEvents(ctx, "addr:10.0.0.9", punches()))

	f.discoverer.EXPECT().Discover(gomock.Any()).Return([]models.Terminal{
		{Address: "10.0.0.9", Serial: "SN9", OpenPorts: []int{4370}},
		{Address: "10.0.0.20", HardwareAddress: models.UnknownHardwareAddress, OpenPorts: []int{4370}},
	}, nil)

	report, err := f.svc.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.MergedByAddress)
	assert.Equal(t, map[string]string{"addr:10.0.0.9": "serial:SN9"}, report.Rekeyed)

	moved, err := f.store.LoadEvents(ctx, "serial:SN9")
	require.NoError(t, err)
	assert.Len(t, moved, 3)

	old, err := f.store.LoadEvents(ctx, "addr:10.0.0.9")
	require.NoError(t, err)
	assert.Empty(t, old)

	snapshot, err := f.store.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Terminals, 3)
	assert.Contains(t, snapshot.Selected, "serial:SN9")
}

func TestDiscoverStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := NewMockStore(ctrl)
	discoverer := NewMockDiscoverer(ctrl)

	st.EXPECT().LoadRegistry(gomock.Any()).Return(twoTerminals(), nil)

	svc, err := NewService(context.Background(),
		Dependencies{Store: st, Source: NewMockEventSource(ctrl), Discoverer: discoverer}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	discoverer.EXPECT().Discover(gomock.Any()).Return([]models.Terminal{
		{Address: "10.0.0.9", Serial: "SN9", OpenPorts: []int{4370}},
	}, nil)
	st.EXPECT().LoadEvents(gomock.Any(), "addr:10.0.0.9").Return(punches(), nil)
	st.EXPECT().SaveRegistryWithEvents(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snapshot models.RegistrySnapshot, events map[string][]models.RawEvent) error {
			assert.Len(t, events["serial:SN9"], 3)
			assert.Len(t, snapshot.Terminals, 2)

			return errors.New("disk full")
		})

	_, err = svc.Discover(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDiscoverCancelledLeavesRegistry(t *testing.T) {
	f := newFixture(t, twoTerminals())

	f.discoverer.EXPECT().Discover(gomock.Any()).Return(nil, context.Canceled)

	_, err := f.svc.Discover(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, f.svc.Registry().Len())
}

func TestTerminalManagement(t *testing.T) {
	f := newFixture(t, twoTerminals())
	ctx := context.Background()

	added, err := f.svc.AddTerminal(ctx, "10.0.0.30")
	require.NoError(t, err)
	assert.Equal(t, "addr:10.0.0.30", added.IdentityKey())

	require.NoError(t, f.svc.RenameTerminal(ctx, "10.0.0.30", "Library"))
	require.NoError(t, f.svc.SelectTerminals(ctx, "10.0.0.30"))
	require.NoError(t, f.svc.DeselectTerminals(ctx, "addr:10.0.0.5"))

	require.NoError(t, f.store.SaveEvents(ctx, "addr:10.0.0.9", punches()))
	require.NoError(t, f.svc.RemoveTerminal(ctx, "10.0.0.9"))

	history, err := f.store.LoadEvents(ctx, "addr:10.0.0.9")
	require.NoError(t, err)
	assert.Empty(t, history)

	snapshot, err := f.store.LoadRegistry(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Terminals, 2)
	assert.Equal(t, "Library", snapshot.Terminals[1].CustomName)
	assert.Equal(t, []string{"addr:10.0.0.30"}, snapshot.Selected)

	assert.Len(t, f.svc.Terminals(), 2)
}

func TestNotifierSeesSyncAndPush(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockEventSource(ctrl)
	endpoint := NewMockEndpoint(ctrl)
	notifier := NewMockNotifier(ctrl)

	svc, err := NewService(context.Background(), Dependencies{
		Store:    newTestStore(t, twoTerminals()),
		Source:   source,
		Endpoint: endpoint,
		Notifier: notifier,
	}, &Config{Clock: testNow}, logger.NewTestLogger())
	require.NoError(t, err)

	source.EXPECT().FetchEvents(gomock.Any(), "10.0.0.5", gomock.Any()).
		Return(models.TerminalDescriptor{}, punches(), nil)
	notifier.EXPECT().SyncCompleted(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, result *models.SyncResult) error {
			assert.Len(t, result.Events, 3)

			// A broken notifier only costs a log line.
			return errors.New("nats down")
		})

	result, err := svc.SyncTerminals(context.Background(), []string{"10.0.0.5"})
	require.NoError(t, err)

	endpoint.EXPECT().PushAttendance(gomock.Any(), gomock.Any()).
		Return(&models.SyncOutcome{Accepted: 1}, nil)
	notifier.EXPECT().PushCompleted(gomock.Any(), &models.SyncOutcome{Accepted: 1}).Return(nil)

	outcome, err := svc.Push(context.Background(), result.Summaries)
	require.NoError(t, err)
	assert.True(t, outcome.Clean())
}
