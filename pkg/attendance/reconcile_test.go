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

package attendance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/punchsync/pkg/models"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func at(date, clock string) time.Time {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.UTC)
	if err != nil {
		panic(err)
	}

	return t
}

func punch(userID int, name, date, clock string) models.RawEvent {
	return models.RawEvent{UserID: userID, UserName: name, Date: date, Time: clock, Timestamp: at(date, clock)}
}

func newTestReconciler(now time.Time) *Reconciler {
	return NewReconciler(WithClock(fixedClock{now: now}), WithLocation(time.UTC))
}

func TestReconcileDuplicateWithinWindow(t *testing.T) {
	r := newTestReconciler(at("2024-03-05", "10:00:00"))

	summaries, warnings := r.Reconcile([]models.RawEvent{
		punch(7, "Asha", "2024-03-01", "09:00:00"),
		punch(7, "Asha", "2024-03-01", "09:00:05"),
		punch(7, "Asha", "2024-03-01", "17:30:00"),
	})

	require.Empty(t, warnings)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 7, s.UserID)
	assert.Equal(t, "Asha", s.UserName)
	assert.Equal(t, "09:00:00", s.FirstPunch)
	assert.Equal(t, models.ResolvedPunch("17:30:00"), s.LastPunch)
	assert.Equal(t, 3, s.PunchCount)
	assert.Equal(t, 8*time.Hour+30*time.Minute, s.WorkedDuration)
}

func TestReconcileOngoingToday(t *testing.T) {
	r := newTestReconciler(at("2024-03-01", "12:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{punch(1, "Ravi", "2024-03-01", "09:00:00")})
	require.Len(t, summaries, 1)

	assert.Equal(t, models.PunchOngoing, summaries[0].LastPunch.State)
	assert.Equal(t, 3*time.Hour, summaries[0].WorkedDuration)
}

func TestReconcileOngoingIgnoresNegativeOpenTime(t *testing.T) {
	r := newTestReconciler(at("2024-03-01", "08:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{punch(1, "Ravi", "2024-03-01", "09:00:00")})
	require.Len(t, summaries, 1)

	assert.Equal(t, models.PunchOngoing, summaries[0].LastPunch.State)
	assert.Zero(t, summaries[0].WorkedDuration)
}

func TestReconcileOngoingAfterClosedPair(t *testing.T) {
	r := newTestReconciler(at("2024-03-01", "15:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{
		punch(1, "Ravi", "2024-03-01", "09:00:00"),
		punch(1, "Ravi", "2024-03-01", "12:00:00"),
		punch(1, "Ravi", "2024-03-01", "13:00:00"),
	})
	require.Len(t, summaries, 1)

	assert.Equal(t, models.PunchOngoing, summaries[0].LastPunch.State)
	assert.Equal(t, 5*time.Hour, summaries[0].WorkedDuration)
}

func TestReconcileUnresolvedPastDay(t *testing.T) {
	r := newTestReconciler(at("2024-03-02", "12:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{
		punch(1, "Ravi", "2024-03-01", "09:00:00"),
		punch(1, "Ravi", "2024-03-01", "12:00:00"),
		punch(1, "Ravi", "2024-03-01", "13:00:00"),
	})
	require.Len(t, summaries, 1)

	assert.Equal(t, models.PunchUnresolved, summaries[0].LastPunch.State)
	assert.Equal(t, 3*time.Hour, summaries[0].WorkedDuration)
}

func TestReconcileTodayUsesConfiguredLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 2024-03-01 20:00 UTC is already 2024-03-02 in IST.
	r := NewReconciler(WithClock(fixedClock{now: at("2024-03-01", "20:00:00")}), WithLocation(ist))

	summaries, _ := r.Reconcile([]models.RawEvent{punch(1, "Ravi", "2024-03-01", "09:00:00")})
	require.Len(t, summaries, 1)
	assert.Equal(t, models.PunchUnresolved, summaries[0].LastPunch.State)
}

func TestReconcileWindowBoundary(t *testing.T) {
	r := newTestReconciler(at("2024-03-05", "00:00:00"))

	tests := []struct {
		name   string
		second string
		want   time.Duration
	}{
		{name: "exactly window apart is suppressed", second: "09:00:50", want: 0},
		{name: "just past window is kept", second: "09:00:51", want: 51 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries, _ := r.Reconcile([]models.RawEvent{
				punch(1, "Ravi", "2024-03-01", "09:00:00"),
				punch(1, "Ravi", "2024-03-01", tt.second),
			})
			require.Len(t, summaries, 1)
			assert.Equal(t, 2, summaries[0].PunchCount)
			assert.Equal(t, tt.want, summaries[0].WorkedDuration)
		})
	}
}

func TestSuppressComparesAgainstLastKept(t *testing.T) {
	events := []NormalizedEvent{
		{Seconds: 0, Time: "00:00:00"},
		{Seconds: 40, Time: "00:00:40"},
		{Seconds: 80, Time: "00:01:20"},
	}

	kept := Suppress(events, DefaultSuppressionWindow)
	require.Len(t, kept, 2)
	assert.Equal(t, 0, kept[0].Seconds)
	assert.Equal(t, 80, kept[1].Seconds)
}

func TestSuppressIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		events := make([]NormalizedEvent, rng.Intn(40))
		for i := range events {
			events[i] = NormalizedEvent{Seconds: rng.Intn(3600), Sequence: i}
		}

		sortEvents(events)

		once := Suppress(events, DefaultSuppressionWindow)
		twice := Suppress(once, DefaultSuppressionWindow)
		assert.Equal(t, once, twice)
	}
}

func TestReconcileOrdering(t *testing.T) {
	r := newTestReconciler(at("2024-03-10", "00:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{
		punch(2, "Zara", "2024-03-01", "09:00:00"),
		punch(1, "Arun", "2024-03-01", "09:00:00"),
		punch(3, "Meena", "2024-03-02", "09:00:00"),
		punch(4, "Arun", "2024-03-01", "10:00:00"),
	})
	require.Len(t, summaries, 4)

	assert.Equal(t, "2024-03-02", summaries[0].Date)
	assert.Equal(t, "Arun", summaries[1].UserName)
	assert.Equal(t, 1, summaries[1].UserID)
	assert.Equal(t, "Arun", summaries[2].UserName)
	assert.Equal(t, 4, summaries[2].UserID)
	assert.Equal(t, "Zara", summaries[3].UserName)
}

func TestReconcileUnsortedInput(t *testing.T) {
	r := newTestReconciler(at("2024-03-10", "00:00:00"))

	summaries, _ := r.Reconcile([]models.RawEvent{
		punch(7, "Asha", "2024-03-01", "17:30:00"),
		punch(7, "Asha", "2024-03-01", "09:00:05"),
		punch(7, "Asha", "2024-03-01", "09:00:00"),
	})
	require.Len(t, summaries, 1)
	assert.Equal(t, "09:00:00", summaries[0].FirstPunch)
	assert.Equal(t, 8*time.Hour+30*time.Minute, summaries[0].WorkedDuration)
}

func TestReconcileEmpty(t *testing.T) {
	summaries, warnings := NewReconciler().Reconcile(nil)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
	assert.Empty(t, warnings)
}

func TestReconcileDropsMalformedEvents(t *testing.T) {
	r := newTestReconciler(at("2024-03-10", "00:00:00"))

	summaries, warnings := r.Reconcile([]models.RawEvent{
		punch(1, "Ravi", "2024-03-01", "09:00:00"),
		{UserID: 1, UserName: "Ravi", Date: "2024-03-01", Time: "25:61:00"},
		{UserID: 2, UserName: "Kiran", Date: "03/01/2024", Time: "09:00:00"},
		punch(1, "Ravi", "2024-03-01", "17:00:00"),
	})

	require.Len(t, warnings, 2)
	assert.ErrorIs(t, warnings[0], ErrMalformedEvent)

	var mfe *MalformedEventError
	require.ErrorAs(t, warnings[1], &mfe)
	assert.Equal(t, "date", mfe.Field)
	assert.Equal(t, 2, mfe.Sequence)

	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].PunchCount)
	assert.Equal(t, 8*time.Hour, summaries[0].WorkedDuration)
}

func TestReconcileCustomWindow(t *testing.T) {
	r := NewReconciler(
		WithClock(fixedClock{now: at("2024-03-10", "00:00:00")}),
		WithLocation(time.UTC),
		WithSuppressionWindow(0),
	)

	summaries, _ := r.Reconcile([]models.RawEvent{
		punch(1, "Ravi", "2024-03-01", "09:00:00"),
		punch(1, "Ravi", "2024-03-01", "09:00:05"),
	})
	require.Len(t, summaries, 1)
	assert.Equal(t, 5*time.Second, summaries[0].WorkedDuration)
}

func TestNormalize(t *testing.T) {
	ev := punch(3, "Devi", "2024-02-29", "23:59:59")

	ne, err := Normalize(&ev, 4)
	require.NoError(t, err)
	assert.Equal(t, 86399, ne.Seconds)
	assert.Equal(t, 4, ne.Sequence)

	bad := models.RawEvent{UserID: 3, Date: "2023-02-29", Time: "10:00:00"}
	_, err = Normalize(&bad, 0)
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestSortSummaries(t *testing.T) {
	summaries := []models.DailySummary{
		{UserID: 9, UserName: "Bala", Date: "2024-03-01"},
		{UserID: 7, UserName: "Asha", Date: "2024-02-29"},
		{UserID: 8, UserName: "Asha", Date: "2024-03-01"},
		{UserID: 3, UserName: "Asha", Date: "2024-03-01"},
	}

	SortSummaries(summaries)

	ids := make([]int, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.UserID)
	}

	assert.Equal(t, []int{3, 8, 9, 7}, ids)
}

func TestSortEventsBreaksTiesBySequence(t *testing.T) {
	events := []NormalizedEvent{
		{Seconds: 60, Sequence: 2},
		{Seconds: 30, Sequence: 1},
		{Seconds: 60, Sequence: 0},
	}

	sortEvents(events)

	assert.Equal(t, []int{1, 0, 2}, []int{events[0].Sequence, events[1].Sequence, events[2].Sequence})
}
