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
	"cmp"
	"slices"
	"time"

	"github.com/carverauto/punchsync/pkg/models"
)

// DefaultSuppressionWindow is how close a repeated punch must be to the last kept one to be dropped.
const DefaultSuppressionWindow = 50 * time.Second

// Clock supplies the current instant for the ongoing-session rule.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Reconciler builds DailySummary values from raw events. It holds no state between calls.
type Reconciler struct {
	window time.Duration
	clock  Clock
	loc    *time.Location
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithSuppressionWindow overrides DefaultSuppressionWindow.
func WithSuppressionWindow(d time.Duration) Option {
	return func(r *Reconciler) {
		if d >= 0 {
			r.window = d
		}
	}
}

// WithClock injects the clock used to decide whether a date is today.
func WithClock(c Clock) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLocation sets the timezone terminals record wall-clock times in.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		window: DefaultSuppressionWindow,
		clock:  realClock{},
		loc:    time.Local,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type dayKey struct {
	userID int
	date   string
}

// Reconcile groups events by employee and date and summarizes each group.
// Malformed events are dropped and returned alongside the summaries.
func (r *Reconciler) Reconcile(events []models.RawEvent) ([]models.DailySummary, []error) {
	normalized, malformed := NormalizeAll(events)
	if len(normalized) == 0 {
		return []models.DailySummary{}, malformed
	}

	groups := make(map[dayKey][]NormalizedEvent)

	for _, ne := range normalized {
		k := dayKey{userID: ne.UserID, date: ne.Date}
		groups[k] = append(groups[k], ne)
	}

	now := r.clock.Now().In(r.loc)
	today := now.Format(DateLayout)
	nowSeconds := now.Hour()*3600 + now.Minute()*60 + now.Second()

	summaries := make([]models.DailySummary, 0, len(groups))

	for _, group := range groups {
		sortEvents(group)
		summaries = append(summaries, r.summarize(group, today, nowSeconds))
	}

	SortSummaries(summaries)

	return summaries, malformed
}

// summarize builds the summary for one sorted (employee, date) group.
func (r *Reconciler) summarize(group []NormalizedEvent, today string, nowSeconds int) models.DailySummary {
	kept := Suppress(group, r.window)

	summary := models.DailySummary{
		UserID:     group[0].UserID,
		UserName:   groupName(group),
		Date:       group[0].Date,
		FirstPunch: kept[0].Time,
		PunchCount: len(group),
	}

	var worked int

	for i := 0; i+1 < len(kept); i += 2 {
		worked += kept[i+1].Seconds - kept[i].Seconds
	}

	last := kept[len(kept)-1]

	switch {
	case len(kept)%2 == 0:
		summary.LastPunch = models.ResolvedPunch(last.Time)
	case summary.Date == today:
		summary.LastPunch = models.PunchMark{State: models.PunchOngoing}

		if open := nowSeconds - last.Seconds; open > 0 {
			worked += open
		}
	default:
		summary.LastPunch = models.PunchMark{State: models.PunchUnresolved}
	}

	summary.WorkedDuration = time.Duration(worked) * time.Second

	return summary
}

// Suppress drops events within window of the previously kept event. Input must be sorted.
// Applying Suppress to its own output returns the same events.
func Suppress(sorted []NormalizedEvent, window time.Duration) []NormalizedEvent {
	if len(sorted) == 0 {
		return nil
	}

	kept := make([]NormalizedEvent, 0, len(sorted))
	kept = append(kept, sorted[0])

	for _, ev := range sorted[1:] {
		gap := time.Duration(ev.Seconds-kept[len(kept)-1].Seconds) * time.Second
		if gap > window {
			kept = append(kept, ev)
		}
	}

	return kept
}

func sortEvents(events []NormalizedEvent) {
	slices.SortFunc(events, func(a, b NormalizedEvent) int {
		return cmp.Or(cmp.Compare(a.Seconds, b.Seconds), cmp.Compare(a.Sequence, b.Sequence))
	})
}

// SortSummaries orders by date descending, then name and id ascending.
func SortSummaries(summaries []models.DailySummary) {
	slices.SortStableFunc(summaries, func(a, b models.DailySummary) int {
		return cmp.Or(
			cmp.Compare(b.Date, a.Date),
			cmp.Compare(a.UserName, b.UserName),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
}

func groupName(group []NormalizedEvent) string {
	for _, ev := range group {
		if ev.UserName != "" {
			return ev.UserName
		}
	}

	return ""
}
