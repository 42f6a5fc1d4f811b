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
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/models"
	"github.com/carverauto/punchsync/pkg/terminal"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	neverSynced     = "never"
	cellPadding     = 1
)

type styles struct {
	header, cell, muted, success, warning, error, title lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, cellPadding),
		cell: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)).
			Padding(0, cellPadding),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Bold(true),
	}
}

// renderer writes command output.
type renderer struct {
	out    io.Writer
	styles styles
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, styles: newStyles()}
}

func (r *renderer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}

			return r.styles.cell
		})

	fmt.Fprintln(r.out, t.Render())
}

func (r *renderer) title(s string) {
	fmt.Fprintln(r.out, r.styles.title.Render(s))
}

func (r *renderer) success(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.success.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) warn(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.warning.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) fail(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.error.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) muted(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.muted.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) terminals(list []models.Terminal, selected func(string) bool) {
	if len(list) == 0 {
		r.muted("No terminals registered. Run 'punchsync scan' or 'punchsync add <address>'.")

		return
	}

	rows := make([][]string, 0, len(list))

	for i := range list {
		t := &list[i]

		mark := ""
		if selected(t.IdentityKey()) {
			mark = "*"
		}

		rows = append(rows, []string{
			mark,
			t.IdentityKey(),
			t.Name(),
			t.Address,
			t.HardwareAddress,
			joinPorts(t.OpenPorts),
			t.FirmwareVersion,
			lastSynced(t.LastSyncedAt),
		})
	}

	r.table([]string{"", "Key", "Name", "Address", "MAC", "Ports", "Firmware", "Last Sync"}, rows)
}

func (r *renderer) mergeReport(report *terminal.MergeReport, total int) {
	r.success("Discovery complete: %d new, %d updated by serial, %d updated by address (%d registered)",
		report.Inserted, report.MergedBySerial, report.MergedByAddress, total)

	for oldKey, newKey := range report.Rekeyed {
		r.muted("  %s is now %s", oldKey, newKey)
	}
}

func (r *renderer) summaries(list []models.DailySummary) {
	if len(list) == 0 {
		r.muted("No attendance records.")

		return
	}

	rows := make([][]string, 0, len(list))

	for i := range list {
		s := &list[i]
		rows = append(rows, []string{
			strconv.Itoa(s.UserID),
			s.UserName,
			s.Date,
			s.FirstPunch,
			lastPunch(s.LastPunch),
			strconv.Itoa(s.PunchCount),
			s.WorkedHours(),
		})
	}

	r.table([]string{"User", "Name", "Date", "First Punch", "Last Punch", "Punches", "Worked"}, rows)
}

func (r *renderer) syncResult(result *models.SyncResult) {
	r.summaries(result.Summaries)

	for i := range result.TerminalErrors {
		r.fail("✗ %s", result.TerminalErrors[i].Error())
	}

	for _, w := range result.Warnings {
		r.warn("! %s", w)
	}

	r.muted("Run %s: %d events, %d daily records", result.RunID, len(result.Events), len(result.Summaries))
}

func (r *renderer) outcome(o *models.SyncOutcome) {
	switch {
	case o.Clean():
		r.success("Pushed %d records", o.Accepted)
	case o.Partial():
		r.warn("Pushed %d of %d records (%d skipped, %d failed)", o.Accepted, o.Total(), o.Skipped, o.Failed)
	default:
		r.fail("No records accepted (%d skipped, %d failed)", o.Skipped, o.Failed)
	}

	for _, e := range o.Errors {
		r.muted("  %s", e)
	}
}

func (r *renderer) credential(info *erp.CredentialInfo) {
	r.success("API key is valid")
	r.table([]string{"App", "Identifier", "Platform", "Intent"},
		[][]string{{info.AppName, info.AppIdentifier, info.Platform, info.Intent}})
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}

	return strings.Join(parts, ",")
}

func lastSynced(t *time.Time) string {
	if t == nil {
		return neverSynced
	}

	return t.Local().Format(timestampLayout)
}

func lastPunch(m models.PunchMark) string {
	if m.State == models.PunchResolved {
		return m.Time
	}

	return m.State.String()
}
