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
	"context"
	"strings"

	"github.com/carverauto/punchsync/pkg/models"
)

func runScan(ctx context.Context, app *App, inv *invocation) error {
	inv.out.muted("Scanning for terminals...")

	report, err := app.Service.Discover(ctx)
	if err != nil {
		return err
	}

	inv.out.mergeReport(report, app.Service.Registry().Len())
	inv.out.terminals(app.Service.Terminals(), app.Service.Registry().IsSelected)

	return nil
}

func runList(_ context.Context, app *App, inv *invocation) error {
	inv.out.terminals(app.Service.Terminals(), app.Service.Registry().IsSelected)

	return nil
}

func runAdd(ctx context.Context, app *App, inv *invocation) error {
	t, err := app.Service.AddTerminal(ctx, inv.args[0])
	if err != nil {
		return err
	}

	inv.out.success("Added %s", t.IdentityKey())

	return nil
}

func runRemove(ctx context.Context, app *App, inv *invocation) error {
	if err := app.Service.RemoveTerminal(ctx, inv.args[0]); err != nil {
		return err
	}

	inv.out.success("Removed %s", inv.args[0])

	return nil
}

func runRename(ctx context.Context, app *App, inv *invocation) error {
	name := strings.Join(inv.args[1:], " ")

	if err := app.Service.RenameTerminal(ctx, inv.args[0], name); err != nil {
		return err
	}

	if name == "" {
		inv.out.success("Cleared name of %s", inv.args[0])
	} else {
		inv.out.success("Renamed %s to %q", inv.args[0], name)
	}

	return nil
}

func runSelect(ctx context.Context, app *App, inv *invocation) error {
	if err := app.Service.SelectTerminals(ctx, inv.args...); err != nil {
		return err
	}

	inv.out.success("Selected: %s", strings.Join(app.Service.Registry().Selected(), ", "))

	return nil
}

func runDeselect(ctx context.Context, app *App, inv *invocation) error {
	if err := app.Service.DeselectTerminals(ctx, inv.args...); err != nil {
		return err
	}

	selected := app.Service.Registry().Selected()
	if len(selected) == 0 {
		inv.out.muted("No terminals selected")

		return nil
	}

	inv.out.success("Selected: %s", strings.Join(selected, ", "))

	return nil
}

func runSync(ctx context.Context, app *App, inv *invocation) error {
	result, err := app.Service.SyncTerminals(ctx, inv.args)
	if result != nil {
		inv.out.syncResult(result)
	}

	if err != nil {
		return err
	}

	if inv.push {
		if err := push(ctx, app, inv, result.Summaries); err != nil {
			return err
		}
	}

	if result.Failed() {
		return errSyncIncomplete
	}

	return nil
}

func runSummaries(ctx context.Context, app *App, inv *invocation) error {
	result, err := app.Service.Summaries(ctx, inv.args)
	if err != nil {
		return err
	}

	inv.out.summaries(result.Summaries)

	for _, w := range result.Warnings {
		inv.out.warn("! %s", w)
	}

	return nil
}

func runPush(ctx context.Context, app *App, inv *invocation) error {
	result, err := app.Service.Summaries(ctx, inv.args)
	if err != nil {
		return err
	}

	return push(ctx, app, inv, result.Summaries)
}

func push(ctx context.Context, app *App, inv *invocation, summaries []models.DailySummary) error {
	if len(summaries) == 0 {
		inv.out.muted("Nothing to push")

		return nil
	}

	outcome, err := app.Service.Push(ctx, summaries)
	if err != nil {
		return err
	}

	inv.out.outcome(outcome)

	return nil
}

func runTestConnection(ctx context.Context, app *App, inv *invocation) error {
	info, err := app.Service.TestConnection(ctx)
	if err != nil {
		return err
	}

	inv.out.credential(info)

	return nil
}
