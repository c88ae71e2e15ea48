package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zorak1103/logsieve/internal/reporting"
	"github.com/zorak1103/logsieve/internal/source"
	"github.com/zorak1103/logsieve/internal/state"
)

// cleanupPlan lists what a cleanup would remove.
type cleanupPlan struct {
	Reports []string // Report files older than the retention period
	Cursors []string // Container cursors of containers no docker source refers to
}

// Empty reports whether there is nothing to clean up.
func (p cleanupPlan) Empty() bool {
	return len(p.Reports) == 0 && len(p.Cursors) == 0
}

// planCleanup collects expired reports and obsolete container cursors without changing anything.
func planCleanup(ctx context.Context, a *app, st *state.State, now time.Time) (cleanupPlan, error) {
	var plan cleanupPlan

	reports, err := reporting.PruneReports(a.cfg.Output.ReportsDir, a.cfg.Output.ReportRetentionDays, now, true)
	if err != nil {
		return plan, err
	}
	plan.Reports = reports

	cursors, err := obsoleteCursors(ctx, a.sources, st)
	if err != nil {
		return plan, err
	}
	plan.Cursors = cursors

	return plan, nil
}

// obsoleteCursors returns the containers in the state that no docker source names, sorted.
func obsoleteCursors(ctx context.Context, registry *source.Registry, st *state.State) ([]string, error) {
	sources, err := registry.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	known := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s.Type == source.TypeDocker {
			known[s.ContainerName] = true
		}
	}

	var obsolete []string
	for _, name := range st.ContainerNames() {
		if !known[name] {
			obsolete = append(obsolete, name)
		}
	}
	return obsolete, nil
}

// executeCleanup deletes the planned reports and cursors and saves the state.
// It returns the error messages of the items that could not be removed.
func executeCleanup(a *app, st *state.State, plan cleanupPlan, now time.Time) (int, []string) {
	removed := 0
	var errs []string

	pruned, err := reporting.PruneReports(a.cfg.Output.ReportsDir, a.cfg.Output.ReportRetentionDays, now, false)
	removed += len(pruned)
	if err != nil {
		errs = append(errs, err.Error())
	}

	for _, name := range plan.Cursors {
		if st.RemoveContainer(name) {
			removed++
		}
	}
	if err := st.Save(); err != nil {
		errs = append(errs, fmt.Sprintf("state: %v", err))
	}

	return removed, errs
}
