// Package app wires the collaborators together: apply the urgency-weight
// override to an already-loaded config, snapshot tasks, parse coefficients,
// fetch calendars, build candidates, run the configured allocator, emit, and
// modify (for --dry-run, the plan is returned without modifying).
//
// No scheduling logic lives here — everything is collaborator wiring,
// matching spec §5's "external calls are blocking and sequential; their
// latency is absorbed before the scheduling loop begins."
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emiller/taskcheck/internal/allocator"
	"github.com/emiller/taskcheck/internal/calendarfeed"
	"github.com/emiller/taskcheck/internal/config"
	"github.com/emiller/taskcheck/internal/duration"
	"github.com/emiller/taskcheck/internal/horizon"
	"github.com/emiller/taskcheck/internal/schedule"
	"github.com/emiller/taskcheck/internal/taskwarrior"
)

// ScheduleOptions carries the CLI flags that affect a Schedule run.
type ScheduleOptions struct {
	Taskrc          string
	ForceUpdate     bool
	DryRun          bool
	UrgencyWeight   *float64
}

// PlannedTask is one task's emitted schedule, returned for dry-run
// printing or real Modify calls.
type PlannedTask struct {
	ID          int
	Description string
	Start       time.Time
	End         time.Time
	Note        string
}

// ScheduleResult is what Schedule returns: the planned tasks plus any
// infeasible-schedule warnings from the allocator.
type ScheduleResult struct {
	Planned  []PlannedTask
	Warnings []allocator.Warning
}

// Schedule runs the full pipeline described by spec §5's data flow: tasks
// + calendars + time maps -> horizon vectors -> allocation map -> emitted
// annotations, optionally written back via taskwarrior.Modify.
func Schedule(ctx context.Context, cfg *config.Config, opts ScheduleOptions, logger *zap.Logger) (ScheduleResult, error) {
	cfg.ApplyUrgencyWeightOverride(opts.UrgencyWeight)

	tasks, err := taskwarrior.Snapshot(opts.Taskrc)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("snapshotting tasks: %w", err)
	}

	coeffs, err := taskwarrior.Coefficients(opts.Taskrc)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("reading urgency coefficients: %w", err)
	}

	calendars, err := calendarfeed.FetchAll(ctx, cfg.Calendars, cfg.Scheduler.DaysAhead, opts.ForceUpdate, logger)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("fetching calendars: %w", err)
	}

	weekMaps := cfg.WeekMapsByName()
	cache := horizon.NewCache(weekMaps, calendars)

	now := time.Now()
	candidates, err := allocator.BuildCandidates(
		tasks,
		duration.ParseHours,
		cache,
		coeffs,
		cfg.Scheduler.DaysAhead,
		now,
		cfg.Scheduler.Block,
	)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("building candidates: %w", err)
	}

	var result allocator.Result
	switch cfg.Scheduler.Algorithm {
	case config.AlgorithmSequential:
		result = allocator.Sequential(candidates, cfg.Scheduler.DaysAhead, now, coeffs, cfg.Scheduler.WeightUrgency, cfg.Scheduler.WeightDueDate)
	default:
		result = allocator.Parallel(candidates, cfg.Scheduler.DaysAhead, now, coeffs, cfg.Scheduler.WeightUrgency, cfg.Scheduler.WeightDueDate)
	}

	var planned []PlannedTask
	for _, c := range candidates {
		start, end, note, ok := schedule.Emit(c)
		if !ok {
			continue
		}
		planned = append(planned, PlannedTask{
			ID:          c.Task.ID,
			Description: c.Task.Description,
			Start:       start,
			End:         end,
			Note:        note,
		})
	}

	if !opts.DryRun {
		for _, p := range planned {
			if err := taskwarrior.Modify(opts.Taskrc, p.ID, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"), p.Note); err != nil {
				logger.Warn("failed to modify task", zap.Int("id", p.ID), zap.Error(err))
			}
		}
	}

	for _, w := range result.Warnings {
		logger.Warn("infeasible schedule",
			zap.Int("id", w.TaskID),
			zap.String("description", w.Description),
			zap.Time("end_date", w.EndDate),
			zap.Time("due", w.Due),
		)
	}

	return ScheduleResult{Planned: planned, Warnings: result.Warnings}, nil
}
