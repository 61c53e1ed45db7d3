// Package allocator implements the day-by-day greedy allocators of spec
// §4.5 (parallel) and §4.6 (sequential): the centerpiece of the scheduling
// core.
package allocator

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emiller/taskcheck/internal/horizon"
	"github.com/emiller/taskcheck/internal/taskwarrior"
	"github.com/emiller/taskcheck/internal/urgency"
)

// Candidate is the "Task allocation state (internal)" of spec §3, one per
// schedulable task.
type Candidate struct {
	Task taskwarrior.Task
	UUID uuid.UUID

	RemainingHours float64
	TaskTimeMap    []float64
	TodayUsedHours float64
	Scheduling     map[time.Time]float64

	Components urgency.Components
	Urgency    float64

	Entry    time.Time
	Due      time.Time
	HasDue   bool
	Wait     time.Time
	HasWait  bool
	Depends  []uuid.UUID
	MinBlock float64

	Started bool // sequential variant only
}

// Warning surfaces an infeasible schedule (spec §7): end_date > due.
type Warning struct {
	TaskID      int
	Description string
	EndDate     time.Time
	Due         time.Time
}

// Result carries the warnings produced by a run; the allocation itself
// lives inside each Candidate's Scheduling map.
type Result struct {
	Warnings []Warning
}

// activeStatuses is the set of Taskwarrior statuses eligible for
// scheduling, per spec §4.5's "status is one of the active set" filter.
var activeStatuses = map[string]bool{
	"pending": true,
	"waiting": true,
}

// BuildCandidates runs spec §4.5's Initialization step: filters tasks
// missing estimated/time_map or in an inactive status (silently skipped
// per spec §7), then computes each survivor's horizon vector, today_used,
// and initial urgency components.
func BuildCandidates(
	tasks []taskwarrior.Task,
	parseHours func(string) (float64, error),
	cache *horizon.Cache,
	coeffs urgency.Coefficients,
	days int,
	now time.Time,
	globalBlock float64,
) ([]*Candidate, error) {
	var candidates []*Candidate

	for _, task := range tasks {
		if !activeStatuses[task.Status] {
			continue
		}
		if task.Estimated == "" || task.TimeMap == "" {
			continue
		}

		remainingHours, err := parseHours(task.Estimated)
		if err != nil {
			continue
		}

		names := splitTimeMapNames(task.TimeMap)
		vector, todayUsed := cache.Build(names, days, now)

		taskTimeMap := make([]float64, days)
		copy(taskTimeMap, vector)

		entry, err := taskwarrior.ParseInstant(task.Entry)
		if err != nil {
			entry = now
		}

		c := &Candidate{
			Task:           task,
			UUID:           parseOrNewUUID(task.UUID),
			RemainingHours: remainingHours,
			TaskTimeMap:    taskTimeMap,
			TodayUsedHours: todayUsed,
			Scheduling:     make(map[time.Time]float64),
			Entry:          entry,
			MinBlock:       effectiveMinBlock(task.MinBlock, globalBlock),
		}

		if task.Due != "" {
			if due, err := taskwarrior.ParseInstant(task.Due); err == nil {
				c.Due, c.HasDue = due, true
			}
		}
		if task.Wait != "" {
			if wait, err := taskwarrior.ParseInstant(task.Wait); err == nil {
				c.Wait, c.HasWait = wait, true
			}
		}
		c.Depends = parseDepends(task.Depends)

		c.Components.Base = task.Urgency
		c.Components.RecomputeEstimated(coeffs, c.RemainingHours)
		c.Components.RecomputeForDate(coeffs, c.Entry, c.Due, now, c.HasDue)
		c.Urgency = c.Components.Total(1, 1)

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// effectiveMinBlock resolves the "two branches differ on which caps
// allocation" open question: a task's own min_block wins when present
// (non-zero); otherwise the legacy global [scheduler].block applies.
func effectiveMinBlock(taskMinBlock, globalBlock float64) float64 {
	if taskMinBlock > 0 {
		return taskMinBlock
	}
	if globalBlock > 0 {
		return globalBlock
	}
	return math.Inf(1)
}

func splitTimeMapNames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

func parseDepends(raw string) []uuid.UUID {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if id, err := uuid.Parse(p); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func parseOrNewUUID(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.New()
}

// dayBudget returns c's contribution to the scalar day-d budget computed in
// Parallel/Sequential: day 0 has today_used_hours already elapsed subtracted
// off (per task, not clamped), every later day is the raw ceiling.
func dayBudget(c *Candidate, d int) float64 {
	if d == 0 {
		return c.TaskTimeMap[0] - c.TodayUsedHours
	}
	return c.TaskTimeMap[d]
}

func dayKey(today time.Time, d int) time.Time {
	t := today.AddDate(0, 0, d)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// remainingByUUID indexes live (remaining_hours > 0) candidates by uuid
// for dependency masking.
func remainingByUUID(candidates []*Candidate) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(candidates))
	for _, c := range candidates {
		if c.RemainingHours > 0 {
			m[c.UUID] = true
		}
	}
	return m
}

// isMasked reports whether c must be excluded from this day's candidate
// pool: a pending dependency (spec §4.5 "Dependency handling") or a wait
// date in the future (spec §4.5 "Wait date").
func isMasked(c *Candidate, date time.Time, live map[uuid.UUID]bool) bool {
	if c.HasWait && c.Wait.After(date) {
		return true
	}
	for _, dep := range c.Depends {
		if live[dep] {
			return true
		}
	}
	return false
}

// Parallel implements spec §4.5: day loop, max-over-tasks day budget,
// re-sort-after-every-allocation inner loop.
func Parallel(candidates []*Candidate, days int, today time.Time, coeffs urgency.Coefficients, weightUrgency, weightDue float64) Result {
	var result Result

	for d := 0; d < days; d++ {
		date := today.AddDate(0, 0, d)

		totalAvailable := 0.0
		for _, c := range candidates {
			if d >= len(c.TaskTimeMap) {
				continue
			}
			if budget := dayBudget(c, d); budget > totalAvailable {
				totalAvailable = budget
			}
		}
		if totalAvailable <= 0 {
			continue
		}
		dayRemaining := totalAvailable

		for dayRemaining > 0 {
			live := remainingByUUID(candidates)

			pool := make([]*Candidate, 0, len(candidates))
			for _, c := range candidates {
				if c.RemainingHours <= 0 || d >= len(c.TaskTimeMap) || c.TaskTimeMap[d] <= 0 {
					continue
				}
				if isMasked(c, date, live) {
					continue
				}
				pool = append(pool, c)
			}
			if len(pool) == 0 {
				break
			}

			for _, c := range pool {
				c.Components.RecomputeEstimated(coeffs, c.RemainingHours)
				c.Components.RecomputeForDate(coeffs, c.Entry, c.Due, date, c.HasDue)
				c.Urgency = c.Components.Total(weightUrgency, weightDue)
			}
			sort.Slice(pool, func(i, j int) bool {
				if pool[i].Urgency != pool[j].Urgency {
					return pool[i].Urgency > pool[j].Urgency
				}
				return pool[i].UUID.String() < pool[j].UUID.String()
			})

			allocated := false
			for _, c := range pool {
				allocation := min(c.RemainingHours, c.TaskTimeMap[d], dayRemaining, c.MinBlock)
				if allocation <= 0 {
					continue
				}
				c.RemainingHours -= allocation
				c.TaskTimeMap[d] -= allocation
				dayRemaining -= allocation
				key := dayKey(today, d)
				c.Scheduling[key] += allocation
				allocated = true
				break
			}
			if !allocated {
				break
			}
		}
	}

	collectInfeasible(candidates, &result)
	return result
}

// Sequential implements spec §4.6: identical skeleton to Parallel, minus
// the re-sort — it fills the currently-selected task until done, then
// picks the next-most-urgent by initial urgency order.
func Sequential(candidates []*Candidate, days int, today time.Time, coeffs urgency.Coefficients, weightUrgency, weightDue float64) Result {
	var result Result

	order := make([]*Candidate, len(candidates))
	copy(order, candidates)
	for _, c := range order {
		c.Components.RecomputeEstimated(coeffs, c.RemainingHours)
		c.Components.RecomputeForDate(coeffs, c.Entry, c.Due, today, c.HasDue)
		c.Urgency = c.Components.Total(weightUrgency, weightDue)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Urgency != order[j].Urgency {
			return order[i].Urgency > order[j].Urgency
		}
		return order[i].UUID.String() < order[j].UUID.String()
	})

	for d := 0; d < days; d++ {
		date := today.AddDate(0, 0, d)
		live := remainingByUUID(candidates)

		totalAvailable := 0.0
		for _, c := range candidates {
			if d >= len(c.TaskTimeMap) {
				continue
			}
			if budget := dayBudget(c, d); budget > totalAvailable {
				totalAvailable = budget
			}
		}
		if totalAvailable <= 0 {
			continue
		}
		dayRemaining := totalAvailable

		for _, c := range order {
			if dayRemaining <= 0 {
				break
			}
			if c.RemainingHours <= 0 || d >= len(c.TaskTimeMap) || c.TaskTimeMap[d] <= 0 {
				continue
			}
			if isMasked(c, date, live) {
				continue
			}

			for c.RemainingHours > 0 && c.TaskTimeMap[d] > 0 && dayRemaining > 0 {
				allocation := min(c.RemainingHours, c.TaskTimeMap[d], dayRemaining, c.MinBlock)
				if allocation <= 0 {
					break
				}
				c.RemainingHours -= allocation
				c.TaskTimeMap[d] -= allocation
				dayRemaining -= allocation
				key := dayKey(today, d)
				c.Scheduling[key] += allocation
				c.Started = true
			}
		}
	}

	collectInfeasible(candidates, &result)
	return result
}

func collectInfeasible(candidates []*Candidate, result *Result) {
	for _, c := range candidates {
		if !c.HasDue || len(c.Scheduling) == 0 {
			continue
		}
		var end time.Time
		for day := range c.Scheduling {
			if day.After(end) {
				end = day
			}
		}
		if end.After(c.Due) {
			result.Warnings = append(result.Warnings, Warning{
				TaskID:      c.Task.ID,
				Description: c.Task.Description,
				EndDate:     end,
				Due:         c.Due,
			})
		}
	}
}
