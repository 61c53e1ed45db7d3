// Package schedule converts allocator output into the per-task
// (start_date, end_date, scheduling_note) triples of spec §4.7.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emiller/taskcheck/internal/allocator"
)

// Emit implements spec §4.7: for a candidate with a non-empty scheduling
// map, start is the earliest allocated day, end the latest, and note is
// the ascending-date "{ISO-date}: {hours:.2f} hours" lines joined by
// newlines. ok is false for tasks with an empty map — spec's "Tasks with
// empty maps produce no output."
func Emit(c *allocator.Candidate) (start, end time.Time, note string, ok bool) {
	if len(c.Scheduling) == 0 {
		return time.Time{}, time.Time{}, "", false
	}

	days := make([]time.Time, 0, len(c.Scheduling))
	for day := range c.Scheduling {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	lines := make([]string, len(days))
	for i, day := range days {
		lines[i] = fmt.Sprintf("%s: %.2f hours", day.Format("2006-01-02"), c.Scheduling[day])
	}

	return days[0], days[len(days)-1], strings.Join(lines, "\n"), true
}
