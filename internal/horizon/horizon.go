// Package horizon builds the per-run availability vector spec §4.3 calls
// the horizon: D days of available hours per time-map name tuple, memoized
// for the lifetime of one allocator run.
package horizon

import (
	"strings"
	"time"

	"github.com/emiller/taskcheck/internal/timemap"
)

// Cache memoizes horizon vectors by the joined, order-preserved tuple of
// time-map names. It is owned by a single allocator run — constructed fresh
// by internal/app for each invocation, never a package-level global, so
// concurrent invocations (or successive test runs) never share state.
type Cache struct {
	weekMaps  map[string]timemap.WeekMap
	calendars map[string][]timemap.Event
	memo      map[string][]float64
}

// NewCache builds a Cache over the given named week maps and blocking
// calendar events, ready to serve Build calls for one allocator run.
func NewCache(weekMaps map[string]timemap.WeekMap, calendars map[string][]timemap.Event) *Cache {
	return &Cache{
		weekMaps:  weekMaps,
		calendars: calendars,
		memo:      make(map[string][]float64),
	}
}

func cacheKey(names []string) string {
	return strings.Join(names, "\x00")
}

// Build computes the D-day availability vector for the given (order
// preserved) time-map names, summed across all named maps, plus today's
// already-used hours (never cached — computed fresh every call per §4.3).
func (c *Cache) Build(names []string, days int, today time.Time) ([]float64, float64) {
	key := cacheKey(names)

	vector, ok := c.memo[key]
	if !ok {
		vector = make([]float64, days)
		for d := 0; d < days; d++ {
			date := today.AddDate(0, 0, d)
			sum := 0.0
			for _, name := range names {
				wm := c.weekMaps[name]
				sum += timemap.AvailableHours(wm, date, c.calendars)
			}
			vector[d] = sum
		}
		c.memo[key] = vector
	}

	todayUsed := 0.0
	for _, name := range names {
		todayUsed += timemap.TodayUsed(c.weekMaps[name], today)
	}

	return vector, todayUsed
}
