// Package timemap evaluates named weekly time maps — repeating working-hour
// windows per weekday — against a day's blocking calendar events.
package timemap

import (
	"math"
	"strings"
	"time"
)

// Window is a half-open working-hour interval expressed as decimal clock
// values: the integer part is the hour, the fractional part encodes minutes
// as minutes/100 (9.30 means 09:30). Invariant: 0.00 <= Start < End <= 23.59.
type Window struct {
	Start float64
	End   float64
}

// WeekMap maps a lowercase weekday name ("monday" .. "sunday") to its
// ordered, non-overlapping list of working windows.
type WeekMap map[string][]Window

// Event is a blocking calendar interval. Start/End are wall-clock instants;
// AllDay events still carry a concrete Start/End (typically midnight to
// midnight) so the clipping logic in AvailableHours needs no special case.
type Event struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

// decimalHours converts a time.Time's wall-clock time of day to decimal
// hours via the ordinary minutes-per-hour conversion H + M/60, the scale
// clockHours converts Window values to.
func decimalHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

// clockHours converts a Window clock value (9.30 meaning 09:30) to decimal
// hours via H + M/60, so windows compare directly with decimalHours.
func clockHours(v float64) float64 {
	h := math.Floor(v)
	return h + math.Round((v-h)*100)/60.0
}

func weekdayKey(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// AvailableHours implements spec §4.2's available_hours operation: gross
// working hours for date's weekday, minus hours blocked by calendar events
// clipped to date's working windows. The result is not floored at zero —
// overlapping calendars can drive it slightly negative; callers must clamp
// at the point of use (spec §7).
func AvailableHours(wm WeekMap, date time.Time, calendars map[string][]Event) float64 {
	windows, ok := wm[weekdayKey(date)]
	if !ok || len(windows) == 0 {
		return 0
	}

	gross := 0.0
	for _, w := range windows {
		gross += clockHours(w.End) - clockHours(w.Start)
	}

	blocked := 0.0
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	for _, events := range calendars {
		for _, ev := range events {
			if ev.End.Before(dayStart) || !ev.Start.Before(dayEnd) {
				continue
			}
			clippedStart := ev.Start
			if clippedStart.Before(dayStart) {
				clippedStart = dayStart
			}
			clippedEnd := ev.End
			if clippedEnd.After(dayEnd) {
				clippedEnd = dayEnd
			}
			evStartDec := decimalHours(clippedStart)
			evEndDec := decimalHours(clippedEnd)
			// clippedEnd lands exactly on the day boundary (midnight of the
			// next day) whenever the event runs to or past end of day;
			// decimalHours would read that as 00.00 instead of 24.00, so
			// fix it up explicitly rather than lose the last window(s).
			if clippedEnd.Equal(dayEnd) {
				evEndDec = 24.0
			}

			for _, w := range windows {
				overlap := min(clockHours(w.End), evEndDec) - max(clockHours(w.Start), evStartDec)
				if overlap > 0 {
					blocked += overlap
				}
			}
		}
	}

	return gross - blocked
}

// TodayUsed computes how many of today's working-window hours have already
// elapsed by wall-clock time now, per spec §4.3: for each interval, the full
// width is consumed once now passes its end, the partial width up to now if
// now falls inside it, and nothing if now hasn't reached it yet.
func TodayUsed(wm WeekMap, now time.Time) float64 {
	windows, ok := wm[weekdayKey(now)]
	if !ok {
		return 0
	}

	t := decimalHours(now)
	used := 0.0
	for _, w := range windows {
		start, end := clockHours(w.Start), clockHours(w.End)
		switch {
		case t >= start && t <= end:
			used += t - start
			return used
		case t > end:
			used += end - start
		}
	}
	return used
}
