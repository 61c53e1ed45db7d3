package calendarfeed

import (
	"testing"
	"time"
)

// sampleICS mirrors original_source/tests/conftest.py's mock_ical_response
// fixture: one single-occurrence meeting, one weekly-recurring meeting.
const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:test
BEGIN:VEVENT
UID:test-event-1
DTSTART:20231205T140000Z
DTEND:20231205T150000Z
SUMMARY:Test Meeting
END:VEVENT
BEGIN:VEVENT
UID:test-event-2
DTSTART:20231206T100000Z
DTEND:20231206T110000Z
SUMMARY:Another Meeting
RRULE:FREQ=WEEKLY;COUNT=3
END:VEVENT
END:VCALENDAR`

func TestDecodeEventsSingleAndRecurring(t *testing.T) {
	windowStart := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	events, err := decodeEvents([]byte(sampleICS), false, time.UTC, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("decodeEvents returned error: %v", err)
	}

	// 1 single occurrence + 3 weekly occurrences = 4 events.
	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}

	var singleCount int
	for _, ev := range events {
		if ev.Start.Equal(time.Date(2023, 12, 5, 14, 0, 0, 0, time.UTC)) {
			singleCount++
			if !ev.End.Equal(time.Date(2023, 12, 5, 15, 0, 0, 0, time.UTC)) {
				t.Errorf("single meeting end = %v, want 15:00", ev.End)
			}
		}
	}
	if singleCount != 1 {
		t.Errorf("expected exactly 1 single-occurrence event, got %d", singleCount)
	}
}

func TestDecodeEventsAllDaySkippedUnlessBlocking(t *testing.T) {
	allDayICS := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:all-day
DTSTART:20240101T000000Z
DTEND:20240102T000000Z
SUMMARY:Holiday
END:VEVENT
END:VCALENDAR`

	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	skipped, err := decodeEvents([]byte(allDayICS), false, time.UTC, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("decodeEvents returned error: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("expected all-day event skipped when not blocking, got %d events", len(skipped))
	}

	blocking, err := decodeEvents([]byte(allDayICS), true, time.UTC, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("decodeEvents returned error: %v", err)
	}
	if len(blocking) != 1 {
		t.Fatalf("expected 1 all-day event when blocking, got %d", len(blocking))
	}
	if !blocking[0].AllDay {
		t.Error("expected AllDay=true")
	}
}

func TestExpandRecurrenceBoundedToWindow(t *testing.T) {
	dtstart := time.Date(2023, 12, 6, 10, 0, 0, 0, time.UTC)
	windowStart := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2023, 12, 14, 0, 0, 0, 0, time.UTC)

	occurrences := expandRecurrence(dtstart, "FREQ=WEEKLY;COUNT=3", windowStart, windowEnd)
	// COUNT=3 gives occurrences on Dec 6, 13, 20 (each at 10:00); windowEnd
	// of Dec 14 00:00 includes the first two and excludes Dec 20.
	if len(occurrences) != 2 {
		t.Fatalf("len(occurrences) = %d, want 2", len(occurrences))
	}
}

func TestExpandRecurrenceMalformedFallsBackToDtstart(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	occurrences := expandRecurrence(dtstart, "NOT-A-VALID-RULE", dtstart.AddDate(0, 0, -1), dtstart.AddDate(0, 0, 1))
	if len(occurrences) != 1 || !occurrences[0].Equal(dtstart) {
		t.Errorf("expected single dtstart fallback, got %v", occurrences)
	}
}
