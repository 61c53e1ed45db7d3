// Package calendarfeed fetches iCalendar feeds, expands recurring events
// within a bounded horizon, and caches the result on disk so repeated
// scheduling runs don't refetch unchanged calendars. It is the external
// collaborator spec.md treats as "interfaces only"; this expansion restores
// a concrete implementation grounded on original_source's taskcheck.ical
// module and felixgeelhaar-orbita's emersion/go-ical usage.
package calendarfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emiller/taskcheck/internal/config"
	"github.com/emiller/taskcheck/internal/taskcheckerr"
	"github.com/emiller/taskcheck/internal/timemap"
)

// Event is a blocking calendar interval, aliased from timemap so callers
// pass fetched events straight into availability computation.
type Event = timemap.Event

// cacheEntry is the on-disk shape of a calendar's cached events.
type cacheEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Events    []Event   `json:"events"`
}

// FetchAll resolves every configured calendar to its list of blocking
// events, expanding recurrence within [now, now+horizonDays+1 days]. Calendars are
// fetched concurrently (the horizon-building loop that follows is still
// single-threaded CPU work over the resolved, in-memory result — only the
// blocking network I/O is parallelized).
func FetchAll(ctx context.Context, cfgs map[string]config.Calendar, horizonDays int, forceUpdate bool, logger *zap.Logger) (map[string][]Event, error) {
	g, gctx := errgroup.WithContext(ctx)

	type pair struct {
		name   string
		events []Event
		err    error
	}
	ch := make(chan pair, len(cfgs))

	for name, cfg := range cfgs {
		name, cfg := name, cfg
		g.Go(func() error {
			events, err := fetchOne(gctx, name, cfg, horizonDays, forceUpdate, logger)
			ch <- pair{name: name, events: events, err: err}
			return nil
		})
	}
	_ = g.Wait() // per-calendar errors are carried in ch, not returned here
	close(ch)

	out := make(map[string][]Event, len(cfgs))
	for p := range ch {
		if p.err != nil {
			logger.Warn("calendar unavailable", zap.String("calendar", p.name), zap.Error(p.err))
			return nil, taskcheckerr.Wrap(taskcheckerr.ErrCalendarUnavailable, fmt.Errorf("%s: %w", p.name, p.err))
		}
		out[p.name] = p.events
	}

	return out, nil
}

func fetchOne(ctx context.Context, name string, cfg config.Calendar, horizonDays int, forceUpdate bool, logger *zap.Logger) ([]Event, error) {
	cachePath, err := cacheFilePath(name)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.ExpirationDays * float64(24*time.Hour))
	if !forceUpdate {
		if entry, ok := readCache(cachePath); ok {
			if time.Since(entry.FetchedAt) < ttl {
				return entry.Events, nil
			}
		}
	}

	body, fetchErr := fetchICS(ctx, cfg.URL)
	if fetchErr != nil {
		if entry, ok := readCache(cachePath); ok && time.Since(entry.FetchedAt) < ttl {
			logger.Warn("calendar fetch failed, serving unexpired cache", zap.String("calendar", name), zap.Error(fetchErr))
			return entry.Events, nil
		}
		return nil, fetchErr
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}

	now := time.Now().In(loc)
	horizonEnd := now.AddDate(0, 0, horizonDays+1)

	events, err := decodeEvents(body, cfg.AllDayBlocking, loc, now, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", name, err)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	writeCache(cachePath, cacheEntry{FetchedAt: time.Now(), Events: events})

	return events, nil
}

func fetchICS(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func decodeEvents(body []byte, allDayBlocking bool, loc *time.Location, windowStart, windowEnd time.Time) ([]Event, error) {
	dec := ical.NewDecoder(bytes.NewReader(body))
	cal, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding ics: %w", err)
	}

	var events []Event
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(loc)
		if err != nil {
			continue
		}
		end, err := icalEvent.DateTimeEnd(loc)
		if err != nil {
			continue
		}

		isAllDay := start.Hour() == 0 && start.Minute() == 0 && end.Hour() == 0 && end.Minute() == 0 && end.After(start)
		if isAllDay && !allDayBlocking {
			continue
		}

		rruleProps := child.Props["RRULE"]
		if len(rruleProps) == 0 {
			events = append(events, Event{Start: start, End: end, AllDay: isAllDay})
			continue
		}

		duration := end.Sub(start)
		occurrences := expandRecurrence(start, rruleProps[0].Value, windowStart, windowEnd)
		for _, occStart := range occurrences {
			events = append(events, Event{Start: occStart, End: occStart.Add(duration), AllDay: isAllDay})
		}
	}

	return events, nil
}

// expandRecurrence resolves an RRULE's occurrences within [windowStart,
// windowEnd]. Malformed rules degrade to a single occurrence at dtstart
// rather than failing the whole calendar fetch; a rule with no occurrence
// inside the window also yields that single dtstart occurrence.
func expandRecurrence(dtstart time.Time, rruleLine string, windowStart, windowEnd time.Time) []time.Time {
	spec := fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart.UTC().Format("20060102T150405Z"), rruleLine)
	set, err := rrule.StrToRRuleSet(spec)
	if err != nil {
		return []time.Time{dtstart}
	}
	occ := set.Between(windowStart, windowEnd, true)
	if len(occ) == 0 {
		return []time.Time{dtstart}
	}
	return occ
}

func cacheFilePath(name string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	dir := filepath.Join(base, "taskcheck", "calendars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	return filepath.Join(dir, name+".json"), nil
}

func readCache(path string) (cacheEntry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cacheEntry{}, false
	}
	return entry, true
}

func writeCache(path string, entry cacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}
