// Package config decodes taskcheck's TOML configuration (spec §6) and
// resolves the urgency-weight CLI override onto it.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/emiller/taskcheck/internal/taskcheckerr"
	"github.com/emiller/taskcheck/internal/timemap"
)

// Algorithm selects between the parallel and sequential allocators.
type Algorithm string

const (
	AlgorithmParallel   Algorithm = "parallel"
	AlgorithmSequential Algorithm = "sequential"
)

// Window mirrors a [start, end] pair as it appears in a time map's TOML
// array, e.g. monday = [[9.0, 17.0]]. It decodes from that two-element
// array, not from a table with start/end keys.
type Window [2]float64

// UnmarshalTOML lets a Window decode from a TOML array of two floats,
// matching spec §6's "[time_maps.<name>.<weekday>] (list of [start, end]
// pairs)" shape.
func (w *Window) UnmarshalTOML(data interface{}) error {
	arr, ok := data.([]interface{})
	if !ok || len(arr) != 2 {
		return fmt.Errorf("config: time map window must be a [start, end] pair, got %v", data)
	}
	start, sok := toFloat(arr[0])
	end, eok := toFloat(arr[1])
	if !sok || !eok {
		return fmt.Errorf("config: time map window entries must be numbers, got %v", data)
	}
	w[0], w[1] = start, end
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// TimeMap is one named weekly template: weekday name -> window list.
type TimeMap map[string][]Window

// ToWeekMap converts the TOML representation to the internal evaluator's
// timemap.WeekMap.
func (tm TimeMap) ToWeekMap() timemap.WeekMap {
	wm := make(timemap.WeekMap, len(tm))
	for day, windows := range tm {
		ws := make([]timemap.Window, len(windows))
		for i, w := range windows {
			ws[i] = timemap.Window{Start: w[0], End: w[1]}
		}
		wm[day] = ws
	}
	return wm
}

// Calendar is the (url, expiration_days, all_day_blocking, timezone)
// quadruple of spec §6.
type Calendar struct {
	URL            string  `toml:"url"`
	ExpirationDays float64 `toml:"expiration"`
	AllDayBlocking bool    `toml:"event_all_day_is_blocking"`
	Timezone       string  `toml:"timezone"`
}

// Scheduler is the [scheduler] section.
type Scheduler struct {
	DaysAhead     int       `toml:"days_ahead"`
	Algorithm     Algorithm `toml:"algorithm"`
	Block         float64   `toml:"block"`
	WeightUrgency float64   `toml:"weight_urgency"`
	WeightDueDate float64   `toml:"weight_due_date"`
}

// Report is the consumer-side [report] section; the core never reads it,
// but it's decoded so a full config file round-trips without error.
type Report struct {
	IncludeUnplanned              bool              `toml:"include_unplanned"`
	AdditionalAttributes          []string          `toml:"additional_attributes"`
	AdditionalAttributesUnplanned []string          `toml:"additional_attributes_unplanned"`
	EmojiKeywords                 map[string]string `toml:"emoji_keywords"`
}

// Config is the full decoded TOML document.
type Config struct {
	TimeMaps  map[string]TimeMap  `toml:"time_maps"`
	Scheduler Scheduler           `toml:"scheduler"`
	Calendars map[string]Calendar `toml:"calendars"`
	Report    Report              `toml:"report"`
}

// Load decodes the TOML file at path into a Config, defaulting the
// scheduler section per spec (algorithm=parallel, block=2) the way
// original_source/taskcheck/__main__.py's load_config/main did.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, taskcheckerr.Wrap(taskcheckerr.ErrConfigInvalid, err)
	}

	if cfg.Scheduler.Algorithm == "" {
		cfg.Scheduler.Algorithm = AlgorithmParallel
	}
	if cfg.Scheduler.Block == 0 {
		cfg.Scheduler.Block = 2
	}
	if cfg.Scheduler.WeightUrgency == 0 {
		cfg.Scheduler.WeightUrgency = 1
	}
	if cfg.Scheduler.WeightDueDate == 0 {
		cfg.Scheduler.WeightDueDate = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, taskcheckerr.Wrap(taskcheckerr.ErrConfigInvalid, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Scheduler.Algorithm != AlgorithmParallel && c.Scheduler.Algorithm != AlgorithmSequential {
		return fmt.Errorf("unknown algorithm: %s", c.Scheduler.Algorithm)
	}
	if c.Scheduler.DaysAhead <= 0 {
		return fmt.Errorf("scheduler.days_ahead must be positive, got %d", c.Scheduler.DaysAhead)
	}
	return nil
}

// ApplyUrgencyWeightOverride implements the §6 "--urgency-weight <float>"
// CLI override: it sets weight_urgency to the override and weight_due_date
// to its complement, treating the two as a single slider (an Open Question
// resolution — spec only says "CLI override" exists, not its exact shape).
func (c *Config) ApplyUrgencyWeightOverride(override *float64) {
	if override == nil {
		return
	}
	c.Scheduler.WeightUrgency = *override
	c.Scheduler.WeightDueDate = 1 - *override
}

// WeekMapsByName resolves every task_map name referenced across time maps
// into timemap.WeekMap, keyed by name, for horizon.Cache lookups.
func (c *Config) WeekMapsByName() map[string]timemap.WeekMap {
	out := make(map[string]timemap.WeekMap, len(c.TimeMaps))
	for name, tm := range c.TimeMaps {
		out[name] = tm.ToWeekMap()
	}
	return out
}
