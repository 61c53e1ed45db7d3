// Package duration implements the PDTH duration codec: the
// ISO-8601-inspired "P{days}DT{hours}H" strings Taskwarrior's estimated
// and urgency-coefficient-key fields use.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
)

// pdthPattern matches P<days>DT<hours>H, where both the day and the T<hours>H
// portions are optional and non-negative integers. At least one of the two
// must be present.
var pdthPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(\d+)H)?$`)

// ParseHours converts a PDTH string to total fractional hours: days*24 + hours.
func ParseHours(s string) (float64, error) {
	m := pdthPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, fmt.Errorf("duration: invalid PDTH string %q", s)
	}

	var days, hours int
	var err error
	if m[1] != "" {
		days, err = strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("duration: invalid day component in %q: %w", s, err)
		}
	}
	if m[2] != "" {
		hours, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("duration: invalid hour component in %q: %w", s, err)
		}
	}

	return float64(days*24 + hours), nil
}

// FormatWholeHours emits the PDTH string for a whole-hour total, using
// integer division/modulo on hours. Non-integer totals must be floored by
// the caller before calling this (the round-trip is only guaranteed on
// integer-hour inputs, per spec).
func FormatWholeHours(hours int) string {
	days := hours / 24
	rem := hours % 24
	return fmt.Sprintf("P%dDT%dH", days, rem)
}

// FormatHours floors a fractional hour total to the nearest whole hour and
// emits its PDTH string. This is the lossy direction acknowledged by spec
// §4.1: allocation proceeds in fractional hours, but coefficient keys are
// whole-hour, so re-emission always rounds down.
func FormatHours(hours float64) string {
	return FormatWholeHours(int(hours))
}
