// Package urgency implements the additive urgency decomposition of spec
// §4.4: base + estimated + age + due, maintained as an invariant under
// delta updates rather than ever fully recomputed.
package urgency

import (
	"time"

	"github.com/emiller/taskcheck/internal/duration"
)

// Coefficients is the parsed Taskwarrior urgency configuration (§4.4, §6).
type Coefficients struct {
	// Estimated maps whole-hour PDTH keys (e.g. "P0DT2H") to a coefficient.
	Estimated map[string]float64
	Inherit   bool

	Active         float64
	AgeMax         float64
	AgeCoefficient float64
	DueCoefficient float64
}

// Components is the per-task urgency decomposition. Total urgency combines
// all four fields (see Total for the weighting); callers must only ever move from one Components
// value to another via the Recompute* methods, never by re-deriving Base.
type Components struct {
	Base      float64
	Estimated float64
	Age       float64
	Due       float64
}

// Total applies the §4.4 weighting rule: base stays unweighted, estimated
// and age share weightUrgency, due gets its own weightDue.
func (c Components) Total(weightUrgency, weightDue float64) float64 {
	return c.Base + weightUrgency*(c.Estimated+c.Age) + weightDue*c.Due
}

// RecomputeEstimated updates Estimated in place given the task's current
// remaining hours, implementing §4.4's "emit the PDTH of r rounded to
// integer hours, pick the coefficient whose key's hour component is
// nearest the target; ties broken toward the smaller key" rule.
func (c *Components) RecomputeEstimated(coeffs Coefficients, remainingHours float64) {
	c.Estimated = estimatedUrgency(coeffs, remainingHours)
}

func estimatedUrgency(coeffs Coefficients, remainingHours float64) float64 {
	if len(coeffs.Estimated) == 0 {
		return 0
	}
	targetHours := int(remainingHours + 0.5) // round to nearest integer hour

	var bestKey string
	var bestCoeff float64
	bestDist := -1
	haveBest := false

	for key, coeff := range coeffs.Estimated {
		hrs, err := duration.ParseHours(key)
		if err != nil {
			continue
		}
		keyHours := int(hrs)
		dist := keyHours - targetHours
		if dist < 0 {
			dist = -dist
		}
		switch {
		case !haveBest:
			bestKey, bestCoeff, bestDist, haveBest = key, coeff, dist, true
		case dist < bestDist:
			bestKey, bestCoeff, bestDist = key, coeff, dist
		case dist == bestDist && lessKey(key, bestKey):
			bestKey, bestCoeff = key, coeff
		}
	}
	if !haveBest {
		return 0
	}
	return bestCoeff * remainingHours
}

// lessKey breaks ties "toward the smaller key" by comparing the parsed
// hour value of each PDTH key, not its string form.
func lessKey(a, b string) bool {
	ah, errA := duration.ParseHours(a)
	bh, errB := duration.ParseHours(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ah < bh
}

// RecomputeAge updates Age in place per §4.4: coefficient_age *
// min(days_since_entry / age_max, 1.0).
func (c *Components) RecomputeAge(coeffs Coefficients, entry, now time.Time) {
	if coeffs.AgeMax <= 0 {
		c.Age = 0
		return
	}
	daysSinceEntry := now.Sub(entry).Hours() / 24
	if daysSinceEntry < 0 {
		daysSinceEntry = 0
	}
	ratio := daysSinceEntry / coeffs.AgeMax
	if ratio > 1.0 {
		ratio = 1.0
	}
	c.Age = coeffs.AgeCoefficient * ratio
}

// RecomputeDue updates Due in place given days-until-due delta, per the
// piecewise curve supplementing §4.4 (see DESIGN.md for its derivation):
// saturated at coefficient_due for δ≤0; linear decay to 0.2×coefficient_due
// over (0,7] days; an asymptotic tail beyond day 7.
func (c *Components) RecomputeDue(coeffs Coefficients, delta float64) {
	c.Due = dueUrgency(coeffs, delta)
}

func dueUrgency(coeffs Coefficients, delta float64) float64 {
	const lowerFraction = 0.2
	const tailHorizon = 10.0

	switch {
	case delta <= 0:
		return coeffs.DueCoefficient
	case delta <= 7:
		lower := lowerFraction * coeffs.DueCoefficient
		frac := delta / 7.0
		return coeffs.DueCoefficient - frac*(coeffs.DueCoefficient-lower)
	default:
		return lowerFraction * coeffs.DueCoefficient * (tailHorizon / (tailHorizon + delta))
	}
}

// DaysUntilDue computes δ for RecomputeDue: the whole-plus-fractional day
// distance from date to due, positive when due is in the future.
func DaysUntilDue(due, date time.Time) float64 {
	return due.Sub(date).Hours() / 24
}

// RecomputeForDate refreshes Age and Due for the given date/entry/due,
// leaving Base and Estimated untouched; RecomputeEstimated is called
// separately since it depends on remaining_hours, not the date alone.
func (c *Components) RecomputeForDate(coeffs Coefficients, entry, due, date time.Time, hasDue bool) {
	c.RecomputeAge(coeffs, entry, date)
	if hasDue {
		c.RecomputeDue(coeffs, DaysUntilDue(due, date))
	} else {
		c.Due = 0
	}
}
