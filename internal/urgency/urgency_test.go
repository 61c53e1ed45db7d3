package urgency

import (
	"testing"
	"time"
)

func TestEstimatedUrgencyNearestKeyTieBreaksSmaller(t *testing.T) {
	coeffs := Coefficients{
		Estimated: map[string]float64{
			"P0DT1H": 1.0,
			"P0DT3H": 2.0,
		},
	}
	// remaining=2h is equidistant from 1h and 3h; tie breaks toward smaller key.
	got := estimatedUrgency(coeffs, 2.0)
	want := 1.0 * 2.0
	if got != want {
		t.Errorf("estimatedUrgency = %v, want %v", got, want)
	}
}

func TestEstimatedUrgencyPicksNearest(t *testing.T) {
	coeffs := Coefficients{
		Estimated: map[string]float64{
			"P0DT1H": 1.0,
			"P0DT8H": 5.0,
		},
	}
	got := estimatedUrgency(coeffs, 7.0)
	want := 5.0 * 7.0
	if got != want {
		t.Errorf("estimatedUrgency = %v, want %v", got, want)
	}
}

func TestEstimatedUrgencyEmptyCoefficients(t *testing.T) {
	if got := estimatedUrgency(Coefficients{}, 4.0); got != 0 {
		t.Errorf("estimatedUrgency with no coefficients = %v, want 0", got)
	}
}

func TestRecomputeAge(t *testing.T) {
	coeffs := Coefficients{AgeMax: 10, AgeCoefficient: 2.0}
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var c Components
	c.RecomputeAge(coeffs, entry, entry.AddDate(0, 0, 5))
	if got := c.Age; got != 1.0 {
		t.Errorf("age at half of age_max = %v, want 1.0", got)
	}

	c.RecomputeAge(coeffs, entry, entry.AddDate(0, 0, 20))
	if got := c.Age; got != 2.0 {
		t.Errorf("age beyond age_max should clamp to coefficient = %v, want 2.0", got)
	}
}

func TestDueUrgencyCurve(t *testing.T) {
	coeffs := Coefficients{DueCoefficient: 10.0}

	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"overdue saturates", -3, 10.0},
		{"due today saturates", 0, 10.0},
		{"halfway through week", 3.5, 10.0 - (3.5/7.0)*(10.0-2.0)},
		{"at week boundary", 7, 2.0},
		{"far future tail", 10, 2.0 * 10.0 / 20.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dueUrgency(coeffs, tt.delta)
			if got != tt.want {
				t.Errorf("dueUrgency(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestTotalWeighting(t *testing.T) {
	c := Components{Base: 5, Estimated: 2, Age: 1, Due: 4}
	got := c.Total(0.5, 2.0)
	want := 5 + 0.5*(2+1) + 2.0*4
	if got != want {
		t.Errorf("Total = %v, want %v", got, want)
	}
}

func TestDaysUntilDue(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := date.AddDate(0, 0, 3)
	if got := DaysUntilDue(due, date); got != 3.0 {
		t.Errorf("DaysUntilDue = %v, want 3.0", got)
	}
}
