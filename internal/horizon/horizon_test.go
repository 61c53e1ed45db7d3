package horizon

import (
	"testing"
	"time"

	"github.com/emiller/taskcheck/internal/timemap"
)

func weekMaps() map[string]timemap.WeekMap {
	work := []timemap.Window{{Start: 9.0, End: 17.0}}
	return map[string]timemap.WeekMap{
		"work": {
			"monday":    work,
			"tuesday":   work,
			"wednesday": work,
			"thursday":  work,
			"friday":    work,
		},
	}
}

func TestBuildComputesVector(t *testing.T) {
	cache := NewCache(weekMaps(), nil)
	monday := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	vector, todayUsed := cache.Build([]string{"work"}, 5, monday)
	if len(vector) != 5 {
		t.Fatalf("len(vector) = %d, want 5", len(vector))
	}
	if vector[0] != 8 {
		t.Errorf("vector[0] (monday) = %v, want 8", vector[0])
	}
	if vector[5-1] != 8 {
		t.Errorf("vector[4] (friday) = %v, want 8", vector[4])
	}
	if todayUsed != 0 {
		t.Errorf("todayUsed before window opens = %v, want 0", todayUsed)
	}
}

func TestBuildIsMemoizedByNameTuple(t *testing.T) {
	cache := NewCache(weekMaps(), nil)
	monday := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	v1, _ := cache.Build([]string{"work"}, 3, monday)
	v2, _ := cache.Build([]string{"work"}, 3, monday)

	if &v1[0] != &v2[0] {
		t.Error("expected second Build call to return the memoized slice, not recompute")
	}
}

func TestBuildTodayUsedRecomputedEveryCall(t *testing.T) {
	cache := NewCache(weekMaps(), nil)
	morning := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)

	_, used1 := cache.Build([]string{"work"}, 1, morning)
	_, used2 := cache.Build([]string{"work"}, 1, afternoon)

	if used1 != 2 {
		t.Errorf("todayUsed at 11:00 = %v, want 2", used1)
	}
	if used2 != 5 {
		t.Errorf("todayUsed at 14:00 = %v, want 5", used2)
	}
}
