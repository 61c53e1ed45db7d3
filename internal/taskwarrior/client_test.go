package taskwarrior

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseCoefficients(t *testing.T) {
	output := `urgency.uda.estimated.P0DT1H.coefficient=1.0
urgency.uda.estimated.P0DT4H.coefficient=3.5
urgency.inherit=1
urgency.active.coefficient=4.0
urgency.age.max=365
urgency.age.coefficient=2.0
urgency.due.coefficient=12.0
urgency.blocking.coefficient=8.0
`
	coeffs, err := parseCoefficients(output)
	if err != nil {
		t.Fatalf("parseCoefficients returned error: %v", err)
	}

	if coeffs.Estimated["P0DT1H"] != 1.0 || coeffs.Estimated["P0DT4H"] != 3.5 {
		t.Errorf("Estimated = %v, want P0DT1H=1.0, P0DT4H=3.5", coeffs.Estimated)
	}
	if !coeffs.Inherit {
		t.Error("Inherit = false, want true")
	}
	if coeffs.Active != 4.0 {
		t.Errorf("Active = %v, want 4.0", coeffs.Active)
	}
	if coeffs.AgeMax != 365 {
		t.Errorf("AgeMax = %v, want 365", coeffs.AgeMax)
	}
	if coeffs.AgeCoefficient != 2.0 {
		t.Errorf("AgeCoefficient = %v, want 2.0", coeffs.AgeCoefficient)
	}
	if coeffs.DueCoefficient != 12.0 {
		t.Errorf("DueCoefficient = %v, want 12.0", coeffs.DueCoefficient)
	}
}

func TestParseCoefficientsIgnoresUnrelatedLines(t *testing.T) {
	output := "color.header=bold\nsome other junk\n"
	coeffs, err := parseCoefficients(output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coeffs.Estimated) != 0 {
		t.Errorf("Estimated should be empty, got %v", coeffs.Estimated)
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("20240115T090000Z")
	if err != nil {
		t.Fatalf("ParseInstant returned error: %v", err)
	}
	want := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseInstant = %v, want %v", got, want)
	}
}

func TestTaskJSONDecode(t *testing.T) {
	raw := `[{"uuid":"abc","id":1,"description":"write report","status":"pending","entry":"20240101T000000Z","estimated":"P0DT4H","time_map":"work","urgency":5.2}]`
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		t.Fatalf("json.Unmarshal returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if tasks[0].Estimated != "P0DT4H" || tasks[0].TimeMap != "work" {
		t.Errorf("decoded task = %+v", tasks[0])
	}
}
