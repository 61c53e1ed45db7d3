// Package taskwarrior shells out to the task command for snapshotting
// tasks, reading urgency coefficients, and writing back scheduling
// results. It is the external interface spec.md treats as "given" (§6).
package taskwarrior

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emiller/taskcheck/internal/taskcheckerr"
	"github.com/emiller/taskcheck/internal/urgency"
)

// Task is the snapshot shape of spec §3/§6: a JSON task object with
// instants as YYYYMMDDTHHMMSSZ and durations as PDTH.
type Task struct {
	UUID        string  `json:"uuid"`
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Project     string  `json:"project"`
	Entry       string  `json:"entry"`
	Due         string  `json:"due,omitempty"`
	Wait        string  `json:"wait,omitempty"`
	Depends     string  `json:"depends,omitempty"`
	Urgency     float64 `json:"urgency"`
	Estimated   string  `json:"estimated,omitempty"`
	TimeMap     string  `json:"time_map,omitempty"`
	MinBlock    float64 `json:"min_block,omitempty"`
}

const taskTimeLayout = "20060102T150405Z"

// ParseInstant parses a task's Entry/Due/Wait string into a time.Time.
func ParseInstant(s string) (time.Time, error) {
	return time.Parse(taskTimeLayout, s)
}

// executeTask runs a task command and returns its trimmed stdout.
func executeTask(taskrc string, args ...string) (string, error) {
	fullArgs := args
	if taskrc != "" {
		fullArgs = append([]string{"rc:" + taskrc}, args...)
	}
	cmd := exec.Command("task", fullArgs...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("task command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Snapshot runs task export and decodes the resulting JSON array into
// Tasks, per spec §6's "Task snapshot input".
func Snapshot(taskrc string) ([]Task, error) {
	output, err := executeTask(taskrc, "rc.json.array=on", "export")
	if err != nil {
		return nil, taskcheckerr.Wrap(taskcheckerr.ErrSnapshotUnavailable, err)
	}

	var tasks []Task
	if err := json.Unmarshal([]byte(output), &tasks); err != nil {
		return nil, taskcheckerr.Wrap(taskcheckerr.ErrSnapshotUnavailable, fmt.Errorf("decoding task export: %w", err))
	}
	return tasks, nil
}

var (
	estimatedCoeffPattern = regexp.MustCompile(`^urgency\.uda\.estimated\.(P\w+)\.coefficient=(.+)$`)
	scalarCoeffPatterns   = map[string]*regexp.Regexp{
		"inherit": regexp.MustCompile(`^urgency\.inherit=(.+)$`),
		"active":  regexp.MustCompile(`^urgency\.active\.coefficient=(.+)$`),
		"ageMax":  regexp.MustCompile(`^urgency\.age\.max=(.+)$`),
		"age":     regexp.MustCompile(`^urgency\.age\.coefficient=(.+)$`),
		"due":     regexp.MustCompile(`^urgency\.due\.coefficient=(.+)$`),
	}
)

// Coefficients runs task _show and regex-scans for urgency coefficient
// lines, per spec §6's "Urgency coefficients" interface. Grounded on
// original_source/taskcheck/parallel.py's get_urgency_coefficients,
// translated from a Python regex loop to bufio.Scanner + regexp.
func Coefficients(taskrc string) (urgency.Coefficients, error) {
	output, err := executeTask(taskrc, "_show")
	if err != nil {
		return urgency.Coefficients{}, taskcheckerr.Wrap(taskcheckerr.ErrSnapshotUnavailable, err)
	}
	return parseCoefficients(output)
}

func parseCoefficients(output string) (urgency.Coefficients, error) {
	coeffs := urgency.Coefficients{Estimated: make(map[string]float64)}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if m := estimatedCoeffPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				coeffs.Estimated[m[1]] = v
			}
			continue
		}
		for name, pattern := range scalarCoeffPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			switch name {
			case "inherit":
				coeffs.Inherit = m[1] == "1" || strings.EqualFold(m[1], "yes") || strings.EqualFold(m[1], "true")
			case "active":
				coeffs.Active, _ = strconv.ParseFloat(m[1], 64)
			case "ageMax":
				coeffs.AgeMax, _ = strconv.ParseFloat(m[1], 64)
			case "age":
				coeffs.AgeCoefficient, _ = strconv.ParseFloat(m[1], 64)
			case "due":
				coeffs.DueCoefficient, _ = strconv.ParseFloat(m[1], 64)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return urgency.Coefficients{}, fmt.Errorf("scanning task _show output: %w", err)
	}

	return coeffs, nil
}

// Modify issues the single imperative "task modify" call of spec §6's
// "Task modify output": scheduled/completion_date/scheduling fields.
func Modify(taskrc string, id int, scheduled, completionDate, note string) error {
	args := []string{
		"rc.confirmation:no", "rc.verbose:nothing",
		strconv.Itoa(id), "modify",
		"scheduled:" + scheduled,
		"completion_date:" + completionDate,
		"scheduling:" + quoteNote(note),
	}
	if _, err := executeTask(taskrc, args...); err != nil {
		return fmt.Errorf("modifying task %d: %w", id, err)
	}
	return nil
}

func quoteNote(note string) string {
	return strings.ReplaceAll(note, "\n", "\\n")
}

// EnsureUDAs declares the estimated/time_map/scheduling/min_block UDAs,
// adapted from the teacher's EnsureReviewConfig idiom for the -i/--install
// flag.
func EnsureUDAs(taskrc string) error {
	udas := [][3]string{
		{"estimated", "duration", "Estimated"},
		{"time_map", "string", "Time Map"},
		{"scheduling", "string", "Scheduling"},
		{"min_block", "numeric", "Min Block"},
	}

	for _, uda := range udas {
		name, kind, label := uda[0], uda[1], uda[2]
		current, err := executeTask(taskrc, "_get", "rc.uda."+name+".type")
		if err == nil && current == kind {
			continue
		}
		if _, err := executeTask(taskrc, "rc.confirmation:no", "rc.verbose:nothing", "config", "uda."+name+".type", kind); err != nil {
			return fmt.Errorf("setting uda.%s.type: %w", name, err)
		}
		if _, err := executeTask(taskrc, "rc.confirmation:no", "rc.verbose:nothing", "config", "uda."+name+".label", label); err != nil {
			return fmt.Errorf("setting uda.%s.label: %w", name, err)
		}
	}

	return nil
}
