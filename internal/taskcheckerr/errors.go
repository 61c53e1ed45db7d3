// Package taskcheckerr gives spec §7's four error kinds a concrete Go
// shape: sentinel errors any caller can test with errors.Is, wrapped with
// whatever underlying cause produced them.
package taskcheckerr

import "errors"

var (
	// ErrConfigInvalid covers malformed TOML or a [scheduler] section that
	// fails validation. Aborts the run. A task naming a time map that is not
	// in the config is not reported: that name contributes no available hours.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrSnapshotUnavailable covers the task store returning non-JSON or a
	// non-zero exit status. Aborts the run.
	ErrSnapshotUnavailable = errors.New("task snapshot unavailable")

	// ErrCalendarUnavailable covers a failed calendar fetch with an expired
	// or absent cache. Aborts the run.
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrInfeasibleSchedule covers a task whose emitted end_date exceeds
	// its due date. This is a warning, not an abort: the best-effort
	// schedule is still written.
	ErrInfeasibleSchedule = errors.New("infeasible schedule")
)

// Wrap associates cause with kind so errors.Is(err, kind) succeeds while
// errors.Unwrap(err) still reaches the original cause.
func Wrap(kind error, cause error) error {
	return &wrapped{kind: kind, cause: cause}
}

type wrapped struct {
	kind  error
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.kind.Error()
	}
	return w.kind.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Is(target error) bool {
	return target == w.kind
}

func (w *wrapped) Unwrap() error {
	return w.cause
}
