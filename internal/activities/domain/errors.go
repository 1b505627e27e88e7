package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeFormat        = errors.New("invalid time format")
	ErrInvalidDate              = errors.New("invalid date")
	ErrInvalidWindow            = errors.New("end time must be after start time")
	ErrPastDate                 = errors.New("activity date is in the past")
	ErrOverlapsExistingActivity = errors.New("activity overlaps an existing activity")
	ErrIllegalTransition        = errors.New("illegal status transition")
	ErrNotFound                 = errors.New("activity not found")
	ErrInvalidStatus            = errors.New("invalid activity status")
	ErrInvalidPriority          = errors.New("invalid activity priority")
)

// TimeFormatError reports which input failed to parse. It matches
// ErrInvalidTimeFormat under errors.Is.
type TimeFormatError struct {
	Field string
	Input string
}

func (e *TimeFormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %q", ErrInvalidTimeFormat, e.Field, e.Input)
	}
	return fmt.Sprintf("%s: %q", ErrInvalidTimeFormat, e.Input)
}

func (e *TimeFormatError) Unwrap() error { return ErrInvalidTimeFormat }

// OverlapError carries the id of the activity that blocks the candidate.
type OverlapError struct {
	ConflictID string
	Window     TimeWindow
}

func (e *OverlapError) Error() string {
	if e.ConflictID == "" {
		return ErrOverlapsExistingActivity.Error()
	}
	return fmt.Sprintf("%s: conflicts with %s (%s)", ErrOverlapsExistingActivity, e.ConflictID, e.Window)
}

func (e *OverlapError) Unwrap() error { return ErrOverlapsExistingActivity }

// TransitionError carries the rejected from/to pair.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// ErrorKind returns a stable machine-readable code for a domain error, or
// "internal" when err is not one of ours.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTimeFormat):
		return "invalid_time_format"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrOverlapsExistingActivity):
		return "overlaps_existing_activity"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrInvalidPriority):
		return "invalid_priority"
	default:
		return "internal"
	}
}
