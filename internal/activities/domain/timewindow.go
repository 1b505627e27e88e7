package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// LocalTime is a day-local time of day with minute resolution, stored as
// minutes since midnight.
type LocalTime int

// NewLocalTime builds a LocalTime from an hour (0-23) and minute (0-59).
func NewLocalTime(hour, minute int) (LocalTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d out of range", ErrInvalidTimeFormat, hour, minute)
	}
	return LocalTime(hour*60 + minute), nil
}

func (t LocalTime) Hour() int   { return int(t) / 60 }
func (t LocalTime) Minute() int { return int(t) % 60 }

// String renders the normalized 24-hour HH:MM form.
func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Ordering is the result of comparing two LocalTimes.
type Ordering int

const (
	Before Ordering = -1
	Equal  Ordering = 0
	After  Ordering = 1
)

// Compare orders a relative to b.
func Compare(a, b LocalTime) Ordering {
	switch {
	case a < b:
		return Before
	case a > b:
		return After
	default:
		return Equal
	}
}

// ParseTime accepts "H:MM", "HH:MM", "H:MM AM" and "HH:MM PM". The meridiem
// marker must follow exactly one space and is matched case-insensitively.
func ParseTime(text string) (LocalTime, error) {
	clock, meridiem, hasMeridiem := strings.Cut(text, " ")
	if hasMeridiem && strings.Contains(meridiem, " ") {
		return 0, timeFormatError(text)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, timeFormatError(text)
	}
	hour, err := parseDigits(hh)
	if err != nil {
		return 0, timeFormatError(text)
	}
	minute, err := parseDigits(mm)
	if err != nil || minute > 59 {
		return 0, timeFormatError(text)
	}

	if !hasMeridiem {
		if hour > 23 {
			return 0, timeFormatError(text)
		}
		return LocalTime(hour*60 + minute), nil
	}

	if hour < 1 || hour > 12 {
		return 0, timeFormatError(text)
	}
	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, timeFormatError(text)
	}
	return LocalTime(hour*60 + minute), nil
}

// parseDigits rejects signs and spaces that strconv.Atoi would tolerate.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func timeFormatError(input string) error {
	return &TimeFormatError{Input: input}
}

// TimeWindow is a start/end pair within one calendar day. Start is strictly
// before End for every constructed window.
type TimeWindow struct {
	Start LocalTime
	End   LocalTime
}

// IsValidWindow reports whether end is strictly after start.
func IsValidWindow(start, end LocalTime) bool {
	return Compare(start, end) == Before
}

// NewTimeWindow returns ErrInvalidWindow for empty or inverted windows.
func NewTimeWindow(start, end LocalTime) (TimeWindow, error) {
	if !IsValidWindow(start, end) {
		return TimeWindow{}, fmt.Errorf("%w: %s-%s", ErrInvalidWindow, start, end)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// ParseTimeWindow parses both ends and checks the window invariant.
func ParseTimeWindow(start, end string) (TimeWindow, error) {
	s, err := ParseTime(start)
	if err != nil {
		return TimeWindow{}, withField(err, "hora_inicio")
	}
	e, err := ParseTime(end)
	if err != nil {
		return TimeWindow{}, withField(err, "hora_fin")
	}
	return NewTimeWindow(s, e)
}

// Overlaps uses half-open intervals: [s1,e1) and [s2,e2) intersect iff
// s1 < e2 and s2 < e1. Back-to-back windows do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start < other.End && other.Start < w.End
}

// Duration in minutes.
func (w TimeWindow) Minutes() int {
	return int(w.End - w.Start)
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

func withField(err error, field string) error {
	if tf, ok := err.(*TimeFormatError); ok {
		return &TimeFormatError{Field: field, Input: tf.Input}
	}
	return err
}
