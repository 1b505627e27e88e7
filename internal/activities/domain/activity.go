package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	t time.Time
}

// DateOf takes the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// timestampLayouts are the full timestamps accepted in place of a bare date.
// Only their calendar part is kept.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseDate accepts an ISO-8601 calendar date, or a complete timestamp whose
// date part is taken as written.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && s[len(dateLayout)] == 'T' {
		if !isTimestamp(s) {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

func isTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) String() string     { return d.t.Format(dateLayout) }

// MarshalText renders YYYY-MM-DD, which is also the JSON form.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Status is the lifecycle state of an activity.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSubmitted  Status = "submitted"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus accepts the canonical lower-case names.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	switch st {
	case StatusDraft, StatusPending, StatusInProgress, StatusCompleted, StatusSubmitted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Terminal statuses accept no further transitions or edits.
func (s Status) Terminal() bool {
	return s == StatusSubmitted || s == StatusCancelled
}

// Priority is optional; the zero value means unset.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Weight orders priorities for display: high=3, medium=2, low=1, unset=0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Activity is one logged block of work owned by a single user.
type Activity struct {
	ID           string
	OwnerID      string
	ProjectID    string
	Date         Date
	Window       TimeWindow
	Status       Status
	Priority     Priority
	Description  string
	Observations string
	Results      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasProject reports whether the activity references a project.
func (a Activity) HasProject() bool {
	return a.ProjectID != ""
}
