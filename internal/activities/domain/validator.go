package domain

// Mode selects which admission rules apply.
type Mode int

const (
	// ModeCreate applies every rule including the no-backdating check.
	ModeCreate Mode = iota
	// ModeUpdate re-checks format and window but never the past-date rule,
	// so edits to historical activities stay possible.
	ModeUpdate
)

// Candidate is the raw, client-supplied part of an activity that the
// validator gates.
type Candidate struct {
	Date      string
	StartTime string
	EndTime   string
}

// Validated is a candidate with its date parsed and times normalized.
type Validated struct {
	Date   Date
	Window TimeWindow
}

// StartText and EndText give the normalized HH:MM strings.
func (v Validated) StartText() string { return v.Window.Start.String() }
func (v Validated) EndText() string   { return v.Window.End.String() }

// Validate is a pure function of its inputs. today is the caller's notion of
// the current date and is only consulted in ModeCreate.
func Validate(c Candidate, mode Mode, today Date) (Validated, error) {
	date, err := ParseDate(c.Date)
	if err != nil {
		return Validated{}, err
	}
	window, err := ParseTimeWindow(c.StartTime, c.EndTime)
	if err != nil {
		return Validated{}, err
	}
	if mode == ModeCreate && date.Before(today) {
		return Validated{}, ErrPastDate
	}
	return Validated{Date: date, Window: window}, nil
}
