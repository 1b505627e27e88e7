package domain

// Action is a named lifecycle trigger.
type Action string

const (
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionSubmit   Action = "submit"
	ActionCancel   Action = "cancel"
)

// actionRules lists, per action, the statuses it may be applied from.
var actionRules = map[Action]struct {
	to   Status
	from []Status
}{
	ActionStart:    {to: StatusInProgress, from: []Status{StatusPending}},
	ActionComplete: {to: StatusCompleted, from: []Status{StatusPending, StatusInProgress}},
	ActionSubmit:   {to: StatusSubmitted, from: []Status{StatusDraft, StatusCompleted}},
	ActionCancel:   {to: StatusCancelled, from: []Status{StatusPending, StatusInProgress, StatusDraft}},
}

// InitialStatus is pending unless the caller explicitly asks for a draft.
func InitialStatus(draft bool) Status {
	if draft {
		return StatusDraft
	}
	return StatusPending
}

// Target returns the status an action leads to.
func (a Action) Target() (Status, bool) {
	rule, ok := actionRules[a]
	return rule.to, ok
}

// Apply returns the status reached by running action from the current status.
// Submitting an already submitted activity is a no-op rather than an error.
func Apply(current Status, action Action) (Status, error) {
	rule, ok := actionRules[action]
	if !ok {
		return current, &TransitionError{From: current, To: Status(action)}
	}
	if action == ActionSubmit && current == StatusSubmitted {
		return current, nil
	}
	for _, from := range rule.from {
		if from == current {
			return rule.to, nil
		}
	}
	return current, &TransitionError{From: current, To: rule.to}
}

// CheckTransition validates a direct status change requested through an
// update. Non-terminal statuses may move freely between each other; entering
// submitted or cancelled follows the corresponding action's rule. Asking for
// submitted again is accepted, as with ActionSubmit.
func CheckTransition(from, to Status) error {
	if from == to && (!from.Terminal() || from == StatusSubmitted) {
		return nil
	}
	if from.Terminal() {
		return &TransitionError{From: from, To: to}
	}
	switch to {
	case StatusSubmitted:
		_, err := Apply(from, ActionSubmit)
		return err
	case StatusCancelled:
		_, err := Apply(from, ActionCancel)
		return err
	}
	return nil
}

// CanEdit reports whether content fields (date, window, description, ...)
// may still change.
func CanEdit(s Status) bool {
	return !s.Terminal()
}

// CanDelete reports whether the activity may be removed. Submitted work is
// kept for review.
func CanDelete(s Status) bool {
	return s != StatusSubmitted
}

// deletedMarker names the pseudo-target reported when a delete is refused.
const deletedMarker Status = "deleted"

// CheckDelete is CanDelete as an error.
func CheckDelete(s Status) error {
	if !CanDelete(s) {
		return &TransitionError{From: s, To: deletedMarker}
	}
	return nil
}
