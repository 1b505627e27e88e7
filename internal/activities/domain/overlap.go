package domain

// FindConflict returns the first activity in existing whose window overlaps
// candidate's, or nil. existing is expected to be the owner's activities on
// the candidate's date; entries for other owners or dates, the candidate's
// own stored version and cancelled activities are skipped.
func FindConflict(candidate Activity, existing []Activity) *Activity {
	for i := range existing {
		other := &existing[i]
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if other.Status == StatusCancelled {
			continue
		}
		if other.OwnerID != candidate.OwnerID || !other.Date.Equal(candidate.Date) {
			continue
		}
		if candidate.Window.Overlaps(other.Window) {
			return other
		}
	}
	return nil
}

// CheckOverlap is FindConflict for the admission pipeline: a conflict comes
// back as an *OverlapError naming the blocking activity.
func CheckOverlap(candidate Activity, existing []Activity) error {
	if candidate.Status == StatusCancelled {
		return nil
	}
	if other := FindConflict(candidate, existing); other != nil {
		return &OverlapError{ConflictID: other.ID, Window: other.Window}
	}
	return nil
}
