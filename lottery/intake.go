package lottery

import "fmt"

// Submission is a normalized entry or group submission prior to persistence.
// MemberIDs has a single element for an individual entry; for a group the
// leader comes first.
type Submission struct {
	MemberIDs     []int64
	Preferred     string
	Alternate     *string
	PreferredTime *string
}

// ValidateSubmission checks a submission against the date's windows, the
// per-slot capacity and the set of members already entered for the date.
// taken must exclude the submitting members' own pending rows so that
// resubmission replaces rather than duplicates.
func ValidateSubmission(sub Submission, windows []Window, slotCapacity int, taken map[int64]bool) error {
	if len(sub.MemberIDs) == 0 {
		return fmt.Errorf("submission has no members")
	}
	if len(sub.MemberIDs) > slotCapacity {
		return fmt.Errorf("%w: %d members, capacity %d", ErrGroupTooLarge, len(sub.MemberIDs), slotCapacity)
	}

	seen := make(map[int64]bool, len(sub.MemberIDs))
	for _, id := range sub.MemberIDs {
		if seen[id] {
			return fmt.Errorf("%w: member %d listed twice", ErrDuplicateEntry, id)
		}
		seen[id] = true
		if taken[id] {
			return fmt.Errorf("%w: member %d", ErrDuplicateEntry, id)
		}
	}

	if !ValidWindowName(sub.Preferred) {
		return fmt.Errorf("%w: %q", ErrInvalidWindow, sub.Preferred)
	}
	if _, ok := FindWindow(windows, WindowName(sub.Preferred)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidWindow, sub.Preferred)
	}
	if sub.Alternate != nil && *sub.Alternate != "" {
		if !ValidWindowName(*sub.Alternate) {
			return fmt.Errorf("%w: %q", ErrInvalidWindow, *sub.Alternate)
		}
		if _, ok := FindWindow(windows, WindowName(*sub.Alternate)); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidWindow, *sub.Alternate)
		}
	}
	if sub.PreferredTime != nil && *sub.PreferredTime != "" {
		if _, err := ParseClock(*sub.PreferredTime); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTime, *sub.PreferredTime)
		}
	}
	return nil
}
