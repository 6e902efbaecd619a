package lottery

import "errors"

// Validation and configuration failures surfaced to callers. Handlers map
// these onto HTTP statuses; nothing here is fatal to the process.
var (
	// ErrInvalidConfiguration means operating hours are malformed (bad HH:MM
	// or start >= end). A non-regular teesheet is not an error, see Windows.
	ErrInvalidConfiguration = errors.New("invalid teesheet configuration")

	// ErrDuplicateEntry means a member already holds a non-cancelled entry or
	// group membership for the date.
	ErrDuplicateEntry = errors.New("member already entered for this date")

	// ErrGroupTooLarge means the group exceeds the per-slot capacity.
	ErrGroupTooLarge = errors.New("group exceeds slot capacity")

	// ErrInvalidWindow means an unknown preference window name.
	ErrInvalidWindow = errors.New("unknown time window")

	// ErrInvalidTime means a time-of-day preference failed to parse as HH:MM.
	ErrInvalidTime = errors.New("invalid time of day")

	// ErrOutOfRange means a priority adjustment outside [-10, 10].
	ErrOutOfRange = errors.New("adjustment out of range")
)
