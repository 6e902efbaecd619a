package lottery

import (
	"errors"
	"testing"
)

func validateWith(t *testing.T, sub Submission, taken map[int64]bool) error {
	t.Helper()
	windows, err := Windows("06:00", "18:00")
	if err != nil {
		t.Fatal(err)
	}
	return ValidateSubmission(sub, windows, 4, taken)
}

func TestValidateSubmission(t *testing.T) {
	t.Run("valid entry", func(t *testing.T) {
		alt, pref := "MIDDAY", "07:30"
		sub := Submission{MemberIDs: []int64{1}, Preferred: "MORNING", Alternate: &alt, PreferredTime: &pref}
		if err := validateWith(t, sub, nil); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("no members", func(t *testing.T) {
		if err := validateWith(t, Submission{Preferred: "MORNING"}, nil); err == nil {
			t.Fatal("expected error for empty member list")
		}
	})

	t.Run("group over slot capacity", func(t *testing.T) {
		sub := Submission{MemberIDs: []int64{1, 2, 3, 4, 5}, Preferred: "MORNING"}
		if err := validateWith(t, sub, nil); !errors.Is(err, ErrGroupTooLarge) {
			t.Fatalf("want ErrGroupTooLarge, got %v", err)
		}
	})

	t.Run("member listed twice in group", func(t *testing.T) {
		sub := Submission{MemberIDs: []int64{1, 2, 1}, Preferred: "MORNING"}
		if err := validateWith(t, sub, nil); !errors.Is(err, ErrDuplicateEntry) {
			t.Fatalf("want ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("member already entered for the date", func(t *testing.T) {
		sub := Submission{MemberIDs: []int64{1, 2}, Preferred: "MORNING"}
		taken := map[int64]bool{2: true}
		if err := validateWith(t, sub, taken); !errors.Is(err, ErrDuplicateEntry) {
			t.Fatalf("want ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("unknown preferred window", func(t *testing.T) {
		sub := Submission{MemberIDs: []int64{1}, Preferred: "DAWN"}
		if err := validateWith(t, sub, nil); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("want ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("unknown alternate window", func(t *testing.T) {
		alt := "midnight"
		sub := Submission{MemberIDs: []int64{1}, Preferred: "MORNING", Alternate: &alt}
		if err := validateWith(t, sub, nil); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("want ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("window name valid but absent from the date", func(t *testing.T) {
		// A 2-hour day still yields four windows, so build a single-window
		// slice by hand to exercise the per-date check.
		windows := []Window{{Name: WindowMorning, Label: "Morning", StartMin: 360, EndMin: 480}}
		sub := Submission{MemberIDs: []int64{1}, Preferred: "EVENING"}
		if err := ValidateSubmission(sub, windows, 4, nil); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("want ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("malformed preferred time", func(t *testing.T) {
		for _, bad := range []string{"7:30:00", "25:00", "07:61", "noon"} {
			pref := bad
			sub := Submission{MemberIDs: []int64{1}, Preferred: "MORNING", PreferredTime: &pref}
			if err := validateWith(t, sub, nil); !errors.Is(err, ErrInvalidTime) {
				t.Errorf("%q: want ErrInvalidTime, got %v", bad, err)
			}
		}
	})

	t.Run("empty alternate and time ignored", func(t *testing.T) {
		empty := ""
		sub := Submission{MemberIDs: []int64{1}, Preferred: "MORNING", Alternate: &empty, PreferredTime: &empty}
		if err := validateWith(t, sub, nil); err != nil {
			t.Fatal(err)
		}
	})
}
