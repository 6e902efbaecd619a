package lottery

import (
	"errors"
	"testing"

	"github.com/linksclub/teelottery/models"
)

func TestWindows(t *testing.T) {
	t.Run("standard day splits into four equal windows", func(t *testing.T) {
		ws, err := Windows("06:00", "18:00")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []struct {
			name       WindowName
			start, end string
		}{
			{WindowMorning, "06:00", "09:00"},
			{WindowMidday, "09:00", "12:00"},
			{WindowAfternoon, "12:00", "15:00"},
			{WindowEvening, "15:00", "18:00"},
		}
		if len(ws) != len(want) {
			t.Fatalf("expected %d windows, got %d", len(want), len(ws))
		}
		for i, w := range want {
			if ws[i].Name != w.name {
				t.Errorf("window %d: expected %s, got %s", i, w.name, ws[i].Name)
			}
			if got := MinuteToClock(ws[i].StartMin); got != w.start {
				t.Errorf("window %s: expected start %s, got %s", w.name, w.start, got)
			}
			if got := MinuteToClock(ws[i].EndMin); got != w.end {
				t.Errorf("window %s: expected end %s, got %s", w.name, w.end, got)
			}
		}
	})

	t.Run("remainder minutes fold into the final window", func(t *testing.T) {
		ws, err := Windows("07:00", "19:10")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// 730 minutes: three windows of 182, the last takes 184.
		if got := ws[0].EndMin - ws[0].StartMin; got != 182 {
			t.Errorf("expected first window width 182, got %d", got)
		}
		if got := ws[3].EndMin - ws[3].StartMin; got != 184 {
			t.Errorf("expected last window width 184, got %d", got)
		}
	})

	t.Run("windows exactly tile the operating day", func(t *testing.T) {
		ranges := [][2]string{
			{"06:00", "18:00"},
			{"05:30", "21:17"},
			{"08:45", "16:03"},
			{"00:00", "23:59"},
		}
		for _, r := range ranges {
			ws, err := Windows(r[0], r[1])
			if err != nil {
				t.Fatalf("%v: expected no error, got %v", r, err)
			}
			start, _ := ParseClock(r[0])
			end, _ := ParseClock(r[1])
			if ws[0].StartMin != start {
				t.Errorf("%v: first window starts at %d, want %d", r, ws[0].StartMin, start)
			}
			if ws[len(ws)-1].EndMin != end {
				t.Errorf("%v: last window ends at %d, want %d", r, ws[len(ws)-1].EndMin, end)
			}
			for i := 1; i < len(ws); i++ {
				if ws[i].StartMin != ws[i-1].EndMin {
					t.Errorf("%v: gap or overlap between windows %d and %d", r, i-1, i)
				}
			}
		}
	})

	t.Run("start at or after end is invalid", func(t *testing.T) {
		for _, r := range [][2]string{{"18:00", "06:00"}, {"09:00", "09:00"}} {
			if _, err := Windows(r[0], r[1]); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("%v: expected ErrInvalidConfiguration, got %v", r, err)
			}
		}
	})

	t.Run("malformed clock times are invalid", func(t *testing.T) {
		for _, r := range [][2]string{{"6:00", "18:00"}, {"06:00", "25:00"}, {"xx:yy", "18:00"}, {"06:60", "18:00"}} {
			if _, err := Windows(r[0], r[1]); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("%v: expected ErrInvalidConfiguration, got %v", r, err)
			}
		}
	})
}

func TestWindowsForConfig(t *testing.T) {
	t.Run("non-regular sheet disables the lottery without error", func(t *testing.T) {
		for _, typ := range []models.TeesheetType{models.TeesheetIrregular, models.TeesheetCustom} {
			ws, err := WindowsForConfig(&models.TeesheetConfig{
				Type: typ, OpenTime: "06:00", CloseTime: "18:00",
			})
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", typ, err)
			}
			if len(ws) != 0 {
				t.Errorf("%s: expected no windows, got %d", typ, len(ws))
			}
		}
	})

	t.Run("regular sheet computes windows", func(t *testing.T) {
		ws, err := WindowsForConfig(&models.TeesheetConfig{
			Type: models.TeesheetRegular, OpenTime: "06:00", CloseTime: "18:00",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ws) != 4 {
			t.Fatalf("expected 4 windows, got %d", len(ws))
		}
	})
}

func TestWindowContains(t *testing.T) {
	w := Window{Name: WindowMorning, StartMin: 360, EndMin: 540}
	cases := []struct {
		min  int
		want bool
	}{
		{360, true},
		{539, true},
		{540, false}, // end is exclusive, belongs to the next window
		{359, false},
	}
	for _, c := range cases {
		if got := w.Contains(c.min); got != c.want {
			t.Errorf("Contains(%d) = %v, want %v", c.min, got, c.want)
		}
	}
}
