// Package lottery implements the tee-time lottery core: preference window
// calculation, entry validation and the deterministic allocation engine.
// Everything in this package is pure; persistence lives in store and finalize.
package lottery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linksclub/teelottery/models"
)

// WindowName identifies one of the four preference windows.
type WindowName string

const (
	WindowMorning   WindowName = "MORNING"
	WindowMidday    WindowName = "MIDDAY"
	WindowAfternoon WindowName = "AFTERNOON"
	WindowEvening   WindowName = "EVENING"
)

var windowOrder = []struct {
	name  WindowName
	label string
}{
	{WindowMorning, "Morning"},
	{WindowMidday, "Midday"},
	{WindowAfternoon, "Afternoon"},
	{WindowEvening, "Evening"},
}

// Window is a named sub-range of a day's operating hours. EndMin is
// exclusive so consecutive windows tile the day with no gaps or overlaps.
type Window struct {
	Name     WindowName `json:"name"`
	Label    string     `json:"label"`
	StartMin int        `json:"startMin"`
	EndMin   int        `json:"endMin"`
}

// Contains reports whether a slot starting at the given minute of day falls
// inside the window.
func (w Window) Contains(min int) bool {
	return min >= w.StartMin && min < w.EndMin
}

// String renders the window as "Morning 06:00-09:00".
func (w Window) String() string {
	return fmt.Sprintf("%s %s-%s", w.Label, MinuteToClock(w.StartMin), MinuteToClock(w.EndMin))
}

// Windows splits the operating day [open, close) into four equal windows.
// Each window gets floor(total/4) minutes; remainder minutes fold into the
// final window so the set exactly tiles the day.
func Windows(open, close string) ([]Window, error) {
	start, err := ParseClock(open)
	if err != nil {
		return nil, fmt.Errorf("%w: open time %q", ErrInvalidConfiguration, open)
	}
	end, err := ParseClock(close)
	if err != nil {
		return nil, fmt.Errorf("%w: close time %q", ErrInvalidConfiguration, close)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: open %s not before close %s", ErrInvalidConfiguration, open, close)
	}

	width := (end - start) / len(windowOrder)
	out := make([]Window, len(windowOrder))
	for i, def := range windowOrder {
		w := Window{
			Name:     def.name,
			Label:    def.label,
			StartMin: start + i*width,
			EndMin:   start + (i+1)*width,
		}
		if i == len(windowOrder)-1 {
			w.EndMin = end
		}
		out[i] = w
	}
	return out, nil
}

// WindowsForConfig derives a date's windows from its teesheet configuration.
// Non-regular sheets return an empty set: the lottery is off for that date,
// which callers must not treat as an error.
func WindowsForConfig(cfg *models.TeesheetConfig) ([]Window, error) {
	if cfg.Type != models.TeesheetRegular {
		return nil, nil
	}
	return Windows(cfg.OpenTime, cfg.CloseTime)
}

// windowAt finds the window containing a minute of day.
func windowAt(ws []Window, min int) (Window, bool) {
	for _, w := range ws {
		if w.Contains(min) {
			return w, true
		}
	}
	return Window{}, false
}

// FindWindow looks a window up by name.
func FindWindow(ws []Window, name WindowName) (Window, bool) {
	for _, w := range ws {
		if w.Name == name {
			return w, true
		}
	}
	return Window{}, false
}

// ValidWindowName reports whether name is one of the four window names.
func ValidWindowName(name string) bool {
	for _, def := range windowOrder {
		if string(def.name) == name {
			return true
		}
	}
	return false
}

// ParseClock converts "HH:MM" to a minute of day.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	return hour*60 + minute, nil
}

// MinuteToClock converts a minute of day back to "HH:MM".
func MinuteToClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
