package lottery

import "fmt"

// SlotState is the allocator's read-only view of a bookable time block.
type SlotState struct {
	ID        int64
	StartMin  int
	Remaining int
}

// Placement records one unit's slot.
type Placement struct {
	Unit         Unit
	SlotID       int64
	SlotStart    int
	Window       WindowName
	ViaAlternate bool
}

// Assignment is the full tentative result of one allocation run. It is a
// value: nothing persisted changes until finalization.
type Assignment struct {
	Placements []Placement
	Unassigned []Unit
}

// Allocate places units into slots in strict priority order. For each unit
// it tries the preferred window, then the alternate; within a window it
// picks the slot closest to the exact-time preference when one was given,
// else the earliest slot with enough remaining capacity. Groups are never
// split; a unit that fits nowhere is left unassigned. Inputs are not
// mutated, so repeated calls with identical inputs return identical results.
func Allocate(units []Unit, slots []SlotState, windows []Window) Assignment {
	ordered := append([]Unit(nil), units...)
	sortByPriority(ordered)

	remaining := make(map[int64]int, len(slots))
	for _, s := range slots {
		remaining[s.ID] = s.Remaining
	}

	var out Assignment
	for _, u := range ordered {
		p, ok := place(u, slots, windows, remaining)
		if !ok {
			out.Unassigned = append(out.Unassigned, u)
			continue
		}
		remaining[p.SlotID] -= u.Size()
		out.Placements = append(out.Placements, p)
	}
	return out
}

// ReplayAssignment rebuilds a previously reviewed assignment from its
// unit-to-slot pairs, so finalization commits exactly what the operator
// approved rather than a fresh allocation over drifted state. Units absent
// from pairs are left unassigned. A pair naming a unit or slot that no
// longer exists means the review went stale; the caller should re-run the
// preview.
func ReplayAssignment(units []Unit, slots []SlotState, windows []Window, pairs map[string]int64) (Assignment, error) {
	slotByID := make(map[int64]SlotState, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
	}

	seen := make(map[string]bool, len(pairs))
	var out Assignment
	for _, u := range units {
		slotID, ok := pairs[u.ID]
		if !ok {
			out.Unassigned = append(out.Unassigned, u)
			continue
		}
		seen[u.ID] = true
		s, ok := slotByID[slotID]
		if !ok {
			return Assignment{}, fmt.Errorf("slot %d for unit %s no longer exists", slotID, u.ID)
		}
		w, ok := windowAt(windows, s.StartMin)
		if !ok {
			return Assignment{}, fmt.Errorf("slot %d lies outside the date's windows", slotID)
		}
		out.Placements = append(out.Placements, Placement{
			Unit:         u,
			SlotID:       s.ID,
			SlotStart:    s.StartMin,
			Window:       w.Name,
			ViaAlternate: w.Name != u.Preferred,
		})
	}
	for id := range pairs {
		if !seen[id] {
			return Assignment{}, fmt.Errorf("unit %s is no longer open for this date", id)
		}
	}
	return out, nil
}

func place(u Unit, slots []SlotState, windows []Window, remaining map[int64]int) (Placement, bool) {
	if w, ok := FindWindow(windows, u.Preferred); ok {
		if s, ok := bestSlot(u, w, slots, remaining); ok {
			return Placement{Unit: u, SlotID: s.ID, SlotStart: s.StartMin, Window: w.Name}, true
		}
	}
	if u.Alternate != nil {
		if w, ok := FindWindow(windows, *u.Alternate); ok {
			if s, ok := bestSlot(u, w, slots, remaining); ok {
				return Placement{Unit: u, SlotID: s.ID, SlotStart: s.StartMin, Window: w.Name, ViaAlternate: true}, true
			}
		}
	}
	return Placement{}, false
}

// bestSlot selects the unit's slot within one window: nearest to the
// exact-time preference (earlier slot wins a distance tie), else earliest.
func bestSlot(u Unit, w Window, slots []SlotState, remaining map[int64]int) (SlotState, bool) {
	best := SlotState{}
	found := false
	for _, s := range slots {
		if !w.Contains(s.StartMin) || remaining[s.ID] < u.Size() {
			continue
		}
		if !found || closer(u, s, best) {
			best = s
			found = true
		}
	}
	return best, found
}

func closer(u Unit, candidate, best SlotState) bool {
	if u.PreferredMinute == nil {
		return candidate.StartMin < best.StartMin
	}
	dc := absDiff(candidate.StartMin, *u.PreferredMinute)
	db := absDiff(best.StartMin, *u.PreferredMinute)
	if dc != db {
		return dc < db
	}
	return candidate.StartMin < best.StartMin
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
