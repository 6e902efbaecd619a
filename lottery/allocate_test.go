package lottery

import (
	"reflect"
	"testing"
	"time"
)

func fourWindows(t *testing.T) []Window {
	t.Helper()
	ws, err := Windows("06:00", "18:00")
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	return ws
}

func indiv(id string, member int64, preferred WindowName, fairness int, submitted time.Time) Unit {
	return Unit{
		ID:          "entry:" + id,
		MemberIDs:   []int64{member},
		Preferred:   preferred,
		Fairness:    fairness,
		SubmittedAt: submitted,
	}
}

func slotAt(t *testing.T, id int64, clock string, remaining int) SlotState {
	t.Helper()
	min, err := ParseClock(clock)
	if err != nil {
		t.Fatalf("slot %s: %v", clock, err)
	}
	return SlotState{ID: id, StartMin: min, Remaining: remaining}
}

func placementFor(a Assignment, unitID string) (Placement, bool) {
	for _, p := range a.Placements {
		if p.Unit.ID == unitID {
			return p, true
		}
	}
	return Placement{}, false
}

func TestAllocateDeterministic(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	units := []Unit{
		indiv("001", 1, WindowMorning, 2, base),
		indiv("002", 2, WindowMorning, 0, base.Add(time.Minute)),
		indiv("003", 3, WindowMidday, 1, base.Add(2*time.Minute)),
	}
	slots := []SlotState{
		slotAt(t, 1, "06:30", 4),
		slotAt(t, 2, "09:30", 4),
	}

	first := Allocate(units, slots, windows)
	second := Allocate(units, slots, windows)
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs produced different assignments")
	}
}

func TestAllocateInputsNotMutated(t *testing.T) {
	windows := fourWindows(t)
	units := []Unit{indiv("001", 1, WindowMorning, 0, time.Now())}
	slots := []SlotState{slotAt(t, 1, "06:30", 4)}

	Allocate(units, slots, windows)
	if slots[0].Remaining != 4 {
		t.Errorf("slot remaining mutated to %d", slots[0].Remaining)
	}
}

func TestAllocateFairnessOrdering(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	// B submitted first but A has waited three cycles; one seat left.
	a := indiv("00a", 1, WindowMorning, 3, base.Add(time.Hour))
	b := indiv("00b", 2, WindowMorning, 0, base)
	slots := []SlotState{slotAt(t, 1, "07:00", 1)}

	res := Allocate([]Unit{b, a}, slots, windows)
	if _, ok := placementFor(res, a.ID); !ok {
		t.Fatal("expected the higher-fairness unit to be assigned")
	}
	if len(res.Unassigned) != 1 || res.Unassigned[0].ID != b.ID {
		t.Fatalf("expected %s unassigned, got %+v", b.ID, res.Unassigned)
	}
}

func TestAllocateAdjustmentAndTimestampTiebreaks(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	t.Run("adjustment breaks a fairness tie", func(t *testing.T) {
		favored := indiv("001", 1, WindowMorning, 1, base.Add(time.Hour))
		favored.Adjustment = 5
		other := indiv("002", 2, WindowMorning, 1, base)
		slots := []SlotState{slotAt(t, 1, "07:00", 1)}

		res := Allocate([]Unit{other, favored}, slots, windows)
		if _, ok := placementFor(res, favored.ID); !ok {
			t.Error("expected the adjusted unit to win the seat")
		}
	})

	t.Run("earlier submission breaks a full tie", func(t *testing.T) {
		early := indiv("001", 1, WindowMorning, 0, base)
		late := indiv("002", 2, WindowMorning, 0, base.Add(time.Second))
		slots := []SlotState{slotAt(t, 1, "07:00", 1)}

		res := Allocate([]Unit{late, early}, slots, windows)
		if _, ok := placementFor(res, early.ID); !ok {
			t.Error("expected the first-submitted unit to win the seat")
		}
	})
}

func TestAllocateGroupAtomicity(t *testing.T) {
	windows := fourWindows(t)
	group := Unit{
		ID:          "group:abc",
		MemberIDs:   []int64{1, 2, 3, 4},
		Preferred:   WindowMorning,
		SubmittedAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	}

	t.Run("a full slot takes the whole group", func(t *testing.T) {
		res := Allocate([]Unit{group}, []SlotState{slotAt(t, 1, "07:00", 4)}, windows)
		p, ok := placementFor(res, group.ID)
		if !ok {
			t.Fatal("expected the group to be placed")
		}
		if p.SlotID != 1 {
			t.Errorf("expected slot 1, got %d", p.SlotID)
		}
	})

	t.Run("the group is never split across slots", func(t *testing.T) {
		slots := []SlotState{slotAt(t, 1, "07:00", 2), slotAt(t, 2, "07:10", 2)}
		res := Allocate([]Unit{group}, slots, windows)
		if len(res.Placements) != 0 {
			t.Fatalf("expected no placements, got %+v", res.Placements)
		}
		if len(res.Unassigned) != 1 || res.Unassigned[0].ID != group.ID {
			t.Error("expected the group left unassigned")
		}
	})
}

func TestAllocatePriorityBeatsPacking(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	group := Unit{
		ID:          "group:abc",
		MemberIDs:   []int64{2, 3, 4, 5},
		Preferred:   WindowMorning,
		Fairness:    5,
		SubmittedAt: base.Add(time.Hour),
	}
	single := indiv("001", 1, WindowMorning, 0, base)
	slots := []SlotState{slotAt(t, 1, "07:00", 4)}

	res := Allocate([]Unit{single, group}, slots, windows)
	if _, ok := placementFor(res, group.ID); !ok {
		t.Fatal("expected the higher-priority group to win the slot")
	}
	if len(res.Unassigned) != 1 || res.Unassigned[0].ID != single.ID {
		t.Error("expected the individual left unassigned despite fitting first")
	}
}

func TestAllocateAlternateWindowFallback(t *testing.T) {
	windows := fourWindows(t)
	alt := WindowMidday
	u := indiv("001", 1, WindowMorning, 0, time.Now())
	u.Alternate = &alt
	slots := []SlotState{
		slotAt(t, 1, "07:00", 0),
		slotAt(t, 2, "10:00", 4),
	}

	res := Allocate([]Unit{u}, slots, windows)
	p, ok := placementFor(res, u.ID)
	if !ok {
		t.Fatal("expected placement via the alternate window")
	}
	if !p.ViaAlternate || p.Window != WindowMidday {
		t.Errorf("expected alternate MIDDAY placement, got %+v", p)
	}
}

func TestAllocateExactTimePreference(t *testing.T) {
	windows := fourWindows(t)

	t.Run("closest slot to the preference wins", func(t *testing.T) {
		pref, _ := ParseClock("08:00")
		u := indiv("001", 1, WindowMorning, 0, time.Now())
		u.PreferredMinute = &pref
		slots := []SlotState{
			slotAt(t, 1, "06:30", 4),
			slotAt(t, 2, "07:50", 4),
			slotAt(t, 3, "08:40", 4),
		}

		res := Allocate([]Unit{u}, slots, windows)
		p, ok := placementFor(res, u.ID)
		if !ok {
			t.Fatal("expected a placement")
		}
		if p.SlotID != 2 {
			t.Errorf("expected slot 2 (07:50), got %d", p.SlotID)
		}
	})

	t.Run("preference is soft, any window slot still qualifies", func(t *testing.T) {
		pref, _ := ParseClock("06:30")
		u := indiv("001", 1, WindowMorning, 0, time.Now())
		u.PreferredMinute = &pref
		slots := []SlotState{slotAt(t, 1, "08:50", 1)}

		res := Allocate([]Unit{u}, slots, windows)
		if _, ok := placementFor(res, u.ID); !ok {
			t.Error("expected the unit placed despite missing its exact time")
		}
	})

	t.Run("no preference takes the earliest slot", func(t *testing.T) {
		u := indiv("001", 1, WindowMorning, 0, time.Now())
		slots := []SlotState{
			slotAt(t, 2, "08:00", 4),
			slotAt(t, 1, "06:30", 4),
		}

		res := Allocate([]Unit{u}, slots, windows)
		p, _ := placementFor(res, u.ID)
		if p.SlotID != 1 {
			t.Errorf("expected earliest slot 1, got %d", p.SlotID)
		}
	})
}

func TestReplayAssignment(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	units := []Unit{
		indiv("001", 1, WindowMorning, 0, base),
		indiv("002", 2, WindowMorning, 0, base.Add(time.Second)),
	}
	slots := []SlotState{
		slotAt(t, 1, "06:30", 4),
		slotAt(t, 2, "10:00", 4),
	}

	t.Run("reviewed pairs are committed as given", func(t *testing.T) {
		// The pair sends unit 001 to the later slot even though a fresh
		// allocation would pick the earlier one.
		a, err := ReplayAssignment(units, slots, windows, map[string]int64{"entry:001": 2})
		if err != nil {
			t.Fatal(err)
		}
		p, ok := placementFor(a, "entry:001")
		if !ok || p.SlotID != 2 {
			t.Fatalf("expected unit in slot 2, got %+v", a.Placements)
		}
		if !p.ViaAlternate || p.Window != WindowMidday {
			t.Errorf("placement window should follow the slot, got %+v", p)
		}
		if len(a.Unassigned) != 1 || a.Unassigned[0].ID != "entry:002" {
			t.Errorf("units outside the review stay unassigned, got %+v", a.Unassigned)
		}
	})

	t.Run("a vanished slot means the review is stale", func(t *testing.T) {
		if _, err := ReplayAssignment(units, slots, windows, map[string]int64{"entry:001": 99}); err == nil {
			t.Error("expected an error for an unknown slot")
		}
	})

	t.Run("a vanished unit means the review is stale", func(t *testing.T) {
		if _, err := ReplayAssignment(units, slots, windows, map[string]int64{"entry:gone": 1}); err == nil {
			t.Error("expected an error for a unit no longer open")
		}
	})
}

func TestAllocateCapacityNeverNegative(t *testing.T) {
	windows := fourWindows(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	units := []Unit{
		indiv("001", 1, WindowMorning, 0, base),
		indiv("002", 2, WindowMorning, 0, base.Add(time.Second)),
		{ID: "group:g1", MemberIDs: []int64{3, 4, 5}, Preferred: WindowMorning, SubmittedAt: base.Add(2 * time.Second)},
		{ID: "group:g2", MemberIDs: []int64{6, 7}, Preferred: WindowMorning, SubmittedAt: base.Add(3 * time.Second)},
	}
	slots := []SlotState{
		slotAt(t, 1, "06:30", 3),
		slotAt(t, 2, "07:30", 2),
	}

	res := Allocate(units, slots, windows)
	used := map[int64]int{}
	for _, p := range res.Placements {
		used[p.SlotID] += p.Unit.Size()
	}
	for _, s := range slots {
		if used[s.ID] > s.Remaining {
			t.Errorf("slot %d overbooked: %d placed into %d remaining", s.ID, used[s.ID], s.Remaining)
		}
	}
	if len(res.Placements)+len(res.Unassigned) != len(units) {
		t.Error("every unit must be either placed or unassigned")
	}
}
