package lottery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linksclub/teelottery/models"
)

// Unit is an allocatable entry: either one member or a whole group. The
// allocator treats both uniformly and places a unit into exactly one slot
// or leaves it unassigned.
type Unit struct {
	// ID distinguishes units deterministically: "entry:<id>" or "group:<uuid>".
	ID        string
	MemberIDs []int64
	Preferred WindowName
	Alternate *WindowName

	// PreferredMinute is the exact-time preference as a minute of day, nil
	// when the member stated only a window. A soft hint, never a constraint.
	PreferredMinute *int

	// Fairness is the unit's primary priority: for a group, the highest
	// member score, so a group waits as long as its longest-waiting member.
	Fairness int

	// Adjustment is the administrator priority adjustment, summed across
	// group members.
	Adjustment int

	SubmittedAt time.Time
}

// Size is the slot capacity the unit requires.
func (u *Unit) Size() int { return len(u.MemberIDs) }

// BuildUnits merges pending entries and groups into allocatable units,
// resolving each unit's priority inputs from profiles and fairness scores.
// Profiles and scores missing a member contribute the defaults (0).
func BuildUnits(
	entries []*models.LotteryEntry,
	groups []*models.LotteryGroup,
	profiles map[int64]*models.MemberSpeedProfile,
	scores map[int64]int,
) []Unit {
	units := make([]Unit, 0, len(entries)+len(groups))

	for _, e := range entries {
		if e.Status != models.EntryStatusPending {
			continue
		}
		u := Unit{
			// zero-padded so lexical ID order matches numeric order
			ID:          fmt.Sprintf("entry:%012d", e.ID),
			MemberIDs:   []int64{e.MemberID},
			Preferred:   WindowName(e.Preferred),
			Fairness:    scores[e.MemberID],
			SubmittedAt: e.SubmittedAt,
		}
		if p, ok := profiles[e.MemberID]; ok {
			u.Adjustment = p.Adjustment
		}
		u.Alternate = windowPtr(e.Alternate)
		u.PreferredMinute = minutePtr(e.PreferredTime)
		units = append(units, u)
	}

	for _, g := range groups {
		if g.Status != models.EntryStatusPending {
			continue
		}
		u := Unit{
			ID:          "group:" + g.ID.String(),
			MemberIDs:   append([]int64(nil), g.MemberIDs...),
			Preferred:   WindowName(g.Preferred),
			SubmittedAt: g.SubmittedAt,
		}
		for _, id := range g.MemberIDs {
			if s := scores[id]; s > u.Fairness {
				u.Fairness = s
			}
			if p, ok := profiles[id]; ok {
				u.Adjustment += p.Adjustment
			}
		}
		u.Alternate = windowPtr(g.Alternate)
		u.PreferredMinute = minutePtr(g.PreferredTime)
		units = append(units, u)
	}

	sortByPriority(units)
	return units
}

// sortByPriority orders units by fairness descending, adjustment descending,
// submission time ascending, then unit ID ascending. The ID tiebreak only
// exists to keep the order total if two submissions share a timestamp.
func sortByPriority(units []Unit) {
	sort.Slice(units, func(i, j int) bool {
		a, b := &units[i], &units[j]
		if a.Fairness != b.Fairness {
			return a.Fairness > b.Fairness
		}
		if a.Adjustment != b.Adjustment {
			return a.Adjustment > b.Adjustment
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
}

// GroupUUID extracts the group id from a unit ID, reporting false for
// individual entries.
func GroupUUID(unitID string) (uuid.UUID, bool) {
	s, ok := strings.CutPrefix(unitID, "group:")
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}

// EntryID extracts the entry id from a unit ID, reporting false for groups.
func EntryID(unitID string) (int64, bool) {
	s, ok := strings.CutPrefix(unitID, "entry:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func windowPtr(s *string) *WindowName {
	if s == nil || *s == "" {
		return nil
	}
	w := WindowName(*s)
	return &w
}

// minutePtr parses an optional HH:MM preference; intake validated it, so a
// parse failure here just drops the hint.
func minutePtr(s *string) *int {
	if s == nil || *s == "" {
		return nil
	}
	min, err := ParseClock(*s)
	if err != nil {
		return nil
	}
	return &min
}

