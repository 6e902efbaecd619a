package lottery

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/linksclub/teelottery/models"
)

func TestBuildUnits(t *testing.T) {
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	alt := "MIDDAY"

	entries := []*models.LotteryEntry{
		{ID: 1, MemberID: 10, Preferred: "MORNING", Alternate: &alt, Status: models.EntryStatusPending, SubmittedAt: base},
		{ID: 2, MemberID: 11, Preferred: "MORNING", Status: models.EntryStatusCancelled, SubmittedAt: base},
	}
	gid := uuid.New()
	groups := []*models.LotteryGroup{
		{ID: gid, LeaderID: 20, MemberIDs: []int64{20, 21, 22}, Preferred: "AFTERNOON", Status: models.EntryStatusPending, SubmittedAt: base.Add(time.Minute)},
	}
	profiles := map[int64]*models.MemberSpeedProfile{
		10: {MemberID: 10, Adjustment: 2},
		20: {MemberID: 20, Adjustment: 3},
		21: {MemberID: 21, Adjustment: -1},
	}
	scores := map[int64]int{10: 1, 21: 4}

	units := BuildUnits(entries, groups, profiles, scores)
	if len(units) != 2 {
		t.Fatalf("expected 2 units (cancelled entry skipped), got %d", len(units))
	}

	// The group carries fairness 4 (its longest-waiting member) and beats
	// the individual's fairness 1, so it sorts first.
	g := units[0]
	if got, ok := GroupUUID(g.ID); !ok || got != gid {
		t.Fatalf("expected group unit first, got %s", g.ID)
	}
	if g.Fairness != 4 {
		t.Errorf("group fairness should be the max member score, got %d", g.Fairness)
	}
	if g.Adjustment != 2 {
		t.Errorf("group adjustment should sum member adjustments, got %d", g.Adjustment)
	}

	e := units[1]
	if got, ok := EntryID(e.ID); !ok || got != 1 {
		t.Fatalf("expected entry unit second, got %s", e.ID)
	}
	if e.Adjustment != 2 || e.Fairness != 1 {
		t.Errorf("entry priority inputs wrong: %+v", e)
	}
	if e.Alternate == nil || *e.Alternate != WindowMidday {
		t.Errorf("entry alternate window not carried: %+v", e.Alternate)
	}
}

func TestUnitIDHelpers(t *testing.T) {
	if _, ok := GroupUUID("entry:000000000001"); ok {
		t.Error("entry IDs must not parse as groups")
	}
	if _, ok := EntryID("group:" + uuid.NewString()); ok {
		t.Error("group IDs must not parse as entries")
	}
	if id, ok := EntryID("entry:000000000042"); !ok || id != 42 {
		t.Errorf("expected entry id 42, got %d ok=%v", id, ok)
	}
}
