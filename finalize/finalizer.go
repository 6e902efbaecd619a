// Package finalize turns a tentative lottery assignment into durable
// bookings. The coordinator re-validates each unit against live slot
// capacity and booking restrictions at commit time, so real-world changes
// between preview and commit demote single units instead of aborting the run.
package finalize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

// ErrCapacityConflict means a slot's live capacity no longer fits the unit
// that allocation placed there.
var ErrCapacityConflict = errors.New("slot capacity changed since allocation")

// Store is the persistence surface the coordinator drives. The production
// implementation is PGStore; tests substitute fakes.
type Store interface {
	// BeginProcessing attempts PENDING -> PROCESSING, reporting the current
	// status when the transition is refused.
	BeginProcessing(ctx context.Context, orgID int64, date string) (bool, models.DateStatus, error)

	// Complete flips PROCESSING -> COMPLETED and increments the fairness
	// scores of every unassigned unit's members in the same transaction.
	// Staging the increments here keeps retried runs honest: a run whose
	// control record failed to commit incremented nothing, so the retry
	// counts the cycle exactly once.
	Complete(ctx context.Context, orgID int64, date string, unassigned []lottery.Unit) error
	Fail(ctx context.Context, orgID int64, date string) error

	// BookUnit persists the unit's bookings, the slot capacity decrement,
	// the ASSIGNED status and the fairness reset atomically, re-checking
	// live capacity first. Returns ErrCapacityConflict when the slot no
	// longer fits. Booking a unit that already holds its booking is a no-op.
	BookUnit(ctx context.Context, orgID int64, date string, unit lottery.Unit, slotID int64) error
}

// Violation is one restriction broken by one member of a unit.
type Violation struct {
	RestrictionID int64  `json:"restrictionID"`
	Name          string `json:"name"`
	MemberID      int64  `json:"memberID"`
	Detail        string `json:"detail"`
}

// Checker evaluates externally-owned booking restrictions.
type Checker interface {
	Check(ctx context.Context, orgID int64, date string, memberIDs []int64, slotStart int) ([]Violation, error)
	RecordOverride(ctx context.Context, orgID int64, v Violation, slotID int64, reason string, adminID int64) error
}

// BookedUnit, DemotedUnit, BlockedUnit and FailedUnit are the per-unit
// outcomes collected into a Result. Nothing is silently swallowed.
type BookedUnit struct {
	UnitID     string  `json:"unitID"`
	SlotID     int64   `json:"slotID"`
	MemberIDs  []int64 `json:"memberIDs"`
	Overridden bool    `json:"overridden,omitempty"`
}

type DemotedUnit struct {
	UnitID string `json:"unitID"`
	SlotID int64  `json:"slotID"`
	Reason string `json:"reason"`
}

type BlockedUnit struct {
	UnitID     string      `json:"unitID"`
	SlotID     int64       `json:"slotID"`
	Violations []Violation `json:"violations"`
}

type FailedUnit struct {
	UnitID string `json:"unitID"`
	Error  string `json:"error"`
}

// Result is the full account of one finalization run.
type Result struct {
	AlreadyCompleted bool          `json:"alreadyCompleted,omitempty"`
	Booked           []BookedUnit  `json:"booked,omitempty"`
	Demoted          []DemotedUnit `json:"demoted,omitempty"`
	Blocked          []BlockedUnit `json:"blocked,omitempty"`
	Failed           []FailedUnit  `json:"failed,omitempty"`
	Unassigned       []string      `json:"unassigned,omitempty"`
}

// Coordinator runs finalization for one date at a time.
type Coordinator struct {
	store   Store
	checker Checker
	log     *zap.Logger
}

func New(store Store, checker Checker, log *zap.Logger) *Coordinator {
	return &Coordinator{store: store, checker: checker, log: log}
}

// Run commits the assignment for a date. Re-invoking on an already-completed
// date is a no-op reported via Result.AlreadyCompleted; a run already in
// progress is an error. Only control-record persistence failures abort the
// batch; every per-unit failure is collected into the Result.
func (c *Coordinator) Run(ctx context.Context, orgID int64, date string, a lottery.Assignment, overrides map[string]string, adminID int64) (*Result, error) {
	started, current, err := c.store.BeginProcessing(ctx, orgID, date)
	if err != nil {
		return nil, fmt.Errorf("date control record: %w", err)
	}
	if !started {
		if current == models.DateStatusCompleted {
			c.log.Info("finalize: date already completed", zap.String("date", date))
			return &Result{AlreadyCompleted: true}, nil
		}
		return nil, fmt.Errorf("finalization already in progress for %s", date)
	}

	res := &Result{}
	var cycled []lottery.Unit
	for _, p := range a.Placements {
		c.finalizeUnit(ctx, orgID, date, p, overrides, adminID, res, &cycled)
	}
	for _, u := range a.Unassigned {
		cycled = append(cycled, u)
		res.Unassigned = append(res.Unassigned, u.ID)
	}

	if err := c.store.Complete(ctx, orgID, date, cycled); err != nil {
		if ferr := c.store.Fail(ctx, orgID, date); ferr != nil {
			c.log.Error("finalize: failed to return date to pending", zap.String("date", date), zap.Error(ferr))
		}
		return res, fmt.Errorf("date control record: %w", err)
	}

	c.log.Info("finalize: run complete",
		zap.String("date", date),
		zap.Int("booked", len(res.Booked)),
		zap.Int("demoted", len(res.Demoted)),
		zap.Int("blocked", len(res.Blocked)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("unassigned", len(res.Unassigned)),
	)
	return res, nil
}

// finalizeUnit books one placement or records why it could not book. A unit
// that misses its slot joins cycled, whose fairness increments Complete
// applies with the control record.
func (c *Coordinator) finalizeUnit(ctx context.Context, orgID int64, date string, p lottery.Placement, overrides map[string]string, adminID int64, res *Result, cycled *[]lottery.Unit) {
	violations, err := c.checker.Check(ctx, orgID, date, p.Unit.MemberIDs, p.SlotStart)
	if err != nil {
		res.Failed = append(res.Failed, FailedUnit{UnitID: p.Unit.ID, Error: err.Error()})
		*cycled = append(*cycled, p.Unit)
		return
	}

	reason, overridden := overrides[p.Unit.ID]
	if len(violations) > 0 {
		if !overridden {
			res.Blocked = append(res.Blocked, BlockedUnit{UnitID: p.Unit.ID, SlotID: p.SlotID, Violations: violations})
			*cycled = append(*cycled, p.Unit)
			return
		}
		for _, v := range violations {
			if err := c.checker.RecordOverride(ctx, orgID, v, p.SlotID, reason, adminID); err != nil {
				res.Failed = append(res.Failed, FailedUnit{UnitID: p.Unit.ID, Error: err.Error()})
				*cycled = append(*cycled, p.Unit)
				return
			}
		}
	}

	switch err := c.store.BookUnit(ctx, orgID, date, p.Unit, p.SlotID); {
	case errors.Is(err, ErrCapacityConflict):
		res.Demoted = append(res.Demoted, DemotedUnit{UnitID: p.Unit.ID, SlotID: p.SlotID, Reason: err.Error()})
		*cycled = append(*cycled, p.Unit)
	case err != nil:
		res.Failed = append(res.Failed, FailedUnit{UnitID: p.Unit.ID, Error: err.Error()})
		*cycled = append(*cycled, p.Unit)
	default:
		res.Booked = append(res.Booked, BookedUnit{
			UnitID:     p.Unit.ID,
			SlotID:     p.SlotID,
			MemberIDs:  p.Unit.MemberIDs,
			Overridden: len(violations) > 0,
		})
	}
}
