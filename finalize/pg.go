package finalize

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
	"github.com/linksclub/teelottery/store"
)

// PGStore is the production Store: bookings, capacity decrements, status
// flips and fairness updates against PostgreSQL.
type PGStore struct {
	db       *bun.DB
	dates    *store.DateStore
	fairness *store.FairnessStore
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *bun.DB) *PGStore {
	return &PGStore{
		db:       db,
		dates:    store.NewDateStore(db),
		fairness: store.NewFairnessStore(db),
	}
}

func (s *PGStore) BeginProcessing(ctx context.Context, orgID int64, date string) (bool, models.DateStatus, error) {
	return s.dates.BeginProcessing(ctx, orgID, date)
}

// Complete applies the cycle's fairness increments and flips the control
// record in one transaction: if the flip does not commit, neither do the
// increments, so a retried run never double-counts a member's wait.
func (s *PGStore) Complete(ctx context.Context, orgID int64, date string, unassigned []lottery.Unit) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, u := range unassigned {
			if err := s.fairness.Increment(ctx, tx, orgID, u.MemberIDs); err != nil {
				return err
			}
		}
		return s.dates.Complete(ctx, tx, orgID, date)
	})
}

func (s *PGStore) Fail(ctx context.Context, orgID int64, date string) error {
	return s.dates.Fail(ctx, orgID, date)
}

// BookUnit commits one unit inside a single transaction: re-read the block
// row locked, reject on insufficient live capacity, insert one booking per
// member, decrement capacity, flip the unit's status and reset fairness.
// Either all of it persists or none does.
func (s *PGStore) BookUnit(ctx context.Context, orgID int64, date string, unit lottery.Unit, slotID int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// A retried run may hit units booked before a control-record
		// failure; their bookings already exist and must not double up.
		exists, err := tx.NewSelect().
			Model((*models.Booking)(nil)).
			Where("org_id = ? AND member_id = ? AND date = ?", orgID, unit.MemberIDs[0], date).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		block := new(models.TimeBlock)
		err = tx.NewSelect().
			Model(block).
			Where("org_id = ? AND id = ?", orgID, slotID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("reading slot %d: %w", slotID, err)
		}
		if block.Remaining() < unit.Size() {
			return fmt.Errorf("%w: slot %d has %d left, need %d",
				ErrCapacityConflict, slotID, block.Remaining(), unit.Size())
		}

		now := time.Now().UTC()
		bookings := make([]*models.Booking, len(unit.MemberIDs))
		for i, memberID := range unit.MemberIDs {
			bookings[i] = &models.Booking{
				OrgID:       orgID,
				MemberID:    memberID,
				TimeBlockID: slotID,
				Date:        date,
				Source:      "lottery",
				CreatedAt:   now,
			}
		}
		if _, err := tx.NewInsert().Model(&bookings).Exec(ctx); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.TimeBlock)(nil)).
			Set("booked = booked + ?", unit.Size()).
			Where("org_id = ? AND id = ?", orgID, slotID).
			Exec(ctx)
		if err != nil {
			return err
		}

		if err := store.MarkAssigned(ctx, tx, orgID, unit, date); err != nil {
			return err
		}
		return s.fairness.Reset(ctx, tx, orgID, unit.MemberIDs)
	})
}
