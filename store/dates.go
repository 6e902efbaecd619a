package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/models"
)

// DateStore owns the per-date processing record and its state machine:
// PENDING -> PROCESSING -> COMPLETED, with failed runs returned to PENDING.
type DateStore struct {
	db *bun.DB
}

func NewDateStore(db *bun.DB) *DateStore {
	return &DateStore{db: db}
}

// Status returns the date's processing state, PENDING when no record exists.
func (s *DateStore) Status(ctx context.Context, orgID int64, date string) (models.DateStatus, error) {
	ld := new(models.LotteryDate)
	err := s.db.NewSelect().
		Model(ld).
		Where("org_id = ? AND date = ?", orgID, date).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DateStatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return ld.Status, nil
}

// BeginProcessing attempts the PENDING -> PROCESSING transition. The guarded
// update means only one operator run can hold a date at a time; when the
// transition is refused the current status is returned so the caller can
// tell "already completed" from "run in progress".
func (s *DateStore) BeginProcessing(ctx context.Context, orgID int64, date string) (bool, models.DateStatus, error) {
	ld := &models.LotteryDate{OrgID: orgID, Date: date, Status: models.DateStatusPending}
	_, err := s.db.NewInsert().
		Model(ld).
		On("CONFLICT (org_id, date) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, "", err
	}

	res, err := s.db.NewUpdate().
		Model((*models.LotteryDate)(nil)).
		Set("status = ?", models.DateStatusProcessing).
		Where("org_id = ? AND date = ? AND status = ?", orgID, date, models.DateStatusPending).
		Exec(ctx)
	if err != nil {
		return false, "", err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, models.DateStatusProcessing, nil
	}

	current, err := s.Status(ctx, orgID, date)
	if err != nil {
		return false, "", err
	}
	return false, current, nil
}

// Complete marks the date finalized. Runs on the caller's transaction when
// one is given so the flip commits together with the cycle's score updates.
func (s *DateStore) Complete(ctx context.Context, idb bun.IDB, orgID int64, date string) error {
	if idb == nil {
		idb = s.db
	}
	now := time.Now().UTC()
	_, err := idb.NewUpdate().
		Model((*models.LotteryDate)(nil)).
		Set("status = ?", models.DateStatusCompleted).
		Set("processed_at = ?", now).
		Where("org_id = ? AND date = ? AND status = ?", orgID, date, models.DateStatusProcessing).
		Exec(ctx)
	return err
}

// Fail returns a processing date to PENDING for retry.
func (s *DateStore) Fail(ctx context.Context, orgID int64, date string) error {
	_, err := s.db.NewUpdate().
		Model((*models.LotteryDate)(nil)).
		Set("status = ?", models.DateStatusPending).
		Where("org_id = ? AND date = ? AND status = ?", orgID, date, models.DateStatusProcessing).
		Exec(ctx)
	return err
}
