// Package store holds the bun-backed persistence for lottery state:
// entries and groups, speed profiles, fairness scores, time blocks and the
// per-date processing record. Every method takes the org id explicitly.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

// EntryStore persists lottery entries and groups.
type EntryStore struct {
	db *bun.DB
}

func NewEntryStore(db *bun.DB) *EntryStore {
	return &EntryStore{db: db}
}

// TakenMembers returns the members already holding a live entry or group
// membership for the date. Only the rows a resubmission legitimately
// replaces are exempt: pending individual entries of replaceEntry members
// (superseded or updated in place) and a pending group led by replaceLeader
// (cancelled before the new group lands). Membership in anyone else's group
// always counts as taken.
func (s *EntryStore) TakenMembers(ctx context.Context, orgID int64, date string, replaceEntry []int64, replaceLeader int64) (map[int64]bool, error) {
	return takenMembers(ctx, s.db, orgID, date, replaceEntry, replaceLeader)
}

func takenMembers(ctx context.Context, idb bun.IDB, orgID int64, date string, replaceEntry []int64, replaceLeader int64) (map[int64]bool, error) {
	var entries []*models.LotteryEntry
	err := idb.NewSelect().
		Model(&entries).
		Column("member_id", "status").
		Where("org_id = ? AND date = ?", orgID, date).
		Where("status IN (?)", bun.In([]models.EntryStatus{models.EntryStatusPending, models.EntryStatusAssigned})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var groups []*models.LotteryGroup
	err = idb.NewSelect().
		Model(&groups).
		Column("leader_id", "member_ids", "status").
		Where("org_id = ? AND date = ?", orgID, date).
		Where("status IN (?)", bun.In([]models.EntryStatus{models.EntryStatusPending, models.EntryStatusAssigned})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return filterTaken(entries, groups, replaceEntry, replaceLeader), nil
}

// filterTaken derives the taken set from live rows. Callers pass only
// PENDING and ASSIGNED rows; cancelled history never blocks anyone.
func filterTaken(entries []*models.LotteryEntry, groups []*models.LotteryGroup, replaceEntry []int64, replaceLeader int64) map[int64]bool {
	replace := make(map[int64]bool, len(replaceEntry))
	for _, id := range replaceEntry {
		replace[id] = true
	}

	taken := make(map[int64]bool)
	for _, e := range entries {
		if e.Status == models.EntryStatusPending && replace[e.MemberID] {
			continue
		}
		taken[e.MemberID] = true
	}
	for _, g := range groups {
		if g.Status == models.EntryStatusPending && g.LeaderID == replaceLeader {
			continue
		}
		for _, id := range g.MemberIDs {
			taken[id] = true
		}
	}
	return taken
}

// lockIntake serializes submissions for one (org, date) within the calling
// transaction, so the membership re-check cannot race a concurrent submit.
// Individual entries also have the partial unique index as a backstop; group
// member arrays have only this lock.
func lockIntake(ctx context.Context, tx bun.Tx, orgID int64, date string) error {
	_, err := tx.ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended(?::text || ':' || ?, 0))", orgID, date)
	return err
}

// SubmitEntry stores an individual submission with status PENDING. A prior
// pending entry for the same (member, date) is replaced in place, stamping a
// fresh submission time, so intake stays idempotent per member-date pair.
func (s *EntryStore) SubmitEntry(ctx context.Context, orgID, memberID int64, date, memberClass string, sub lottery.Submission) (*models.LotteryEntry, error) {
	entry := &models.LotteryEntry{
		OrgID:         orgID,
		MemberID:      memberID,
		Date:          date,
		Preferred:     sub.Preferred,
		Alternate:     sub.Alternate,
		PreferredTime: sub.PreferredTime,
		MemberClass:   memberClass,
		Status:        models.EntryStatusPending,
		SubmittedAt:   time.Now().UTC(),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockIntake(ctx, tx, orgID, date); err != nil {
			return err
		}
		taken, err := takenMembers(ctx, tx, orgID, date, []int64{memberID}, 0)
		if err != nil {
			return err
		}
		if taken[memberID] {
			return fmt.Errorf("%w: member %d", lottery.ErrDuplicateEntry, memberID)
		}

		res, err := tx.NewUpdate().
			Model(entry).
			Column("preferred", "alternate", "preferred_time", "member_class", "submitted_at").
			Where("org_id = ? AND member_id = ? AND date = ? AND status = ?",
				orgID, memberID, date, models.EntryStatusPending).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(entry).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SubmitGroup stores a group submission with status PENDING. Members'
// individual pending entries for the date are superseded, not duplicated; a
// prior pending group with the same leader and date is cancelled first.
func (s *EntryStore) SubmitGroup(ctx context.Context, orgID, leaderID int64, date, leaderClass string, sub lottery.Submission) (*models.LotteryGroup, error) {
	group := &models.LotteryGroup{
		ID:            uuid.New(),
		OrgID:         orgID,
		LeaderID:      leaderID,
		Date:          date,
		MemberIDs:     sub.MemberIDs,
		Preferred:     sub.Preferred,
		Alternate:     sub.Alternate,
		PreferredTime: sub.PreferredTime,
		LeaderClass:   leaderClass,
		Status:        models.EntryStatusPending,
		SubmittedAt:   time.Now().UTC(),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockIntake(ctx, tx, orgID, date); err != nil {
			return err
		}
		taken, err := takenMembers(ctx, tx, orgID, date, sub.MemberIDs, leaderID)
		if err != nil {
			return err
		}
		for _, id := range sub.MemberIDs {
			if taken[id] {
				return fmt.Errorf("%w: member %d", lottery.ErrDuplicateEntry, id)
			}
		}

		_, err = tx.NewUpdate().
			Model((*models.LotteryGroup)(nil)).
			Set("status = ?", models.EntryStatusCancelled).
			Where("org_id = ? AND leader_id = ? AND date = ? AND status = ?",
				orgID, leaderID, date, models.EntryStatusPending).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.LotteryEntry)(nil)).
			Set("status = ?", models.EntryStatusSuperseded).
			Where("org_id = ? AND date = ? AND status = ?", orgID, date, models.EntryStatusPending).
			Where("member_id IN (?)", bun.In(sub.MemberIDs)).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(group).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Cancel marks the member's pending entry, and any pending group they lead,
// cancelled. Reports sql.ErrNoRows when nothing was live for the date.
func (s *EntryStore) Cancel(ctx context.Context, orgID, memberID int64, date string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.LotteryEntry)(nil)).
			Set("status = ?", models.EntryStatusCancelled).
			Where("org_id = ? AND member_id = ? AND date = ? AND status = ?",
				orgID, memberID, date, models.EntryStatusPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		entries, _ := res.RowsAffected()

		res, err = tx.NewUpdate().
			Model((*models.LotteryGroup)(nil)).
			Set("status = ?", models.EntryStatusCancelled).
			Where("org_id = ? AND leader_id = ? AND date = ? AND status = ?",
				orgID, memberID, date, models.EntryStatusPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		groups, _ := res.RowsAffected()

		if entries == 0 && groups == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// ListForDate returns a date's entries and groups, all statuses included.
func (s *EntryStore) ListForDate(ctx context.Context, orgID int64, date string) ([]*models.LotteryEntry, []*models.LotteryGroup, error) {
	var entries []*models.LotteryEntry
	err := s.db.NewSelect().
		Model(&entries).
		Where("org_id = ? AND date = ?", orgID, date).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}

	var groups []*models.LotteryGroup
	err = s.db.NewSelect().
		Model(&groups).
		Where("org_id = ? AND date = ?", orgID, date).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}

	return entries, groups, nil
}

// MarkAssigned flips a unit's status to ASSIGNED inside the caller's
// transaction and stamps the group's processed time.
func MarkAssigned(ctx context.Context, tx bun.IDB, orgID int64, unit lottery.Unit, date string) error {
	now := time.Now().UTC()
	if gid, ok := lottery.GroupUUID(unit.ID); ok {
		_, err := tx.NewUpdate().
			Model((*models.LotteryGroup)(nil)).
			Set("status = ?", models.EntryStatusAssigned).
			Set("processed_at = ?", now).
			Where("org_id = ? AND id = ?", orgID, gid).
			Exec(ctx)
		return err
	}
	_, err := tx.NewUpdate().
		Model((*models.LotteryEntry)(nil)).
		Set("status = ?", models.EntryStatusAssigned).
		Where("org_id = ? AND member_id = ? AND date = ? AND status = ?",
			orgID, unit.MemberIDs[0], date, models.EntryStatusPending).
		Exec(ctx)
	return err
}
