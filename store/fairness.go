package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/models"
)

// FairnessStore persists per-member fairness counters. All mutations are
// relative atomic updates so concurrent finalizations of different dates
// never race on a shared member.
type FairnessStore struct {
	db *bun.DB
}

func NewFairnessStore(db *bun.DB) *FairnessStore {
	return &FairnessStore{db: db}
}

// Scores loads the fairness scores for the given members; members without a
// row score zero and are absent from the map.
func (s *FairnessStore) Scores(ctx context.Context, orgID int64, memberIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	var rows []*models.FairnessScore
	err := s.db.NewSelect().
		Model(&rows).
		Where("org_id = ?", orgID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	for _, r := range rows {
		out[r.MemberID] = r.Score
	}
	return out, nil
}

// Increment bumps each member's score by one, creating missing rows.
func (s *FairnessStore) Increment(ctx context.Context, idb bun.IDB, orgID int64, memberIDs []int64) error {
	if idb == nil {
		idb = s.db
	}
	now := time.Now().UTC()
	for _, id := range memberIDs {
		row := &models.FairnessScore{MemberID: id, OrgID: orgID, Score: 1, UpdatedAt: now}
		_, err := idb.NewInsert().
			Model(row).
			On("CONFLICT (member_id) DO UPDATE SET score = fairness_scores.score + 1, updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset zeroes each member's score after a successful assignment.
func (s *FairnessStore) Reset(ctx context.Context, idb bun.IDB, orgID int64, memberIDs []int64) error {
	if idb == nil {
		idb = s.db
	}
	_, err := idb.NewUpdate().
		Model((*models.FairnessScore)(nil)).
		Set("score = 0").
		Set("updated_at = ?", time.Now().UTC()).
		Where("org_id = ?", orgID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Exec(ctx)
	return err
}
