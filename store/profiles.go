package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

// paceWeight blends a new pace observation into the rolling average so one
// slow round does not flip a member's tier.
const paceWeight = 0.3

// ProfileStore persists member speed profiles. Writes bump an in-process
// version stamp that reads report, letting dashboard layers detect stale
// cached profile views.
type ProfileStore struct {
	db      *bun.DB
	fastMax int
	slowMin int
	version atomic.Int64
}

func NewProfileStore(db *bun.DB, fastMax, slowMin int) *ProfileStore {
	return &ProfileStore{db: db, fastMax: fastMax, slowMin: slowMin}
}

// Version is the current profile-staleness stamp.
func (s *ProfileStore) Version() int64 { return s.version.Load() }

// Get returns the member's profile, or the default (AVERAGE tier, zero
// adjustment) when none has been recorded yet.
func (s *ProfileStore) Get(ctx context.Context, orgID, memberID int64) (*models.MemberSpeedProfile, error) {
	p := new(models.MemberSpeedProfile)
	err := s.db.NewSelect().
		Model(p).
		Where("org_id = ? AND member_id = ?", orgID, memberID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultProfile(orgID, memberID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ForMembers loads profiles for the given members; members without a row are
// simply absent from the map and default upstream.
func (s *ProfileStore) ForMembers(ctx context.Context, orgID int64, memberIDs []int64) (map[int64]*models.MemberSpeedProfile, error) {
	out := make(map[int64]*models.MemberSpeedProfile, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	var profiles []*models.MemberSpeedProfile
	err := s.db.NewSelect().
		Model(&profiles).
		Where("org_id = ?", orgID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	for _, p := range profiles {
		out[p.MemberID] = p
	}
	return out, nil
}

// SetAdjustment persists an administrator priority adjustment, creating the
// profile row if needed. Rejects values outside [-10, 10] with ErrOutOfRange.
func (s *ProfileStore) SetAdjustment(ctx context.Context, orgID, memberID int64, delta int) error {
	if err := checkAdjustment(delta); err != nil {
		return err
	}
	now := time.Now().UTC()
	p := &models.MemberSpeedProfile{
		MemberID:       memberID,
		OrgID:          orgID,
		Tier:           models.TierAverage,
		Adjustment:     delta,
		LastCalculated: now,
		UpdatedAt:      now,
	}
	_, err := s.db.NewInsert().
		Model(p).
		On("CONFLICT (member_id) DO UPDATE SET adjustment = EXCLUDED.adjustment, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return err
	}
	s.version.Add(1)
	return nil
}

// ResetAllAdjustments zeroes every non-zero adjustment and clears notes,
// returning the number of rows mutated. Each row is atomic on its own;
// the batch as a whole is best-effort by design.
func (s *ProfileStore) ResetAllAdjustments(ctx context.Context, orgID int64) (int, error) {
	res, err := s.db.NewUpdate().
		Model((*models.MemberSpeedProfile)(nil)).
		Set("adjustment = 0").
		Set("notes = ''").
		Set("updated_at = ?", time.Now().UTC()).
		Where("org_id = ?", orgID).
		Where("adjustment <> 0 OR notes <> ''").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	s.version.Add(1)
	return int(n), nil
}

// ProfileUpdate is one item of a bulk administrator update. Nil fields are
// left untouched.
type ProfileUpdate struct {
	MemberID       int64             `json:"memberID"`
	Adjustment     *int              `json:"adjustment,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	Tier           *models.SpeedTier `json:"tier,omitempty"`
	ManualOverride *bool             `json:"manualOverride,omitempty"`
}

// BulkResult reports one item's outcome.
type BulkResult struct {
	MemberID int64  `json:"memberID"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// BulkUpdate applies each update independently, continuing past individual
// failures. The returned flag is false if any item failed.
func (s *ProfileStore) BulkUpdate(ctx context.Context, orgID int64, updates []ProfileUpdate) ([]BulkResult, bool) {
	results := make([]BulkResult, 0, len(updates))
	allOK := true
	for _, u := range updates {
		if err := s.applyUpdate(ctx, orgID, u); err != nil {
			results = append(results, BulkResult{MemberID: u.MemberID, Error: err.Error()})
			allOK = false
			continue
		}
		results = append(results, BulkResult{MemberID: u.MemberID, OK: true})
	}
	s.version.Add(1)
	return results, allOK
}

// checkAdjustment bounds an administrator priority adjustment to
// [AdjustmentMin, AdjustmentMax].
func checkAdjustment(delta int) error {
	if delta < models.AdjustmentMin || delta > models.AdjustmentMax {
		return fmt.Errorf("%w: %d", lottery.ErrOutOfRange, delta)
	}
	return nil
}

func (s *ProfileStore) applyUpdate(ctx context.Context, orgID int64, u ProfileUpdate) error {
	if u.Adjustment != nil {
		if err := checkAdjustment(*u.Adjustment); err != nil {
			return err
		}
	}
	if u.Tier != nil {
		switch *u.Tier {
		case models.TierFast, models.TierAverage, models.TierSlow:
		default:
			return fmt.Errorf("unknown tier %q", *u.Tier)
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		p := &models.MemberSpeedProfile{
			MemberID:       u.MemberID,
			OrgID:          orgID,
			Tier:           models.TierAverage,
			LastCalculated: now,
			UpdatedAt:      now,
		}
		_, err := tx.NewInsert().
			Model(p).
			On("CONFLICT (member_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}

		q := tx.NewUpdate().
			Model((*models.MemberSpeedProfile)(nil)).
			Set("updated_at = ?", now).
			Where("org_id = ? AND member_id = ?", orgID, u.MemberID)
		if u.Adjustment != nil {
			q = q.Set("adjustment = ?", *u.Adjustment)
		}
		if u.Notes != nil {
			q = q.Set("notes = ?", *u.Notes)
		}
		if u.Tier != nil {
			q = q.Set("tier = ?", *u.Tier)
		}
		if u.ManualOverride != nil {
			q = q.Set("manual_override = ?", *u.ManualOverride)
		}
		_, err = q.Exec(ctx)
		return err
	})
}

// RecordPace folds a pace-of-play observation (minutes for the round) into
// the member's rolling average, creating the profile lazily. The tier is
// recomputed unless the profile is manually overridden.
func (s *ProfileStore) RecordPace(ctx context.Context, orgID, memberID int64, minutes int) (*models.MemberSpeedProfile, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("pace must be positive, got %d", minutes)
	}

	var out *models.MemberSpeedProfile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		p := new(models.MemberSpeedProfile)
		err := tx.NewSelect().
			Model(p).
			Where("org_id = ? AND member_id = ?", orgID, memberID).
			For("UPDATE").
			Scan(ctx)
		now := time.Now().UTC()

		if errors.Is(err, sql.ErrNoRows) {
			p = models.DefaultProfile(orgID, memberID)
			p.AvgPaceMinutes = float64(minutes)
			p.Tier = s.tierFor(p.AvgPaceMinutes)
			p.LastCalculated = now
			p.UpdatedAt = now
			if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
				return err
			}
			out = p
			return nil
		}
		if err != nil {
			return err
		}

		if p.AvgPaceMinutes == 0 {
			p.AvgPaceMinutes = float64(minutes)
		} else {
			p.AvgPaceMinutes = p.AvgPaceMinutes*(1-paceWeight) + float64(minutes)*paceWeight
		}
		if !p.ManualOverride {
			p.Tier = s.tierFor(p.AvgPaceMinutes)
		}
		p.LastCalculated = now
		p.UpdatedAt = now

		_, err = tx.NewUpdate().
			Model(p).
			Column("avg_pace_minutes", "tier", "last_calculated", "updated_at").
			WherePK().
			Exec(ctx)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	s.version.Add(1)
	return out, nil
}

func (s *ProfileStore) tierFor(avg float64) models.SpeedTier {
	switch {
	case avg <= float64(s.fastMax):
		return models.TierFast
	case avg >= float64(s.slowMin):
		return models.TierSlow
	default:
		return models.TierAverage
	}
}
