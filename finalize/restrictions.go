package finalize

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

// PGChecker evaluates booking restrictions from their owning tables. A rule
// applies to a member when every set condition matches: member class,
// weekday of the lottery date, and slots starting before a cutoff time.
type PGChecker struct {
	db *bun.DB
}

func NewPGChecker(db *bun.DB) *PGChecker {
	return &PGChecker{db: db}
}

func (c *PGChecker) Check(ctx context.Context, orgID int64, date string, memberIDs []int64, slotStart int) ([]Violation, error) {
	var rules []*models.BookingRestriction
	err := c.db.NewSelect().
		Model(&rules).
		Where("org_id = ? AND active", orgID).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	day, err := weekday(date)
	if err != nil {
		return nil, err
	}

	var membersList []*models.Member
	err = c.db.NewSelect().
		Model(&membersList).
		Where("org_id = ?", orgID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	classByMember := make(map[int64]string, len(membersList))
	for _, m := range membersList {
		classByMember[m.MemberID] = m.Class
	}

	var out []Violation
	for _, r := range rules {
		if r.DayOfWeek != nil && *r.DayOfWeek != day {
			continue
		}
		if r.BeforeTime != nil {
			cutoff, err := lottery.ParseClock(*r.BeforeTime)
			if err != nil || slotStart >= cutoff {
				continue
			}
		}
		for _, id := range memberIDs {
			if r.MemberClass != nil && classByMember[id] != *r.MemberClass {
				continue
			}
			out = append(out, Violation{
				RestrictionID: r.ID,
				Name:          r.Name,
				MemberID:      id,
				Detail:        restrictionDetail(r, slotStart),
			})
		}
	}
	return out, nil
}

func (c *PGChecker) RecordOverride(ctx context.Context, orgID int64, v Violation, slotID int64, reason string, adminID int64) error {
	audit := &models.OverrideAudit{
		OrgID:         orgID,
		RestrictionID: v.RestrictionID,
		MemberID:      v.MemberID,
		TimeBlockID:   slotID,
		Reason:        reason,
		OverriddenBy:  adminID,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := c.db.NewInsert().Model(audit).Exec(ctx)
	return err
}

func weekday(date string) (int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("malformed date %q", date)
	}
	return int(t.Weekday()), nil
}

func restrictionDetail(r *models.BookingRestriction, slotStart int) string {
	msg := r.Name
	if r.MemberClass != nil {
		msg += fmt.Sprintf(", class %s", *r.MemberClass)
	}
	if r.BeforeTime != nil {
		msg += fmt.Sprintf(", slot %s before %s", lottery.MinuteToClock(slotStart), *r.BeforeTime)
	}
	return msg
}
