package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/models"
)

// SlotStore reads teesheet configuration and time blocks, owned by the
// teesheet subsystem and consumed here as capacity units.
type SlotStore struct {
	db *bun.DB
}

func NewSlotStore(db *bun.DB) *SlotStore {
	return &SlotStore{db: db}
}

// Config returns the teesheet configuration for a date, or nil when the
// date has none (no sheet published yet).
func (s *SlotStore) Config(ctx context.Context, orgID int64, date string) (*models.TeesheetConfig, error) {
	cfg := new(models.TeesheetConfig)
	err := s.db.NewSelect().
		Model(cfg).
		Where("org_id = ? AND date = ?", orgID, date).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// BlocksForDate returns the date's time blocks in start order.
func (s *SlotStore) BlocksForDate(ctx context.Context, orgID int64, date string) ([]*models.TimeBlock, error) {
	var blocks []*models.TimeBlock
	err := s.db.NewSelect().
		Model(&blocks).
		Where("org_id = ? AND date = ?", orgID, date).
		Order("start_time ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return blocks, nil
}
