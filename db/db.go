package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/linksclub/teelottery/config"
	"github.com/linksclub/teelottery/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Member)(nil),
		(*models.TeesheetConfig)(nil),
		(*models.TimeBlock)(nil),
		(*models.LotteryDate)(nil),
		(*models.LotteryEntry)(nil),
		(*models.LotteryGroup)(nil),
		(*models.MemberSpeedProfile)(nil),
		(*models.FairnessScore)(nil),
		(*models.Booking)(nil),
		(*models.BookingRestriction)(nil),
		(*models.OverrideAudit)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS entries_one_per_member_date ON lottery_entries (org_id, member_id, date) WHERE status IN ('PENDING','ASSIGNED')`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'teesheet_one_per_date') THEN ALTER TABLE teesheet_configs ADD CONSTRAINT teesheet_one_per_date UNIQUE (org_id, date); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'time_blocks_no_dupes') THEN ALTER TABLE time_blocks ADD CONSTRAINT time_blocks_no_dupes UNIQUE (org_id, date, start_time); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'lottery_dates_no_dupes') THEN ALTER TABLE lottery_dates ADD CONSTRAINT lottery_dates_no_dupes UNIQUE (org_id, date); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_one_per_member_date') THEN ALTER TABLE bookings ADD CONSTRAINT bookings_one_per_member_date UNIQUE (org_id, member_id, date); END IF; END $$`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
