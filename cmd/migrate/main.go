// cmd/migrate/main.go
// Migrates data from the legacy MySQL club database into the local
// PostgreSQL database: members, API users, teesheet configurations and
// time blocks. Entries, profiles and fairness scores start fresh.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/clubdata?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/config"
	bundb "github.com/linksclub/teelottery/db"
	"github.com/linksclub/teelottery/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/clubdata?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"members", func() (int, error) { return migrateMembers(ctx, myDB, pgDB) }},
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"teesheet_configs", func() (int, error) { return migrateTeesheets(ctx, myDB, pgDB) }},
		{"time_blocks", func() (int, error) { return migrateTimeBlocks(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-18s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func migrateMembers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT memberID, orgID, name, memberClass FROM members")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Member
	total := 0
	for rows.Next() {
		var r models.Member
		if err := rows.Scan(&r.MemberID, &r.OrgID, &r.Name, &r.Class); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, orgID, memberID, username, password, role FROM users")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.User
	total := 0
	for rows.Next() {
		var r models.User
		if err := rows.Scan(&r.ID, &r.OrgID, &r.MemberID, &r.Username, &r.Password, &r.Role); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateTeesheets(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, orgID, date, sheetType, openTime, closeTime, slotCapacity FROM teesheetConfigs")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.TeesheetConfig
	total := 0
	for rows.Next() {
		var (
			r    models.TeesheetConfig
			date time.Time
		)
		if err := rows.Scan(&r.ID, &r.OrgID, &date, &r.Type, &r.OpenTime, &r.CloseTime, &r.SlotCapacity); err != nil {
			return total, err
		}
		r.Date = fmtDate(date)
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateTimeBlocks(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, orgID, date, startTime, capacity, booked FROM timeBlocks")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.TimeBlock
	total := 0
	for rows.Next() {
		var (
			r    models.TimeBlock
			date time.Time
		)
		if err := rows.Scan(&r.ID, &r.OrgID, &date, &r.StartTime, &r.Capacity, &r.Booked); err != nil {
			return total, err
		}
		r.Date = fmtDate(date)
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	seqs := []struct{ seq, table, col string }{
		{"users_id_seq", "users", "id"},
		{"members_member_id_seq", "members", "member_id"},
		{"teesheet_configs_id_seq", "teesheet_configs", "id"},
		{"time_blocks_id_seq", "time_blocks", "id"},
	}
	for _, s := range seqs {
		q := fmt.Sprintf(
			"SELECT setval('%s', COALESCE((SELECT MAX(%s) FROM %s), 1))",
			s.seq, s.col, s.table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", s.seq, err)
		}
	}
	log.Println("sequences reset")
}
