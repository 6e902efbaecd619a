package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DateStatus is the per-date processing state machine:
// PENDING -> PROCESSING -> COMPLETED. A failed finalization run returns
// the date to PENDING for retry.
type DateStatus string

const (
	DateStatusPending    DateStatus = "PENDING"
	DateStatusProcessing DateStatus = "PROCESSING"
	DateStatusCompleted  DateStatus = "COMPLETED"
)

// LotteryDate is the control record tracking a date's processing state.
type LotteryDate struct {
	bun.BaseModel `bun:"table:lottery_dates,alias:ld"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	OrgID       int64      `bun:"org_id,notnull" json:"orgID"`
	Date        string     `bun:"date,notnull,type:date" json:"date"`
	Status      DateStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	ProcessedAt *time.Time `bun:"processed_at" json:"processedAt,omitempty"`
}
