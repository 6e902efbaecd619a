package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EntryStatus tracks the lifecycle of a single lottery submission.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusAssigned  EntryStatus = "ASSIGNED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
	// EntryStatusSuperseded marks an individual entry replaced by the
	// member joining a group for the same date.
	EntryStatusSuperseded EntryStatus = "SUPERSEDED"
)

// LotteryEntry is one member's individual submission for one date.
// At most one non-cancelled entry exists per (member, date).
type LotteryEntry struct {
	bun.BaseModel `bun:"table:lottery_entries,alias:le"`

	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	OrgID         int64       `bun:"org_id,notnull" json:"orgID"`
	MemberID      int64       `bun:"member_id,notnull" json:"memberID"`
	Date          string      `bun:"date,notnull,type:date" json:"date"`
	Preferred     string      `bun:"preferred,notnull" json:"preferred"`
	Alternate     *string     `bun:"alternate" json:"alternate,omitempty"`
	PreferredTime *string     `bun:"preferred_time" json:"preferredTime,omitempty"`
	MemberClass   string      `bun:"member_class,notnull" json:"memberClass"`
	Status        EntryStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	SubmittedAt   time.Time   `bun:"submitted_at,notnull,default:current_timestamp" json:"submittedAt"`
}
