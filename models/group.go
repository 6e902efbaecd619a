package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LotteryGroup is a pre-formed party of 2+ members booking together.
// MemberIDs is ordered with the leader first and contains no duplicates;
// the allocator assigns the whole set to one slot or none.
type LotteryGroup struct {
	bun.BaseModel `bun:"table:lottery_groups,alias:lg"`

	ID            uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	OrgID         int64       `bun:"org_id,notnull" json:"orgID"`
	LeaderID      int64       `bun:"leader_id,notnull" json:"leaderID"`
	Date          string      `bun:"date,notnull,type:date" json:"date"`
	MemberIDs     []int64     `bun:"member_ids,notnull,array" json:"memberIDs"`
	Preferred     string      `bun:"preferred,notnull" json:"preferred"`
	Alternate     *string     `bun:"alternate" json:"alternate,omitempty"`
	PreferredTime *string     `bun:"preferred_time" json:"preferredTime,omitempty"`
	LeaderClass   string      `bun:"leader_class,notnull" json:"leaderClass"`
	Status        EntryStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	SubmittedAt   time.Time   `bun:"submitted_at,notnull,default:current_timestamp" json:"submittedAt"`
	ProcessedAt   *time.Time  `bun:"processed_at" json:"processedAt,omitempty"`
}
