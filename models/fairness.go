package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FairnessScore counts the lottery cycles a member's entry went unassigned.
// It biases allocation order only; it never blocks eligibility.
type FairnessScore struct {
	bun.BaseModel `bun:"table:fairness_scores,alias:fs"`

	MemberID  int64     `bun:"member_id,pk" json:"memberID"`
	OrgID     int64     `bun:"org_id,notnull" json:"orgID"`
	Score     int       `bun:"score,notnull,default:0" json:"score"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
