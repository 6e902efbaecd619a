package models

import "github.com/uptrace/bun"

// Member is a club member eligible to enter the lottery.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	MemberID int64  `bun:"member_id,pk,autoincrement" json:"memberID"`
	OrgID    int64  `bun:"org_id,notnull" json:"orgID"`
	Name     string `bun:"name,notnull" json:"name"`
	// Class feeds externally-owned eligibility rules (FULL, SENIOR, JUNIOR, ...).
	Class string `bun:"class,notnull,default:'FULL'" json:"class"`
}
