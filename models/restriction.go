package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BookingRestriction is an externally-owned rule limiting who may book.
// A rule applies when every set condition matches.
type BookingRestriction struct {
	bun.BaseModel `bun:"table:booking_restrictions,alias:br"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	OrgID int64  `bun:"org_id,notnull" json:"orgID"`
	Name  string `bun:"name,notnull" json:"name"`
	// MemberClass restricts a class (e.g. JUNIOR), nil matches any class.
	MemberClass *string `bun:"member_class" json:"memberClass,omitempty"`
	// DayOfWeek restricts a weekday (0=Sunday..6), nil matches any day.
	DayOfWeek *int `bun:"day_of_week" json:"dayOfWeek,omitempty"`
	// BeforeTime blocks slots starting before HH:MM, nil matches any time.
	BeforeTime *string `bun:"before_time" json:"beforeTime,omitempty"`
	Active     bool    `bun:"active,notnull,default:true" json:"active"`
}

// OverrideAudit is an append-only record of a restriction violation that an
// administrator forced through, with the required reason.
type OverrideAudit struct {
	bun.BaseModel `bun:"table:override_audit,alias:oa"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	OrgID         int64     `bun:"org_id,notnull" json:"orgID"`
	RestrictionID int64     `bun:"restriction_id,notnull" json:"restrictionID"`
	MemberID      int64     `bun:"member_id,notnull" json:"memberID"`
	TimeBlockID   int64     `bun:"time_block_id,notnull" json:"timeBlockID"`
	Reason        string    `bun:"reason,notnull" json:"reason"`
	OverriddenBy  int64     `bun:"overridden_by,notnull" json:"overriddenBy"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
