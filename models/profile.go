package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SpeedTier classifies a member's historical pace of play.
type SpeedTier string

const (
	TierFast    SpeedTier = "FAST"
	TierAverage SpeedTier = "AVERAGE"
	TierSlow    SpeedTier = "SLOW"
)

// AdjustmentMin and AdjustmentMax bound the administrator priority adjustment.
const (
	AdjustmentMin = -10
	AdjustmentMax = 10
)

// MemberSpeedProfile is the persistent per-member pace and priority record.
// Created lazily on the first pace observation; the tier is recomputed from
// the rolling average unless ManualOverride is set.
type MemberSpeedProfile struct {
	bun.BaseModel `bun:"table:member_speed_profiles,alias:sp"`

	MemberID       int64     `bun:"member_id,pk" json:"memberID"`
	OrgID          int64     `bun:"org_id,notnull" json:"orgID"`
	AvgPaceMinutes float64   `bun:"avg_pace_minutes,notnull,default:0" json:"avgPaceMinutes"`
	Tier           SpeedTier `bun:"tier,notnull,default:'AVERAGE'" json:"tier"`
	Adjustment     int       `bun:"adjustment,notnull,default:0" json:"adjustment"`
	ManualOverride bool      `bun:"manual_override,notnull,default:false" json:"manualOverride"`
	Notes          string    `bun:"notes,notnull,default:''" json:"notes"`
	LastCalculated time.Time `bun:"last_calculated,notnull,default:current_timestamp" json:"lastCalculated"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// DefaultProfile returns the profile assumed for a member with no record yet.
func DefaultProfile(orgID, memberID int64) *MemberSpeedProfile {
	return &MemberSpeedProfile{
		MemberID: memberID,
		OrgID:    orgID,
		Tier:     TierAverage,
	}
}
