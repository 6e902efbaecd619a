package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TimeBlock is a concrete bookable tee time with fixed capacity, owned by
// the teesheet subsystem and consumed here as capacity units.
type TimeBlock struct {
	bun.BaseModel `bun:"table:time_blocks,alias:tb"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	OrgID     int64  `bun:"org_id,notnull" json:"orgID"`
	Date      string `bun:"date,notnull,type:date" json:"date"`
	StartTime string `bun:"start_time,notnull" json:"startTime"`
	Capacity  int    `bun:"capacity,notnull" json:"capacity"`
	Booked    int    `bun:"booked,notnull,default:0" json:"booked"`
}

// Remaining reports the block's unbooked capacity.
func (tb *TimeBlock) Remaining() int { return tb.Capacity - tb.Booked }

// Booking is a durable per-member reservation of a time block.
type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	OrgID       int64     `bun:"org_id,notnull" json:"orgID"`
	MemberID    int64     `bun:"member_id,notnull" json:"memberID"`
	TimeBlockID int64     `bun:"time_block_id,notnull" json:"timeBlockID"`
	Date        string    `bun:"date,notnull,type:date" json:"date"`
	Source      string    `bun:"source,notnull,default:'lottery'" json:"source"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
