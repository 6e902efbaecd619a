package models

import "github.com/uptrace/bun"

// TeesheetType describes how a day's sheet was authored. The lottery only
// runs against REGULAR sheets; irregular and custom layouts disable it.
type TeesheetType string

const (
	TeesheetRegular   TeesheetType = "REGULAR"
	TeesheetIrregular TeesheetType = "IRREGULAR"
	TeesheetCustom    TeesheetType = "CUSTOM"
)

// TeesheetConfig holds a date's operating hours and sheet type.
type TeesheetConfig struct {
	bun.BaseModel `bun:"table:teesheet_configs,alias:tc"`

	ID        int64        `bun:"id,pk,autoincrement" json:"id"`
	OrgID     int64        `bun:"org_id,notnull" json:"orgID"`
	Date      string       `bun:"date,notnull,type:date" json:"date"`
	Type      TeesheetType `bun:"type,notnull,default:'REGULAR'" json:"type"`
	OpenTime  string       `bun:"open_time,notnull" json:"openTime"`
	CloseTime string       `bun:"close_time,notnull" json:"closeTime"`
	// SlotCapacity is the max occupants per tee time, the bound on group size.
	SlotCapacity int `bun:"slot_capacity,notnull,default:4" json:"slotCapacity"`
}
