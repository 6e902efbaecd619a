package models

import "github.com/uptrace/bun"

// Role is a caller's permission level.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is an API user with bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	OrgID    int64  `bun:"org_id,notnull" json:"orgID"`
	MemberID int64  `bun:"member_id,notnull" json:"memberID"`
	Username string `bun:"username,notnull,unique" json:"username"`
	Password string `bun:"password,notnull" json:"-"`
	Role     Role   `bun:"role,notnull,default:'member'" json:"role"`
}
