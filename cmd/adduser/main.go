// cmd/adduser/main.go
// Creates or updates an API user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username pro -password testing -member 12 -org 1 -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/linksclub/teelottery/config"
	bundb "github.com/linksclub/teelottery/db"
	"github.com/linksclub/teelottery/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	memberID := flag.Int64("member", 0, "member id the user acts as (required)")
	orgID := flag.Int64("org", 1, "organization id")
	role := flag.String("role", "member", "role: member or admin")
	flag.Parse()

	if *username == "" || *password == "" || *memberID == 0 {
		log.Fatal("-username, -password and -member are required")
	}
	if *role != string(models.RoleMember) && *role != string(models.RoleAdmin) {
		log.Fatal("role must be member or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	user := &models.User{
		OrgID:    *orgID,
		MemberID: *memberID,
		Username: *username,
		Password: string(hash),
		Role:     models.Role(*role),
	}

	_, err = db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, role = EXCLUDED.role, member_id = EXCLUDED.member_id, org_id = EXCLUDED.org_id").
		Exec(context.Background())
	if err != nil {
		log.Fatal("insert user:", err)
	}

	fmt.Printf("user %q saved\n", *username)
}
