package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/linksclub/teelottery/config"
	"github.com/linksclub/teelottery/finalize"
	"github.com/linksclub/teelottery/models"
	"github.com/linksclub/teelottery/store"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db       *bun.DB
	entries  *store.EntryStore
	profiles *store.ProfileStore
	fairness *store.FairnessStore
	slots    *store.SlotStore
	dates    *store.DateStore
	coord    *finalize.Coordinator
	log      *zap.Logger
	JWTKey   []byte
}

// New wires the stores and the finalization coordinator onto one handler.
func New(db *bun.DB, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		db:       db,
		entries:  store.NewEntryStore(db),
		profiles: store.NewProfileStore(db, cfg.FastPaceMax, cfg.SlowPaceMin),
		fairness: store.NewFairnessStore(db),
		slots:    store.NewSlotStore(db),
		dates:    store.NewDateStore(db),
		coord:    finalize.New(finalize.NewPGStore(db), finalize.NewPGChecker(db), log),
		log:      log,
		JWTKey:   cfg.JWTKey(),
	}
}

func caller(c echo.Context) (memberID, orgID int64, role models.Role) {
	memberID, _ = c.Get("member_id").(int64)
	orgID, _ = c.Get("org_id").(int64)
	role, _ = c.Get("role").(models.Role)
	return
}
