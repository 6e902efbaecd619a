package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/linksclub/teelottery/lottery"
)

type previewPlacement struct {
	UnitID       string  `json:"unitID"`
	MemberIDs    []int64 `json:"memberIDs"`
	SlotID       int64   `json:"slotID"`
	SlotStart    string  `json:"slotStart"`
	Window       string  `json:"window"`
	ViaAlternate bool    `json:"viaAlternate,omitempty"`
}

type previewResponse struct {
	Date       string             `json:"date"`
	Placements []previewPlacement `json:"placements"`
	Unassigned []string           `json:"unassigned"`
}

type finalizeRequest struct {
	Date string `json:"date"`
	// Placements carries the reviewed unit-to-slot pairs from a preview.
	// When present, finalization commits exactly these; when empty the
	// allocation is recomputed from live state.
	Placements []finalizePlacement `json:"placements,omitempty"`
	// Overrides maps unit IDs to the reason an administrator is forcing the
	// booking through its restriction violations.
	Overrides map[string]string `json:"overrides,omitempty"`
}

type finalizePlacement struct {
	UnitID string `json:"unitID"`
	SlotID int64  `json:"slotID"`
}

// allocationInputs loads everything one allocation run needs: the date's
// windows, slot states and priority-resolved units.
func (h *Handler) allocationInputs(c echo.Context, orgID int64, date string) ([]lottery.Unit, []lottery.SlotState, []lottery.Window, error) {
	_, windows, err := h.dateContext(c, orgID, date)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(windows) == 0 {
		return nil, nil, nil, echo.NewHTTPError(http.StatusConflict, "lottery unavailable for this date")
	}

	ctx := c.Request().Context()
	blocks, err := h.slots.BlocksForDate(ctx, orgID, date)
	if err != nil {
		return nil, nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	slots := make([]lottery.SlotState, 0, len(blocks))
	for _, b := range blocks {
		start, err := lottery.ParseClock(b.StartTime)
		if err != nil {
			h.log.Warn("skipping malformed time block",
				zap.Int64("block", b.ID), zap.String("start", b.StartTime))
			continue
		}
		slots = append(slots, lottery.SlotState{ID: b.ID, StartMin: start, Remaining: b.Remaining()})
	}

	units, err := h.loadUnits(ctx, orgID, date)
	if err != nil {
		return nil, nil, nil, err
	}
	return units, slots, windows, nil
}

func (h *Handler) loadUnits(ctx context.Context, orgID int64, date string) ([]lottery.Unit, error) {
	entries, groups, err := h.entries.ListForDate(ctx, orgID, date)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	memberSet := map[int64]bool{}
	for _, e := range entries {
		memberSet[e.MemberID] = true
	}
	for _, g := range groups {
		for _, id := range g.MemberIDs {
			memberSet[id] = true
		}
	}
	memberIDs := make([]int64, 0, len(memberSet))
	for id := range memberSet {
		memberIDs = append(memberIDs, id)
	}

	profiles, err := h.profiles.ForMembers(ctx, orgID, memberIDs)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	scores, err := h.fairness.Scores(ctx, orgID, memberIDs)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return lottery.BuildUnits(entries, groups, profiles, scores), nil
}

// Preview runs the allocation engine for a date with no side effects. The
// engine is deterministic, so repeated previews over unchanged inputs return
// identical assignments.
func (h *Handler) Preview(c echo.Context) error {
	_, orgID, _ := caller(c)
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date param")
	}

	units, slots, windows, err := h.allocationInputs(c, orgID, date)
	if err != nil {
		return err
	}
	a := lottery.Allocate(units, slots, windows)

	resp := previewResponse{Date: date, Placements: []previewPlacement{}, Unassigned: []string{}}
	for _, p := range a.Placements {
		resp.Placements = append(resp.Placements, previewPlacement{
			UnitID:       p.Unit.ID,
			MemberIDs:    p.Unit.MemberIDs,
			SlotID:       p.SlotID,
			SlotStart:    lottery.MinuteToClock(p.SlotStart),
			Window:       string(p.Window),
			ViaAlternate: p.ViaAlternate,
		})
	}
	for _, u := range a.Unassigned {
		resp.Unassigned = append(resp.Unassigned, u.ID)
	}
	return c.JSON(http.StatusOK, resp)
}

// Finalize commits a date's allocation: books every unit that passes live
// capacity and restriction checks, updates fairness scores and completes the
// date. Safe to re-invoke; a completed date reports alreadyCompleted.
func (h *Handler) Finalize(c echo.Context) error {
	adminID, orgID, _ := caller(c)

	var req finalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date")
	}

	units, slots, windows, err := h.allocationInputs(c, orgID, req.Date)
	if err != nil {
		return err
	}

	var a lottery.Assignment
	if len(req.Placements) > 0 {
		pairs := make(map[string]int64, len(req.Placements))
		for _, p := range req.Placements {
			if _, dup := pairs[p.UnitID]; dup {
				return echo.NewHTTPError(http.StatusBadRequest, "duplicate unit in placements")
			}
			pairs[p.UnitID] = p.SlotID
		}
		a, err = lottery.ReplayAssignment(units, slots, windows, pairs)
		if err != nil {
			// Entries or slots drifted since the preview; the operator
			// needs to review the current state.
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
	} else {
		a = lottery.Allocate(units, slots, windows)
	}

	res, err := h.coord.Run(c.Request().Context(), orgID, req.Date, a, req.Overrides, adminID)
	if err != nil {
		if res != nil {
			// Control-record failure after per-unit commits: surface both.
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"error":  err.Error(),
				"result": res,
			})
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// Status reports a date's processing state for dashboards.
func (h *Handler) Status(c echo.Context) error {
	_, orgID, _ := caller(c)
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date param")
	}

	status, err := h.dates.Status(c.Request().Context(), orgID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"date": date, "status": string(status)})
}

// FairnessScores returns the fairness scores of a date's participants.
func (h *Handler) FairnessScores(c echo.Context) error {
	_, orgID, _ := caller(c)
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date param")
	}

	ctx := c.Request().Context()
	units, err := h.loadUnits(ctx, orgID, date)
	if err != nil {
		return err
	}

	memberIDs := []int64{}
	for _, u := range units {
		memberIDs = append(memberIDs, u.MemberIDs...)
	}
	scores, err := h.fairness.Scores(ctx, orgID, memberIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scores)
}
