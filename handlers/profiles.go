package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/store"
)

type adjustmentRequest struct {
	MemberID   int64 `json:"memberID"`
	Adjustment int   `json:"adjustment"`
}

type paceRequest struct {
	MemberID int64 `json:"memberID"`
	Minutes  int   `json:"minutes"`
}

// GetProfile returns a member's speed profile, defaulting when none has
// been recorded. The version field lets cached views detect staleness.
func (h *Handler) GetProfile(c echo.Context) error {
	_, orgID, _ := caller(c)

	memberID, err := strconv.ParseInt(c.QueryParam("memberID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing or malformed memberID param")
	}

	p, err := h.profiles.Get(c.Request().Context(), orgID, memberID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"profile": p,
		"version": h.profiles.Version(),
	})
}

// SetAdjustment persists an administrator priority adjustment in [-10, 10].
func (h *Handler) SetAdjustment(c echo.Context) error {
	_, orgID, _ := caller(c)

	var req adjustmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.profiles.SetAdjustment(c.Request().Context(), orgID, req.MemberID, req.Adjustment)
	if errors.Is(err, lottery.ErrOutOfRange) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

// BulkUpdateProfiles applies each update independently and reports per-item
// results; ok is false when any item failed.
func (h *Handler) BulkUpdateProfiles(c echo.Context) error {
	_, orgID, _ := caller(c)

	var updates []store.ProfileUpdate
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(updates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty update list")
	}

	results, allOK := h.profiles.BulkUpdate(c.Request().Context(), orgID, updates)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      allOK,
		"results": results,
		"version": h.profiles.Version(),
	})
}

// ResetAdjustments zeroes all manual tuning for the org and reports how many
// profiles changed.
func (h *Handler) ResetAdjustments(c echo.Context) error {
	_, orgID, _ := caller(c)

	n, err := h.profiles.ResetAllAdjustments(c.Request().Context(), orgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"reset": n})
}

// RecordPace folds a pace-of-play observation into a member's profile.
func (h *Handler) RecordPace(c echo.Context) error {
	_, orgID, _ := caller(c)

	var req paceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Minutes <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "minutes must be positive")
	}

	p, err := h.profiles.RecordPace(c.Request().Context(), orgID, req.MemberID, req.Minutes)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
