package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

type entryRequest struct {
	Date          string  `json:"date"`
	Preferred     string  `json:"preferred"`
	Alternate     *string `json:"alternate,omitempty"`
	PreferredTime *string `json:"preferredTime,omitempty"`
}

type groupRequest struct {
	Date          string  `json:"date"`
	MemberIDs     []int64 `json:"memberIDs"`
	Preferred     string  `json:"preferred"`
	Alternate     *string `json:"alternate,omitempty"`
	PreferredTime *string `json:"preferredTime,omitempty"`
}

// dateContext resolves the pieces every intake call needs: the teesheet
// configuration and the date's windows. A nil config means no sheet exists;
// empty windows mean the lottery is off for the date.
func (h *Handler) dateContext(c echo.Context, orgID int64, date string) (*models.TeesheetConfig, []lottery.Window, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	cfg, err := h.slots.Config(c.Request().Context(), orgID, date)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if cfg == nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "no teesheet for date")
	}
	windows, err := lottery.WindowsForConfig(cfg)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return cfg, windows, nil
}

// Windows returns the date's preference windows; an empty set with
// lotteryAvailable=false means the lottery is off for that date.
func (h *Handler) Windows(c echo.Context) error {
	_, orgID, _ := caller(c)
	_, windows, err := h.dateContext(c, orgID, c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"lotteryAvailable": len(windows) > 0,
		"windows":          windows,
	})
}

// SubmitEntry stores or replaces the caller's individual entry for a date.
func (h *Handler) SubmitEntry(c echo.Context) error {
	memberID, orgID, _ := caller(c)

	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cfg, windows, err := h.dateContext(c, orgID, req.Date)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		return echo.NewHTTPError(http.StatusConflict, "lottery unavailable for this date")
	}
	if err := h.requireEntriesOpen(c, orgID, req.Date); err != nil {
		return err
	}

	ctx := c.Request().Context()
	class, err := h.memberClass(ctx, orgID, memberID)
	if err != nil {
		return err
	}

	taken, err := h.entries.TakenMembers(ctx, orgID, req.Date, []int64{memberID}, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sub := lottery.Submission{
		MemberIDs:     []int64{memberID},
		Preferred:     req.Preferred,
		Alternate:     req.Alternate,
		PreferredTime: req.PreferredTime,
	}
	if err := lottery.ValidateSubmission(sub, windows, cfg.SlotCapacity, taken); err != nil {
		return intakeHTTPError(err)
	}

	entry, err := h.entries.SubmitEntry(ctx, orgID, memberID, req.Date, class, sub)
	if errors.Is(err, lottery.ErrDuplicateEntry) {
		// The store re-checks under its own lock; a race with a concurrent
		// submission surfaces here.
		return intakeHTTPError(err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

// SubmitGroup stores a group submission led by the caller. Members'
// individual pending entries for the date are superseded.
func (h *Handler) SubmitGroup(c echo.Context) error {
	memberID, orgID, _ := caller(c)

	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.MemberIDs) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "a group needs at least 2 members")
	}
	if req.MemberIDs[0] != memberID {
		return echo.NewHTTPError(http.StatusBadRequest, "the submitting member must lead the group")
	}

	cfg, windows, err := h.dateContext(c, orgID, req.Date)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		return echo.NewHTTPError(http.StatusConflict, "lottery unavailable for this date")
	}
	if err := h.requireEntriesOpen(c, orgID, req.Date); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.requireMembersExist(ctx, orgID, req.MemberIDs); err != nil {
		return err
	}
	class, err := h.memberClass(ctx, orgID, memberID)
	if err != nil {
		return err
	}

	taken, err := h.entries.TakenMembers(ctx, orgID, req.Date, req.MemberIDs, memberID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sub := lottery.Submission{
		MemberIDs:     req.MemberIDs,
		Preferred:     req.Preferred,
		Alternate:     req.Alternate,
		PreferredTime: req.PreferredTime,
	}
	if err := lottery.ValidateSubmission(sub, windows, cfg.SlotCapacity, taken); err != nil {
		return intakeHTTPError(err)
	}

	group, err := h.entries.SubmitGroup(ctx, orgID, memberID, req.Date, class, sub)
	if errors.Is(err, lottery.ErrDuplicateEntry) {
		return intakeHTTPError(err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, group)
}

// CancelEntry cancels the caller's pending entry or led group for a date.
func (h *Handler) CancelEntry(c echo.Context) error {
	memberID, orgID, _ := caller(c)
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date param")
	}

	err := h.entries.Cancel(c.Request().Context(), orgID, memberID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "no pending entry for date")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

// ListEntries returns a date's entries and groups for dashboards.
func (h *Handler) ListEntries(c echo.Context) error {
	_, orgID, _ := caller(c)
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing date param")
	}

	entries, groups, err := h.entries.ListForDate(c.Request().Context(), orgID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"groups":  groups,
	})
}

// requireEntriesOpen rejects submissions once a date left PENDING.
func (h *Handler) requireEntriesOpen(c echo.Context, orgID int64, date string) error {
	status, err := h.dates.Status(c.Request().Context(), orgID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if status != models.DateStatusPending {
		return echo.NewHTTPError(http.StatusConflict, "entries are closed for this date")
	}
	return nil
}

func (h *Handler) memberClass(ctx context.Context, orgID, memberID int64) (string, error) {
	member := new(models.Member)
	err := h.db.NewSelect().
		Model(member).
		Where("org_id = ? AND member_id = ?", orgID, memberID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown member")
	}
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return member.Class, nil
}

func (h *Handler) requireMembersExist(ctx context.Context, orgID int64, memberIDs []int64) error {
	count, err := h.db.NewSelect().
		Model((*models.Member)(nil)).
		Where("org_id = ?", orgID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if count != len(memberIDs) {
		return echo.NewHTTPError(http.StatusBadRequest, "group contains unknown members")
	}
	return nil
}

// intakeHTTPError maps intake validation failures onto HTTP statuses:
// duplicates conflict, everything else is a bad request.
func intakeHTTPError(err error) error {
	if errors.Is(err, lottery.ErrDuplicateEntry) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
