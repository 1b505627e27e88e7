package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/export"
	"github.com/worklog-hq/worklog-backend/internal/auth"
)

func (h *Handler) myDashboard(c *gin.Context) {
	date, ok := optionalDate(c, "date")
	if !ok {
		return
	}
	scope := dashboard.ParsePendingScope(c.Query("pending_scope"))

	view, err := h.svc.MyDashboard(c.Request.Context(), auth.UserDBID(c), date, scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"date":       view.Date.String(),
		"activities": toActivityViews(view.Activities),
		"stats":      toStatsView(view.Stats),
	})
}

func (h *Handler) daily(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	order := dashboard.OrderInput
	switch c.Query("order") {
	case "", "input":
	case "priority":
		order = dashboard.OrderPriority
	case "start":
		order = dashboard.OrderStartTime
	default:
		badRequest(c, "order must be input, priority or start")
		return
	}

	groups, err := h.svc.DailyGroups(c.Request.Context(), auth.UserDBID(c), from, to, order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "days": toDailyGroupViews(groups)})
}

func (h *Handler) exportCSV(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	groups, err := h.svc.DailyGroups(c.Request.Context(), auth.UserDBID(c), from, to, dashboard.OrderStartTime)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="activities.csv"`)
	c.Status(http.StatusOK)
	if err := export.DailyGroupsCSV(c.Writer, groups); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) teamDashboard(c *gin.Context) {
	date, ok := optionalDate(c, "date")
	if !ok {
		return
	}
	scope := dashboard.ParsePendingScope(c.Query("pending_scope"))

	stats, err := h.svc.TeamDashboard(c.Request.Context(), auth.UserDBID(c), date, scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": toStatsView(stats)})
}

func (h *Handler) teamToday(c *gin.Context) {
	date, ok := optionalDate(c, "date")
	if !ok {
		return
	}

	view, err := h.svc.TeamToday(c.Request.Context(), auth.UserDBID(c), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"date":         view.Date.String(),
		"submitted":    view.Submitted,
		"active_users": view.ActiveUsers,
		"projects":     toProjectSummaryViews(view.Projects),
	})
}
