package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
	"github.com/worklog-hq/worklog-backend/internal/auth"
)

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	a, err := h.svc.Create(c.Request.Context(), auth.UserDBID(c), service.CreateInput{
		Date:         req.Date,
		StartTime:    req.HoraInicio,
		EndTime:      req.HoraFin,
		ProjectID:    strings.TrimSpace(req.ProjectID),
		Priority:     req.Priority,
		Description:  strings.TrimSpace(req.Description),
		Observations: req.Observations,
		Results:      req.Results,
		Draft:        req.Draft,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "activity": toActivityView(*a)})
}

func (h *Handler) list(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	items, err := h.svc.ListMine(c.Request.Context(), auth.UserDBID(c), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "activities": toActivityViews(items)})
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "activity": toActivityView(*a)})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	a, err := h.svc.Update(c.Request.Context(), auth.UserDBID(c), c.Param("id"), service.UpdateInput{
		Date:         req.Date,
		StartTime:    req.HoraInicio,
		EndTime:      req.HoraFin,
		ProjectID:    req.ProjectID,
		Priority:     req.Priority,
		Description:  req.Description,
		Observations: req.Observations,
		Results:      req.Results,
		Status:       req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "activity": toActivityView(*a)})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserDBID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// action wraps one of the single-activity lifecycle operations.
func (h *Handler) action(op func(ctx context.Context, ownerID, id string) (*domain.Activity, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := op(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "activity": toActivityView(*a)})
	}
}

func (h *Handler) submitMany(c *gin.Context) {
	var req batchSubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	res := h.svc.SubmitMany(c.Request.Context(), auth.UserDBID(c), req.IDs)

	failed := make([]batchFailureView, 0, len(res.Failed))
	for _, f := range res.Failed {
		kind := domain.ErrorKind(f.Err)
		msg := f.Err.Error()
		if statusFor(kind) == http.StatusInternalServerError {
			service.NewLogger(c.Request.Context()).LogErrorf("submit_many", "id=%s error=%v", f.ID, f.Err)
			msg = "internal error"
		}
		failed = append(failed, batchFailureView{ID: f.ID, Code: kind, Error: msg})
	}
	c.JSON(http.StatusOK, gin.H{"ok": len(failed) == 0, "succeeded": res.Succeeded, "failed": failed})
}

// dateRange reads optional from/to query parameters. It writes the error
// response itself and reports ok=false on a malformed date.
func dateRange(c *gin.Context) (from, to *domain.Date, ok bool) {
	from, ok = optionalDate(c, "from")
	if !ok {
		return nil, nil, false
	}
	to, ok = optionalDate(c, "to")
	if !ok {
		return nil, nil, false
	}
	return from, to, true
}

func optionalDate(c *gin.Context, name string) (*domain.Date, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return &d, true
}
