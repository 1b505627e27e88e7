package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "invalid_time_format", "invalid_date", "invalid_window", "invalid_status", "invalid_priority":
		return http.StatusBadRequest
	case "past_date":
		return http.StatusUnprocessableEntity
	case "overlaps_existing_activity", "illegal_transition":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the structured detail the client needs to
// explain it: the offending field, the conflicting activity or the rejected
// transition.
func writeError(c *gin.Context, err error) {
	kind := domain.ErrorKind(err)
	status := statusFor(kind)

	body := gin.H{"ok": false, "code": kind, "error": err.Error()}
	if status == http.StatusInternalServerError {
		service.NewLogger(c.Request.Context()).LogErrorf(c.FullPath(), "error=%v", err)
		body["error"] = "internal error"
	}

	var tfe *domain.TimeFormatError
	if errors.As(err, &tfe) && tfe.Field != "" {
		body["field"] = tfe.Field
	}
	var oe *domain.OverlapError
	if errors.As(err, &oe) && oe.ConflictID != "" {
		body["conflict_id"] = oe.ConflictID
	}
	var te *domain.TransitionError
	if errors.As(err, &te) {
		body["from"] = string(te.From)
		body["to"] = string(te.To)
	}

	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_request", "error": msg})
}
