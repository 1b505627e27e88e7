package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-hq/worklog-backend/internal/users"
)

// UserEnsurer maps an identity-provider uid to a local user row.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// WithUser resolves the authenticated firebase uid to the local user id and
// stores it under CtxUserDBID. It must run after FirebaseAuthMiddleware or
// DevUser.
func WithUser(userRepo UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := UserFirebaseUID(c)
		if fuid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing user"})
			c.Abort()
			return
		}

		uid, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetString(CtxEmail),
			DisplayName: c.GetHeader("X-User-Name"),
			PhotoURL:    c.GetHeader("X-User-Photo"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}
