package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	activityhttp "github.com/worklog-hq/worklog-backend/internal/activities/http"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
	httpapi "github.com/worklog-hq/worklog-backend/internal/api/http"
	"github.com/worklog-hq/worklog-backend/internal/api/http/middleware"
	"github.com/worklog-hq/worklog-backend/internal/auth"
	authmw "github.com/worklog-hq/worklog-backend/internal/auth/middleware"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	// DB and Cache back the health check; leave nil when not wired.
	DB    httpapi.Pinger
	Cache httpapi.Pinger

	// Verifier checks Firebase ID tokens. Nil selects header based dev auth.
	Verifier authmw.TokenVerifier
	Users    auth.UserEnsurer

	Activities *service.ActivityService
	Limiter    *middleware.RateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-User-Id", "X-User-Email"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Cache)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if dep.Verifier != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Verifier))
	} else {
		api.Use(auth.DevUser())
	}
	api.Use(auth.WithUser(dep.Users))

	var write []gin.HandlerFunc
	if dep.Limiter != nil {
		write = append(write, middleware.RateLimitMiddleware(dep.Limiter, auth.UserDBID))
	}

	h := activityhttp.New(dep.Activities)
	h.Register(api.Group("/activities"), api.Group("/team"), write...)

	return r
}
