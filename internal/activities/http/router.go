package http

import "github.com/gin-gonic/gin"

// Register attaches activity routes to the given groups. write runs in front
// of every mutating route (rate limiting).
func (h *Handler) Register(activities, team *gin.RouterGroup, write ...gin.HandlerFunc) {
	w := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), hf)
	}

	activities.POST("", w(h.create)...)
	activities.GET("", h.list)
	activities.POST("/submit", w(h.submitMany)...)
	activities.GET("/dashboard", h.myDashboard)
	activities.GET("/daily", h.daily)
	activities.GET("/export.csv", h.exportCSV)
	activities.GET("/:id", h.get)
	activities.PATCH("/:id", w(h.update)...)
	activities.DELETE("/:id", w(h.delete)...)
	activities.POST("/:id/start", w(h.action(h.svc.Start))...)
	activities.POST("/:id/complete", w(h.action(h.svc.Complete))...)
	activities.POST("/:id/cancel", w(h.action(h.svc.Cancel))...)
	activities.POST("/:id/submit", w(h.action(h.svc.Submit))...)

	team.GET("/dashboard", h.teamDashboard)
	team.GET("/today", h.teamToday)
}
