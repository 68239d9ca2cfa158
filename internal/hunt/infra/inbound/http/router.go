package http

import "github.com/gin-gonic/gin"

// RegisterHuntRoutes registra las rutas HTTP de hunts bajo /api/v1/scavhunt.
func RegisterHuntRoutes(r gin.IRouter, handler *HuntHandler) {
	hunts := r.Group("/api/v1/scavhunt")
	{
		hunts.GET("", handler.ListHunts)
		hunts.POST("", handler.CreateHunt)
		hunts.GET("/stats/daily", handler.DailyStats)
		hunts.GET("/:id", handler.GetHunt)
		hunts.PATCH("/:id", handler.UpdateHunt)
		hunts.DELETE("/:id", handler.DeleteHunt)
	}
}
