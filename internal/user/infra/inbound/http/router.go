package http

import "github.com/gin-gonic/gin"

// RegisterUserRoutes registra las rutas HTTP de usuarios bajo /api/v1/users.
func RegisterUserRoutes(r gin.IRouter, handler *UserHandler) {
	users := r.Group("/api/v1/users")
	{
		users.GET("", handler.ListUsers)
		users.POST("", handler.CreateUser)
		users.GET("/:id", handler.GetUser)
		users.PATCH("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}
}
