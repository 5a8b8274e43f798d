package httptransport

import (
	"log/slog"

	"github.com/abekov/todo-api/internal/transport/http/handler"
	"github.com/abekov/todo-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, todoHandler *handler.TodoHandler, authenticator middleware.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(authenticator)

	users := r.Group("/users")
	users.POST("", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/me", authMW, authHandler.Me)
	users.DELETE("/me/token", authMW, authHandler.Logout)

	// Every todo route is scoped to the authenticated caller.
	todos := r.Group("/todos", authMW)
	todos.POST("", todoHandler.Create)
	todos.GET("", todoHandler.List)
	todos.GET("/:id", todoHandler.GetByID)
	todos.PATCH("/:id", todoHandler.Update)
	todos.DELETE("/:id", todoHandler.Delete)

	return r
}
