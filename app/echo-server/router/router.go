package router

import (
	"movieReco/internal/middleware"
	"movieReco/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	users := api.Group("/users")

	users.POST("/register", handler.Register)
	users.GET("/me", handler.Me, authRequired)
	users.GET("/stats", handler.MyStats, authRequired)
	users.GET("/:id/stats", handler.UserStats, authRequired, middleware.SelfOrAdmin())

	api.POST("/auth/login", handler.Login)
}

func SetRecommendRoutes(api *echo.Group, handler *rest.RecommendHandler, authRequired echo.MiddlewareFunc) {
	api.POST("/recommendations", handler.Recommend, authRequired)
	api.GET("/search", handler.Search, authRequired)
	api.GET("/items/:id", handler.Item)
}

func SetFeedbackRoutes(api *echo.Group, handler *rest.FeedbackHandler) {
	fb := api.Group("/feedback", middleware.AuthMiddleware())
	fb.POST("", handler.Submit)
	fb.POST("/click", handler.TrackClick)
}

func SetPosterRoutes(api *echo.Group, handler *rest.PosterHandler) {
	api.GET("/posters", handler.Get)
}

func SetAdminRoutes(e *echo.Echo, api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.POST("/index/refresh", handler.RefreshIndex)

	e.GET("/healthz", handler.Health)
}
