package users

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers all user routes on g.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	return registerRoutes(g, NewService(db), authMiddleware)
}

func registerRoutes(g *echo.Group, userService *Service, authMiddleware *auth.Middleware) *Service {
	h := &handler{
		userService: userService,
	}

	users := g.Group("/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("", h.list, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead))
	users.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead))

	users.POST("", h.create, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))
	users.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))
	users.DELETE("/:id", h.deactivate, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))

	// Authenticated users can reset their own password; users:write is
	// required for anybody else's.
	users.POST("/:id/reset-password", h.resetPassword)

	return userService
}
