package instances

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book instance routes on a pre-configured
// group. Unlike the rest of the catalog, copies are only visible to signed in
// users with catalog access.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	instanceService := NewService(db)

	h := &handler{
		instanceService: instanceService,
	}

	read := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead),
	}
	write := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite),
	}

	g.GET("", h.list, read...)
	g.GET("/:id", h.retrieve, read...)
	g.POST("", h.create, write...)
	g.POST("/:id", h.update, write...)
	g.DELETE("/:id", h.delete, write...)

	return instanceService
}
