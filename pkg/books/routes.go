package books

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	write := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, write...)
	g.POST("/:id", h.update, write...)
	g.DELETE("/:id", h.delete, write...)

	return bookService
}
