package genres

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers genre routes on a pre-configured group.
// Reads are public; the group is expected to run AuthenticateOptional.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	genreService := NewService(db)

	h := &handler{
		genreService: genreService,
	}

	write := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/books", h.books)
	g.POST("", h.create, write...)
	g.POST("/:id", h.update, write...)
	g.DELETE("/orphans", h.deleteOrphans, write...)
	g.DELETE("/:id", h.deleteGenre, write...)
	g.POST("/:id/merge", h.merge, write...)

	return genreService
}
