package loans

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers loan routes on a pre-configured group.
// Everything needs a signed in user; managing other people's loans needs the
// loans:write permission.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, policy Policy) *Service {
	loanService := NewService(db, policy)
	registerRoutes(g, loanService, authMiddleware)
	return loanService
}

func registerRoutes(g *echo.Group, loanService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		loanService: loanService,
	}

	manage := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceLoans, models.OperationRead),
		authMiddleware.RequirePermission(models.ResourceLoans, models.OperationWrite),
	}

	g.GET("/mine", h.mine, authMiddleware.Authenticate)
	g.GET("/borrowed", h.borrowed, manage...)
	g.GET("/:id/renew", h.renewal, manage...)
	g.POST("/:id/renew", h.renew, manage...)
	g.POST("/:id/checkout", h.checkout, manage...)
	g.POST("/:id/return", h.markReturned, manage...)
}
