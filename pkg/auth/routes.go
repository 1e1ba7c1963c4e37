package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the service they share.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) *Service {
	authService := NewService(db, jwtSecret)
	RegisterRoutesWithService(e.Group("/auth"), authService)
	return authService
}

// RegisterRoutesWithService registers the auth routes on g using an existing
// service.
func RegisterRoutesWithService(g *echo.Group, authService *Service) {
	h := &handler{
		authService: authService,
	}

	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/status", h.status)
	g.POST("/setup", h.setup)
	g.GET("/me", h.me)
}
