package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) *Service {
	catalogService := NewService(db)

	h := &handler{
		catalogService: catalogService,
	}

	g.GET("/stats", h.stats)

	return catalogService
}
