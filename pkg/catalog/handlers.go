package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	catalogService *Service
}

func (h *handler) stats(c echo.Context) error {
	stats, err := h.catalogService.Stats(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, stats))
}
