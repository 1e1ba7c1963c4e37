package languages

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	languageService *Service
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Language")
	}
	return id, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLanguagesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	langs, total, err := h.languageService.ListLanguagesWithTotal(ctx, ListLanguagesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Items []*models.Language `json:"items"`
		Total int                `json:"total"`
	}{langs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	lang, err := h.languageService.RetrieveLanguage(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, lang))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// An empty body creates an unnamed language.
	c.Set("disallow_empty_body", false)
	params := LanguagePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	lang := &models.Language{Name: params.name()}
	if err := h.languageService.CreateLanguage(ctx, lang); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, lang))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	params := LanguagePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	lang, err := h.languageService.RetrieveLanguage(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	lang.Name = params.name()
	if err := h.languageService.UpdateLanguage(ctx, lang, UpdateLanguageOptions{Columns: []string{"name"}}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, lang))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.languageService.DeleteLanguage(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
