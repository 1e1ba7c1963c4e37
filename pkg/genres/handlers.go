package genres

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	genreService *Service
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Genre")
	}
	return id, nil
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	genre, err := h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, genre))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListGenresQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genres, total, err := h.genreService.ListGenresWithTotal(ctx, ListGenresOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"items": genres,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateGenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genre := &models.Genre{Name: params.Name}
	if err := h.genreService.CreateGenre(ctx, genre); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("genre created", logger.Data{"genre_id": genre.ID})
	return errors.WithStack(c.JSON(http.StatusCreated, genre))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	params := UpdateGenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genre, err := h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if params.Name == nil {
		return errors.WithStack(c.JSON(http.StatusOK, genre))
	}

	result, err := h.genreService.RenameGenre(ctx, genre, *params.Name)
	if err != nil {
		return errors.WithStack(err)
	}
	if result.ID != id {
		logger.FromContext(ctx).Info("genre merged by rename", logger.Data{"source_id": id, "target_id": result.ID})
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) books(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if _, err := h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &id}); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.genreService.GetBooks(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) merge(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	params := MergeGenresPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Merge source genre into target (this) genre
	err = h.genreService.MergeGenres(ctx, id, params.SourceID)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("genres merged", logger.Data{"source_id": params.SourceID, "target_id": id})
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) deleteGenre(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	err = h.genreService.DeleteGenre(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// deleteOrphans removes every genre that no book uses.
func (h *handler) deleteOrphans(c echo.Context) error {
	ctx := c.Request().Context()

	n, err := h.genreService.CleanupOrphanedGenres(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("orphaned genres deleted", logger.Data{"deleted": n})
	return errors.WithStack(c.JSON(http.StatusOK, DeleteOrphansResponse{Deleted: n}))
}
