package instances

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	instanceService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListInstancesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	from, err := models.ParseDate(params.DueBackFrom)
	if err != nil {
		return errcodes.ValidationError("Invalid due_back_from date")
	}
	to, err := models.ParseDate(params.DueBackTo)
	if err != nil {
		return errcodes.ValidationError("Invalid due_back_to date")
	}

	opts := ListInstancesOptions{
		Limit:       &params.Limit,
		Offset:      &params.Offset,
		BookID:      params.BookID,
		BorrowerID:  params.BorrowerID,
		DueBackFrom: from,
		DueBackTo:   to,
	}
	if params.Status != nil {
		opts.Statuses = []string{*params.Status}
	}

	instances, total, err := h.instanceService.ListInstancesWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Items []*models.BookInstance `json:"items"`
		Total int                    `json:"total"`
	}{instances, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: c.Param("id")})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance := &models.BookInstance{}
	if err := params.Apply(instance); err != nil {
		return err
	}
	if err := h.instanceService.CreateInstance(ctx, instance); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book instance created", logger.Data{
		"instance_id": instance.ID,
		"book_id":     instance.BookID,
	})

	instance, err := h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: instance.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, instance))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	params := UpdateInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance, err := h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns, err := params.Apply(instance)
	if err != nil {
		return err
	}
	if err := h.instanceService.UpdateInstance(ctx, instance, UpdateInstanceOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	instance, err = h.instanceService.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.instanceService.DeleteInstance(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book instance deleted", logger.Data{"instance_id": id})
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
