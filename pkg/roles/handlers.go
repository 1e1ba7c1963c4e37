package roles

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
	roleService *Service
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Role")
	}
	return id, nil
}

// ListRolesResponse is one page of roles with their permissions.
type ListRolesResponse struct {
	Items []*models.Role `json:"items"`
	Total int            `json:"total"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListRolesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	roleList, total, err := h.roleService.List(ctx, ListOptions(params))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListRolesResponse{Items: roleList, Total: total}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	role, err := h.roleService.Retrieve(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, role))
}

// create adds a custom role, e.g. a volunteer who may browse the catalog and
// see loans but not edit either.
func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role, err := h.roleService.Create(ctx, params.Name, params.Permissions)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("role created", logger.Data{"role_id": role.ID, "name": role.Name})
	return errors.WithStack(c.JSON(http.StatusCreated, role))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	params := UpdateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role, err := h.roleService.Update(ctx, id, params.Name, params.Permissions)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("role updated", logger.Data{"role_id": role.ID})
	return errors.WithStack(c.JSON(http.StatusOK, role))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.roleService.Delete(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("role deleted", logger.Data{"role_id": id})
	return c.NoContent(http.StatusNoContent)
}
