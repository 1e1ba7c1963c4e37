package loans

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	loanService *Service
}

func (h *handler) mine(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListUserLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loans, page, err := h.loanService.ListUserLoans(ctx, user.ID, params.Page)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, UserLoansResponse{
		Items:    loans,
		Total:    page.Total,
		Page:     page.Number,
		NumPages: page.NumPages(),
	}))
}

func (h *handler) borrowed(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBorrowedQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loans, total, err := h.loanService.ListBorrowed(ctx, &params.Limit, &params.Offset)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Items []*models.BookInstance `json:"items"`
		Total int                    `json:"total"`
	}{loans, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) renewal(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.loanService.RetrieveInstance(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	proposed := h.loanService.ProposedRenewalDate()
	return errors.WithStack(c.JSON(http.StatusOK, RenewalResponse{
		Instance:            instance,
		ProposedRenewalDate: models.FormatDate(&proposed),
	}))
}

func (h *handler) renew(c echo.Context) error {
	ctx := c.Request().Context()

	params := RenewLoanPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	date, err := params.Date()
	if err != nil {
		return err
	}

	instance, err := h.loanService.Renew(ctx, c.Param("id"), date)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("loan renewed", logger.Data{
		"instance_id": instance.ID,
		"due_back":    models.FormatDate(instance.DueBack),
	})
	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) checkout(c echo.Context) error {
	ctx := c.Request().Context()

	params := CheckoutPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	dueBack, err := models.ParseDate(params.DueBack)
	if err != nil {
		return errcodes.ValidationError("Invalid due back date")
	}

	instance, err := h.loanService.Checkout(ctx, c.Param("id"), params.BorrowerID, dueBack)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book instance lent", logger.Data{
		"instance_id": instance.ID,
		"borrower_id": params.BorrowerID,
	})
	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) markReturned(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.loanService.Return(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book instance returned", logger.Data{"instance_id": instance.ID})
	return errors.WithStack(c.JSON(http.StatusOK, instance))
}
