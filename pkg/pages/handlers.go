package pages

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/catalog"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/languages"
	"github.com/locallibrary/catalog/pkg/loans"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	visitsCookie    = "num_visits"
	visitsCookieAge = 14 * 24 * time.Hour
	homePath        = "/catalog/"
	badLoginMessage = "Your username and password didn't match. Please try again."
)

type handler struct {
	authService     *auth.Service
	authorService   *authors.Service
	bookService     *books.Service
	catalogService  *catalog.Service
	genreService    *genres.Service
	languageService *languages.Service
	loanService     *loans.Service
}

// formError returns the message of errors that should be shown next to a
// form instead of replacing the page.
func formError(err error) (string, int, bool) {
	var e *errcodes.Error
	if !errors.As(err, &e) {
		return "", 0, false
	}
	switch e.HTTPCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return e.Message, e.HTTPCode, true
	}
	return "", 0, false
}

func parseIntID(c echo.Context, resource string) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound(resource)
	}
	return id, nil
}

// safeNext only allows redirects to paths on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return homePath
	}
	return next
}

func (h *handler) index(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.catalogService.Stats(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	// Visits before this one, counted per browser.
	visits := 0
	if cookie, err := c.Cookie(visitsCookie); err == nil {
		if n, err := strconv.Atoi(cookie.Value); err == nil && n > 0 {
			visits = n
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     visitsCookie,
		Value:    strconv.Itoa(visits + 1),
		Path:     homePath,
		MaxAge:   int(visitsCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Render(http.StatusOK, "index.html", echo.Map{
		"Stats":     stats,
		"NumVisits": visits,
	})
}

func (h *handler) bookList(c echo.Context) error {
	bookList, err := h.bookService.ListBooks(c.Request().Context(), books.ListBooksOptions{})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.Render(http.StatusOK, "book_list.html", echo.Map{"Books": bookList})
}

func (h *handler) bookDetail(c echo.Context) error {
	id, err := parseIntID(c, "Book")
	if err != nil {
		return err
	}

	book, err := h.bookService.RetrieveBook(c.Request().Context(), books.RetrieveBookOptions{
		ID:               &id,
		IncludeInstances: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "book_detail.html", echo.Map{"Book": book})
}

func (h *handler) authorList(c echo.Context) error {
	authorList, err := h.authorService.ListAuthors(c.Request().Context(), authors.ListAuthorsOptions{})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.Render(http.StatusOK, "author_list.html", echo.Map{"Authors": authorList})
}

func (h *handler) authorDetail(c echo.Context) error {
	id, err := parseIntID(c, "Author")
	if err != nil {
		return err
	}

	author, err := h.authorService.RetrieveAuthor(c.Request().Context(), authors.RetrieveAuthorOptions{
		ID:           &id,
		IncludeBooks: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "author_detail.html", echo.Map{"Author": author})
}

func (h *handler) myLoans(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := PageQuery{}
	if err := c.Bind(&params); err != nil {
		return errcodes.NotFound("Page")
	}

	userLoans, page, err := h.loanService.ListUserLoans(ctx, user.ID, params.Page)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "my_loans.html", echo.Map{
		"Loans": userLoans,
		"Page":  page,
		"Today": h.loanService.Today(),
	})
}

func (h *handler) borrowed(c echo.Context) error {
	borrowed, _, err := h.loanService.ListBorrowed(c.Request().Context(), nil, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "borrowed.html", echo.Map{
		"Loans": borrowed,
		"Today": h.loanService.Today(),
	})
}

func (h *handler) renderRenewal(c echo.Context, code int, instance *models.BookInstance, renewalDate, errMsg string) error {
	policy := h.loanService.Policy()
	return c.Render(code, "book_renew.html", echo.Map{
		"Instance":    instance,
		"RenewalDate": renewalDate,
		"Error":       errMsg,
		"Today":       h.loanService.Today(),
		"LoanWeeks":   policy.LoanWeeks,
		"MaxWeeks":    policy.MaxWeeks,
	})
}

func (h *handler) renewalForm(c echo.Context) error {
	instance, err := h.loanService.RetrieveInstance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	proposed := h.loanService.ProposedRenewalDate()
	return h.renderRenewal(c, http.StatusOK, instance, models.FormatDate(&proposed), "")
}

func (h *handler) renew(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.loanService.RetrieveInstance(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	params := loans.RenewLoanPayload{}
	if err := c.Bind(&params); err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderRenewal(c, code, instance, params.RenewalDate, msg)
		}
		return errors.WithStack(err)
	}

	date, err := params.Date()
	if err == nil {
		_, err = h.loanService.Renew(ctx, instance.ID, date)
	}
	if err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderRenewal(c, code, instance, params.RenewalDate, msg)
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("loan renewed", logger.Data{
		"instance_id": instance.ID,
		"due_back":    params.RenewalDate,
	})
	return c.Redirect(http.StatusFound, "/catalog/borrowed/")
}

func (h *handler) renderLogin(c echo.Context, username, next, errMsg string) error {
	return c.Render(http.StatusOK, "login.html", echo.Map{
		"Username": username,
		"Next":     next,
		"Error":    errMsg,
	})
}

func (h *handler) loginForm(c echo.Context) error {
	return h.renderLogin(c, "", c.QueryParam("next"), "")
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginForm{}
	if err := c.Bind(&params); err != nil {
		if _, _, ok := formError(err); ok {
			return h.renderLogin(c, params.Username, params.Next, badLoginMessage)
		}
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		var e *errcodes.Error
		if errors.As(err, &e) && e.HTTPCode == http.StatusUnauthorized {
			return h.renderLogin(c, params.Username, params.Next, badLoginMessage)
		}
		return errors.WithStack(err)
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	auth.SetSessionCookie(c, token)

	return c.Redirect(http.StatusFound, safeNext(params.Next))
}

func (h *handler) logout(c echo.Context) error {
	auth.ClearSessionCookie(c)
	return c.Redirect(http.StatusFound, homePath)
}
