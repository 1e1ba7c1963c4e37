package pages

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/catalog"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/languages"
	"github.com/locallibrary/catalog/pkg/loans"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the HTML catalog under /catalog and installs the
// page renderer on e.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authService *auth.Service, loanService *loans.Service) error {
	renderer, err := NewRenderer()
	if err != nil {
		return errors.WithStack(err)
	}
	e.Renderer = renderer

	h := &handler{
		authService:     authService,
		authorService:   authors.NewService(db),
		bookService:     books.NewService(db),
		catalogService:  catalog.NewService(db),
		genreService:    genres.NewService(db),
		languageService: languages.NewService(db),
		loanService:     loanService,
	}

	authMiddleware := auth.NewMiddleware(authService)
	g := e.Group("/catalog", authMiddleware.AuthenticateOptional)

	loggedIn := authMiddleware.RequireLogin
	canMarkReturned := []echo.MiddlewareFunc{
		loggedIn,
		authMiddleware.RequirePermission(models.ResourceLoans, models.OperationRead),
		authMiddleware.RequirePermission(models.ResourceLoans, models.OperationWrite),
	}
	canEdit := []echo.MiddlewareFunc{
		loggedIn,
		authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite),
	}

	g.GET("/", h.index)
	g.GET("/books/", h.bookList)
	g.GET("/book/:id", h.bookDetail)
	g.GET("/authors/", h.authorList)
	g.GET("/author/:id", h.authorDetail)

	g.GET("/mybooks/", h.myLoans, loggedIn)
	g.GET("/borrowed/", h.borrowed, canMarkReturned...)
	g.GET("/book/:id/renew/", h.renewalForm, canMarkReturned...)
	g.POST("/book/:id/renew/", h.renew, canMarkReturned...)

	g.GET("/author/create/", h.authorCreateForm, canEdit...)
	g.POST("/author/create/", h.authorCreate, canEdit...)
	g.GET("/author/:id/update/", h.authorUpdateForm, canEdit...)
	g.POST("/author/:id/update/", h.authorUpdate, canEdit...)
	g.GET("/author/:id/delete/", h.authorDeleteForm, canEdit...)
	g.POST("/author/:id/delete/", h.authorDelete, canEdit...)

	g.GET("/book/create/", h.bookCreateForm, canEdit...)
	g.POST("/book/create/", h.bookCreate, canEdit...)
	g.GET("/book/:id/update/", h.bookUpdateForm, canEdit...)
	g.POST("/book/:id/update/", h.bookUpdate, canEdit...)
	g.GET("/book/:id/delete/", h.bookDeleteForm, canEdit...)
	g.POST("/book/:id/delete/", h.bookDelete, canEdit...)

	g.GET("/login", h.loginForm)
	g.POST("/login", h.login)
	g.GET("/logout", h.logout)
	g.POST("/logout", h.logout)

	return nil
}
