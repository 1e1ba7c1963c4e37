package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/catalog"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/instances"
	"github.com/locallibrary/catalog/pkg/languages"
	"github.com/locallibrary/catalog/pkg/loans"
	"github.com/locallibrary/catalog/pkg/pages"
	"github.com/locallibrary/catalog/pkg/roles"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/locallibrary/catalog/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	policy := loans.PolicyFromConfig(cfg)
	registerAPIRoutes(e, db, authMiddleware, policy)

	if err := pages.RegisterRoutes(e, db, authService, loans.NewService(db, policy)); err != nil {
		return nil, errors.WithStack(err)
	}
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/catalog/")
	})

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

// registerAPIRoutes registers the JSON API. Catalog reads are public, so the
// groups only identify the user; each package guards its own writes.
func registerAPIRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware, policy loans.Policy) {
	api := e.Group("/api", authMiddleware.AuthenticateOptional)

	authors.RegisterRoutesWithGroup(api.Group("/authors"), db, authMiddleware)
	languages.RegisterRoutesWithGroup(api.Group("/languages"), db, authMiddleware)
	genres.RegisterRoutesWithGroup(api.Group("/genres"), db, authMiddleware)
	books.RegisterRoutesWithGroup(api.Group("/books"), db, authMiddleware)
	instances.RegisterRoutesWithGroup(api.Group("/instances"), db, authMiddleware)
	loans.RegisterRoutesWithGroup(api.Group("/loans"), db, authMiddleware, policy)
	catalog.RegisterRoutesWithGroup(api.Group("/catalog"), db)

	users.RegisterRoutesWithGroup(api, db, authMiddleware)
	roles.RegisterRoutesWithGroup(api, db, authMiddleware)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
