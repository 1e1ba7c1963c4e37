package testutils

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// TestJWTSecret signs the session cookies of test clients.
const TestJWTSecret = "test-secret"

// NewTestDB returns a migrated in-memory database that is closed when the
// test finishes.
func NewTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewEcho returns an echo instance configured like the server's.
func NewEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	return e
}

func CreateUser(t *testing.T, db *bun.DB, roleName, username string) *models.User {
	t.Helper()
	user, err := InsertUser(context.Background(), db, roleName, username, "password123")
	require.NoError(t, err)
	return user
}

func CreateAuthor(t *testing.T, db *bun.DB, firstName, lastName string) *models.Author {
	t.Helper()
	author, err := InsertAuthor(context.Background(), db, firstName, lastName)
	require.NoError(t, err)
	return author
}

func CreateLanguage(t *testing.T, db *bun.DB, name string) *models.Language {
	t.Helper()
	lang, err := InsertLanguage(context.Background(), db, name)
	require.NoError(t, err)
	return lang
}

func CreateGenre(t *testing.T, db *bun.DB, name string) *models.Genre {
	t.Helper()
	genre, err := InsertGenre(context.Background(), db, name)
	require.NoError(t, err)
	return genre
}

func CreateBook(t *testing.T, db *bun.DB, book *models.Book, genreIDs ...int) *models.Book {
	t.Helper()
	book, err := InsertBook(context.Background(), db, book, genreIDs...)
	require.NoError(t, err)
	return book
}

func CreateInstance(t *testing.T, db *bun.DB, bookID int, status string, dueBack *time.Time, borrower *models.User) *models.BookInstance {
	t.Helper()
	instance, err := InsertInstance(context.Background(), db, bookID, status, dueBack, borrower)
	require.NoError(t, err)
	return instance
}

// Date returns a pointer to midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// Client sends requests through an echo instance, optionally signed in as a
// user.
type Client struct {
	E       *echo.Echo
	authSvc *auth.Service
}

func NewClient(e *echo.Echo, db *bun.DB) *Client {
	return &Client{E: e, authSvc: auth.NewService(db, TestJWTSecret)}
}

// Middleware returns auth middleware that trusts this client's cookies.
func (cl *Client) Middleware() *auth.Middleware {
	return auth.NewMiddleware(cl.authSvc)
}

func (cl *Client) send(t *testing.T, req *http.Request, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if as != nil {
		token, err := cl.authSvc.GenerateToken(as)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	cl.E.ServeHTTP(rec, req)
	return rec
}

// JSON sends body (if any) as JSON.
func (cl *Client) JSON(t *testing.T, method, path, body string, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return cl.send(t, req, as)
}

// Page requests path the way a browser would.
func (cl *Client) Page(t *testing.T, path string, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	return cl.send(t, req, as)
}

// Form submits an HTML form.
func (cl *Client) Form(t *testing.T, path string, form url.Values, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	return cl.send(t, req, as)
}
