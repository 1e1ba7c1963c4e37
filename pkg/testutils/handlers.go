package testutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" default:"admin" validate:"oneof=admin librarian member"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// createUser creates a test user with the requested role.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := InsertUser(ctx, h.db, req.Role, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     req.Role,
	})
}

// seedCatalogResponse lists what seedCatalog created.
type seedCatalogResponse struct {
	AuthorID   int    `json:"author_id"`
	BookID     int    `json:"book_id"`
	InstanceID string `json:"instance_id"`
	GenreID    int    `json:"genre_id"`
	LanguageID int    `json:"language_id"`
}

// seedCatalog creates one author, genre, language and book with an available
// copy.
// POST /test/catalog.
func (h *handler) seedCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := InsertAuthor(ctx, h.db, "Ursula", "Le Guin")
	if err != nil {
		return err
	}
	genre, err := InsertGenre(ctx, h.db, "Fantasy")
	if err != nil {
		return err
	}
	lang, err := InsertLanguage(ctx, h.db, "English")
	if err != nil {
		return err
	}
	book, err := InsertBook(ctx, h.db, &models.Book{
		Title:      "A Wizard of Earthsea",
		AuthorID:   &author.ID,
		Summary:    "A young mage learns the cost of power.",
		ISBN:       "9780547773742",
		LanguageID: &lang.ID,
	}, genre.ID)
	if err != nil {
		return err
	}
	instance, err := InsertInstance(ctx, h.db, book.ID, models.LoanStatusAvailable, nil, nil)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, seedCatalogResponse{
		AuthorID:   author.ID,
		BookID:     book.ID,
		InstanceID: instance.ID,
		GenreID:    genre.ID,
		LanguageID: lang.ID,
	})
}

// deleteAllResponse is the response body for the reset endpoints.
type deleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// deleteCatalog removes every catalog row, copies first.
// DELETE /test/catalog.
func (h *handler) deleteCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	deleted := 0
	for _, table := range []string{"book_instances", "book_genres", "books", "genres", "languages", "authors"} {
		result, err := h.db.NewDelete().
			TableExpr(table).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to delete %s", table)
		}
		n, _ := result.RowsAffected()
		deleted += int(n)
	}

	return c.JSON(http.StatusOK, deleteAllResponse{Deleted: deleted})
}

// deleteAllUsers deletes all users from the database.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	// Loans point at users.
	_, err := h.db.NewUpdate().
		Model((*models.BookInstance)(nil)).
		Set("borrower_id = NULL").
		Where("borrower_id IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to clear borrowers")
	}

	result, err := h.db.NewDelete().
		Model((*models.User)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	deleted, _ := result.RowsAffected()

	return c.JSON(http.StatusOK, deleteAllResponse{
		Deleted: int(deleted),
	})
}
