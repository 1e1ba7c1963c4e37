package pages

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/languages"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samber/lo"
)

func authorPath(id int) string {
	return "/catalog/author/" + strconv.Itoa(id)
}

func bookPath(id int) string {
	return "/catalog/book/" + strconv.Itoa(id)
}

func (h *handler) renderAuthorForm(c echo.Context, code int, author *models.Author, form authors.CreateAuthorPayload, errMsg string) error {
	action := "/catalog/author/create/"
	if author != nil {
		action = authorPath(author.ID) + "/update/"
	}
	return c.Render(code, "author_form.html", echo.Map{
		"Author": author,
		"Form":   form,
		"Action": action,
		"Error":  errMsg,
	})
}

func (h *handler) retrieveAuthor(c echo.Context) (*models.Author, error) {
	id, err := parseIntID(c, "Author")
	if err != nil {
		return nil, err
	}
	author, err := h.authorService.RetrieveAuthor(c.Request().Context(), authors.RetrieveAuthorOptions{ID: &id})
	return author, errors.WithStack(err)
}

func (h *handler) authorCreateForm(c echo.Context) error {
	today := h.loanService.Today()
	return h.renderAuthorForm(c, http.StatusOK, nil, authors.CreateAuthorPayload{
		DateOfDeath: models.FormatDate(&today),
	}, "")
}

func (h *handler) authorCreate(c echo.Context) error {
	ctx := c.Request().Context()

	params := authors.CreateAuthorPayload{}
	author := &models.Author{}
	err := c.Bind(&params)
	if err == nil {
		_, err = params.Apply(author)
	}
	if err == nil {
		err = h.authorService.CreateAuthor(ctx, author)
	}
	if err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderAuthorForm(c, code, nil, params, msg)
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author created", logger.Data{"author_id": author.ID})
	return c.Redirect(http.StatusFound, authorPath(author.ID))
}

func (h *handler) authorUpdateForm(c echo.Context) error {
	author, err := h.retrieveAuthor(c)
	if err != nil {
		return err
	}

	return h.renderAuthorForm(c, http.StatusOK, author, authors.CreateAuthorPayload{
		FirstName:   author.FirstName,
		LastName:    author.LastName,
		DateOfBirth: models.FormatDate(author.DateOfBirth),
		DateOfDeath: models.FormatDate(author.DateOfDeath),
	}, "")
}

func (h *handler) authorUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.retrieveAuthor(c)
	if err != nil {
		return err
	}

	params := authors.CreateAuthorPayload{}
	err = c.Bind(&params)
	if err == nil {
		var columns []string
		columns, err = params.Apply(author)
		if err == nil {
			err = h.authorService.UpdateAuthor(ctx, author, authors.UpdateAuthorOptions{Columns: columns})
		}
	}
	if err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderAuthorForm(c, code, author, params, msg)
		}
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusFound, authorPath(author.ID))
}

func (h *handler) renderConfirmDelete(c echo.Context, code int, kind, name, action, errMsg string) error {
	return c.Render(code, "confirm_delete.html", echo.Map{
		"Kind":   kind,
		"Name":   name,
		"Action": action,
		"Error":  errMsg,
	})
}

func (h *handler) authorDeleteForm(c echo.Context) error {
	author, err := h.retrieveAuthor(c)
	if err != nil {
		return err
	}
	return h.renderConfirmDelete(c, http.StatusOK, "author", author.String(), authorPath(author.ID)+"/delete/", "")
}

func (h *handler) authorDelete(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.retrieveAuthor(c)
	if err != nil {
		return err
	}
	if err := h.authorService.DeleteAuthor(ctx, author.ID); err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderConfirmDelete(c, code, "author", author.String(), authorPath(author.ID)+"/delete/", msg)
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author deleted", logger.Data{"author_id": author.ID})
	return c.Redirect(http.StatusFound, "/catalog/authors/")
}

func (h *handler) bookChoices(ctx context.Context) (echo.Map, error) {
	authorList, err := h.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	genreList, err := h.genreService.ListGenres(ctx, genres.ListGenresOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	languageList, err := h.languageService.ListLanguages(ctx, languages.ListLanguagesOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return echo.Map{
		"Authors":   authorList,
		"Genres":    genreList,
		"Languages": languageList,
	}, nil
}

func (h *handler) renderBookForm(c echo.Context, code int, book *models.Book, form books.CreateBookPayload, errMsg string) error {
	data, err := h.bookChoices(c.Request().Context())
	if err != nil {
		return err
	}

	action := "/catalog/book/create/"
	if book != nil {
		action = bookPath(book.ID) + "/update/"
	}
	data["Book"] = book
	data["Form"] = form
	data["Action"] = action
	data["Error"] = errMsg
	return c.Render(code, "book_form.html", data)
}

func (h *handler) retrieveBook(c echo.Context) (*models.Book, error) {
	id, err := parseIntID(c, "Book")
	if err != nil {
		return nil, err
	}
	book, err := h.bookService.RetrieveBook(c.Request().Context(), books.RetrieveBookOptions{ID: &id})
	return book, errors.WithStack(err)
}

func (h *handler) bookCreateForm(c echo.Context) error {
	return h.renderBookForm(c, http.StatusOK, nil, books.CreateBookPayload{}, "")
}

func (h *handler) bookCreate(c echo.Context) error {
	ctx := c.Request().Context()

	params := books.CreateBookPayload{}
	book := &models.Book{}
	err := c.Bind(&params)
	if err == nil {
		params.Apply(book)
		err = h.bookService.CreateBook(ctx, book, params.GenreIDs)
	}
	if err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderBookForm(c, code, nil, params, msg)
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID})
	return c.Redirect(http.StatusFound, bookPath(book.ID))
}

func (h *handler) bookUpdateForm(c echo.Context) error {
	book, err := h.retrieveBook(c)
	if err != nil {
		return err
	}

	return h.renderBookForm(c, http.StatusOK, book, books.CreateBookPayload{
		Title:      book.Title,
		AuthorID:   book.AuthorID,
		Summary:    book.Summary,
		ISBN:       book.ISBN,
		LanguageID: book.LanguageID,
		GenreIDs: lo.Map(book.Genres, func(bg *models.BookGenre, _ int) int {
			return bg.GenreID
		}),
	}, "")
}

func (h *handler) bookUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.retrieveBook(c)
	if err != nil {
		return err
	}

	params := books.CreateBookPayload{}
	err = c.Bind(&params)
	if err == nil {
		// The form always carries the full genre selection.
		genreIDs := params.GenreIDs
		if genreIDs == nil {
			genreIDs = []int{}
		}
		err = h.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{
			Columns:  params.Apply(book),
			GenreIDs: &genreIDs,
		})
	}
	if err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderBookForm(c, code, book, params, msg)
		}
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusFound, bookPath(book.ID))
}

func (h *handler) bookDeleteForm(c echo.Context) error {
	book, err := h.retrieveBook(c)
	if err != nil {
		return err
	}
	return h.renderConfirmDelete(c, http.StatusOK, "book", book.Title, bookPath(book.ID)+"/delete/", "")
}

func (h *handler) bookDelete(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.retrieveBook(c)
	if err != nil {
		return err
	}
	if err := h.bookService.DeleteBook(ctx, book.ID); err != nil {
		if msg, code, ok := formError(err); ok {
			return h.renderConfirmDelete(c, code, "book", book.Title, bookPath(book.ID)+"/delete/", msg)
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": book.ID})
	return c.Redirect(http.StatusFound, "/catalog/books/")
}
