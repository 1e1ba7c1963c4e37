package books

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, code, e.HTTPCode)
}

func TestBuildFTSPrefixQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"hobbit", `"hobbit"*`},
		{" wizard  earth ", `"wizard"* "earth"*`},
		{`say "hi"`, `"say"* """hi"""*`},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, buildFTSPrefixQuery(tc.input), tc.input)
	}

	t.Run("long input is cut on rune boundaries", func(t *testing.T) {
		q := buildFTSPrefixQuery(strings.Repeat("a", 99) + "üüü")
		assert.True(t, utf8.ValidString(q))
		assert.Equal(t, `"`+strings.Repeat("a", 99)+`ü"*`, q)

		q = buildFTSPrefixQuery(strings.Repeat("é", 150))
		assert.True(t, utf8.ValidString(q))
		assert.Equal(t, `"`+strings.Repeat("é", 100)+`"*`, q)
	})
}

func TestCreateAndRetrieveBook(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Ursula", "Le Guin")
	lang := testutils.CreateLanguage(t, db, "English")
	fantasy := testutils.CreateGenre(t, db, "Fantasy")
	ya := testutils.CreateGenre(t, db, "Young Adult")

	book := &models.Book{
		Title:      "A Wizard of Earthsea",
		AuthorID:   &author.ID,
		Summary:    "A young mage learns the cost of power.",
		ISBN:       "9780547773742",
		LanguageID: &lang.ID,
	}
	require.NoError(t, svc.CreateBook(ctx, book, []int{fantasy.ID, ya.ID, fantasy.ID}))
	testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)

	retrieved, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID, IncludeInstances: true})
	require.NoError(t, err)
	require.NotNil(t, retrieved.Author)
	assert.Equal(t, "Le Guin, Ursula", retrieved.Author.String())
	require.NotNil(t, retrieved.Language)
	assert.Equal(t, "English", retrieved.Language.String())
	assert.Equal(t, "Fantasy, Young Adult", retrieved.DisplayGenre())
	assert.Len(t, retrieved.Instances, 1)

	isbn := "9780547773742"
	byISBN, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ISBN: &isbn})
	require.NoError(t, err)
	assert.Equal(t, book.ID, byISBN.ID)

	missing := 9999
	_, err = svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &missing})
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestCreateBook_Validation(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	testutils.CreateBook(t, db, &models.Book{Title: "Existing", ISBN: "9780000000001"})

	err := svc.CreateBook(ctx, &models.Book{Title: "Duplicate", ISBN: "9780000000001"}, nil)
	assertHTTPCode(t, err, http.StatusConflict)

	unknown := 4242
	err = svc.CreateBook(ctx, &models.Book{Title: "Orphan", ISBN: "9780000000002", AuthorID: &unknown}, nil)
	assertHTTPCode(t, err, http.StatusUnprocessableEntity)

	err = svc.CreateBook(ctx, &models.Book{Title: "Orphan", ISBN: "9780000000002", LanguageID: &unknown}, nil)
	assertHTTPCode(t, err, http.StatusUnprocessableEntity)

	err = svc.CreateBook(ctx, &models.Book{Title: "Orphan", ISBN: "9780000000002"}, []int{unknown})
	assertHTTPCode(t, err, http.StatusUnprocessableEntity)

	// Nothing was written by the failed attempts.
	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListBooks_Filters(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	leGuin := testutils.CreateAuthor(t, db, "Ursula", "Le Guin")
	herbert := testutils.CreateAuthor(t, db, "Frank", "Herbert")
	english := testutils.CreateLanguage(t, db, "English")
	fantasy := testutils.CreateGenre(t, db, "Fantasy")
	scifi := testutils.CreateGenre(t, db, "Science Fiction")

	testutils.CreateBook(t, db, &models.Book{Title: "The Left Hand of Darkness", ISBN: "9780000000001", AuthorID: &leGuin.ID, Summary: "An envoy on the planet Gethen."}, scifi.ID)
	testutils.CreateBook(t, db, &models.Book{Title: "A Wizard of Earthsea", ISBN: "9780000000002", AuthorID: &leGuin.ID, LanguageID: &english.ID, Summary: "A young wizard."}, fantasy.ID)
	testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000003", AuthorID: &herbert.ID, Summary: "Spice and sandworms on a desert planet."}, scifi.ID)

	titles := func(books []*models.Book) []string {
		out := []string{}
		for _, b := range books {
			out = append(out, b.Title)
		}
		return out
	}

	books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"A Wizard of Earthsea", "Dune", "The Left Hand of Darkness"}, titles(books))

	books, err = svc.ListBooks(ctx, ListBooksOptions{AuthorID: &leGuin.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"A Wizard of Earthsea", "The Left Hand of Darkness"}, titles(books))

	books, err = svc.ListBooks(ctx, ListBooksOptions{GenreID: &scifi.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "The Left Hand of Darkness"}, titles(books))

	books, err = svc.ListBooks(ctx, ListBooksOptions{LanguageID: &english.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"A Wizard of Earthsea"}, titles(books))

	search := "plan"
	books, err = svc.ListBooks(ctx, ListBooksOptions{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "The Left Hand of Darkness"}, titles(books))

	search = "desert plan"
	books, err = svc.ListBooks(ctx, ListBooksOptions{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(books))
}

func TestUpdateBook(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	fantasy := testutils.CreateGenre(t, db, "Fantasy")
	scifi := testutils.CreateGenre(t, db, "Science Fiction")
	testutils.CreateBook(t, db, &models.Book{Title: "Other", ISBN: "9780000000009"})
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000003"}, fantasy.ID)

	title := "Dune Messiah"
	genres := []int{scifi.ID}
	columns := UpdateBookPayload{Title: &title}.Apply(book)
	require.NoError(t, svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: columns, GenreIDs: &genres}))

	retrieved, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", retrieved.Title)
	assert.Equal(t, "Science Fiction", retrieved.DisplayGenre())

	// The full text index follows the title.
	search := "messiah"
	books, err := svc.ListBooks(ctx, ListBooksOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, books, 1)

	isbn := "9780000000009"
	columns = UpdateBookPayload{ISBN: &isbn}.Apply(retrieved)
	err = svc.UpdateBook(ctx, retrieved, UpdateBookOptions{Columns: columns})
	assertHTTPCode(t, err, http.StatusConflict)
}

func TestDeleteBook_RestrictedByInstances(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := testutils.CreateGenre(t, db, "Fantasy")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000003"}, genre.ID)
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)

	err := svc.DeleteBook(ctx, book.ID)
	assertHTTPCode(t, err, http.StatusConflict)
	assert.Contains(t, err.Error(), "1 copy")

	_, err = db.NewDelete().Model((*models.BookInstance)(nil)).Where("id = ?", instance.ID).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))
	assert.ErrorIs(t, svc.DeleteBook(ctx, book.ID), errcodes.NotFound("Book"))
}
