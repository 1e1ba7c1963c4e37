package genres

import (
	"context"
	"net/http"
	"testing"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListGenres_BookCounts(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	fantasy := testutils.CreateGenre(t, db, "Fantasy")
	scifi := testutils.CreateGenre(t, db, "Science Fiction")
	testutils.CreateGenre(t, db, "poetry")
	testutils.CreateBook(t, db, &models.Book{Title: "Earthsea", ISBN: "9780000000001"}, fantasy.ID)
	testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000002"}, fantasy.ID, scifi.ID)

	genres, total, err := svc.ListGenresWithTotal(ctx, ListGenresOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, genres, 3)

	assert.Equal(t, "Fantasy", genres[0].Name)
	assert.Equal(t, 2, genres[0].BookCount)
	assert.Equal(t, "poetry", genres[1].Name)
	assert.Equal(t, 0, genres[1].BookCount)
	assert.Equal(t, 1, genres[2].BookCount)

	search := "fic"
	genres, err = svc.ListGenres(ctx, ListGenresOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, scifi.ID, genres[0].ID)
}

func TestCreateGenre_Duplicate(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateGenre(ctx, &models.Genre{Name: " Horror "}))

	err := svc.CreateGenre(ctx, &models.Genre{Name: "horror"})
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusConflict, e.HTTPCode)

	name := "HORROR"
	genre, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Horror", genre.Name)
}

func TestRenameGenre_MergesIntoExisting(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	scifi := testutils.CreateGenre(t, db, "Science Fiction")
	sf := testutils.CreateGenre(t, db, "SF")
	both := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000002"}, scifi.ID, sf.ID)
	testutils.CreateBook(t, db, &models.Book{Title: "Hyperion", ISBN: "9780000000003"}, sf.ID)

	result, err := svc.RenameGenre(ctx, sf, "science fiction")
	require.NoError(t, err)
	assert.Equal(t, scifi.ID, result.ID)
	assert.Equal(t, 2, result.BookCount)

	_, err = svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &sf.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Genre"))

	books, err := svc.GetBooks(ctx, scifi.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, both.ID, books[0].ID)
}

func TestRenameGenre_Simple(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := testutils.CreateGenre(t, db, "fantasy")
	result, err := svc.RenameGenre(ctx, genre, "Fantasy")
	require.NoError(t, err)
	assert.Equal(t, genre.ID, result.ID)
	assert.Equal(t, "Fantasy", result.Name)

	_, err = svc.RenameGenre(ctx, genre, "   ")
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
}

func TestDeleteGenre_RemovesAssociations(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := testutils.CreateGenre(t, db, "Fantasy")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Earthsea", ISBN: "9780000000001"}, genre.ID)

	require.NoError(t, svc.DeleteGenre(ctx, genre.ID))

	count, err := db.NewSelect().Model((*models.BookGenre)(nil)).Where("book_id = ?", book.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = svc.DeleteGenre(ctx, genre.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Genre"))
}

func TestCleanupOrphanedGenres(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	used := testutils.CreateGenre(t, db, "Fantasy")
	testutils.CreateGenre(t, db, "Unused")
	testutils.CreateBook(t, db, &models.Book{Title: "Earthsea", ISBN: "9780000000001"}, used.ID)

	n, err := svc.CleanupOrphanedGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
