package authors

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

func TestListAuthors_OrderAndSearch(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	testutils.CreateAuthor(t, db, "Terry", "Pratchett")
	testutils.CreateAuthor(t, db, "Isaac", "Asimov")
	testutils.CreateAuthor(t, db, "Anne", "Pratchett")

	authors, total, err := svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	names := []string{}
	for _, a := range authors {
		names = append(names, a.String())
	}
	assert.Equal(t, []string{"Asimov, Isaac", "Pratchett, Anne", "Pratchett, Terry"}, names)

	search := "terry prat"
	authors, err = svc.ListAuthors(ctx, ListAuthorsOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "Terry", authors[0].FirstName)

	limit, offset := 1, 1
	authors, total, err = svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, authors, 1)
	assert.Equal(t, "Anne", authors[0].FirstName)
}

func TestCreateAuthor_Lifespan(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{
		FirstName:   "Mary",
		LastName:    "Shelley",
		DateOfBirth: testutils.Date(1797, 8, 30),
		DateOfDeath: testutils.Date(1851, 2, 1),
	}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	assert.NotZero(t, author.ID)

	retrieved, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "1797-08-30", models.FormatDate(retrieved.DateOfBirth))

	invalid := &models.Author{
		FirstName:   "Time",
		LastName:    "Traveller",
		DateOfBirth: testutils.Date(1900, 1, 2),
		DateOfDeath: testutils.Date(1900, 1, 1),
	}
	err = svc.CreateAuthor(ctx, invalid)
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
}

func TestDeleteAuthor_KeepsBooks(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := testutils.CreateAuthor(t, db, "Frank", "Herbert")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780000000002", AuthorID: &author.ID})

	retrieved, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID, IncludeBooks: true})
	require.NoError(t, err)
	require.Len(t, retrieved.Books, 1)

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	reloaded := &models.Book{}
	require.NoError(t, db.NewSelect().Model(reloaded).Where("b.id = ?", book.ID).Scan(ctx))
	assert.Nil(t, reloaded.AuthorID)

	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
	assert.ErrorIs(t, svc.DeleteAuthor(ctx, author.ID), errcodes.NotFound("Author"))
}

func TestUpdatePayloadApply(t *testing.T) {
	t.Parallel()

	author := &models.Author{FirstName: "Mary", LastName: "Shelley", DateOfDeath: testutils.Date(1851, 2, 1)}
	first := "Mary"
	birth := "1797-08-30"
	death := ""

	columns, err := UpdateAuthorPayload{FirstName: &first, DateOfBirth: &birth, DateOfDeath: &death}.Apply(author)
	require.NoError(t, err)
	assert.Equal(t, []string{"date_of_birth", "date_of_death"}, columns)
	assert.Nil(t, author.DateOfDeath)
	assert.Equal(t, "1797-08-30", models.FormatDate(author.DateOfBirth))
}
