package instances

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestCreateInstance(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	member := testutils.CreateUser(t, db, models.RoleMember, "member")

	t.Run("defaults", func(t *testing.T) {
		instance := &models.BookInstance{BookID: book.ID, Imprint: "Ace, 1990"}
		require.NoError(t, svc.CreateInstance(ctx, instance))

		_, err := uuid.Parse(instance.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusMaintenance, instance.Status)
		assert.Nil(t, instance.BorrowerID)
	})

	t.Run("borrower dropped unless on loan", func(t *testing.T) {
		instance := &models.BookInstance{BookID: book.ID, Imprint: "Ace", Status: models.LoanStatusAvailable, BorrowerID: &member.ID}
		require.NoError(t, svc.CreateInstance(ctx, instance))
		assert.Nil(t, instance.BorrowerID)
	})

	t.Run("on loan needs borrower", func(t *testing.T) {
		err := svc.CreateInstance(ctx, &models.BookInstance{BookID: book.ID, Imprint: "Ace", Status: models.LoanStatusOnLoan})
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
	})

	t.Run("unknown book", func(t *testing.T) {
		err := svc.CreateInstance(ctx, &models.BookInstance{BookID: 9999, Imprint: "Ace"})
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
	})
}

func TestRetrieveInstance_NotFound(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))

	_, err = svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: uuid.NewString()})
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
}

func TestListInstances(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	dune := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	emma := testutils.CreateBook(t, db, &models.Book{Title: "Emma", ISBN: "9780141439587"})
	member := testutils.CreateUser(t, db, models.RoleMember, "member")

	late := testutils.CreateInstance(t, db, dune.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 20), member)
	early := testutils.CreateInstance(t, db, emma.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 1), member)
	shelved := testutils.CreateInstance(t, db, dune.ID, models.LoanStatusAvailable, nil, nil)

	ids := func(instances []*models.BookInstance) []string {
		out := []string{}
		for _, i := range instances {
			out = append(out, i.ID)
		}
		return out
	}

	all, total, err := svc.ListInstancesWithTotal(ctx, ListInstancesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{early.ID, late.ID, shelved.ID}, ids(all))
	require.NotNil(t, all[0].Book)
	assert.Equal(t, "Emma", all[0].Book.Title)
	require.NotNil(t, all[0].Borrower)
	assert.Equal(t, "member", all[0].Borrower.Username)

	onLoan, err := svc.ListInstances(ctx, ListInstancesOptions{Statuses: []string{models.LoanStatusOnLoan}})
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID, late.ID}, ids(onLoan))

	byBook, err := svc.ListInstances(ctx, ListInstancesOptions{BookID: &dune.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID, shelved.ID}, ids(byBook))

	window, err := svc.ListInstances(ctx, ListInstancesOptions{
		DueBackFrom: testutils.Date(2024, 3, 10),
		DueBackTo:   testutils.Date(2024, 3, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID}, ids(window))

	borrowed, err := svc.ListInstances(ctx, ListInstancesOptions{BorrowerID: &member.ID})
	require.NoError(t, err)
	assert.Len(t, borrowed, 2)
}

func TestUpdateInstance_LoanState(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 1), member)

	status := models.LoanStatusAvailable
	columns, err := UpdateInstancePayload{Status: &status}.Apply(instance)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateInstance(ctx, instance, UpdateInstanceOptions{Columns: columns}))

	retrieved, err := svc.RetrieveInstance(ctx, RetrieveInstanceOptions{ID: instance.ID})
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusAvailable, retrieved.Status)
	assert.Nil(t, retrieved.BorrowerID)

	// Going back on loan without a borrower is rejected.
	status = models.LoanStatusOnLoan
	columns, err = UpdateInstancePayload{Status: &status}.Apply(retrieved)
	require.NoError(t, err)
	err = svc.UpdateInstance(ctx, retrieved, UpdateInstanceOptions{Columns: columns})
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)

	columns, err = UpdateInstancePayload{Status: &status, BorrowerID: &member.ID}.Apply(retrieved)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateInstance(ctx, retrieved, UpdateInstanceOptions{Columns: columns}))
	assert.Equal(t, member.ID, *retrieved.BorrowerID)
}

func TestUpdateInstance_InactiveBorrower(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	other := testutils.CreateUser(t, db, models.RoleMember, "other")
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 1), member)

	_, err := db.NewUpdate().Model((*models.User)(nil)).Set("is_active = ?", false).Where("id IN (?)", bun.In([]int{member.ID, other.ID})).Exec(ctx)
	require.NoError(t, err)

	t.Run("existing loan can still be edited", func(t *testing.T) {
		imprint := "Ace, 1990"
		columns, err := UpdateInstancePayload{Imprint: &imprint, BorrowerID: &member.ID}.Apply(instance)
		require.NoError(t, err)
		assert.Equal(t, []string{"imprint"}, columns)
		require.NoError(t, svc.UpdateInstance(ctx, instance, UpdateInstanceOptions{Columns: columns}))
	})

	t.Run("inactive user can't be assigned", func(t *testing.T) {
		columns, err := UpdateInstancePayload{BorrowerID: &other.ID}.Apply(instance)
		require.NoError(t, err)
		err = svc.UpdateInstance(ctx, instance, UpdateInstanceOptions{Columns: columns})
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
	})
}

func TestDeleteInstance(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)

	require.NoError(t, svc.DeleteInstance(ctx, instance.ID))
	assert.ErrorIs(t, svc.DeleteInstance(ctx, instance.ID), errcodes.NotFound("Book instance"))
}
