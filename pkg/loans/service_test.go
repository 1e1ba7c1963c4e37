package loans

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/locallibrary/catalog/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestService(db *bun.DB) *Service {
	return NewService(db, PolicyFromConfig(config.NewForTest())).WithClock(func() time.Time { return fixedNow })
}

func requireHTTPError(t *testing.T, err error, code int, message string) {
	t.Helper()
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, code, e.HTTPCode)
	if message != "" {
		assert.Equal(t, message, e.Message)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Policy{LoanWeeks: 3, MaxWeeks: 4, PageSize: 10}, PolicyFromConfig(nil))
	assert.Equal(t, Policy{LoanWeeks: 3, MaxWeeks: 4, PageSize: 10}, PolicyFromConfig(config.NewForTest()))

	cfg := config.NewForTest()
	cfg.MaxRenewalWeeks = 6
	assert.Equal(t, 6, PolicyFromConfig(cfg).MaxWeeks)
}

func TestValidateDueDate(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)

	assert.Equal(t, "2024-03-31", models.FormatDate(ptr(svc.ProposedRenewalDate())))

	cases := []struct {
		name    string
		date    time.Time
		message string
	}{
		{"today", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), ""},
		{"in four weeks", time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC), ""},
		{"yesterday", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "Invalid date - renewal in past"},
		{"four weeks and a day", time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), "Invalid date - renewal more than 4 weeks ahead"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateDueDate(tc.date)
			if tc.message == "" {
				assert.NoError(t, err)
				return
			}
			requireHTTPError(t, err, http.StatusUnprocessableEntity, tc.message)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestToday_UsesUTCDate(t *testing.T) {
	t.Parallel()

	brisbane := time.FixedZone("AEST", 10*60*60)
	losAngeles := time.FixedZone("PST", -8*60*60)

	cases := []struct {
		name     string
		now      time.Time
		today    string
		proposed string
	}{
		{"utc clock", fixedNow, "2024-03-10", "2024-03-31"},
		{"ahead of utc", time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC).In(brisbane), "2024-03-10", "2024-03-31"},
		{"behind utc", time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC).In(losAngeles), "2024-03-11", "2024-04-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := tc.now
			svc := NewService(nil, PolicyFromConfig(nil)).WithClock(func() time.Time { return now })

			today := svc.Today()
			assert.Equal(t, tc.today, models.FormatDate(&today))
			assert.Equal(t, tc.proposed, models.FormatDate(ptr(svc.ProposedRenewalDate())))

			// The UTC date itself is always an acceptable due date.
			assert.NoError(t, svc.ValidateDueDate(today))
			requireHTTPError(t, svc.ValidateDueDate(today.AddDate(0, 0, -1)), http.StatusUnprocessableEntity, "Invalid date - renewal in past")
		})
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	p := Page{Number: 1, Size: 10, Total: 0}
	assert.Equal(t, 1, p.NumPages())
	assert.False(t, p.HasPrevious())
	assert.False(t, p.HasNext())

	p = Page{Number: 2, Size: 10, Total: 21}
	assert.Equal(t, 3, p.NumPages())
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.Previous())
	assert.Equal(t, 3, p.Next())
}

func TestListUserLoans(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	other := testutils.CreateUser(t, db, models.RoleMember, "other")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})

	for day := 12; day >= 1; day-- {
		testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, day), member)
	}
	testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 1), other)
	testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)

	loans, page, err := svc.ListUserLoans(ctx, member.ID, 1)
	require.NoError(t, err)
	assert.Len(t, loans, 10)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.NumPages())
	assert.Equal(t, "2024-03-01", models.FormatDate(loans[0].DueBack))
	assert.Equal(t, "2024-03-10", models.FormatDate(loans[9].DueBack))
	for _, loan := range loans {
		assert.Equal(t, member.ID, *loan.BorrowerID)
	}

	loans, page, err = svc.ListUserLoans(ctx, member.ID, 2)
	require.NoError(t, err)
	assert.Len(t, loans, 2)
	assert.False(t, page.HasNext())

	_, _, err = svc.ListUserLoans(ctx, member.ID, 3)
	assert.ErrorIs(t, err, errcodes.NotFound("Page"))

	borrowed, total, err := svc.ListBorrowed(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	require.NotNil(t, borrowed[0].Borrower)
}

func TestRenew(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 12), member)

	_, err := svc.Renew(ctx, instance.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	requireHTTPError(t, err, http.StatusUnprocessableEntity, "Invalid date - renewal in past")

	renewed, err := svc.Renew(ctx, instance.ID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", models.FormatDate(renewed.DueBack))

	retrieved, err := svc.RetrieveInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", models.FormatDate(retrieved.DueBack))
	assert.Equal(t, models.LoanStatusOnLoan, retrieved.Status)
	assert.Equal(t, member.ID, *retrieved.BorrowerID)

	_, err = svc.Renew(ctx, "5b0c8a8e-8f5e-4c1e-9a53-5d1f3c2e1a00", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
}

func TestRenew_DeactivatedBorrower(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	onLoan := testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 12), member)
	available := testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)

	require.NoError(t, users.NewService(db).Deactivate(ctx, member.ID))

	renewed, err := svc.Renew(ctx, onLoan.ID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", models.FormatDate(renewed.DueBack))
	assert.Equal(t, member.ID, *renewed.BorrowerID)

	// New loans to the deactivated user are refused.
	_, err = svc.Checkout(ctx, available.ID, member.ID, nil)
	requireHTTPError(t, err, http.StatusUnprocessableEntity, "")

	returned, err := svc.Return(ctx, onLoan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusAvailable, returned.Status)
	assert.Nil(t, returned.BorrowerID)
}

func TestCheckoutAndReturn(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusAvailable, nil, nil)
	maintenance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusMaintenance, nil, nil)

	_, err := svc.Return(ctx, instance.ID)
	requireHTTPError(t, err, http.StatusConflict, "Book instance is not on loan")

	_, err = svc.Checkout(ctx, maintenance.ID, member.ID, nil)
	requireHTTPError(t, err, http.StatusConflict, "Book instance is not available")

	_, err = svc.Checkout(ctx, instance.ID, 9999, nil)
	requireHTTPError(t, err, http.StatusUnprocessableEntity, "")

	_, err = svc.Checkout(ctx, instance.ID, member.ID, testutils.Date(2024, 6, 1))
	requireHTTPError(t, err, http.StatusUnprocessableEntity, "Invalid date - renewal more than 4 weeks ahead")

	lent, err := svc.Checkout(ctx, instance.ID, member.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOnLoan, lent.Status)
	assert.Equal(t, "2024-03-31", models.FormatDate(lent.DueBack))
	require.NotNil(t, lent.Borrower)
	assert.Equal(t, "member", lent.Borrower.Username)

	_, err = svc.Checkout(ctx, instance.ID, member.ID, nil)
	requireHTTPError(t, err, http.StatusConflict, "Book instance is not available")

	returned, err := svc.Return(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusAvailable, returned.Status)
	assert.Nil(t, returned.BorrowerID)
	assert.Nil(t, returned.DueBack)

	retrieved, err := svc.RetrieveInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.BorrowerID)
	assert.Nil(t, retrieved.DueBack)
}
