package loans

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	e := testutils.NewEcho(t)
	client := testutils.NewClient(e, db)
	registerRoutes(e.Group("/api/loans"), newTestService(db), client.Middleware())

	librarian := testutils.CreateUser(t, db, models.RoleLibrarian, "librarian")
	member := testutils.CreateUser(t, db, models.RoleMember, "member")
	book := testutils.CreateBook(t, db, &models.Book{Title: "Dune", ISBN: "9780441013593"})
	instance := testutils.CreateInstance(t, db, book.ID, models.LoanStatusOnLoan, testutils.Date(2024, 3, 12), member)
	renewPath := "/api/loans/" + instance.ID + "/renew"

	t.Run("my loans", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, client.JSON(t, http.MethodGet, "/api/loans/mine", "", nil).Code)

		rec := client.JSON(t, http.MethodGet, "/api/loans/mine", "", member)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp UserLoansResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, 1, resp.NumPages)

		rec = client.JSON(t, http.MethodGet, "/api/loans/mine", "", librarian)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":0`)

		assert.Equal(t, http.StatusNotFound, client.JSON(t, http.MethodGet, "/api/loans/mine?page=2", "", member).Code)
	})

	t.Run("borrowed needs can mark returned", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, client.JSON(t, http.MethodGet, "/api/loans/borrowed", "", member).Code)

		rec := client.JSON(t, http.MethodGet, "/api/loans/borrowed", "", librarian)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"member"`)
	})

	t.Run("renewal form", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, client.JSON(t, http.MethodGet, renewPath, "", member).Code)

		rec := client.JSON(t, http.MethodGet, renewPath, "", librarian)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp RenewalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2024-03-31", resp.ProposedRenewalDate)
		assert.Equal(t, instance.ID, resp.Instance.ID)
	})

	t.Run("renew", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, client.JSON(t, http.MethodPost, renewPath, `{"renewal_date":"2024-03-20"}`, member).Code)

		rec := client.JSON(t, http.MethodPost, renewPath, `{"renewal_date":"2024-03-01"}`, librarian)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid date - renewal in past")

		rec = client.JSON(t, http.MethodPost, renewPath, `{"renewal_date":"2024-05-01"}`, librarian)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid date - renewal more than 4 weeks ahead")

		rec = client.JSON(t, http.MethodPost, renewPath, `{"renewal_date":"2024-03-20"}`, librarian)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"due_back":"2024-03-20T00:00:00Z"`)

		rec = client.JSON(t, http.MethodPost, "/api/loans/00000000-0000-0000-0000-000000000000/renew", `{"renewal_date":"2024-03-20"}`, librarian)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("return then checkout", func(t *testing.T) {
		path := "/api/loans/" + instance.ID
		require.Equal(t, http.StatusOK, client.JSON(t, http.MethodPost, path+"/return", "", librarian).Code)
		assert.Equal(t, http.StatusConflict, client.JSON(t, http.MethodPost, path+"/return", "", librarian).Code)

		body, err := json.Marshal(CheckoutPayload{BorrowerID: member.ID})
		require.NoError(t, err)
		rec := client.JSON(t, http.MethodPost, path+"/checkout", string(body), librarian)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"o"`)
	})
}
