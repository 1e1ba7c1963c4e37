package binder

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})
}

type renewalParams struct {
	RenewalDate string `json:"renewal_date" form:"renewal_date" validate:"required,date"`
	ISBN        string `json:"isbn" form:"isbn" mod:"trim,isbn" validate:"omitempty,isbn13"`
}

func TestBind_Forms(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("decodes url encoded forms and ignores extra inputs", func(tt *testing.T) {
		c := newContext("renewal_date=2024-03-01&submit=Submit", echo.MIMEApplicationForm)
		p := renewalParams{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "2024-03-01", p.RenewalDate)
	})

	t.Run("rejects impossible dates", func(tt *testing.T) {
		c := newContext("renewal_date=2024-02-31", echo.MIMEApplicationForm)
		p := renewalParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"renewal_date" should be a valid date`)
	})

	t.Run("validates isbn13", func(tt *testing.T) {
		c := newContext(`{"renewal_date":"2024-03-01","isbn":"978-0-00"}`, echo.MIMEApplicationJSON)
		p := renewalParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"isbn" must be a 13 digit ISBN`)
	})

	t.Run("normalizes isbns before validating", func(tt *testing.T) {
		c := newContext("renewal_date=2024-03-01&isbn=+0-316-76948-7+", echo.MIMEApplicationForm)
		p := renewalParams{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "9780316769488", p.ISBN)
	})

	t.Run("rejects bad isbn check digits", func(tt *testing.T) {
		c := newContext("renewal_date=2024-03-01&isbn=9780316769489", echo.MIMEApplicationForm)
		p := renewalParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"isbn" must be a 13 digit ISBN`)
	})
}

func TestBind_QueryParams(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	type listQuery struct {
		Limit  int `query:"limit" default:"10" validate:"min=1,max=50"`
		Offset int `query:"offset" validate:"min=0"`
	}

	t.Run("applies defaults", func(tt *testing.T) {
		c := newGetContext("/books")
		q := listQuery{}
		require.NoError(tt, b.Bind(&q, c))
		assert.Equal(tt, 10, q.Limit)
	})

	t.Run("rejects unknown params", func(tt *testing.T) {
		c := newGetContext("/books?page_size=3")
		q := listQuery{}
		err := b.Bind(&q, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `Unknown Parameter "page_size"`)
	})

	t.Run("reports type errors", func(tt *testing.T) {
		c := newGetContext("/books?limit=ten")
		q := listQuery{}
		err := b.Bind(&q, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"limit" should be of type int`)
	})
}

func newGetContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
