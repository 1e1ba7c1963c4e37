package pages

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

//go:embed templates/*.html
var templateFS embed.FS

const baseTemplate = "templates/base.html"

var funcs = template.FuncMap{
	"date":     models.FormatDate,
	"contains": lo.Contains[int],
	"selected": func(selected *int, id int) bool {
		return selected != nil && *selected == id
	},
}

// Renderer renders the catalog pages. Every page is parsed together with the
// base layout and executed through it.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	r := &Renderer{templates: map[string]*template.Template{}}
	for _, file := range files {
		if file == baseTemplate {
			continue
		}
		name := path.Base(file)
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, baseTemplate, file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", name)
		}
		r.templates[name] = t
	}

	return r, nil
}

// Render implements echo.Renderer. data must be an echo.Map (or nil); the
// signed in user and the permissions the layout needs are added to it.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}

	m, _ := data.(echo.Map)
	if m == nil {
		m = echo.Map{}
	}

	user, _ := auth.UserFromContext(c)
	m["User"] = user
	m["CanMarkReturned"] = user != nil && user.CanMarkReturned()
	m["CanEditCatalog"] = user != nil && user.HasPermission(models.ResourceCatalog, models.OperationWrite)
	m["Path"] = c.Request().URL.RequestURI()

	return errors.WithStack(t.ExecuteTemplate(w, "base", m))
}
