// Package view renders the HTML pages of the object store front-end.
//
// Templates are embedded into the binary. Each page under templates/pages
// is parsed together with the shared partials and executed through the
// "layout" template.
package view

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Page names, as used by handlers.
const (
	PageBase     = "base.html"
	PageObjStore = "objStore.html"
	PageObjects  = "objects.html"
	PageScenes   = "scenes.html"
)

//go:embed templates
var templateFS embed.FS

// ScenesData feeds objStore.html and scenes.html.
type ScenesData struct {
	Title      string
	Action     string
	Scenes     []model.Scene
	Pagination *pagination.Pagination
	Page       int
	PerPage    int
}

// ObjectsData feeds objects.html with either persistent objects or the
// instances of one object.
type ObjectsData struct {
	Title     string
	Action    string
	Objects   []model.PersistentObject
	Instances []model.ObjectInstance
	ObjectID  int
	Lookup    bool
}

// BaseData feeds the console page.
type BaseData struct {
	Title  string
	Action string
}

// Renderer implements echo.Renderer over the embedded page set.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"imgsrc": imageSrc,
}

// imageSrc turns raw PNG bytes into a data URI the template may use in src.
func imageSrc(img []byte) template.URL {
	if len(img) == 0 {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
}

// NewRenderer parses every page together with the shared partials.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse partial templates")
	}

	pageFiles, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list page templates")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, file := range pageFiles {
		base, err := layout.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to clone layout for %s", file)
		}
		page, err := base.ParseFS(templateFS, file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse page template %s", file)
		}
		r.pages[path.Base(file)] = page
	}

	return r, nil
}

// Has reports whether a page with that name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the named page. Output is buffered so a failing template
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	page, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page template %s", name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "failed to execute page template %s", name)
	}

	_, err := buf.WriteTo(w)
	return err
}
