package echoapi

import (
	"html/template"
	"io"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	appfs "github.com/trezcool/alama/fs"
)

const (
	webTemplatesDir = "templates/web"
	layoutTemplate  = "_layout.gohtml"

	homePage  = "home"
	marksPage = "marks"
)

var webPages = []string{homePage, marksPage}

// templateRenderer renders the embedded pages, each one inside the shared layout.
type templateRenderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer(conf *core.Config) (*templateRenderer, error) {
	r := &templateRenderer{templates: make(map[string]*template.Template, len(webPages))}
	for _, page := range webPages {
		tmpl, err := template.New(page).ParseFS(
			appfs.FS,
			path.Join(webTemplatesDir, layoutTemplate),
			path.Join(webTemplatesDir, page+".gohtml"),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s page", page)
		}
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
