package echoweb

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core/account"
)

// Renderer renders the page templates of dir. Files starting with "_" are partials
// shared by every page; each page defines "content" and is executed through "base".
type Renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

func NewRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	partials, err := fs.Glob(fsys, path.Join(dir, "_*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing partials")
	}
	pages, err := fs.Glob(fsys, path.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing pages")
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, fp := range pages {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		files := append(append([]string{}, partials...), fp)
		tmpl, err := template.ParseFS(fsys, files...)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.templates[strings.TrimSuffix(fname, path.Ext(fname))] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

type (
	link struct {
		Href  string
		Label string
	}

	// view is the data of every page.
	view struct {
		AppName string
		Title   string
		Nav     []link
		Account *account.Account
		Data    interface{}
	}
)

var siteNav = []link{
	{Href: "/", Label: "Home"},
	{Href: "/about", Label: "About"},
	{Href: "/academics", Label: "Academics"},
	{Href: "/admissions", Label: "Admissions"},
	{Href: "/arts", Label: "Arts"},
	{Href: "/athletics", Label: "Athletics"},
	{Href: "/student-life", Label: "Student Life"},
	{Href: "/support", Label: "Support"},
}

func (s *Server) render(ctx echo.Context, code int, name, title string, data interface{}) error {
	v := view{
		AppName: s.deps.Conf.AppName,
		Title:   title,
		Nav:     siteNav,
		Data:    data,
	}
	if acc, ok := contextAccount(ctx); ok {
		v.Account = &acc
	}
	return ctx.Render(code, name, v)
}
