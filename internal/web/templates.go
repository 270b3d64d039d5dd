package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/blockedby/flight-stats/internal/view"
)

//go:embed templates
var embedded embed.FS

// PanelTemplate is the partial that draws a view.Model.
const PanelTemplate = "stats-panel"

var errDictArgs = errors.New("dict expects key/value pairs with string keys")

// TemplateEngine handles HTML template rendering
type TemplateEngine struct {
	fsys   fs.FS
	reload bool // dev mode: reload on each request

	mu        sync.RWMutex
	templates *template.Template
}

// NewTemplateEngine creates a template engine reading from dir, or from the
// templates compiled into the binary when dir is empty.
func NewTemplateEngine(dir string, reload bool) *TemplateEngine {
	if dir == "" {
		sub, _ := fs.Sub(embedded, "templates")
		return NewTemplateEngineFS(sub, false)
	}
	return NewTemplateEngineFS(os.DirFS(dir), reload)
}

// NewTemplateEngineFS creates a template engine over fsys.
func NewTemplateEngineFS(fsys fs.FS, reload bool) *TemplateEngine {
	return &TemplateEngine{fsys: fsys, reload: reload}
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, errDictArgs
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, errDictArgs
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"lower":          strings.ToLower,
		"loadingMessage": func() string { return view.LoadingMessage },
		"emptyMessage":   func() string { return view.EmptyMessage },
	}
}

// Load parses every template except the pages directory.
func (te *TemplateEngine) Load() error {
	tmpl := template.New("").Funcs(funcs())

	err := fs.WalkDir(te.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// pages are parsed on demand
		if d.IsDir() && d.Name() == "pages" {
			return fs.SkipDir
		}

		if !d.IsDir() && path.Ext(p) == ".html" {
			_, err = tmpl.ParseFS(te.fsys, p)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	te.mu.Lock()
	te.templates = tmpl
	te.mu.Unlock()
	return nil
}

// current returns the parsed base templates, loading them when needed.
func (te *TemplateEngine) current() (*template.Template, error) {
	te.mu.RLock()
	tmpl := te.templates
	te.mu.RUnlock()

	if tmpl == nil || te.reload {
		if err := te.Load(); err != nil {
			return nil, err
		}
		te.mu.RLock()
		tmpl = te.templates
		te.mu.RUnlock()
	}
	return tmpl, nil
}

func (te *TemplateEngine) page(name string) (*template.Template, error) {
	base, err := te.current()
	if err != nil {
		return nil, err
	}

	tmpl, err := base.Clone()
	if err != nil {
		return nil, err
	}
	return tmpl.ParseFS(te.fsys, path.Join("pages", name+".html"))
}

// Render renders a page inside the layout
func (te *TemplateEngine) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := te.page(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// RenderContent renders only the content template without layout (for HTMX)
func (te *TemplateEngine) RenderContent(w io.Writer, name string, data interface{}) error {
	tmpl, err := te.page(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "content", data)
}

// RenderPartial renders a named template (partial)
func (te *TemplateEngine) RenderPartial(w io.Writer, name string, data interface{}) error {
	base, err := te.current()
	if err != nil {
		return err
	}
	// executed html templates can no longer be cloned, keep the base pristine
	tmpl, err := base.Clone()
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// RenderPanel renders the stats panel for m into a string.
func (te *TemplateEngine) RenderPanel(m view.Model) (string, error) {
	var b strings.Builder
	if err := te.RenderPartial(&b, PanelTemplate, m); err != nil {
		return "", err
	}
	return b.String(), nil
}
