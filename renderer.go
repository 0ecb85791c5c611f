package mailer

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"text/template"
)

// ViewContext is the capability a Composer exposes to renderers while a
// composition is running. Renderers use it to resolve relative view
// identifiers; templates may additionally introspect the message being
// composed when the concrete context offers that.
type ViewContext interface {
	// ViewPath returns the base path view identifiers resolve against.
	ViewPath() string
}

// ViewRenderer renders a named view with the given params. Implementations
// report failures as *RenderError carrying the view identifier; the Composer
// propagates such errors unchanged, without retries or interpretation.
type ViewRenderer interface {
	Render(view string, params Params, ctx ViewContext) (string, error)
}

// MetadataProvider is an optional ViewRenderer extension for renderers whose
// views carry metadata, such as YAML frontmatter. The Mailer uses it to
// resolve email subjects from view metadata.
type MetadataProvider interface {
	Meta(view string, ctx ViewContext) (map[string]any, error)
}

// TemplateRenderer renders text/template views from a filesystem.
//
// Views deliberately go through text/template rather than html/template:
// layout views receive already-rendered HTML under the "content" key and
// must pass it through verbatim, so escaping is the template author's
// responsibility.
type TemplateRenderer struct {
	fs fs.FS

	// cache stores parsed templates, safe to share: execution takes fresh data.
	cache map[string]*template.Template
	mu    sync.RWMutex
}

// NewTemplateRenderer creates a renderer reading view files from filesystem.
func NewTemplateRenderer(filesystem fs.FS) *TemplateRenderer {
	return &TemplateRenderer{
		fs:    filesystem,
		cache: make(map[string]*template.Template),
	}
}

// Render implements ViewRenderer. View identifiers resolve relative to the
// context's view path when one is provided.
func (r *TemplateRenderer) Render(view string, params Params, ctx ViewContext) (string, error) {
	tmpl, err := r.getTemplate(resolveView(view, ctx))
	if err != nil {
		return "", &RenderError{View: view, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", &RenderError{View: view, Err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
	}
	return buf.String(), nil
}

// getTemplate returns a cached parsed template or parses and caches it.
func (r *TemplateRenderer) getTemplate(name string) (*template.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrViewNotFound, name, err)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	r.cache[name] = tmpl
	return tmpl, nil
}

// resolveView joins a view identifier with the context's view path. A "."
// or empty view path leaves the identifier as-is.
func resolveView(view string, ctx ViewContext) string {
	if ctx == nil {
		return view
	}
	base := ctx.ViewPath()
	if base == "" || base == "." {
		return view
	}
	return path.Join(base, view)
}
