package mailer

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"text/template"

	"github.com/yuin/goldmark"
)

// MarkdownRenderer renders markdown views with optional YAML frontmatter to
// HTML via goldmark. Views whose identifier does not end in ".md" (layouts,
// plain templates) delegate to an embedded TemplateRenderer reading the same
// filesystem.
//
// Frontmatter metadata is exposed through Meta, so a Mailer using this
// renderer resolves subjects declared in the views themselves.
type MarkdownRenderer struct {
	fs    fs.FS
	md    goldmark.Markdown
	plain *TemplateRenderer

	cache map[string]*markdownView
	mu    sync.RWMutex
}

// markdownView holds a parsed markdown view for reuse.
type markdownView struct {
	meta map[string]any
	tmpl *template.Template
}

// NewMarkdownRenderer creates a markdown renderer reading view files from
// filesystem. The markdown pipeline includes the button extension, so views
// can use [!button|Label](URL) syntax.
func NewMarkdownRenderer(filesystem fs.FS) *MarkdownRenderer {
	return &MarkdownRenderer{
		fs: filesystem,
		md: goldmark.New(
			goldmark.WithExtensions(NewButtonExtension()),
		),
		plain: NewTemplateRenderer(filesystem),
		cache: make(map[string]*markdownView),
	}
}

// Render implements ViewRenderer. Markdown views execute as text/template
// with params first, then convert to HTML.
func (r *MarkdownRenderer) Render(view string, params Params, ctx ViewContext) (string, error) {
	if path.Ext(view) != ".md" {
		return r.plain.Render(view, params, ctx)
	}

	mv, err := r.getView(resolveView(view, ctx))
	if err != nil {
		return "", &RenderError{View: view, Err: err}
	}

	var processed bytes.Buffer
	if err := mv.tmpl.Execute(&processed, params); err != nil {
		return "", &RenderError{View: view, Err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
	}

	var htmlContent bytes.Buffer
	if err := r.md.Convert(processed.Bytes(), &htmlContent); err != nil {
		return "", &RenderError{View: view, Err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
	}
	return htmlContent.String(), nil
}

// Meta implements MetadataProvider. It returns the frontmatter metadata of a
// markdown view; non-markdown views carry no metadata.
func (r *MarkdownRenderer) Meta(view string, ctx ViewContext) (map[string]any, error) {
	if path.Ext(view) != ".md" {
		return nil, nil
	}
	mv, err := r.getView(resolveView(view, ctx))
	if err != nil {
		return nil, &RenderError{View: view, Err: err}
	}
	return mv.meta, nil
}

// getView returns a cached parsed view or parses and caches it.
func (r *MarkdownRenderer) getView(name string) (*markdownView, error) {
	r.mu.RLock()
	if mv, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return mv, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if mv, ok := r.cache[name]; ok {
		return mv, nil
	}

	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrViewNotFound, name, err)
	}

	parsed, err := ParseView(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	tmpl, err := template.New(name).Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	mv := &markdownView{meta: parsed.Meta, tmpl: tmpl}
	r.cache[name] = mv
	return mv, nil
}
