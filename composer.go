package mailer

// Params carries view data. The same mapping is passed through unmodified to
// every render call of a single composition.
type Params map[string]any

// Template identifies which views a composition renders. HTML and Text are
// independent view identifiers and either may be empty. A message composed
// without a Text view gets its plain-text body derived from the rendered
// HTML; a message composed without an HTML view gets no HTML body at all.
type Template struct {
	HTML string
	Text string
}

// NewTemplate creates a descriptor for the common case of a single view
// rendered as the HTML body, with the text body derived from it.
func NewTemplate(view string) Template {
	return Template{HTML: view}
}

// ComposerConfig configures a new Composer.
type ComposerConfig struct {
	Template   Template
	HTMLLayout string // layout wrapping the HTML view, "" for none
	TextLayout string // layout wrapping the text view, "" for none
	ViewPath   string // base path for resolving view identifiers, "." by default
}

// Composer renders an HTML view, a text view, or both into a Message. Each
// view is wrapped in its own optional layout; layouts are never
// cross-applied. When no text view is configured, the plain-text body is
// derived from the final HTML output via HTMLToText.
//
// A Composer holds mutable state (Template, layouts, the active message) and
// must not be shared across concurrent Compose calls. Use one Composer per
// in-flight composition or synchronize externally.
type Composer struct {
	renderer ViewRenderer

	// Template selects the views rendered by Compose.
	Template Template
	// HTMLLayout wraps the rendered HTML view. Empty string disables it.
	HTMLLayout string
	// TextLayout wraps the rendered text view. Empty string disables it.
	TextLayout string

	viewPath string
	message  Message
}

// NewComposer creates a Composer rendering views through renderer.
func NewComposer(renderer ViewRenderer, cfg ComposerConfig) *Composer {
	if cfg.ViewPath == "" {
		cfg.ViewPath = "."
	}
	return &Composer{
		renderer:   renderer,
		Template:   cfg.Template,
		HTMLLayout: cfg.HTMLLayout,
		TextLayout: cfg.TextLayout,
		viewPath:   cfg.ViewPath,
	}
}

// ViewPath returns the base path view identifiers resolve against. It is
// part of the context capability the Composer exposes to renderers.
func (c *Composer) ViewPath() string {
	return c.viewPath
}

// Message returns the message currently being composed, or nil outside of a
// Compose call. Renderers receive the Composer as their context and may use
// this to let templates introspect the message being built.
func (c *Composer) Message() Message {
	return c.message
}

// Compose renders the configured views and writes the results into msg.
//
// The HTML view renders first, wrapped in HTMLLayout when set; the text view
// renders independently, wrapped in TextLayout when set. A render failure
// aborts before any body is set and propagates unchanged. When only an HTML
// view produced output, the text body is derived from it. When neither view
// is configured, msg is left untouched.
func (c *Composer) Compose(msg Message, params Params) error {
	c.message = msg
	defer func() { c.message = nil }()

	var htmlBody, textBody string
	var hasHTML, hasText bool

	if c.Template.HTML != "" {
		body, err := c.render(c.Template.HTML, params, c.HTMLLayout)
		if err != nil {
			return err
		}
		htmlBody, hasHTML = body, true
	}
	if c.Template.Text != "" {
		body, err := c.render(c.Template.Text, params, c.TextLayout)
		if err != nil {
			return err
		}
		textBody, hasText = body, true
	}

	if hasHTML {
		msg.SetHTMLBody(htmlBody)
	}
	switch {
	case hasText:
		msg.SetTextBody(textBody)
	case hasHTML:
		msg.SetTextBody(HTMLToText(htmlBody))
	}

	return nil
}

// render renders a single view, then wraps the result in layout unless
// layout is empty. The layout view receives the rendered body under the
// "content" key.
func (c *Composer) render(view string, params Params, layout string) (string, error) {
	body, err := c.renderer.Render(view, params, c)
	if err != nil {
		return "", err
	}
	if layout == "" {
		return body, nil
	}
	return c.renderer.Render(layout, Params{"content": body}, c)
}
