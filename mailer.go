package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	texttemplate "text/template"
)

// Mailer provides high-level email sending: it composes a message from view
// templates and hands it to a delivery provider.
type Mailer struct {
	sender   Sender
	renderer ViewRenderer
	config   Config
	log      *slog.Logger
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger enables structured logging of send attempts and failures.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mailer) { m.log = log }
}

// New creates a new Mailer with the given sender and renderer.
func New(sender Sender, renderer ViewRenderer, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendParams contains parameters for sending a templated email.
type SendParams struct {
	To       string   // Single recipient (most common case)
	Template Template // Views to render; NewTemplate(...) for HTML-only
	Params   Params   // View data, passed through to every render call

	// Optional overrides
	Subject     string       // Override view metadata subject
	HTMLLayout  string       // Override default HTML layout
	TextLayout  string       // Override default text layout
	From        string       // Override default sender
	ReplyTo     string       // Reply-to address
	CC          []string     // Carbon copy
	BCC         []string     // Blind carbon copy
	Tags        Tags         // Provider-specific tags
	Attachments []Attachment // File attachments
}

// Send composes an email from the given views and sends it.
// Subject resolution: params.Subject > view frontmatter metadata > config
// fallback. Subject strings support Go template syntax ({{.Variable}}).
//
// Each call builds its own Composer, so a single Mailer is safe for
// concurrent use.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" {
		return ErrNoRecipient
	}

	htmlLayout := params.HTMLLayout
	if htmlLayout == "" {
		htmlLayout = m.config.HTMLLayout
	}
	textLayout := params.TextLayout
	if textLayout == "" {
		textLayout = m.config.TextLayout
	}

	composer := NewComposer(m.renderer, ComposerConfig{
		Template:   params.Template,
		HTMLLayout: htmlLayout,
		TextLayout: textLayout,
		ViewPath:   m.config.ViewPath,
	})

	email := &Email{
		To:          []string{params.To},
		From:        params.From,
		ReplyTo:     params.ReplyTo,
		CC:          params.CC,
		BCC:         params.BCC,
		Tags:        params.Tags,
		Attachments: params.Attachments,
	}

	if err := composer.Compose(email, params.Params); err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject, err := m.resolveSubject(composer, params)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}
	email.Subject = subject

	if err := m.sender.Send(ctx, email); err != nil {
		m.logError(ctx, email, err)
		return errors.Join(ErrSendFailed, err)
	}

	m.logSent(ctx, email)
	return nil
}

// SendRaw sends a pre-built email without template rendering.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipient
	}
	if email.Subject == "" {
		return ErrNoSubject
	}
	if email.HTML == "" && email.Text == "" {
		return ErrNoContent
	}

	if err := m.sender.Send(ctx, email); err != nil {
		m.logError(ctx, email, err)
		return errors.Join(ErrSendFailed, err)
	}

	m.logSent(ctx, email)
	return nil
}

// resolveSubject picks the subject for a templated send and interpolates it
// as a text/template with the view params.
func (m *Mailer) resolveSubject(ctx ViewContext, params SendParams) (string, error) {
	subject := params.Subject
	if subject == "" {
		subject = m.metaSubject(params.Template, ctx)
	}
	if subject == "" {
		subject = m.config.FallbackSubject
	}

	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params.Params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// metaSubject reads the Subject metadata key from the HTML view, falling
// back to the text view. Renderers without metadata support yield "".
func (m *Mailer) metaSubject(tpl Template, ctx ViewContext) string {
	provider, ok := m.renderer.(MetadataProvider)
	if !ok {
		return ""
	}
	for _, view := range []string{tpl.HTML, tpl.Text} {
		if view == "" {
			continue
		}
		meta, err := provider.Meta(view, ctx)
		if err != nil {
			continue
		}
		if s, ok := meta["Subject"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (m *Mailer) logSent(ctx context.Context, email *Email) {
	if m.log == nil {
		return
	}
	m.log.InfoContext(ctx, "email sent",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
	)
}

func (m *Mailer) logError(ctx context.Context, email *Email, err error) {
	if m.log == nil {
		return
	}
	m.log.ErrorContext(ctx, "email send failed",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.Any("error", err),
	)
}
