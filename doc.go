// Package mailer composes email messages from named view templates and
// delivers them through pluggable providers.
//
// # Architecture
//
// The package consists of four main components:
//
//   - Composer: renders an HTML view, a text view, or both into a Message,
//     applies separate optional layouts, and derives the plain-text body
//     from HTML when no text view is configured
//   - ViewRenderer: Interface that template engines implement
//     (TemplateRenderer and MarkdownRenderer are built in)
//   - Sender: Interface that email providers implement
//   - Mailer: High-level client combining Composer, ViewRenderer and Sender
//
// # Composition
//
// A Template descriptor names the views to render:
//
//	tpl := mailer.Template{HTML: "contact.html", Text: "contact.txt"}
//
// or, for the common HTML-only case where the text body is derived from the
// rendered HTML:
//
//	tpl := mailer.NewTemplate("contact.html")
//
// Each body type has its own optional layout. A layout is just another view
// receiving the rendered body under the "content" key:
//
//	<html><body>{{.content}}</body></html>
//
// The Composer itself is passed to the renderer as the render context, so
// templates can resolve relative view references through its view path and
// introspect the message being built.
//
// Deriving text from HTML is a deliberately simple strip-and-clean pass (see
// HTMLToText), not a full HTML-to-text conversion.
//
// # Usage
//
// Basic usage with the built-in Resend provider:
//
//	import (
//		"context"
//		"os"
//
//		"github.com/DAGpro/mailer"
//		"github.com/DAGpro/mailer/resend"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		// Create the provider
//		sender := resend.New(resend.Config{
//			APIKey:      os.Getenv("RESEND_API_KEY"),
//			SenderEmail: "team@example.com",
//			SenderName:  "Team",
//		})
//
//		// Create the renderer with embedded views
//		renderer := mailer.NewMarkdownRenderer(views.FS)
//
//		// Create the mailer
//		m := mailer.New(sender, renderer, mailer.Config{
//			FallbackSubject: "Notification",
//			HTMLLayout:      "layouts/base.html",
//		})
//
//		// Send a templated email
//		err := m.Send(ctx, mailer.SendParams{
//			To:       "user@example.com",
//			Template: mailer.NewTemplate("welcome.md"),
//			Params:   mailer.Params{"Name": "John"},
//		})
//		if err != nil {
//			panic(err)
//		}
//	}
//
// # Views
//
// MarkdownRenderer views are markdown files with optional YAML frontmatter:
//
//	---
//	Subject: Welcome {{.Name}}!
//	---
//
//	# Welcome
//
//	Hello {{.Name}}, welcome to our service!
//
//	[!button|Get Started]({{.URL}})
//
// Subject fields support Go template syntax ({{.Variable}}) for dynamic
// subjects. TemplateRenderer views are plain text/template files.
//
// # Custom Providers
//
// Implement the Sender interface to add support for other email providers:
//
//	type MySender struct{}
//
//	func (s *MySender) Send(ctx context.Context, email *mailer.Email) error {
//		// Send email using your provider's API
//		return nil
//	}
//
// Built-in providers live in the resend, postmark and smtp subpackages.
//
// # Concurrency
//
// A Composer holds mutable configuration and must not be shared across
// concurrent Compose calls; the Mailer builds one per Send and is safe for
// concurrent use.
//
// # Errors
//
// Renderer failures surface as *RenderError carrying the view identifier and
// pass through the Composer unchanged. The Mailer joins provider and render
// failures with sentinel errors:
//
//   - ErrNoRecipient: No recipient specified
//   - ErrNoSubject: No subject provided
//   - ErrNoContent: Neither body set
//   - ErrViewNotFound: View file not found
//   - ErrRenderFailed: View rendering failed
//   - ErrSendFailed: Email sending failed
//   - ErrInvalidFrontmatter: Invalid YAML frontmatter
package mailer
