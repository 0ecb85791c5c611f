package mailer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("email must have a subject")

	// ErrNoContent indicates the email has neither an HTML nor a text body.
	ErrNoContent = errors.New("email must have a body")

	// ErrViewNotFound indicates the view file was not found.
	ErrViewNotFound = errors.New("view not found")

	// ErrRenderFailed indicates view rendering failed.
	ErrRenderFailed = errors.New("failed to render view")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid config")
)

// RenderError reports a failed view render. It carries the identifier of the
// view whose render failed, which may be a regular view or a layout. The
// Composer does not catch or wrap it; it reaches the caller unchanged.
type RenderError struct {
	View string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q: %v", e.View, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
