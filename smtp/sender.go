// Package smtp implements mailer.Sender over plain SMTP with STARTTLS, TLS,
// or unencrypted connections. Messages are built as MIME: both bodies travel
// in a multipart/alternative part, attachments wrap it in multipart/mixed.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"regexp"
	"strconv"

	"github.com/DAGpro/mailer"
)

// Sender implements mailer.Sender using the standard SMTP protocol.
// It is stateless and safe for concurrent use; each Send opens its own
// connection.
type Sender struct {
	config Config
	auth   smtp.Auth
}

// New creates an SMTP-backed sender. Host, port, TLS mode, and a valid
// sender address are required; authentication is used only when a username
// is configured.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: Host is required", mailer.ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: Port must be between 1 and 65535", mailer.ErrInvalidConfig)
	}
	if cfg.TLSMode != "starttls" && cfg.TLSMode != "tls" && cfg.TLSMode != "plain" {
		return nil, fmt.Errorf("%w: TLSMode must be starttls, tls, or plain", mailer.ErrInvalidConfig)
	}
	if !isValidEmail(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", mailer.ErrInvalidConfig)
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Sender{config: cfg, auth: auth}, nil
}

// MustNew creates an SMTP sender that panics on invalid config.
// Fails fast during initialization rather than allowing a broken mailer
// to start.
func MustNew(cfg Config) *Sender {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Send implements mailer.Sender. The context is checked before the SMTP
// transaction starts; the transaction itself is synchronous.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(mailer.ErrSendFailed, err)
	}
	if len(email.To) == 0 {
		return mailer.ErrNoRecipient
	}

	msg, err := s.buildMessage(email)
	if err != nil {
		return errors.Join(mailer.ErrSendFailed, err)
	}

	recipients := make([]string, 0, len(email.To)+len(email.CC)+len(email.BCC))
	recipients = append(recipients, email.To...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	switch s.config.TLSMode {
	case "tls":
		err = s.sendTLS(addr, recipients, msg)
	case "starttls":
		err = s.sendSTARTTLS(addr, recipients, msg)
	case "plain":
		err = s.sendPlain(addr, recipients, msg)
	}

	if err != nil {
		return errors.Join(mailer.ErrSendFailed, err)
	}
	return nil
}

// sendTLS delivers over a direct TLS connection.
func (s *Sender) sendTLS(addr string, recipients []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return s.transact(client, recipients, msg)
}

// sendSTARTTLS delivers over a plain connection upgraded via STARTTLS.
func (s *Sender) sendSTARTTLS(addr string, recipients []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return s.transact(client, recipients, msg)
}

// sendPlain delivers without encryption.
func (s *Sender) sendPlain(addr string, recipients []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	return s.transact(client, recipients, msg)
}

// transact runs the MAIL/RCPT/DATA exchange on an established client.
func (s *Sender) transact(client *smtp.Client, recipients []string, msg []byte) error {
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.config.SenderEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// Quit errors are non-fatal as the message was already accepted.
	// Some servers close the connection immediately after DATA.
	_ = client.Quit()
	return nil
}

// emailRegex is a simple regex for validating email addresses.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// isValidEmail checks if the provided string is a valid email address.
func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
