// Package postmark implements mailer.Sender using Postmark's transactional API.
package postmark

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/DAGpro/mailer"
)

// Sender implements mailer.Sender using the Postmark API.
type Sender struct {
	client *postmark.Client
	config Config
}

// New creates a Postmark-backed sender. The server token is required;
// this enforces explicit configuration rather than silent failures in
// production.
func New(cfg Config) (*Sender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", mailer.ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", mailer.ErrInvalidConfig)
	}

	return &Sender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// MustNew creates a Postmark sender that panics on invalid config.
// Fails fast during initialization rather than allowing a broken mailer
// to start.
func MustNew(cfg Config) *Sender {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Send implements mailer.Sender. Postmark accepts a single tag per message;
// when the email carries several, the first in lexical order wins.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}

	msg := postmark.Email{
		From:        from,
		To:          strings.Join(email.To, ","),
		Cc:          strings.Join(email.CC, ","),
		Bcc:         strings.Join(email.BCC, ","),
		Subject:     email.Subject,
		Tag:         firstTag(email.Tags),
		HTMLBody:    email.HTML,
		TextBody:    email.Text,
		ReplyTo:     email.ReplyTo,
		Headers:     convertHeaders(email.Headers),
		Attachments: convertAttachments(email.Attachments),
	}

	resp, err := s.client.SendEmail(ctx, msg)
	if err != nil {
		return fmt.Errorf("postmark: failed to send email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			mailer.ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

func firstTag(tags mailer.Tags) string {
	if len(tags) == 0 {
		return ""
	}
	return slices.Sorted(maps.Keys(tags))[0]
}

func convertHeaders(headers map[string]string) []postmark.Header {
	if len(headers) == 0 {
		return nil
	}
	result := make([]postmark.Header, 0, len(headers))
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		result = append(result, postmark.Header{Name: name, Value: headers[name]})
	}
	return result
}

func convertAttachments(attachments []mailer.Attachment) []postmark.Attachment {
	if len(attachments) == 0 {
		return nil
	}
	result := make([]postmark.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = postmark.Attachment{
			Name:        a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
			ContentID:   a.ContentID,
		}
	}
	return result
}
