package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DAGpro/mailer"
)

// buildMessage assembles the full RFC 5322 message: headers followed by the
// MIME-encoded body.
func (s *Sender) buildMessage(email *mailer.Email) ([]byte, error) {
	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}

	body, contentType, err := encodeBody(email)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}

	header("From", from)
	header("To", strings.Join(email.To, ", "))
	if len(email.CC) > 0 {
		header("Cc", strings.Join(email.CC, ", "))
	}
	if email.ReplyTo != "" {
		header("Reply-To", email.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), s.config.Host))
	for _, name := range slices.Sorted(maps.Keys(email.Headers)) {
		header(name, email.Headers[name])
	}
	header("MIME-Version", "1.0")
	header("Content-Type", contentType)

	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// encodeBody encodes the message body. With attachments the bodies and the
// attachment parts travel in a multipart/mixed container; without them the
// result of encodeAlternative is the whole body.
func encodeBody(email *mailer.Email) (body []byte, contentType string, err error) {
	alt, altType := encodeAlternative(email)
	if len(email.Attachments) == 0 {
		return alt, altType, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {altType}})
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(alt); err != nil {
		return nil, "", err
	}

	for _, a := range email.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		hdr := textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
		}
		if a.ContentID != "" {
			hdr.Set("Content-ID", "<"+a.ContentID+">")
		}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, "", err
		}
		if err := writeBase64(part, a.Content); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()), nil
}

// encodeAlternative encodes the text and HTML bodies. Both present yields a
// multipart/alternative container with the text part first, per RFC 2046
// least-preferred-first ordering; a single body is emitted directly.
func encodeAlternative(email *mailer.Email) ([]byte, string) {
	switch {
	case email.HTML != "" && email.Text != "":
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		// Writes to a bytes.Buffer cannot fail.
		part, _ := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {`text/plain; charset="UTF-8"`}})
		_, _ = io.WriteString(part, email.Text)
		part, _ = mw.CreatePart(textproto.MIMEHeader{"Content-Type": {`text/html; charset="UTF-8"`}})
		_, _ = io.WriteString(part, email.HTML)
		_ = mw.Close()
		return buf.Bytes(), fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())
	case email.HTML != "":
		return []byte(email.HTML), `text/html; charset="UTF-8"`
	default:
		return []byte(email.Text), `text/plain; charset="UTF-8"`
	}
}

// writeBase64 writes data base64-encoded in 76-character lines per RFC 2045.
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 0 {
		n := min(76, len(enc))
		if _, err := io.WriteString(w, enc[:n]+"\r\n"); err != nil {
			return err
		}
		enc = enc[n:]
	}
	return nil
}
