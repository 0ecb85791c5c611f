package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of Sender interface.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func TestMailer_Send_Success(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"base.html": &fstest.MapFile{
			Data: []byte(`<html><body>{{.content}}</body></html>`),
		},
		"welcome.md": &fstest.MapFile{
			Data: []byte(`---
Subject: Welcome {{.Name}}
---
Hello **{{.Name}}**!
`),
		},
	}

	mockSender := &MockSender{}
	renderer := NewMarkdownRenderer(mapFS)
	m := New(mockSender, renderer, Config{
		FallbackSubject: "Notification",
		HTMLLayout:      "base.html",
	})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.To[0] == "alice@example.com" &&
			email.Subject == "Welcome Alice" &&
			len(email.HTML) > 0 &&
			len(email.Text) > 0
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "alice@example.com",
		Template: NewTemplate("welcome.md"),
		Params:   Params{"Name": "Alice"},
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_DerivesTextFromHTML(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"note.md": &fstest.MapFile{
			Data: []byte(`Hello **World**!`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewMarkdownRenderer(mapFS), Config{FallbackSubject: "Note"})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.HTML == "<p>Hello <strong>World</strong>!</p>\n" &&
			email.Text == "Hello World!"
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("note.md"),
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_ExplicitTextView(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"alert.html": &fstest.MapFile{
			Data: []byte(`<p>{{.Msg}}</p>`),
		},
		"alert.txt": &fstest.MapFile{
			Data: []byte(`ALERT: {{.Msg}}`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewTemplateRenderer(mapFS), Config{FallbackSubject: "Alert"})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.HTML == "<p>disk full</p>" &&
			email.Text == "ALERT: disk full"
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "ops@example.com",
		Template: Template{HTML: "alert.html", Text: "alert.txt"},
		Params:   Params{"Msg": "disk full"},
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_NoRecipient(t *testing.T) {
	t.Parallel()

	mockSender := &MockSender{}
	m := New(mockSender, NewTemplateRenderer(fstest.MapFS{}), Config{})

	err := m.Send(context.Background(), SendParams{
		Template: NewTemplate("test.md"),
	})

	require.ErrorIs(t, err, ErrNoRecipient)
	mockSender.AssertNotCalled(t, "Send")
}

func TestMailer_Send_RenderFailure(t *testing.T) {
	t.Parallel()

	mockSender := &MockSender{}
	m := New(mockSender, NewTemplateRenderer(fstest.MapFS{}), Config{})

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("nonexistent.html"),
	})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrRenderFailed)
	require.ErrorIs(t, err, ErrViewNotFound)

	var re *RenderError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "nonexistent.html", re.View)
	mockSender.AssertNotCalled(t, "Send")
}

func TestMailer_Send_SenderFailure(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"test.md": &fstest.MapFile{
			Data: []byte(`Hello world`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewMarkdownRenderer(mapFS), Config{FallbackSubject: "Test"})

	senderErr := errors.New("smtp connection failed")
	mockSender.On("Send", mock.Anything, mock.Anything).Return(senderErr)

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("test.md"),
	})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrSendFailed)
	require.ErrorIs(t, err, senderErr)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_SubjectResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		paramsSubject   string
		viewContent     string
		fallbackSubject string
		expectedSubject string
	}{
		{
			name:          "uses params subject when provided",
			paramsSubject: "Override Subject",
			viewContent: `---
Subject: View Subject
---
Body`,
			fallbackSubject: "Fallback",
			expectedSubject: "Override Subject",
		},
		{
			name:          "uses view metadata when params empty",
			paramsSubject: "",
			viewContent: `---
Subject: View Subject
---
Body`,
			fallbackSubject: "Fallback",
			expectedSubject: "View Subject",
		},
		{
			name:            "uses fallback when both empty",
			paramsSubject:   "",
			viewContent:     `Body without metadata`,
			fallbackSubject: "Fallback Subject",
			expectedSubject: "Fallback Subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mapFS := fstest.MapFS{
				"test.md": &fstest.MapFile{
					Data: []byte(tt.viewContent),
				},
			}

			mockSender := &MockSender{}
			m := New(mockSender, NewMarkdownRenderer(mapFS), Config{
				FallbackSubject: tt.fallbackSubject,
			})

			mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
				return email.Subject == tt.expectedSubject
			})).Return(nil)

			err := m.Send(context.Background(), SendParams{
				To:       "user@example.com",
				Template: NewTemplate("test.md"),
				Subject:  tt.paramsSubject,
			})

			require.NoError(t, err)
			mockSender.AssertExpectations(t)
		})
	}
}

func TestMailer_Send_SubjectTemplating(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"dynamic.md": &fstest.MapFile{
			Data: []byte(`---
Subject: "Order #{{.OrderID}} Confirmed"
---
Your order has been confirmed.
`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewMarkdownRenderer(mapFS), Config{})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.Subject == "Order #12345 Confirmed"
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "customer@example.com",
		Template: NewTemplate("dynamic.md"),
		Params:   Params{"OrderID": "12345"},
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_SubjectTemplatingError(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"test.md": &fstest.MapFile{
			Data: []byte(`Body`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewMarkdownRenderer(mapFS), Config{
		FallbackSubject: "Invalid {{.Unclosed",
	})

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("test.md"),
	})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrRenderFailed)
	mockSender.AssertNotCalled(t, "Send")
}

func TestMailer_Send_LayoutOverrides(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"base.html": &fstest.MapFile{
			Data: []byte(`<html>{{.content}}</html>`),
		},
		"custom.html": &fstest.MapFile{
			Data: []byte(`<div class="custom">{{.content}}</div>`),
		},
		"test.html": &fstest.MapFile{
			Data: []byte(`Test`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewTemplateRenderer(mapFS), Config{
		FallbackSubject: "Test",
		HTMLLayout:      "base.html",
	})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.HTML == `<div class="custom">Test</div>`
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:         "user@example.com",
		Template:   NewTemplate("test.html"),
		HTMLLayout: "custom.html",
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_ViewPathFromConfig(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"emails/test.html": &fstest.MapFile{
			Data: []byte(`hi from subdir`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewTemplateRenderer(mapFS), Config{
		FallbackSubject: "Test",
		ViewPath:        "emails",
	})

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.HTML == "hi from subdir"
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("test.html"),
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_Send_WithOptionalFields(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"test.md": &fstest.MapFile{
			Data: []byte(`Test email`),
		},
	}

	mockSender := &MockSender{}
	m := New(mockSender, NewMarkdownRenderer(mapFS), Config{FallbackSubject: "Test"},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	mockSender.On("Send", mock.Anything, mock.MatchedBy(func(email *Email) bool {
		return email.To[0] == "user@example.com" &&
			email.From == "sender@example.com" &&
			email.ReplyTo == "reply@example.com" &&
			len(email.CC) == 1 && email.CC[0] == "cc@example.com" &&
			len(email.BCC) == 1 && email.BCC[0] == "bcc@example.com" &&
			len(email.Attachments) == 1 && email.Attachments[0].Filename == "doc.pdf"
	})).Return(nil)

	err := m.Send(context.Background(), SendParams{
		To:       "user@example.com",
		Template: NewTemplate("test.md"),
		From:     "sender@example.com",
		ReplyTo:  "reply@example.com",
		CC:       []string{"cc@example.com"},
		BCC:      []string{"bcc@example.com"},
		Tags:     SimpleTags("transactional"),
		Attachments: []Attachment{
			{Filename: "doc.pdf", Content: []byte("pdf content"), ContentType: "application/pdf"},
		},
	})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestMailer_SendRaw_Success(t *testing.T) {
	t.Parallel()

	mockSender := &MockSender{}
	m := New(mockSender, nil, Config{})

	email := &Email{
		To:      []string{"user@example.com"},
		Subject: "Test Subject",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
	}

	mockSender.On("Send", mock.Anything, email).Return(nil)

	require.NoError(t, m.SendRaw(context.Background(), email))
	mockSender.AssertExpectations(t)
}

func TestMailer_SendRaw_TextOnlyIsEnough(t *testing.T) {
	t.Parallel()

	mockSender := &MockSender{}
	m := New(mockSender, nil, Config{})

	email := &Email{
		To:      []string{"user@example.com"},
		Subject: "Test",
		Text:    "plain only",
	}

	mockSender.On("Send", mock.Anything, email).Return(nil)

	require.NoError(t, m.SendRaw(context.Background(), email))
	mockSender.AssertExpectations(t)
}

func TestMailer_SendRaw_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		email       *Email
		expectedErr error
	}{
		{
			name:        "no recipient",
			email:       &Email{Subject: "Test", HTML: "<p>Hello</p>"},
			expectedErr: ErrNoRecipient,
		},
		{
			name:        "no subject",
			email:       &Email{To: []string{"user@example.com"}, HTML: "<p>Hello</p>"},
			expectedErr: ErrNoSubject,
		},
		{
			name:        "no content",
			email:       &Email{To: []string{"user@example.com"}, Subject: "Test"},
			expectedErr: ErrNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockSender := &MockSender{}
			m := New(mockSender, nil, Config{})

			err := m.SendRaw(context.Background(), tt.email)

			require.ErrorIs(t, err, tt.expectedErr)
			mockSender.AssertNotCalled(t, "Send")
		})
	}
}

func TestMailer_SendRaw_SenderFailure(t *testing.T) {
	t.Parallel()

	mockSender := &MockSender{}
	m := New(mockSender, nil, Config{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	email := &Email{
		To:      []string{"user@example.com"},
		Subject: "Test",
		HTML:    "<p>Hello</p>",
	}

	senderErr := errors.New("network error")
	mockSender.On("Send", mock.Anything, email).Return(senderErr)

	err := m.SendRaw(context.Background(), email)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrSendFailed)
	require.ErrorIs(t, err, senderErr)
	mockSender.AssertExpectations(t)
}
