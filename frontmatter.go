package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// ParsedView is a view file split into YAML frontmatter metadata and body.
type ParsedView struct {
	Meta map[string]any
	Body string
}

// ParseView splits view file content into frontmatter metadata and body.
// Content that does not start with a "---" delimiter parses as body-only
// with empty metadata. An opening delimiter without a closing one fails
// with ErrInvalidFrontmatter.
func ParseView(content []byte) (*ParsedView, error) {
	if !bytes.HasPrefix(content, frontmatterDelim) {
		return &ParsedView{Meta: make(map[string]any), Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, frontmatterDelim), "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	raw, body, found := bytes.Cut(rest, frontmatterDelim)
	if !found {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	// Drop the single line break following the closing delimiter.
	if rem, ok := bytes.CutPrefix(body, []byte("\r\n")); ok {
		body = rem
	} else if rem, ok := bytes.CutPrefix(body, []byte("\n")); ok {
		body = rem
	}

	meta := make(map[string]any)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &ParsedView{Meta: meta, Body: string(body)}, nil
}
