package mailer

import (
	"html"
	"regexp"
	"strings"
)

// Regex-based on purpose: this is a strip-and-clean pass for deriving a
// readable text alternative, not an HTML parser. Unmatched tags stay as
// literal text.
var (
	bodyRe        = regexp.MustCompile(`(?is)<body\b[^>]*>(.*?)</body>`)
	styleScriptRe = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>|<script\b[^>]*>.*?</script>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	lineIndentRe  = regexp.MustCompile(`(?m)^[ \t]+`)
	blankRunRe    = regexp.MustCompile(`(\s*\n){2,}`)
)

// HTMLToText derives a plain-text body from rendered HTML. It keeps only the
// content of the first <body> element when one is present, drops <style> and
// <script> elements including their content, strips the remaining tags,
// decodes HTML entities, and normalizes whitespace: indentation is removed
// from every line, the whole text is trimmed, and runs of two or more line
// breaks collapse into a single blank line.
//
// The function is pure and never fails; malformed HTML degrades to plain
// substring behavior. Empty or all-whitespace input yields an empty string.
func HTMLToText(input string) string {
	text := input
	if m := bodyRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = styleScriptRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = lineIndentRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	return blankRunRe.ReplaceAllString(text, "\n\n")
}
