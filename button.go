package mailer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ButtonNode represents a call-to-action button link in the AST.
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

// KindButton is the node kind for ButtonNode.
var KindButton = ast.NewNodeKind("Button")

func (n *ButtonNode) Kind() ast.NodeKind {
	return KindButton
}

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// buttonPrefix is the syntax prefix that triggers button parsing.
const buttonPrefix = "[!button|"

// buttonParser parses button syntax: [!button|Label](URL).
type buttonParser struct{}

// NewButtonParser creates the button inline parser.
func NewButtonParser() parser.InlineParser {
	return &buttonParser{}
}

func (p *buttonParser) Trigger() []byte {
	return []byte{'['}
}

func (p *buttonParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte(buttonPrefix)) {
		return nil
	}

	labelEnd := bytes.IndexByte(line[len(buttonPrefix):], ']')
	if labelEnd < 0 {
		return nil
	}
	labelEnd += len(buttonPrefix)
	label := line[len(buttonPrefix):labelEnd]

	if labelEnd+1 >= len(line) || line[labelEnd+1] != '(' {
		return nil
	}

	urlEnd := bytes.IndexByte(line[labelEnd+2:], ')')
	if urlEnd < 0 {
		return nil
	}
	urlEnd += labelEnd + 2
	url := line[labelEnd+2 : urlEnd]

	block.Advance(urlEnd + 1)

	return &ButtonNode{URL: url, Label: label}
}

// buttonHTML is the inline-styled anchor emitted for buttons. Email clients
// ignore <style> blocks, so the styling must travel on the element itself.
const (
	buttonOpen  = `<a href="`
	buttonStyle = `" style="display:inline-block;padding:12px 24px;background-color:#2563eb;color:#ffffff;text-decoration:none;border-radius:6px" target="_blank">`
	buttonClose = `</a>`
)

// buttonRenderer renders ButtonNode to HTML.
type buttonRenderer struct {
	html.Config
}

// NewButtonRenderer creates the button node renderer.
func NewButtonRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &buttonRenderer{Config: html.NewConfig()}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.renderButton)
}

func (r *buttonRenderer) renderButton(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ButtonNode)

	_, _ = w.WriteString(buttonOpen)
	_, _ = w.Write(util.EscapeHTML(n.URL))
	_, _ = w.WriteString(buttonStyle)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(buttonClose)

	return ast.WalkContinue, nil
}

// ButtonExtension is a goldmark extension for button links in email views.
type ButtonExtension struct{}

func (e *ButtonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewButtonParser(), 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewButtonRenderer(), 50),
	))
}

// NewButtonExtension creates the button extension for goldmark.
func NewButtonExtension() goldmark.Extender {
	return &ButtonExtension{}
}
