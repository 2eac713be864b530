package render

import (
	"bytes"
	"html"
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var quoteClass = regexp.MustCompile(`^quote$`)

// Quote is a block of lines starting with '>', used when a reply cites the
// question it answers.
type Quote struct {
	ast.BaseBlock
}

func (n *Quote) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var KindQuote = ast.NewNodeKind("Quote")

func (n *Quote) Kind() ast.NodeKind {
	return KindQuote
}

type quoteParser struct{}

func NewQuoteParser() parser.BlockParser {
	return &quoteParser{}
}

func (b *quoteParser) Trigger() []byte {
	return []byte{'>'}
}

func (b *quoteParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	if len(line) == 0 || line[0] != '>' {
		return nil, parser.NoChildren
	}
	node := &Quote{}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (b *quoteParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) || line[0] != '>' {
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (b *quoteParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *quoteParser) CanInterruptParagraph() bool {
	return true
}

func (b *quoteParser) CanAcceptIndentedLine() bool {
	return false
}

type quoteHTMLRenderer struct {
	goldhtml.Config
}

func NewQuoteHTMLRenderer(opts ...goldhtml.Option) renderer.NodeRenderer {
	r := &quoteHTMLRenderer{Config: goldhtml.NewConfig()}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *quoteHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindQuote, r.renderQuote)
}

func (r *quoteHTMLRenderer) renderQuote(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<blockquote class="quote">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		value := bytes.TrimRight(line.Value(source), "\r\n")
		value = bytes.TrimSpace(bytes.TrimPrefix(value, []byte{'>'}))
		_, _ = w.WriteString(html.EscapeString(string(value)))
		if i < lines.Len()-1 {
			_, _ = w.WriteString("<br>")
		}
	}
	_, _ = w.WriteString("</blockquote>\n")
	return ast.WalkSkipChildren, nil
}
