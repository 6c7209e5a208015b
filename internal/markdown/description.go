// Package markdown renders snap descriptions to the restricted HTML subset
// the storefront allows.
package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	// Descriptions commonly use the bullet character for list items.
	bulletItem = regexp.MustCompile(`(?m)^( *)• `)

	// Three leading spaces open a code block in descriptions where CommonMark
	// wants four. Shift every such line by one column.
	codeIndent = regexp.MustCompile(`(?m)^( {3,}\S)`)
)

// description is the goldmark instance used for snap descriptions. It only
// registers the constructs publishers may use: no headings, quotes, rules,
// HTML or links other than autolinks.
var description = goldmark.New(
	goldmark.WithParser(parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewListParser(), 300),
			util.Prioritized(parser.NewListItemParser(), 400),
			util.Prioritized(parser.NewCodeBlockParser(), 500),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(angleAutoLinkParser{parser.NewAutoLinkParser()}, 300),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
		parser.WithASTTransformers(
			util.Prioritized(schemelessLinkUnwrapper{}, 100),
		),
	)),
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
)

// RenderDescription renders a snap description to HTML. Raw HTML is escaped
// and link syntax is left as text; bare http(s) URLs become links.
func RenderDescription(content string) string {
	src := normalizeDescription(content)

	var buf bytes.Buffer
	if err := description.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(content) + "</p>\n"
	}
	return buf.String()
}

func normalizeDescription(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = bulletItem.ReplaceAllString(content, "$1* ")
	return codeIndent.ReplaceAllString(content, " $1")
}

// angleLinksKey holds the e-mail autolinks written as <addr>.
var angleLinksKey = parser.NewContextKey()

// angleAutoLinkParser records which e-mail links came from <addr> syntax so
// bare addresses picked up by Linkify can be told apart.
type angleAutoLinkParser struct {
	parser.InlineParser
}

func (p angleAutoLinkParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	n := p.InlineParser.Parse(parent, block, pc)
	if link, ok := n.(*gast.AutoLink); ok && link.AutoLinkType == gast.AutoLinkEmail {
		angle, _ := pc.Get(angleLinksKey).(map[*gast.AutoLink]bool)
		if angle == nil {
			angle = make(map[*gast.AutoLink]bool)
			pc.Set(angleLinksKey, angle)
		}
		angle[link] = true
	}
	return n
}

// schemelessLinkUnwrapper turns linkified www. hosts and bare e-mail
// addresses back into text; only URLs carrying an explicit scheme and
// <addr> autolinks are links in descriptions.
type schemelessLinkUnwrapper struct{}

func (schemelessLinkUnwrapper) Transform(doc *gast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	angle, _ := pc.Get(angleLinksKey).(map[*gast.AutoLink]bool)
	var bare []*gast.AutoLink
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		link, ok := n.(*gast.AutoLink)
		if !ok {
			return gast.WalkContinue, nil
		}
		switch link.AutoLinkType {
		case gast.AutoLinkURL:
			if !bytes.Contains(link.Label(source), []byte("://")) {
				bare = append(bare, link)
			}
		case gast.AutoLinkEmail:
			if !angle[link] {
				bare = append(bare, link)
			}
		}
		return gast.WalkContinue, nil
	})
	for _, link := range bare {
		parent := link.Parent()
		if parent == nil {
			continue
		}
		parent.ReplaceChild(parent, link, gast.NewString(link.Label(source)))
	}
}
