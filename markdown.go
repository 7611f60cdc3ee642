package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options is the set of conversion switches. A flavor provides the defaults,
// configuration overrides are applied on top.
type Options struct {
	Flavor               string
	SimpleLineBreaks     bool
	OpenLinksInNewWindow bool
	TaskLists            bool
	Tables               bool
	Strikethrough        bool
	SimplifiedAutoLink   bool
	HeaderIDs            bool
	Emoji                bool
	GHMentions           bool
	CompleteHTMLDocument bool
}

var flavors = map[string]Options{
	"github": {
		Flavor:             "github",
		SimpleLineBreaks:   true,
		TaskLists:          true,
		Tables:             true,
		Strikethrough:      true,
		SimplifiedAutoLink: true,
		HeaderIDs:          true,
		Emoji:              true,
		GHMentions:         true,
	},
	"vanilla": {
		Flavor: "vanilla",
	},
}

// flavorOptions returns the option defaults of the named flavor
func flavorOptions(name string) (Options, error) {
	opts, ok := flavors[name]
	if !ok {
		return Options{}, fmt.Errorf("unknown flavor %q", name)
	}
	return opts, nil
}

//go:embed document.html
var documentTemplate string

var document = template.Must(template.New("document").Parse(documentTemplate))

type converter struct {
	md   goldmark.Markdown
	opts Options
}

func newConverter(opts Options) *converter {
	var extensions []goldmark.Extender
	if opts.Tables {
		extensions = append(extensions, extension.Table)
	}
	if opts.Strikethrough {
		extensions = append(extensions, extension.Strikethrough)
	}
	if opts.SimplifiedAutoLink {
		extensions = append(extensions, extension.Linkify)
	}
	if opts.TaskLists {
		extensions = append(extensions, extension.TaskList)
	}
	if opts.Emoji {
		extensions = append(extensions, emoji.New(emoji.WithRenderingMethod(emoji.Unicode)))
	}

	var parserOptions []parser.Option
	if opts.HeaderIDs {
		parserOptions = append(parserOptions, parser.WithAutoHeadingID())
	}
	if opts.GHMentions {
		parserOptions = append(parserOptions, parser.WithInlineParsers(
			util.Prioritized(mentionParser{}, 500),
		))
	}
	if opts.OpenLinksInNewWindow {
		// lowest priority, so links created by other transformers get a target too
		parserOptions = append(parserOptions, parser.WithASTTransformers(
			util.Prioritized(linkTargetTransformer{}, 999),
		))
	}

	// raw HTML is passed through
	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if opts.SimpleLineBreaks {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return &converter{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithParserOptions(parserOptions...),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}
}

// Convert turns Markdown source into HTML.
func (c *converter) Convert(source []byte) (string, error) {
	doc := c.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", err
	}

	if !c.opts.CompleteHTMLDocument {
		return buf.String(), nil
	}

	var out strings.Builder
	if err := document.Execute(&out, map[string]any{
		"Title":   documentTitle(doc, source),
		"Content": template.HTML(buf.String()),
	}); err != nil {
		return "", err
	}
	return out.String(), nil
}

// documentTitle returns the text of the first level 1 heading
func documentTitle(doc ast.Node, source []byte) string {
	var title []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level != 1 {
			return ast.WalkSkipChildren, nil
		}
		title = plainText(h, source)
		return ast.WalkStop, nil
	})
	return string(title)
}

func plainText(n ast.Node, source []byte) []byte {
	var buf []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(source)...)
			if t.SoftLineBreak() {
				buf = append(buf, ' ')
			}
		case *ast.String:
			buf = append(buf, t.Value...)
		default:
			buf = append(buf, plainText(c, source)...)
		}
	}
	return buf
}

// linkTargetTransformer makes every link open in a new browsing context
type linkTargetTransformer struct{}

func (linkTargetTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			n.SetAttributeString("target", []byte("_blank"))
			n.SetAttributeString("rel", []byte("noopener noreferrer"))
		}

		return ast.WalkContinue, nil
	})
}

const mentionURL = "https://github.com/"

// mentionParser turns @user into a link to the GitHub profile of user.
// The @ has to start a word, so e-mail addresses are left alone.
type mentionParser struct{}

func (mentionParser) Trigger() []byte {
	return []byte{'@'}
}

func (mentionParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if before := block.PrecendingCharacter(); !unicode.IsSpace(before) {
		return nil
	}

	line, segment := block.PeekLine()
	n := mentionLength(line)
	if n == 0 {
		return nil
	}
	block.Advance(n)

	link := ast.NewLink()
	link.Destination = append([]byte(mentionURL), line[1:n]...)
	link.AppendChild(link, ast.NewTextSegment(text.NewSegment(segment.Start, segment.Start+n)))
	return link
}

// mentionLength returns the length of the @user prefix of line, or 0.
// Names are letters and digits, with '.', '_' and '-' allowed inside.
func mentionLength(line []byte) int {
	end := 0
	for i := 1; i < len(line); i++ {
		c := line[i]
		if isAlnum(c) {
			end = i + 1
			continue
		}
		if (c == '.' || c == '_' || c == '-') && end > 0 {
			continue
		}
		break
	}
	return end
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
