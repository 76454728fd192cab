package checks

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// heading is one markdown heading with its rendered text.
type heading struct {
	level int
	text  string
}

// fence is one fenced code block; lang is the lowercased info-string tag,
// empty when the fence declares no language.
type fence struct {
	lang string
}

// block is a top-level markdown block: either a heading or a content block
// with its word count.
type block struct {
	heading *heading
	words   int
}

// outline is the parsed structure of an artifact body used by the checks.
type outline struct {
	headings []heading
	fences   []fence
	links    []string
	hasTable bool
	blocks   []block
}

// parseOutline builds the markdown outline of body. Tables require the GFM
// table extension to appear in the AST.
func parseOutline(body string) *outline {
	source := []byte(body)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	o := &outline{}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			o.headings = append(o.headings, heading{level: v.Level, text: nodeText(v, source)})
		case *ast.FencedCodeBlock:
			lang := ""
			if l := v.Language(source); l != nil {
				lang = strings.ToLower(string(l))
			}
			o.fences = append(o.fences, fence{lang: lang})
		case *ast.Link:
			o.links = append(o.links, string(v.Destination))
		case *ast.AutoLink:
			target := string(v.Label(source))
			if len(v.Protocol) > 0 && !strings.HasPrefix(target, string(v.Protocol)) {
				target = string(v.Protocol) + target
			}
			o.links = append(o.links, target)
		case *extast.Table:
			o.hasTable = true
		}
		return ast.WalkContinue, nil
	})

	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if h, ok := c.(*ast.Heading); ok {
			o.blocks = append(o.blocks, block{heading: &heading{level: h.Level, text: nodeText(h, source)}})
			continue
		}
		words := len(strings.Fields(nodeText(c, source)))
		o.blocks = append(o.blocks, block{words: words})
	}

	return o
}

// nodeText concatenates the raw text segments under n.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// hasHeading reports whether any heading satisfies match.
func (o *outline) hasHeading(match func(heading) bool) bool {
	for _, h := range o.headings {
		if match(h) {
			return true
		}
	}
	return false
}

// emptySections returns the headings that are immediately followed by another
// heading with no intervening content.
func (o *outline) emptySections() []string {
	var empty []string
	for i := 0; i+1 < len(o.blocks); i++ {
		if o.blocks[i].heading != nil && o.blocks[i+1].heading != nil {
			empty = append(empty, o.blocks[i].heading.text)
		}
	}
	return empty
}

// sectionWordCount sums the words of the content blocks between the first
// heading matching match and the next heading of any level.
func (o *outline) sectionWordCount(match func(heading) bool) int {
	words := 0
	inSection := false
	for _, b := range o.blocks {
		if b.heading != nil {
			if inSection {
				break
			}
			inSection = match(*b.heading)
			continue
		}
		if inSection {
			words += b.words
		}
	}
	return words
}
