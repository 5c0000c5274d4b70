package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/headfix/internal/heading"
	"github.com/dgallion1/headfix/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	root, err := html.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}

	doc := &Document{Title: baseTitle(filename), Root: root}
	for _, h := range heading.Headings(root) {
		if heading.Rank(h) == 1 {
			doc.Title = outline.TextContent(h)
			break
		}
	}
	return doc, nil
}
