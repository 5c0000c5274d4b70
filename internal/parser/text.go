package parser

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html/atom"
)

// TextParser handles plain text files. The filename becomes the h1 and
// each blank-line separated block becomes a paragraph.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	title := baseTitle(filename)
	root, body := skeleton(title)
	body.AppendChild(headingElement(1, title))
	for _, para := range paragraphs {
		body.AppendChild(element(atom.P, textNode(para)))
	}
	return &Document{Title: title, Root: root}, nil
}
