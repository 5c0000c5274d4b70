package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/headfix/internal/outline"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.xhtml", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name, Options{})
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
		if !IsSupportedExtension(tt.name) {
			t.Errorf("%s should be supported", tt.name)
		}
	}

	if _, err := ForFile("a.exe", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.exe") {
		t.Error(".exe should not be supported")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "?"
}

func TestPDFParser_FallbackFlag(t *testing.T) {
	p, _ := ForFile("x.pdf", Options{PDFFallbackPdftotext: true})
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected fallback to be carried into PDFParser")
	}
}

func TestHTMLParser_Title(t *testing.T) {
	input := `<html><head><title>Guide</title></head><body><h1>Intro</h1><h3>Deep</h3></body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", doc.Title)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "<h3>Deep</h3>") {
		t.Errorf("expected headings untouched by parsing, got %s", buf.String())
	}
}

func TestHTMLParser_NoTitle(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>x</p>"), "bare.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "bare" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
}

func TestCSVParser_Table(t *testing.T) {
	input := "name,age\nalice,30\nbob,41\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(collect(doc.Root, atom.Th)); got != 2 {
		t.Errorf("expected 2 header cells, got %d", got)
	}
	if got := len(collect(doc.Root, atom.Td)); got != 4 {
		t.Errorf("expected 4 data cells, got %d", got)
	}
	h1 := collect(doc.Root, atom.H1)
	if len(h1) != 1 || outline.TextContent(h1[0]) != "people" {
		t.Error("expected h1 'people'")
	}
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(""), "none.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collect(doc.Root, atom.Table)) != 0 {
		t.Error("expected no table for empty csv")
	}
}

func TestAppendPages(t *testing.T) {
	_, body := skeleton("x")
	appendPages(body, "one\n\ntwo\fthree\f   \f")

	secs := collect(body, atom.Section)
	if len(secs) != 2 {
		t.Fatalf("expected 2 page sections, got %d", len(secs))
	}
	h2 := collect(body, atom.H2)
	if outline.TextContent(h2[0]) != "Page 1" || outline.TextContent(h2[1]) != "Page 2" {
		t.Errorf("unexpected page labels")
	}
	if got := len(collect(secs[0], atom.P)); got != 2 {
		t.Errorf("expected 2 paragraphs on page 1, got %d", got)
	}
}

func TestDOCXParser_HeadingStyles(t *testing.T) {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().Style("Heading1").AddText("Handbook")
	d.AddParagraph().AddText("Welcome.")
	d.AddParagraph().Style("Heading3").AddText("Benefits")
	d.AddParagraph().AddText("")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	p := &DOCXParser{}
	doc, err := p.Parse(&buf, "handbook.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Handbook" {
		t.Errorf("expected title %q, got %q", "Handbook", doc.Title)
	}
	if len(collect(doc.Root, atom.H1)) != 1 || len(collect(doc.Root, atom.H3)) != 1 {
		t.Error("expected heading styles mapped to h1 and h3")
	}
	if got := len(collect(doc.Root, atom.P)); got != 1 {
		t.Errorf("expected 1 non-empty paragraph, got %d", got)
	}
}
