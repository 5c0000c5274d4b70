package outline

import (
	"strings"
	"testing"

	"github.com/dgallion1/headfix/internal/heading"
	"golang.org/x/net/html"
)

func parseBody(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestBuild_Hierarchy(t *testing.T) {
	doc := parseBody(t, `<h1>Title</h1><h2>Section A</h2><h3>Sub A1</h3><h2>Section B</h2>
<ul><li><h3>card 1</h3></li><li><h3>card 2</h3></li></ul>`)
	o := Build(doc)

	if o.Title != "Title" {
		t.Errorf("expected title %q, got %q", "Title", o.Title)
	}
	if len(o.Sections) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(o.Sections))
	}
	h1 := o.Sections[0]
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	if h1.Children[0].Title != "Section A" || len(h1.Children[0].Children) != 1 {
		t.Errorf("unexpected Section A: %+v", h1.Children[0])
	}
	if len(h1.Children[1].Children) != 0 {
		t.Errorf("list labels should not appear in the outline, got %+v", h1.Children[1].Children)
	}
}

func TestBuild_RecordsPreviousLevel(t *testing.T) {
	doc := parseBody(t, `<h1>T</h1><h5>deep</h5>`)
	heading.New(nil).Normalize(doc, heading.Options{})

	o := Build(doc)
	got := o.Sections[0].Children[0]
	if got.Level != 2 || got.PrevLevel != 5 {
		t.Errorf("expected level 2 from 5, got level %d from %d", got.Level, got.PrevLevel)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"clean", `<h1>T</h1><h2>a</h2><h3>b</h3><h2>c</h2>`, 0},
		{"skip after h1", `<h1>T</h1><h3>a</h3>`, 1},
		{"two skips", `<h1>T</h1><h2>a</h2><h4>b</h4><h6>c</h6>`, 2},
		{"before h1 ignored", `<h4>x</h4><h1>T</h1><h2>a</h2>`, 0},
		{"list labels ignored", `<h1>T</h1><ul><li><h4>a</h4></li><li><h4>b</h4></li></ul>`, 0},
		{"no h1", `<h2>a</h2><h5>b</h5>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(parseBody(t, tt.body)); len(got) != tt.want {
				t.Errorf("expected %d violations, got %d: %+v", tt.want, len(got), got)
			}
		})
	}
}

func TestCheck_CleanAfterNormalize(t *testing.T) {
	doc := parseBody(t, `<h1>T</h1><h4>a</h4><h6>b</h6><section><h5>c</h5></section><h2>d</h2><h6>e</h6>`)
	if len(Check(doc)) == 0 {
		t.Fatal("expected violations before normalizing")
	}
	heading.New(nil).Normalize(doc, heading.Options{})
	if v := Check(doc); len(v) != 0 {
		t.Errorf("expected no violations after normalizing, got %+v", v)
	}
}

func TestTextContent(t *testing.T) {
	doc := parseBody(t, `<h2>  Hello <em>world</em> </h2>`)
	h := heading.Headings(doc)[0]
	if got := TextContent(h); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}
