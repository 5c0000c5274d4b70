// Package outline builds the section outline implied by a tree's headings
// and checks it for skipped levels.
package outline

import (
	"strconv"
	"strings"

	"github.com/dgallion1/headfix/internal/heading"
	"golang.org/x/net/html"
)

// Outline is the section tree of a document.
type Outline struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections"`
}

// Section is one heading and the headings nested under it.
type Section struct {
	Level     int        `json:"level"`
	Title     string     `json:"title"`
	PrevLevel int        `json:"prev_level,omitempty"` // Rank before healing, if it was moved.
	Children  []*Section `json:"children,omitempty"`
}

// Violation is a heading that descends more than one level.
type Violation struct {
	Tag      string `json:"tag"`
	Title    string `json:"title"`
	Level    int    `json:"level"`
	Previous int    `json:"previous"`
}

// Build returns the outline of the headings under root. Headings that are
// labels in a repeated list are left out.
func Build(root *html.Node) *Outline {
	out := &Outline{}

	type stackEntry struct {
		section *Section
		level   int
	}
	top := &Section{}
	stack := []stackEntry{{section: top, level: 0}}

	for _, h := range heading.Headings(root) {
		if heading.InRepeatedList(h) {
			continue
		}
		level := heading.Rank(h)
		s := &Section{Level: level, Title: TextContent(h)}
		if v, ok := heading.Attr(h, heading.TrackingAttr); ok {
			s.PrevLevel, _ = strconv.Atoi(v)
		}
		if level == 1 && out.Title == "" {
			out.Title = s.Title
		}

		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].section
		parent.Children = append(parent.Children, s)
		stack = append(stack, stackEntry{section: s, level: level})
	}

	out.Sections = top.Children
	return out
}

// Check reports every heading after the first h1 that goes more than one
// level deeper than the heading before it. Headings before the h1, later
// h1s and repeated-list labels are not part of the checked sequence.
func Check(root *html.Node) []Violation {
	var violations []Violation
	seenPrimary := false
	previous := 1
	for _, h := range heading.Headings(root) {
		level := heading.Rank(h)
		if !seenPrimary {
			seenPrimary = level == 1
			continue
		}
		if level == 1 || heading.InRepeatedList(h) {
			continue
		}
		if level > previous+1 {
			violations = append(violations, Violation{
				Tag:      heading.TagName(level),
				Title:    TextContent(h),
				Level:    level,
				Previous: previous,
			})
		}
		previous = level
	}
	return violations
}

// TextContent returns the whitespace-trimmed text below n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
