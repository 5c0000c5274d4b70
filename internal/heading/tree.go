package heading

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var rankAtoms = [...]atom.Atom{0, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// Rank returns the heading rank (1-6) of n, or 0 if n is not a heading element.
func Rank(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	a := n.DataAtom
	if a == 0 {
		a = atom.Lookup([]byte(strings.ToLower(n.Data)))
	}
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// TagName returns the lowercase tag for a heading rank, e.g. "h3".
func TagName(rank int) string {
	if rank < 1 || rank > 6 {
		return ""
	}
	return rankAtoms[rank].String()
}

// Headings returns every heading element below root in document order.
// The root itself is not included.
func Headings(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if Rank(c) > 0 {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ListSiblings reports how many <li> elements share the nearest list-item
// ancestor's parent. It returns 0 when n has no list-item ancestor or that
// list item is detached from an element parent.
func ListSiblings(n *html.Node) int {
	li := closestListItem(n)
	if li == nil {
		return 0
	}
	parent := li.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return 0
	}
	return countListItems(parent)
}

// InRepeatedList reports whether n sits inside a list item that has at least
// one sibling list item. Such headings are labels, not outline entries.
func InRepeatedList(n *html.Node) bool {
	return ListSiblings(n) > 1
}

func closestListItem(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.DataAtom == atom.Li || (p.DataAtom == 0 && strings.EqualFold(p.Data, "li"))) {
			return p
		}
	}
	return nil
}

// countListItems counts <li> descendants of n, nested lists included.
func countListItems(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Li || (c.DataAtom == 0 && strings.EqualFold(c.Data, "li"))) {
			count++
		}
		count += countListItems(c)
	}
	return count
}

// Attr returns the value of the named attribute and whether it was present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the class attribute of n contains token.
func HasClass(n *html.Node, token string) bool {
	v, _ := Attr(n, "class")
	for _, f := range strings.Fields(v) {
		if f == token {
			return true
		}
	}
	return false
}

// addClass appends token to the class list of n, leaving it alone if the
// token is already there.
func addClass(n *html.Node, token string) {
	if HasClass(n, token) {
		return
	}
	v, _ := Attr(n, "class")
	setAttr(n, "class", strings.Join(append(strings.Fields(v), token), " "))
}

func cloneTree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneTree(child))
	}
	return c
}
