// Package selector resolves a CSS selector to the single element a heal
// operation is scoped to.
package selector

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrNoMatch means the selector matched nothing.
	ErrNoMatch = errors.New("no elements found for selector")
	// ErrMultipleMatches means the selector matched more than one element.
	ErrMultipleMatches = errors.New("selector must match exactly one element")
	// ErrInvalidSelector wraps a selector syntax error.
	ErrInvalidSelector = errors.New("invalid selector")
)

// Resolve returns the one element in doc matched by sel. An empty selector
// resolves to <body>, or to doc itself when there is no body.
func Resolve(doc *html.Node, sel string) (*html.Node, error) {
	if doc == nil {
		return nil, fmt.Errorf("resolve %q: %w", sel, ErrNoMatch)
	}
	if sel == "" {
		if body := Body(doc); body != nil {
			return body, nil
		}
		return doc, nil
	}

	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, sel, err)
	}
	matches := compiled.MatchAll(doc)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, sel)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s matched %d", ErrMultipleMatches, sel, len(matches))
	}
}

// Body returns the <body> element of doc, or nil.
func Body(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := Body(c); b != nil {
			return b
		}
	}
	return nil
}
