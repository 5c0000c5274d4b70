// Package heading repairs the heading hierarchy of an HTML tree so that no
// level is skipped below the document's primary <h1>.
package heading

import (
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	// DefaultClassPrefix prefixes the style-hook class added to moved headings.
	DefaultClassPrefix = "hs-"
	// TrackingAttr records the original rank on a replaced heading.
	TrackingAttr = "data-prev-heading"
)

// Options controls a normalization run.
type Options struct {
	ClassPrefix   string // Empty means DefaultClassPrefix.
	ForceSingleH1 bool   // Demote every h1 after the primary one to h2.
	Verbose       bool   // Log per-heading decisions.
}

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeNormalized   Outcome = "normalized"
	OutcomeNoPrimary    Outcome = "no_primary"
	OutcomeNoCandidates Outcome = "no_candidates"
	OutcomeInvalidRoot  Outcome = "invalid_root"
)

// Replacement records one heading whose rank changed.
type Replacement struct {
	Original     *html.Node // Node that was swapped out (carries the style-hook class).
	Replacement  *html.Node // Node of the assigned rank now in the tree.
	OriginalRank int
	AssignedRank int
}

// Result summarizes a normalization run.
type Result struct {
	Outcome            Outcome
	Replaced           int
	Replacements       []Replacement
	IgnoredBefore      []string // Tags of headings that precede the primary h1.
	DuplicatePrimaries int      // h1 elements found after the primary one.
	Skipped            int      // Candidates exempted as repeated list labels.
}

// Normalizer rewrites heading ranks under a root node.
type Normalizer struct {
	log *slog.Logger
}

// New returns a Normalizer that writes diagnostics to log.
func New(log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{log: log}
}

// Normalize repairs the headings below root in place. The first h1 is the
// anchor: it is never touched, headings before it are ignored, and every
// later heading is moved so it descends at most one rank from the previous
// evaluated heading. Replaced headings get the class {prefix}{originalRank}
// and a data-prev-heading attribute.
func (n *Normalizer) Normalize(root *html.Node, opts Options) Result {
	if root == nil || (root.Type != html.ElementNode && root.Type != html.DocumentNode) {
		n.log.Warn("invalid container provided to heading normalizer")
		return Result{Outcome: OutcomeInvalidRoot}
	}
	prefix := opts.ClassPrefix
	if prefix == "" {
		prefix = DefaultClassPrefix
	}

	all := Headings(root)
	primary := -1
	for i, h := range all {
		if Rank(h) == 1 {
			primary = i
			break
		}
	}
	if primary < 0 {
		if opts.Verbose {
			n.log.Info("no h1 found, skipping heading structure fix")
		}
		return Result{Outcome: OutcomeNoPrimary}
	}

	var res Result
	if primary > 0 {
		res.IgnoredBefore = make([]string, 0, primary)
		for _, h := range all[:primary] {
			res.IgnoredBefore = append(res.IgnoredBefore, TagName(Rank(h)))
		}
		n.log.Warn("headings found before h1 will be ignored; place content headings after the main h1",
			"count", primary,
			"tags", strings.Join(res.IgnoredBefore, ", "),
		)
	}

	var candidates []*html.Node
	for _, h := range all[primary+1:] {
		if Rank(h) == 1 {
			res.DuplicatePrimaries++
			if !opts.ForceSingleH1 {
				continue
			}
		}
		candidates = append(candidates, h)
	}
	if res.DuplicatePrimaries > 0 {
		if opts.ForceSingleH1 {
			n.log.Warn("additional h1 elements after the first h1 will be converted to h2",
				"count", res.DuplicatePrimaries)
		} else {
			n.log.Warn("additional h1 elements after the first h1 will be ignored; use ForceSingleH1 to convert them to h2",
				"count", res.DuplicatePrimaries)
		}
	}

	if len(candidates) == 0 {
		if opts.Verbose {
			n.log.Info("no h2-h6 headings found after h1, nothing to fix")
		}
		res.Outcome = OutcomeNoCandidates
		return res
	}
	if opts.Verbose {
		n.log.Info("processing headings after h1", "count", len(candidates))
	}

	res.Replacements = n.plan(candidates, opts, prefix, &res)
	for i := range res.Replacements {
		n.replace(&res.Replacements[i], prefix, opts.Verbose)
	}
	res.Replaced = len(res.Replacements)
	res.Outcome = OutcomeNormalized

	if opts.Verbose {
		n.log.Info("heading structure fix complete", "modified", res.Replaced)
	}
	return res
}

// plan assigns a rank to every evaluable candidate and returns the ones
// that change. previousRank only moves on evaluated headings.
func (n *Normalizer) plan(candidates []*html.Node, opts Options, prefix string, res *Result) []Replacement {
	var out []Replacement
	previousRank := 1
	for _, h := range candidates {
		original := Rank(h)
		if items := ListSiblings(h); items > 1 {
			res.Skipped++
			if opts.Verbose {
				n.log.Info("skipping heading in list", "tag", TagName(original), "items", items)
			}
			continue
		}

		assigned := AssignRank(original, previousRank, opts.ForceSingleH1)
		if assigned != original {
			out = append(out, Replacement{
				Original:     h,
				OriginalRank: original,
				AssignedRank: assigned,
			})
			if opts.Verbose {
				n.log.Info("heading will change",
					"from", strings.ToUpper(TagName(original)),
					"to", strings.ToUpper(TagName(assigned)),
					"class", prefix+strconv.Itoa(original),
				)
			}
		}
		previousRank = assigned
	}
	return out
}

// AssignRank computes the rank a heading of rank original should take when
// the previous evaluated heading has rank previous. Results are always in
// [2, 6]; rank 1 belongs to the primary heading alone.
func AssignRank(original, previous int, forceSingleH1 bool) int {
	var r int
	switch {
	case original == 1 && forceSingleH1:
		r = 2
	case original <= previous:
		r = max(2, original)
	default:
		r = min(original, previous+1)
	}
	return min(max(r, 2), 6)
}

// replace tags the original heading with the style-hook class first, then
// swaps in a new element of the assigned rank carrying the same attributes
// and children.
func (n *Normalizer) replace(rec *Replacement, prefix string, verbose bool) {
	orig := rec.Original
	class := prefix + strconv.Itoa(rec.OriginalRank)
	addClass(orig, class)

	repl := &html.Node{
		Type:      html.ElementNode,
		DataAtom:  rankAtoms[rec.AssignedRank],
		Data:      TagName(rec.AssignedRank),
		Namespace: orig.Namespace,
		Attr:      append([]html.Attribute(nil), orig.Attr...),
	}
	setAttr(repl, TrackingAttr, strconv.Itoa(rec.OriginalRank))
	rec.Replacement = repl

	parent := orig.Parent
	if parent == nil {
		for c := orig.FirstChild; c != nil; c = c.NextSibling {
			repl.AppendChild(cloneTree(c))
		}
		return
	}

	// Moving rather than copying keeps nested candidates attached to the tree.
	for c := orig.FirstChild; c != nil; {
		next := c.NextSibling
		orig.RemoveChild(c)
		repl.AppendChild(c)
		c = next
	}
	parent.InsertBefore(repl, orig)
	parent.RemoveChild(orig)

	if verbose {
		n.log.Info("replaced heading",
			"from", strings.ToUpper(TagName(rec.OriginalRank)),
			"to", strings.ToUpper(TagName(rec.AssignedRank)),
			"class", class,
		)
	}
}
