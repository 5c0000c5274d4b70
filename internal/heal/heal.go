// Package heal ties selector resolution, the verbosity override and the
// heading normalizer into a single call.
package heal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/headfix/internal/heading"
	"github.com/dgallion1/headfix/internal/metrics"
	"github.com/dgallion1/headfix/internal/selector"
	"github.com/dgallion1/headfix/internal/stats"
	"github.com/dgallion1/headfix/internal/verbosity"
	"golang.org/x/net/html"
)

// OutcomeResolveFailed is reported when the selector did not match exactly one element.
const OutcomeResolveFailed = "resolve_failed"

// ErrInvalidRoot is reported when the container is not an element.
var ErrInvalidRoot = errors.New("invalid container")

// FixOptions are the per-call options of a heal.
type FixOptions struct {
	LogResults    bool   `json:"log_results"`
	ClassPrefix   string `json:"class_prefix,omitempty"`
	ForceSingleH1 bool   `json:"force_single_h1"`
}

// LogOnly builds options for callers that only choose whether to log.
func LogOnly(logResults bool) FixOptions {
	return FixOptions{LogResults: logResults}
}

// Report is what a heal call hands back. Err is informational: it is set
// when the call was aborted before normalizing, and the tree is unchanged.
type Report struct {
	Outcome  string
	Replaced int
	Result   heading.Result
	Root     *html.Node // Scope that was healed; nil when Err is set.
	Err      error
}

// Healer runs heals. Every dependency except the logger may be nil.
type Healer struct {
	log       *slog.Logger
	verbosity *verbosity.Controller
	metrics   *metrics.Metrics
	stats     *stats.Stats
}

// New returns a Healer. A nil log discards diagnostics.
func New(log *slog.Logger, v *verbosity.Controller, m *metrics.Metrics, s *stats.Stats) *Healer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Healer{log: log, verbosity: v, metrics: m, stats: s}
}

// Fix resolves sel inside doc and heals the single matching element.
// Zero or multiple matches abort the call without touching the tree.
func (h *Healer) Fix(ctx context.Context, doc *html.Node, sel string, opts FixOptions) Report {
	root, err := selector.Resolve(doc, sel)
	if err != nil {
		if errors.Is(err, selector.ErrNoMatch) {
			h.log.Warn("no elements found for selector", "selector", sel)
		} else {
			h.log.Error("selector must match exactly one element", "selector", sel, "error", err)
		}
		h.metrics.ObserveHeal(0, OutcomeResolveFailed)
		return Report{Outcome: OutcomeResolveFailed, Err: err}
	}
	return h.FixNode(ctx, root, opts)
}

// FixNode heals the headings below root.
func (h *Healer) FixNode(ctx context.Context, root *html.Node, opts FixOptions) Report {
	start := time.Now()
	verbose := h.verbosity.Effective(ctx, opts.LogResults)

	res := heading.New(h.log).Normalize(root, heading.Options{
		ClassPrefix:   opts.ClassPrefix,
		ForceSingleH1: opts.ForceSingleH1,
		Verbose:       verbose,
	})
	elapsed := time.Since(start)

	for _, r := range res.Replacements {
		h.metrics.IncReplaced(heading.TagName(r.OriginalRank), heading.TagName(r.AssignedRank))
	}
	h.metrics.ObserveHeal(elapsed, string(res.Outcome))
	if h.stats != nil {
		h.stats.Record(elapsed, res.Replaced)
	}

	rep := Report{Outcome: string(res.Outcome), Replaced: res.Replaced, Result: res, Root: root}
	if res.Outcome == heading.OutcomeInvalidRoot {
		rep.Root = nil
		rep.Err = ErrInvalidRoot
	}
	return rep
}
