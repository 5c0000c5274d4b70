package heal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/headfix/internal/heading"
	"github.com/dgallion1/headfix/internal/metrics"
	"github.com/dgallion1/headfix/internal/selector"
	"github.com/dgallion1/headfix/internal/stats"
	"github.com/dgallion1/headfix/internal/verbosity"
	"golang.org/x/net/html"
)

const page = `<!DOCTYPE html><html><body>
<nav><h4>Menu</h4></nav>
<div class="article-content"><h1>Post</h1><h4>Intro</h4><h6>Detail</h6></div>
<aside class="sidebar"><h5>Related</h5></aside>
<aside class="sidebar"><h5>Tags</h5></aside>
</body></html>`

func parse(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func newHealer(buf *bytes.Buffer, store verbosity.Store) *Healer {
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(log, verbosity.NewController(store, log), metrics.New(nil), stats.New(time.Hour))
}

func TestFix_ScopedToSelector(t *testing.T) {
	var logs bytes.Buffer
	h := newHealer(&logs, verbosity.NewMemoryStore())
	doc := parse(t)

	rep := h.Fix(context.Background(), doc, ".article-content", FixOptions{})
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if rep.Replaced != 2 {
		t.Fatalf("expected 2 replacements, got %d", rep.Replaced)
	}

	out := render(t, doc)
	for _, want := range []string{
		`<h2 class="hs-4" data-prev-heading="4">Intro</h2>`,
		`<h3 class="hs-6" data-prev-heading="6">Detail</h3>`,
		`<nav><h4>Menu</h4></nav>`,
		`<h5>Related</h5>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if rep.Root == nil || !heading.HasClass(rep.Root, "article-content") {
		t.Errorf("expected report root to be the selected container, got %+v", rep.Root)
	}
	if h.stats.Snapshot().Replaced != 2 {
		t.Errorf("expected stats to record 2 replacements, got %+v", h.stats.Snapshot())
	}
}

func TestFix_ResolutionFailuresLeaveTreeUnchanged(t *testing.T) {
	tests := []struct {
		name string
		sel  string
		err  error
		log  string
	}{
		{"no match", ".missing", selector.ErrNoMatch, "level=WARN"},
		{"multiple matches", ".sidebar", selector.ErrMultipleMatches, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := newHealer(&logs, nil)
			doc := parse(t)
			before := render(t, doc)

			rep := h.Fix(context.Background(), doc, tt.sel, FixOptions{})
			if !errors.Is(rep.Err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, rep.Err)
			}
			if rep.Outcome != OutcomeResolveFailed || rep.Replaced != 0 || rep.Root != nil {
				t.Errorf("unexpected report %+v", rep)
			}
			if render(t, doc) != before {
				t.Error("tree changed after a failed resolution")
			}
			if !strings.Contains(logs.String(), tt.log) {
				t.Errorf("expected %s diagnostic, got:\n%s", tt.log, logs.String())
			}
		})
	}
}

func TestFixNode_InvalidRoot(t *testing.T) {
	var logs bytes.Buffer
	h := newHealer(&logs, nil)
	rep := h.FixNode(context.Background(), nil, FixOptions{})
	if !errors.Is(rep.Err, ErrInvalidRoot) || rep.Outcome != string(heading.OutcomeInvalidRoot) || rep.Root != nil {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestFix_VerbosityOverride(t *testing.T) {
	ctx := context.Background()
	store := verbosity.NewMemoryStore()

	var quiet bytes.Buffer
	h := newHealer(&quiet, store)
	h.Fix(ctx, parse(t), ".article-content", LogOnly(false))
	if strings.Contains(quiet.String(), "heading will change") {
		t.Error("expected no verbose output without an override")
	}

	var loud bytes.Buffer
	h = newHealer(&loud, store)
	h.verbosity.Enable(ctx)
	h.Fix(ctx, parse(t), ".article-content", LogOnly(false))
	if !strings.Contains(loud.String(), "heading will change") {
		t.Errorf("expected verbose output with override enabled, got:\n%s", loud.String())
	}

	var muted bytes.Buffer
	h = newHealer(&muted, store)
	h.verbosity.Disable(ctx)
	h.Fix(ctx, parse(t), ".article-content", LogOnly(true))
	if strings.Contains(muted.String(), "heading will change") {
		t.Error("disabled override should silence a call-site request for logging")
	}
}

func TestFix_DiagnosticsAlwaysEmitted(t *testing.T) {
	var logs bytes.Buffer
	h := newHealer(&logs, nil)
	doc, err := html.Parse(strings.NewReader(`<body><h2>early</h2><h1>T</h1><h1>dup</h1><h3>x</h3></body>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h.Fix(context.Background(), doc, "", LogOnly(false))

	out := logs.String()
	if !strings.Contains(out, "headings found before h1") {
		t.Errorf("expected pre-primary diagnostic, got:\n%s", out)
	}
	if !strings.Contains(out, "will be ignored; use ForceSingleH1") {
		t.Errorf("expected duplicate h1 diagnostic, got:\n%s", out)
	}
}
