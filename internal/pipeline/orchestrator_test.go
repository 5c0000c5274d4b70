package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/dgallion1/headfix/internal/heal"
)

func waitFinished(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		if snap.Status.Finished() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	o := NewOrchestrator(Options{WorkerCount: 2, MaxQueueSize: 10, JobTTL: time.Hour}, heal.New(nil, nil, nil, nil), nil, nil)
	o.Start(context.Background())
	defer o.Stop()

	good := NewJob("page.html", []byte(`<body><h1>T</h1><h4>deep</h4><h6>deeper</h6></body>`), "", heal.FixOptions{})
	md := NewJob("notes.md", []byte("# Notes\n\n### Jump\n"), "", heal.FixOptions{ClassPrefix: "lvl-"})
	bad := NewJob("image.png", []byte("x"), "", heal.FixOptions{})
	missing := NewJob("page.html", []byte(`<body><h1>T</h1></body>`), "#nope", heal.FixOptions{})

	scoped := NewJob("scoped.html", []byte(`<body><nav><h1>Nav</h1><h5>menu</h5></nav><article><h1>Post</h1><h3>Body</h3></article></body>`), "article", heal.FixOptions{})

	for _, j := range []*Job{good, md, bad, missing, scoped} {
		if err := o.Submit(j); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	snap := waitFinished(t, good)
	if snap.Status != StatusCompleted || snap.Replaced != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	res := good.Result()
	if !strings.Contains(res.HTML, `<h2 class="hs-4" data-prev-heading="4">deep</h2>`) {
		t.Errorf("unexpected html %s", res.HTML)
	}
	if len(res.Violations) != 0 {
		t.Errorf("expected no violations, got %+v", res.Violations)
	}

	snap = waitFinished(t, md)
	if snap.Status != StatusCompleted || snap.Title != "Notes" {
		t.Errorf("unexpected markdown snapshot %+v", snap)
	}
	if !strings.Contains(md.Result().HTML, `class="lvl-3"`) {
		t.Errorf("expected custom class prefix, got %s", md.Result().HTML)
	}

	if snap := waitFinished(t, bad); snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected parse failure, got %+v", snap)
	}
	if snap := waitFinished(t, missing); snap.Status != StatusFailed || snap.Phase != "healing" {
		t.Errorf("expected heal failure, got %+v", snap)
	}

	if snap := waitFinished(t, scoped); snap.Status != StatusCompleted {
		t.Fatalf("expected scoped job to complete, got %+v", snap)
	}
	sres := scoped.Result()
	if len(sres.Violations) != 0 {
		t.Errorf("expected violations limited to the selected article, got %+v", sres.Violations)
	}
	if sres.Outline.Title != "Post" || len(sres.Outline.Sections) != 1 {
		t.Errorf("expected outline of the article only, got %+v", sres.Outline)
	}

	if o.GetJob(good.ID) != good {
		t.Error("expected job to be retrievable")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Not started: nothing drains the queue.
	o := NewOrchestrator(Options{WorkerCount: 1, MaxQueueSize: 1}, heal.New(nil, nil, nil, nil), nil, nil)

	if err := o.Submit(NewJob("a.html", nil, "", heal.FixOptions{})); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.html", nil, "", heal.FixOptions{})
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if snap := second.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
	o.Stop()
}
