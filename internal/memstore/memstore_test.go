package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/store"
)

func seedProject(t *testing.T, s *Store, id, owner string) *model.Project {
	t.Helper()
	p := &model.Project{
		ID:         id,
		OwnerID:    owner,
		Title:      "Demo",
		SourceType: model.SourceYouTube,
		Status:     model.StatusPending,
	}
	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

func TestOwnershipScoping(t *testing.T) {
	s := New()
	seedProject(t, s, "p1", "alice")

	if _, err := s.GetOwnedProject(context.Background(), "p1", "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("non-owner read: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetOwnedProject(context.Background(), "missing", "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("absent read: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetOwnedProject(context.Background(), "p1", "alice"); err != nil {
		t.Errorf("owner read: %v", err)
	}
}

func TestListProjectsNewestFirst(t *testing.T) {
	s := New()
	old := &model.Project{ID: "old", OwnerID: "alice", CreatedAt: time.Now().Add(-time.Hour)}
	if err := s.CreateProject(context.Background(), old); err != nil {
		t.Fatal(err)
	}
	seedProject(t, s, "new", "alice")
	seedProject(t, s, "other", "bob")

	got, err := s.ListProjects(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d projects, want 2 (owner scoped)", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("order = [%s, %s], want newest first", got[0].ID, got[1].ID)
	}
}

func TestTryStartProcessingSingleWinner(t *testing.T) {
	s := New()
	seedProject(t, s, "p1", "alice")

	var wg sync.WaitGroup
	wins := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryStartProcessing(context.Background(), "p1")
			if err != nil {
				t.Errorf("try start: %v", err)
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for ok := range wins {
		if ok {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("%d winners, want exactly 1", n)
	}
}

func TestTryStartProcessingStates(t *testing.T) {
	s := New()
	seedProject(t, s, "p1", "alice")
	ctx := context.Background()

	if _, err := s.TryStartProcessing(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("absent: err = %v, want ErrNotFound", err)
	}
	if ok, _ := s.TryStartProcessing(ctx, "p1"); !ok {
		t.Fatal("pending project must be startable")
	}
	if ok, _ := s.TryStartProcessing(ctx, "p1"); ok {
		t.Error("processing project must not restart")
	}
	if err := s.MarkFailed(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.TryStartProcessing(ctx, "p1"); !ok {
		t.Error("failed project must be retryable")
	}
}

func TestCompleteRunAndCascadeDelete(t *testing.T) {
	s := New()
	seedProject(t, s, "p1", "alice")
	ctx := context.Background()
	if ok, _ := s.TryStartProcessing(ctx, "p1"); !ok {
		t.Fatal("start")
	}

	artifacts := store.RunArtifacts{
		Transcript: &model.Transcript{Text: "hi", Segments: []model.TranscriptSegment{{End: 1, Text: "hi"}}},
		Highlights: []model.Highlight{{StartTime: 0, EndTime: 1, Title: "h", Score: 0.9}},
		Duration:   60,
		Clips:      []model.Clip{{ID: "c1", ProjectID: "p1", Title: "h"}},
		Contents:   []model.Content{{ID: "t1", ProjectID: "p1", Type: model.ContentBlog, Body: "b"}},
	}
	if err := s.CompleteRun(ctx, "p1", artifacts); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Completing again must fail: the project already left processing.
	if err := s.CompleteRun(ctx, "p1", artifacts); !errors.Is(err, store.ErrStaleRun) {
		t.Errorf("second complete: err = %v, want ErrStaleRun", err)
	}

	p, _ := s.GetOwnedProject(ctx, "p1", "alice")
	if p.Status != model.StatusCompleted || p.Duration != 60 || p.Transcript == nil {
		t.Errorf("completed project not fully populated: %+v", p)
	}

	if err := s.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	clips, _ := s.ListClips(ctx, "p1")
	contents, _ := s.ListContents(ctx, "p1")
	if len(clips) != 0 || len(contents) != 0 {
		t.Errorf("cascade delete left %d clips, %d contents", len(clips), len(contents))
	}
}

func TestFailStale(t *testing.T) {
	s := New()
	seedProject(t, s, "stuck", "alice")
	seedProject(t, s, "fresh", "alice")
	ctx := context.Background()
	if ok, _ := s.TryStartProcessing(ctx, "stuck"); !ok {
		t.Fatal("start stuck")
	}

	time.Sleep(15 * time.Millisecond)
	if ok, _ := s.TryStartProcessing(ctx, "fresh"); !ok {
		t.Fatal("start fresh")
	}

	n, err := s.FailStale(ctx, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	stuck, _ := s.GetOwnedProject(ctx, "stuck", "alice")
	fresh, _ := s.GetOwnedProject(ctx, "fresh", "alice")
	if stuck.Status != model.StatusFailed {
		t.Errorf("stuck status = %s, want failed", stuck.Status)
	}
	if fresh.Status != model.StatusProcessing {
		t.Errorf("fresh status = %s, want processing", fresh.Status)
	}
}

func TestUpsertUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.UpsertUser(ctx, &model.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(ctx, &model.User{ID: "u1", Email: "", Name: "Alice"}); err != nil {
		t.Fatal(err)
	}
	u := s.GetUser("u1")
	if u == nil {
		t.Fatal("user missing")
	}
	if u.Email != "a@example.com" {
		t.Errorf("empty email overwrote existing: %q", u.Email)
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want Alice", u.Name)
	}
}
