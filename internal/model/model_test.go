package model

import "testing"

func TestProjectStatusValid(t *testing.T) {
	for _, s := range []ProjectStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []ProjectStatus{"", "queued", "done", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestProjectStatusTerminal(t *testing.T) {
	cases := map[ProjectStatus]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	}
	for s, want := range cases {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestSourceTypeValid(t *testing.T) {
	if !SourceYouTube.Valid() || !SourceUpload.Valid() {
		t.Error("known source types must be valid")
	}
	if SourceType("vimeo").Valid() || SourceType("").Valid() {
		t.Error("unknown source types must be invalid")
	}
}

func TestContentTypesOrder(t *testing.T) {
	got := ContentTypes()
	want := []ContentType{ContentBlog, ContentTwitter, ContentLinkedIn}
	if len(got) != len(want) {
		t.Fatalf("got %d types, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ContentTypes()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
