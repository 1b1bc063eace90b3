package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedResultShape(t *testing.T) {
	res, err := (&Fixed{}).Analyze(context.Background(), Source{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Duration != 180 {
		t.Errorf("duration = %d, want 180", res.Duration)
	}
	if res.Transcript == nil || len(res.Transcript.Segments) == 0 || res.Transcript.Text == "" {
		t.Fatal("transcript incomplete")
	}
	if len(res.Highlights) != 3 {
		t.Fatalf("got %d highlights, want 3", len(res.Highlights))
	}
	for i, h := range res.Highlights {
		if h.StartTime >= h.EndTime {
			t.Errorf("highlight %d range invalid: [%v, %v)", i, h.StartTime, h.EndTime)
		}
		if i > 0 && h.Score > res.Highlights[i-1].Score {
			t.Errorf("highlights not ranked by descending score at %d", i)
		}
	}
}

func TestFixedHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Fixed{Delay: time.Second}).Analyze(ctx, Source{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
