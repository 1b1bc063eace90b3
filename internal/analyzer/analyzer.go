// Package analyzer defines the contract for the content-generation step: a
// source reference goes in, a transcript, ranked highlight windows and a total
// duration come out. The shipped implementation returns fixed data; a real
// speech-to-text and scoring backend plugs in behind the same interface.
package analyzer

import (
	"context"
	"time"

	"github.com/clipforge/clipforge/internal/model"
)

// Source identifies what to analyze.
type Source struct {
	Type model.SourceType
	URL  string
}

// Result is the analyzer's output. Highlights arrive ordered by descending
// score; callers must not re-sort them.
type Result struct {
	Transcript *model.Transcript
	Highlights []model.Highlight
	Duration   int
}

// Analyzer turns a source reference into derived artifacts. Implementations
// must honor ctx cancellation; callers bound every invocation with a timeout.
type Analyzer interface {
	Analyze(ctx context.Context, src Source) (*Result, error)
}

// Fixed returns the same canned analysis for every source. Delay simulates
// work so that a concurrent poller can observe the processing state.
type Fixed struct {
	Delay time.Duration
}

// Analyze returns the canned transcript, highlights and duration.
func (f *Fixed) Analyze(ctx context.Context, _ Source) (*Result, error) {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{
		Transcript: &model.Transcript{
			Text: "Welcome to this video about content repurposing!\n\n" +
				"When you create a long-form video, you're sitting on a goldmine of potential content.\n\n" +
				"The key insight: one piece of content should never stay as just one piece. Aim for 5-10 different pieces from every video.\n\n" +
				"Practical tip: after recording, note down timestamps of your best moments.\n\n" +
				"Content repurposing is essential for modern content creators.",
			Segments: []model.TranscriptSegment{
				{Start: 0, End: 15, Text: "Welcome to this video about content repurposing!"},
				{Start: 15, End: 45, Text: "When you create a long-form video, you're sitting on a goldmine."},
				{Start: 45, End: 90, Text: "The key insight: aim for 5-10 pieces from every video."},
				{Start: 90, End: 150, Text: "Practical tip: note timestamps of your best moments."},
				{Start: 150, End: 180, Text: "Content repurposing is essential for creators."},
			},
		},
		Highlights: []model.Highlight{
			{StartTime: 45, EndTime: 90, Title: "Key Insight: 5-10 Pieces Per Video", Score: 0.95},
			{StartTime: 90, EndTime: 150, Title: "Practical Tip: Timestamp Best Moments", Score: 0.88},
			{StartTime: 15, EndTime: 45, Title: "Content Goldmine Concept", Score: 0.82},
		},
		Duration: 180,
	}, nil
}
