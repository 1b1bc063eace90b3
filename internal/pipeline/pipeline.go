// Package pipeline drives a project through its processing lifecycle:
// pending|failed -> processing -> completed|failed. The store's
// compare-and-set transition guarantees at most one active run per project;
// artifacts are committed together with the completed flip so a poller can
// never observe completed with zero clips.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/analyzer"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/store"
)

// ErrNotStartable is returned when the project is already processing or
// completed; such projects must not be restarted.
var ErrNotStartable = errors.New("project is already processing or completed")

const defaultAnalyzerTimeout = 2 * time.Minute

// Service executes processing runs synchronously within the caller's request;
// observers follow progress by polling the stored status.
type Service struct {
	store    store.ProjectStore
	analyzer analyzer.Analyzer
	timeout  time.Duration
}

// New constructs a Service. timeout bounds each analyzer invocation.
func New(st store.ProjectStore, an analyzer.Analyzer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultAnalyzerTimeout
	}
	return &Service{store: st, analyzer: an, timeout: timeout}
}

// Start runs one processing attempt for the caller's project and returns the
// terminal status it reached. The ownership gate runs first: projects that do
// not exist or belong to someone else yield store.ErrNotFound without any
// state change. ErrNotStartable is returned when another run already won the
// transition. Analyzer and store failures inside the run are absorbed into
// the failed status rather than propagated; only a store that cannot even
// record the failure produces an error.
func (s *Service) Start(ctx context.Context, ownerID, projectID string) (model.ProjectStatus, error) {
	project, err := s.store.GetOwnedProject(ctx, projectID, ownerID)
	if err != nil {
		return "", err
	}
	ok, err := s.store.TryStartProcessing(ctx, projectID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotStartable
	}
	return s.run(ctx, project)
}

func (s *Service) run(ctx context.Context, project *model.Project) (model.ProjectStatus, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.analyzer.Analyze(runCtx, analyzer.Source{
		Type: project.SourceType,
		URL:  project.SourceURL,
	})
	if err != nil {
		return s.fail(ctx, project.ID, fmt.Errorf("analyze: %w", err))
	}
	if err := validateResult(result); err != nil {
		return s.fail(ctx, project.ID, err)
	}
	artifacts := buildArtifacts(project, result)
	if err := s.store.CompleteRun(ctx, project.ID, artifacts); err != nil {
		return s.fail(ctx, project.ID, fmt.Errorf("commit run: %w", err))
	}
	log.Printf("project %s processed: %d clips, %d contents, %ds",
		project.ID, len(artifacts.Clips), len(artifacts.Contents), artifacts.Duration)
	return model.StatusCompleted, nil
}

// fail records the failed status. The write uses a context detached from the
// run's cancellation so an analyzer timeout cannot also strand the project in
// processing.
func (s *Service) fail(ctx context.Context, projectID string, cause error) (model.ProjectStatus, error) {
	log.Printf("processing failed for %s: %v", projectID, cause)
	if err := s.store.MarkFailed(context.WithoutCancel(ctx), projectID); err != nil {
		return "", fmt.Errorf("record failure (%v): %w", cause, err)
	}
	return model.StatusFailed, nil
}

func validateResult(res *analyzer.Result) error {
	if res.Transcript == nil || len(res.Transcript.Segments) == 0 {
		return errors.New("analyzer returned empty transcript")
	}
	if res.Duration <= 0 {
		return fmt.Errorf("analyzer returned invalid duration %d", res.Duration)
	}
	for _, h := range res.Highlights {
		if h.StartTime >= h.EndTime {
			return fmt.Errorf("highlight %q has invalid range [%v, %v)", h.Title, h.StartTime, h.EndTime)
		}
	}
	return nil
}

// buildArtifacts materializes one clip per highlight, preserving the
// analyzer's score order, plus one content entry per supported type.
func buildArtifacts(project *model.Project, res *analyzer.Result) store.RunArtifacts {
	now := time.Now().UTC()
	clips := make([]model.Clip, 0, len(res.Highlights))
	for _, h := range res.Highlights {
		clips = append(clips, model.Clip{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Title:     h.Title,
			StartTime: h.StartTime,
			EndTime:   h.EndTime,
			Score:     h.Score,
			Status:    model.StatusCompleted,
			CreatedAt: now,
		})
	}
	return store.RunArtifacts{
		Transcript: res.Transcript,
		Highlights: res.Highlights,
		Duration:   res.Duration,
		Clips:      clips,
		Contents:   buildContents(project, res, now),
	}
}
