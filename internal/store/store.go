// Package store defines the persistence contracts for projects and their
// derived artifacts. Implementations live in internal/postgres (production)
// and internal/memstore (tests).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/clipforge/clipforge/internal/model"
)

var (
	// ErrNotFound is returned when a project does not exist or is not owned
	// by the caller. The two cases are deliberately indistinguishable so
	// non-owners cannot probe for project existence.
	ErrNotFound = errors.New("project not found")

	// ErrStaleRun is returned by CompleteRun when the project is no longer in
	// the processing state, e.g. because the reaper failed it mid-run.
	ErrStaleRun = errors.New("project is no longer processing")
)

// RunArtifacts carries everything a successful processing run derived from
// the source. CompleteRun persists the whole set together with the
// completed transition.
type RunArtifacts struct {
	Transcript *model.Transcript
	Highlights []model.Highlight
	Duration   int
	Clips      []model.Clip
	Contents   []model.Content
}

// ProjectStore is the single source of truth for project state. Status reads
// must be strongly consistent with the latest write.
type ProjectStore interface {
	// CreateProject inserts a new pending project.
	CreateProject(ctx context.Context, p *model.Project) error

	// GetOwnedProject loads a project only if it belongs to ownerID;
	// absent and not-owned both yield ErrNotFound.
	GetOwnedProject(ctx context.Context, id, ownerID string) (*model.Project, error)

	// ListProjects returns the owner's projects ordered by creation time,
	// newest first.
	ListProjects(ctx context.Context, ownerID string) ([]model.Project, error)

	// DeleteProject removes a project and, by cascade, its clips and contents.
	DeleteProject(ctx context.Context, id string) error

	// TryStartProcessing atomically transitions pending|failed -> processing.
	// It reports false when the project is already processing or completed,
	// and ErrNotFound when it does not exist. At most one caller can win the
	// transition for a given project.
	TryStartProcessing(ctx context.Context, id string) (bool, error)

	// MarkFailed moves a processing project to failed. Projects that already
	// left the processing state are left untouched.
	MarkFailed(ctx context.Context, id string) error

	// CompleteRun replaces any clips and contents from earlier attempts,
	// stores the run artifacts and flips the status to completed, all within
	// one commit boundary. Returns ErrStaleRun when the project is no longer
	// processing.
	CompleteRun(ctx context.Context, id string, artifacts RunArtifacts) error

	// ListClips returns a project's clips in insertion order.
	ListClips(ctx context.Context, projectID string) ([]model.Clip, error)

	// ListContents returns a project's generated contents in insertion order.
	ListContents(ctx context.Context, projectID string) ([]model.Content, error)

	// FailStale fails every project stuck in processing for longer than
	// olderThan and reports how many were recovered.
	FailStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// UserStore persists the identity records mirrored from the token issuer.
type UserStore interface {
	// UpsertUser creates the user on first sight and refreshes mutable
	// fields afterwards.
	UpsertUser(ctx context.Context, u *model.User) error
}
