// Package memstore is an in-memory implementation of the store contracts,
// used by handler and pipeline tests. A RWMutex guards the maps so concurrent
// start() races behave like they do against the database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/store"
)

// Store keeps every record in maps keyed by id (clips and contents by
// project id, preserving insertion order).
type Store struct {
	mu       sync.RWMutex
	projects map[string]*model.Project
	clips    map[string][]model.Clip
	contents map[string][]model.Content
	users    map[string]*model.User
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		projects: make(map[string]*model.Project),
		clips:    make(map[string][]model.Clip),
		contents: make(map[string][]model.Content),
		users:    make(map[string]*model.User),
	}
}

// CreateProject inserts a new project, stamping timestamps if unset.
func (s *Store) CreateProject(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

// GetOwnedProject returns a copy of the project when it belongs to ownerID.
func (s *Store) GetOwnedProject(_ context.Context, id, ownerID string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListProjects returns the owner's projects, newest first.
func (s *Store) ListProjects(_ context.Context, ownerID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Project, 0)
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteProject removes the project and cascades to clips and contents.
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	delete(s.clips, id)
	delete(s.contents, id)
	return nil
}

// TryStartProcessing performs the compare-and-set transition under the write
// lock: only pending or failed projects may enter processing, and only one
// caller can win.
func (s *Store) TryStartProcessing(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if p.Status != model.StatusPending && p.Status != model.StatusFailed {
		return false, nil
	}
	p.Status = model.StatusProcessing
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkFailed moves a processing project to failed; anything else is a no-op.
func (s *Store) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.Status != model.StatusProcessing {
		return nil
	}
	p.Status = model.StatusFailed
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteRun atomically replaces artifacts from earlier attempts and flips
// the status to completed.
func (s *Store) CompleteRun(_ context.Context, id string, artifacts store.RunArtifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Status != model.StatusProcessing {
		return store.ErrStaleRun
	}
	now := time.Now().UTC()
	s.clips[id] = append([]model.Clip(nil), artifacts.Clips...)
	s.contents[id] = append([]model.Content(nil), artifacts.Contents...)
	p.Transcript = artifacts.Transcript
	p.Highlights = append([]model.Highlight(nil), artifacts.Highlights...)
	p.Duration = artifacts.Duration
	p.Status = model.StatusCompleted
	p.UpdatedAt = now
	return nil
}

// ListClips returns the project's clips in insertion order.
func (s *Store) ListClips(_ context.Context, projectID string) ([]model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Clip(nil), s.clips[projectID]...), nil
}

// ListContents returns the project's contents in insertion order.
func (s *Store) ListContents(_ context.Context, projectID string) ([]model.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Content(nil), s.contents[projectID]...), nil
}

// FailStale recovers projects stuck in processing longer than olderThan.
func (s *Store) FailStale(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	n := 0
	for _, p := range s.projects {
		if p.Status == model.StatusProcessing && p.UpdatedAt.Before(cutoff) {
			p.Status = model.StatusFailed
			p.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// UpsertUser creates or refreshes an identity record.
func (s *Store) UpsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.users[u.ID]; ok {
		if u.Email != "" {
			existing.Email = u.Email
		}
		if u.Name != "" {
			existing.Name = u.Name
		}
		existing.UpdatedAt = now
		return nil
	}
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.users[u.ID] = &cp
	return nil
}

// GetUser returns a copy of the stored user, or nil when absent. Test helper.
func (s *Store) GetUser(id string) *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}
