package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/store"
)

// Store wraps all SQL used by the API and the pipeline.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const projectColumns = `id, owner_id, title, source_type, COALESCE(source_url,''), status, transcript, highlights, duration, created_at, updated_at`

// CreateProject inserts a pending project.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	p.Status = model.StatusPending
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, owner_id, title, source_type, source_url, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8)
	`, p.ID, p.OwnerID, p.Title, p.SourceType, p.SourceURL, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetOwnedProject loads a project scoped to its owner. Absent and not-owned
// are the same ErrNotFound.
func (s *Store) GetOwnedProject(ctx context.Context, id, ownerID string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE id=$1 AND owner_id=$2
	`, id, ownerID)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select project: %w", err)
	}
	return p, nil
}

// ListProjects returns the owner's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE owner_id=$1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	out := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeleteProject removes the project; clips and contents go with it by cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// TryStartProcessing is the compare-and-set guard: the UPDATE only matches
// when the stored status is pending or failed, so concurrent callers race on
// RowsAffected and exactly one wins.
func (s *Store) TryStartProcessing(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects SET status=$2, updated_at=$3
		WHERE id=$1 AND status IN ($4,$5)
	`, id, model.StatusProcessing, time.Now().UTC(), model.StatusPending, model.StatusFailed)
	if err != nil {
		return false, fmt.Errorf("start processing: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return false, store.ErrNotFound
	}
	return false, nil
}

// MarkFailed flips a processing project to failed; anything else is left as is.
func (s *Store) MarkFailed(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE projects SET status=$2, updated_at=$3
		WHERE id=$1 AND status=$4
	`, id, model.StatusFailed, time.Now().UTC(), model.StatusProcessing)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// CompleteRun commits artifacts, replacement of earlier attempts and the
// completed transition in a single transaction.
func (s *Store) CompleteRun(ctx context.Context, id string, artifacts store.RunArtifacts) error {
	transcript, err := json.Marshal(artifacts.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	highlights, err := json.Marshal(artifacts.Highlights)
	if err != nil {
		return fmt.Errorf("marshal highlights: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE projects SET transcript=$2, highlights=$3, duration=$4, status=$5, updated_at=$6
		WHERE id=$1 AND status=$7
	`, id, transcript, highlights, artifacts.Duration, model.StatusCompleted, time.Now().UTC(), model.StatusProcessing)
	if err != nil {
		return fmt.Errorf("complete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrStaleRun
	}
	if _, err := tx.Exec(ctx, `DELETE FROM clips WHERE project_id=$1`, id); err != nil {
		return fmt.Errorf("clear clips: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM contents WHERE project_id=$1`, id); err != nil {
		return fmt.Errorf("clear contents: %w", err)
	}
	for i, c := range artifacts.Clips {
		if _, err := tx.Exec(ctx, `
			INSERT INTO clips (id, project_id, position, title, start_time, end_time, score, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, c.ID, c.ProjectID, i, c.Title, c.StartTime, c.EndTime, c.Score, c.Status, c.CreatedAt); err != nil {
			return fmt.Errorf("insert clip: %w", err)
		}
	}
	for i, c := range artifacts.Contents {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contents (id, project_id, position, type, title, content, created_at)
			VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7)
		`, c.ID, c.ProjectID, i, c.Type, c.Title, c.Body, c.CreatedAt); err != nil {
			return fmt.Errorf("insert content: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListClips returns the project's clips in highlight order.
func (s *Store) ListClips(ctx context.Context, projectID string) ([]model.Clip, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, title, start_time, end_time, score, status, created_at
		FROM clips WHERE project_id=$1 ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()
	out := make([]model.Clip, 0)
	for rows.Next() {
		var c model.Clip
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.StartTime, &c.EndTime, &c.Score, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListContents returns the project's contents in generation order.
func (s *Store) ListContents(ctx context.Context, projectID string) ([]model.Content, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, type, COALESCE(title,''), content, created_at
		FROM contents WHERE project_id=$1 ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()
	out := make([]model.Content, 0)
	for rows.Next() {
		var c model.Content
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Type, &c.Title, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FailStale recovers runs stuck in processing past olderThan.
func (s *Store) FailStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects SET status=$1, updated_at=$2
		WHERE status=$3 AND updated_at < $4
	`, model.StatusFailed, now, model.StatusProcessing, now.Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("fail stale: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertUser creates the identity record on first sight and refreshes
// non-empty fields afterwards.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,''),$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email,''), users.email),
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p          model.Project
		transcript []byte
		highlights []byte
		duration   sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.SourceType, &p.SourceURL,
		&p.Status, &transcript, &highlights, &duration, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &p.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	}
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &p.Highlights); err != nil {
			return nil, fmt.Errorf("decode highlights: %w", err)
		}
	}
	if duration.Valid {
		p.Duration = int(duration.Int64)
	}
	return &p, nil
}
