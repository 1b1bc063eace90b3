// Package model contains the record types shared across the API, the
// processing pipeline and the persistence layer.
package model

import (
	"time"
)

// ProjectStatus describes the processing lifecycle of a project.
type ProjectStatus string

const (
	StatusPending    ProjectStatus = "pending"
	StatusProcessing ProjectStatus = "processing"
	StatusCompleted  ProjectStatus = "completed"
	StatusFailed     ProjectStatus = "failed"
)

// Valid reports whether s is one of the four known lifecycle values.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether polling may stop at this status.
func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SourceType identifies where a project's source video comes from.
type SourceType string

const (
	SourceYouTube SourceType = "youtube"
	SourceUpload  SourceType = "upload"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	return t == SourceYouTube || t == SourceUpload
}

// TranscriptSegment is one timed span of the transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full text plus its ordered segments.
type Transcript struct {
	Text     string              `json:"text"`
	Segments []TranscriptSegment `json:"segments"`
}

// Highlight is a scored window of the source video. Highlights are ordered by
// descending score when produced by the analyzer; consumers do not re-sort.
type Highlight struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// Project is the unit of work: one source video and its derived artifacts.
// Transcript, Highlights and Duration are set once a run has completed.
type Project struct {
	ID         string        `json:"id"`
	OwnerID    string        `json:"userId"`
	Title      string        `json:"title"`
	SourceType SourceType    `json:"sourceType"`
	SourceURL  string        `json:"sourceUrl,omitempty"`
	Status     ProjectStatus `json:"status"`
	Transcript *Transcript   `json:"transcript,omitempty"`
	Highlights []Highlight   `json:"highlights,omitempty"`
	Duration   int           `json:"duration,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Clip is a highlight materialized as its own record, belonging to exactly
// one project and deleted with it.
type Clip struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectId"`
	Title     string        `json:"title"`
	StartTime float64       `json:"startTime"`
	EndTime   float64       `json:"endTime"`
	Score     float64       `json:"score"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ContentType identifies the flavour of a generated text artifact.
type ContentType string

const (
	ContentBlog     ContentType = "blog"
	ContentTwitter  ContentType = "twitter"
	ContentLinkedIn ContentType = "linkedin"
)

// ContentTypes lists every flavour a successful run produces, in the order
// they are generated.
func ContentTypes() []ContentType {
	return []ContentType{ContentBlog, ContentTwitter, ContentLinkedIn}
}

// Content is a generated text artifact derived from a project's transcript
// and highlights.
type Content struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Type      ContentType `json:"type"`
	Title     string      `json:"title,omitempty"`
	Body      string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// User mirrors the authenticated caller, keyed by the identity provider's
// subject id. Rows are created lazily on the first authorized write.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectDetail is the aggregate returned once a project is fetched by id:
// the project plus its clips and contents (populated when completed).
type ProjectDetail struct {
	Project
	Clips    []Clip    `json:"clips"`
	Contents []Content `json:"contents"`
}
