// Package api exposes the HTTP surface: project CRUD and the processing
// trigger, all owner-scoped behind bearer authentication.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/auth"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/pipeline"
	"github.com/clipforge/clipforge/internal/store"
)

// Store is everything the handlers need from persistence.
type Store interface {
	store.ProjectStore
	store.UserStore
}

// Server wires the routes to the store and the processing pipeline.
type Server struct {
	addr     string
	store    Store
	pipeline *pipeline.Service
	authmw   *auth.Middleware
	server   *http.Server
	once     sync.Once
}

// New constructs a Server listening on addr.
func New(addr string, st Store, pl *pipeline.Service, verifier auth.TokenVerifier) *Server {
	return &Server{
		addr:     addr,
		store:    st,
		pipeline: pl,
		authmw:   &auth.Middleware{Verifier: verifier},
	}
}

// Handler builds the route table. Split out from Run so tests can mount it
// on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/projects", s.authmw.Require(s.handleProjects))
	mux.HandleFunc("/api/projects/", s.authmw.Require(s.handleProjectRoute))
	return corsMiddleware(loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.addr,
			Handler: s.Handler(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	log.Printf("api listening on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProjectRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleShow(w, r, id)
		case http.MethodDelete:
			s.handleDelete(w, r, id)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	if parts[1] == "process" && r.Method == http.MethodPost {
		s.handleProcess(w, r, id)
		return
	}
	respondError(w, http.StatusNotFound, "not found")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	projects, err := s.store.ListProjects(r.Context(), identity.Subject)
	if err != nil {
		log.Printf("list projects: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

type createRequest struct {
	Title      string `json:"title"`
	SourceType string `json:"sourceType"`
	SourceURL  string `json:"sourceUrl"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		req.Title = "Untitled Project"
	}
	sourceType := model.SourceType(req.SourceType)
	if req.SourceType == "" {
		sourceType = model.SourceYouTube
	}
	if !sourceType.Valid() {
		respondError(w, http.StatusBadRequest, "sourceType must be youtube or upload")
		return
	}

	// First authorized write: make sure the identity has a user row before
	// the project references it.
	if err := s.ensureUser(r.Context(), identity); err != nil {
		log.Printf("provision user %s: %v", identity.Subject, err)
		respondError(w, http.StatusInternalServerError, "user provisioning failed")
		return
	}

	project := &model.Project{
		ID:         uuid.NewString(),
		OwnerID:    identity.Subject,
		Title:      req.Title,
		SourceType: sourceType,
		SourceURL:  req.SourceURL,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		log.Printf("create project: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	project, err := s.store.GetOwnedProject(r.Context(), id, identity.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		log.Printf("get project %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}
	detail := model.ProjectDetail{
		Project:  *project,
		Clips:    []model.Clip{},
		Contents: []model.Content{},
	}
	if project.Status == model.StatusCompleted {
		if detail.Clips, err = s.store.ListClips(r.Context(), id); err != nil {
			log.Printf("list clips %s: %v", id, err)
			respondError(w, http.StatusInternalServerError, "failed to load clips")
			return
		}
		if detail.Contents, err = s.store.ListContents(r.Context(), id); err != nil {
			log.Printf("list contents %s: %v", id, err)
			respondError(w, http.StatusInternalServerError, "failed to load contents")
			return
		}
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if _, err := s.store.GetOwnedProject(r.Context(), id, identity.Subject); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		log.Printf("get project %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("delete project %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	status, err := s.pipeline.Start(r.Context(), identity.Subject, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "project not found")
		case errors.Is(err, pipeline.ErrNotStartable):
			respondError(w, http.StatusConflict, "project is already processing or completed")
		default:
			log.Printf("process project %s: %v", id, err)
			respondError(w, http.StatusInternalServerError, "processing could not be recorded")
		}
		return
	}
	// The run reached a terminal state; a failed run is acknowledged too and
	// discovered by the caller's status polling.
	message := "Processing completed"
	if status == model.StatusFailed {
		message = "Processing failed"
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message, "job_id": id})
}

func (s *Server) ensureUser(ctx context.Context, identity *auth.Identity) error {
	email := identity.Email
	if email == "" {
		email = "pending@sync.invalid"
	}
	return s.store.UpsertUser(ctx, &model.User{
		ID:    identity.Subject,
		Email: email,
		Name:  identity.Name,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
