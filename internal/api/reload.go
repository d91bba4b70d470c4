package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/VerseTip/core/errors"
	"github.com/FocuswithJustin/VerseTip/internal/logging"
)

// ReloadStatus represents the current state of a reload.
type ReloadStatus string

const (
	ReloadPending   ReloadStatus = "pending"
	ReloadRunning   ReloadStatus = "running"
	ReloadCompleted ReloadStatus = "completed"
	ReloadFailed    ReloadStatus = "failed"
	ReloadCancelled ReloadStatus = "cancelled"
)

// ReloadJob tracks one corpus reload started through POST /reload.
type ReloadJob struct {
	ID          string       `json:"id"`
	Status      ReloadStatus `json:"status"`
	Source      string       `json:"source"`
	Generation  uint64       `json:"generation,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	CompletedAt string       `json:"completed_at,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (j *ReloadJob) finished() bool {
	return j.Status == ReloadCompleted || j.Status == ReloadFailed || j.Status == ReloadCancelled
}

// ReloadStore keeps reload jobs in memory.
type ReloadStore struct {
	jobs map[string]*ReloadJob
	mu   sync.RWMutex
}

// NewReloadStore creates an empty store.
func NewReloadStore() *ReloadStore {
	return &ReloadStore{jobs: make(map[string]*ReloadJob)}
}

// Create registers a pending reload of source.
func (s *ReloadStore) Create(source string) *ReloadJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)
	job := &ReloadJob{
		ID:        uuid.NewString(),
		Status:    ReloadPending,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.jobs[job.ID] = job
	return job
}

// Get returns a copy of the job with id.
func (s *ReloadStore) Get(id string) (ReloadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return ReloadJob{}, errors.NewNotFound("reload", id)
	}
	return *job, nil
}

// update applies fn to the job under the store lock. Finished jobs are not
// changed again.
func (s *ReloadStore) update(id string, fn func(*ReloadJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.finished() {
		return
	}
	fn(job)
	now := time.Now().UTC().Format(time.RFC3339)
	job.UpdatedAt = now
	if job.finished() {
		job.CompletedAt = now
		job.cancel()
	}
}

// Cancel stops a pending or running reload. Cancelling a finished reload
// is a no-op.
func (s *ReloadStore) Cancel(id string) error {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return errors.NewNotFound("reload", id)
	}
	job.cancel()
	return nil
}

// startReload loads the corpus in the background and publishes it. A
// failed or cancelled load leaves the current snapshot in place.
func (s *Server) startReload(source string) *ReloadJob {
	job := s.reloads.Create(source)

	go func() {
		defer close(job.done)
		s.reloads.update(job.ID, func(j *ReloadJob) { j.Status = ReloadRunning })

		start := time.Now()
		sn, err := s.state.Load(job.ctx, s.loader, source)
		if err != nil {
			status := ReloadFailed
			if job.ctx.Err() != nil {
				status = ReloadCancelled
			}
			s.reloads.update(job.ID, func(j *ReloadJob) {
				j.Status = status
				j.Error = err.Error()
			})
			logging.CorpusError(source, err, "reload_id", job.ID)
			s.hub.Broadcast(Message{Type: MessageReloadFailed, ReloadID: job.ID, Error: err.Error()})
			return
		}

		stats := sn.Corpus.Stats()
		logging.CorpusLoaded(source, sn.Fingerprint, sn.Generation, stats.Books, stats.Verses,
			time.Since(start), "reload_id", job.ID)
		s.reloads.update(job.ID, func(j *ReloadJob) {
			j.Status = ReloadCompleted
			j.Generation = sn.Generation
			j.Fingerprint = sn.Fingerprint
		})
		// Results of older generations can never be served again.
		s.results.Clear()
		s.hub.Broadcast(Message{
			Type:        MessageSnapshotPublished,
			ReloadID:    job.ID,
			Generation:  sn.Generation,
			Fingerprint: sn.Fingerprint,
			Source:      sn.Source,
		})
	}()

	return job
}

// Reload starts loading the configured corpus in the background, the same
// way POST /reload does, and returns the pending job. Completion is
// announced on the hub.
func (s *Server) Reload() (ReloadJob, error) {
	if s.loader == nil {
		return ReloadJob{}, errors.NewUnsupported("reload", "no corpus source configured")
	}
	source := s.cfg.Corpus
	if source == "" {
		source = "reload"
	}
	job := s.startReload(source)
	return s.reloads.Get(job.ID)
}

// handleReload handles POST /reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	job, err := s.Reload()
	if errors.Is(err, errors.ErrUnsupported) {
		respondError(w, http.StatusConflict, "NO_CORPUS", "No corpus source configured")
		return
	}
	if err != nil {
		logging.ErrorContext(r.Context(), "reload not started", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	logging.InfoContext(r.Context(), "reload started", "reload_id", job.ID, "source", job.Source)
	respond(w, http.StatusAccepted, job)
}

// handleReloadByID handles GET /reload/{id} and DELETE /reload/{id}.
func (s *Server) handleReloadByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/reload/")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Reload ID must be a UUID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, err := s.reloads.Get(id)
		if errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Reload not found")
			return
		}
		respond(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := s.reloads.Cancel(id); errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Reload not found")
			return
		}
		logging.InfoContext(r.Context(), "reload cancelled", "reload_id", id)
		respond(w, http.StatusOK, map[string]string{"message": "Reload cancelled"})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}
