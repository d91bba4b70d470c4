package api

import (
	"cmp"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/FocuswithJustin/VerseTip/core/ref"
	"github.com/FocuswithJustin/VerseTip/core/resolve"
	"github.com/FocuswithJustin/VerseTip/internal/logging"
	"github.com/FocuswithJustin/VerseTip/internal/page"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total      int    `json:"total,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status      string `json:"status"` // "ready" or "loading"
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Generation  uint64 `json:"generation,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Source      string `json:"source,omitempty"`
	LoadedAt    string `json:"loaded_at,omitempty"`
	Books       int    `json:"books"`
	Verses      int    `json:"verses"`
	ShapeVer    int    `json:"shape_version"`
}

// Resolution is a resolved or unresolved reference as returned to clients.
type Resolution struct {
	Reference string              `json:"reference"`
	Resolved  bool                `json:"resolved"`
	Reason    string              `json:"reason,omitempty"`
	Book      string              `json:"book,omitempty"`
	Chapter   int                 `json:"chapter,omitempty"`
	Verses    []resolve.VerseText `json:"verses,omitempty"`
	Display   string              `json:"display,omitempty"`
}

func newResolution(res resolve.Result) Resolution {
	return Resolution{
		Reference: res.Reference,
		Resolved:  res.Resolved(),
		Reason:    res.Reason(),
		Book:      res.Book,
		Chapter:   res.Chapter,
		Verses:    res.Verses,
		Display:   res.String(),
	}
}

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	Text string `json:"text"`
	HTML bool   `json:"html,omitempty"`
}

// ScanMatch is one citation found by POST /scan.
type ScanMatch struct {
	page.Match
	Resolution Resolution `json:"resolution"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "VerseTip API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /resolve?ref=",
			"POST /scan",
			"POST /reload",
			"GET /reload/:id",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	info := HealthInfo{
		Status:   "loading",
		Version:  Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		ShapeVer: ref.ShapeVersion,
	}
	if sn := s.state.Snapshot(); sn != nil {
		stats := sn.Corpus.Stats()
		info.Status = "ready"
		info.Ready = true
		info.Generation = sn.Generation
		info.Fingerprint = sn.Fingerprint
		info.Source = sn.Source
		info.LoadedAt = sn.LoadedAt.UTC().Format(time.RFC3339)
		info.Books = stats.Books
		info.Verses = stats.Verses
	}
	respond(w, http.StatusOK, info)
}

// handleResolve handles GET /resolve?ref=John+3:16.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	raw := r.URL.Query().Get("ref")
	if strings.TrimSpace(raw) == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "ref is required")
		return
	}

	sn := s.state.Snapshot()
	if sn == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Corpus is still loading")
		return
	}

	res := s.results.Resolve(sn, ref.LookupKey(raw))
	if !res.Resolved() {
		logging.DebugContext(r.Context(), "reference unresolved",
			"ref", raw, "reason", res.Reason(), "generation", sn.Generation)
		respondWithMeta(w, http.StatusNotFound, APIResponse{
			Success: false,
			Data:    newResolution(res),
			Error: &APIError{
				Code:    strings.ToUpper(res.Reason()),
				Message: res.Err.Error(),
			},
		}, sn.Generation)
		return
	}
	respondWithMeta(w, http.StatusOK, APIResponse{Success: true, Data: newResolution(res)}, sn.Generation)
}

// handleScan handles POST /scan.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req ScanRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	sn := s.state.Snapshot()
	if sn == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Corpus is still loading")
		return
	}

	opts := s.scanOptions(sn)
	var matches []page.Match
	if req.HTML {
		var err error
		matches, err = page.ScanHTML(strings.NewReader(req.Text), opts...)
		if err != nil {
			logging.WarnContext(r.Context(), "scan rejected html", "error", err, "bytes", len(req.Text))
			respondError(w, http.StatusBadRequest, "INVALID_HTML", err.Error())
			return
		}
	} else {
		matches = page.ScanText(req.Text, opts...)
	}

	resolver := snapshotResolver{results: s.results, snap: sn}
	out := make([]ScanMatch, 0, len(matches))
	resolved := 0
	for _, a := range page.Annotate(matches, resolver) {
		rs := newResolution(a.Result)
		if rs.Resolved {
			resolved += len(a.Matches)
		}
		for _, m := range a.Matches {
			out = append(out, ScanMatch{Match: m, Resolution: rs})
		}
	}
	// Annotate groups by key; clients want document order.
	slices.SortStableFunc(out, compareMatches)
	logging.ScanCompleted("api", len(out), resolved, "html", req.HTML)

	respondWithMeta(w, http.StatusOK, APIResponse{Success: true, Data: out}, sn.Generation)
}

func compareMatches(a, b ScanMatch) int {
	if a.Unit != b.Unit {
		return cmp.Compare(a.Unit, b.Unit)
	}
	return cmp.Compare(a.Span.Start, b.Span.Start)
}

func respond(w http.ResponseWriter, status int, data any) {
	respondWithMeta(w, status, APIResponse{Success: true, Data: data}, 0)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondWithMeta(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}, 0)
}

func respondWithMeta(w http.ResponseWriter, status int, response APIResponse, generation uint64) {
	response.Meta = &APIMeta{
		Generation: generation,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if items, ok := response.Data.([]ScanMatch); ok {
		response.Meta.Total = len(items)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
