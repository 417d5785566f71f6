// Package statusapi exposes the thin HTTP surface an external dashboard
// polls: ingest run history and the games-with-issues listing. It is not
// the dashboard itself — no HTML, no per-game log viewer.
package statusapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"stormlightlabs.org/gamedb/internal/cache"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Server routes status requests against the store, with optional
// cache-aside reads when a cache client is configured.
type Server struct {
	db     *store.DB
	mux    *http.ServeMux
	runs   *cache.ListCacheHelper
	run    *cache.EntityCacheHelper
	issues *cache.ListCacheHelper
}

// NewServer builds the status surface. cacheClient may be nil; every read
// then goes straight to the store.
func NewServer(db *store.DB, cacheClient *cache.Client) *Server {
	s := &Server{
		db:     db,
		mux:    http.NewServeMux(),
		runs:   cache.NewListCacheHelper(cacheClient, "ingests"),
		run:    cache.NewEntityCacheHelper(cacheClient, "ingest"),
		issues: cache.NewListCacheHelper(cacheClient, "issues"),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/ingests", s.handleListIngests)
	s.mux.HandleFunc("GET /v1/ingests/{id}", s.handleGetIngest)
	s.mux.HandleFunc("GET /v1/games/issues", s.handleGameIssues)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ingestRunResponse is the wire shape for one run.
type ingestRunResponse struct {
	ID                    string     `json:"id"`
	StartedAt             time.Time  `json:"started_at"`
	FinishedAt            *time.Time `json:"finished_at,omitempty"`
	AbortedAt             *time.Time `json:"aborted_at,omitempty"`
	AbortReason           *string    `json:"abort_reason,omitempty"`
	StartNextIngestAtPage *string    `json:"start_next_ingest_at_page,omitempty"`
	GamesFetched          int        `json:"games_fetched"`
	GamesWritten          int        `json:"games_written"`
	GamesSkipped          int        `json:"games_skipped"`
}

func toRunResponse(r model.IngestRun) ingestRunResponse {
	return ingestRunResponse{
		ID:                    string(r.ID),
		StartedAt:             r.StartedAt,
		FinishedAt:            r.FinishedAt,
		AbortedAt:             r.AbortedAt,
		AbortReason:           r.AbortReason,
		StartNextIngestAtPage: r.StartNextIngestAtPage,
		GamesFetched:          r.GamesFetched,
		GamesWritten:          r.GamesWritten,
		GamesSkipped:          r.GamesSkipped,
	}
}

func (s *Server) handleListIngests(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	params := map[string]string{"limit": strconv.Itoa(limit)}

	var cached []ingestRunResponse
	if s.runs.Get(r.Context(), params, &cached) {
		writeJSON(w, http.StatusOK, map[string]any{"ingests": cached})
		return
	}

	runs, err := s.db.IngestRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]ingestRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	_ = s.runs.Set(r.Context(), params, out)
	writeJSON(w, http.StatusOK, map[string]any{"ingests": out})
}

func (s *Server) handleGetIngest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var cached ingestRunResponse
	if s.run.Get(r.Context(), id, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	run, err := s.db.IngestRun(r.Context(), model.RunID(id))
	if err != nil {
		if model.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := toRunResponse(*run)
	// Only terminal runs are safe to cache; a running row changes.
	if run.Done() {
		_ = s.run.Set(r.Context(), id, out)
	}
	writeJSON(w, http.StatusOK, out)
}

// gameIssueResponse is the wire shape for one game on the issues list.
type gameIssueResponse struct {
	MMOLBGameID  string    `json:"mmolb_game_id"`
	WorstLevel   string    `json:"worst_level"`
	IssueCount   int       `json:"issue_count"`
	LastLoggedAt time.Time `json:"last_logged_at"`
}

func (s *Server) handleGameIssues(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	params := map[string]string{"limit": strconv.Itoa(limit)}

	var cached []gameIssueResponse
	if s.issues.Get(r.Context(), params, &cached) {
		writeJSON(w, http.StatusOK, map[string]any{"games": cached})
		return
	}

	issues, err := s.db.GamesWithIssues(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]gameIssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, gameIssueResponse{
			MMOLBGameID:  string(issue.MMOLBGameID),
			WorstLevel:   issue.WorstLevel.String(),
			IssueCount:   issue.IssueCount,
			LastLoggedAt: issue.LastLoggedAt,
		})
	}
	_ = s.issues.Set(r.Context(), params, out)
	writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

func parseLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxListLimit {
			limit = n
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
