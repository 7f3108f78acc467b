package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tbellamy/membank/internal/memory"
)

// turnRequest is the body of POST /api/users/{user}/sessions/{session}/turns.
type turnRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// extractResponse is the body of POST /api/users/{user}/sessions/{session}/extract.
type extractResponse struct {
	Facts []memory.Fact `json:"facts"`
	Count int           `json:"count"`
}

// searchResponse is the body of GET /api/users/{user}/memories/search.
type searchResponse struct {
	Query    string              `json:"query"`
	Facts    []memory.ScoredFact `json:"facts"`
	Degraded bool                `json:"degraded,omitempty"`
}

// handleAddTurn appends one conversation turn.
func (g *Gateway) handleAddTurn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user")
		sessionID := chi.URLParam(r, "session")

		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		role := memory.Role(req.Role)
		if role != memory.RoleUser && role != memory.RoleAssistant {
			http.Error(w, "role must be \"user\" or \"assistant\"", http.StatusBadRequest)
			return
		}

		if err := g.bank.AddTurn(r.Context(), userID, sessionID, role, req.Text); err != nil {
			if errors.Is(err, memory.ErrEmptyUserID) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			g.logger.Error("add turn failed", "user", userID, "session", sessionID, "error", err)
			http.Error(w, "failed to store turn", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

// handleExtract runs fact extraction for one session. Extraction failures
// leave the store untouched, so a 502 is safe to retry.
func (g *Gateway) handleExtract() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user")
		sessionID := chi.URLParam(r, "session")

		facts, err := g.bank.ExtractFacts(r.Context(), userID, sessionID)
		if err != nil {
			g.logger.Warn("extraction failed", "user", userID, "session", sessionID, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "extraction failed"})
			return
		}

		if facts == nil {
			facts = []memory.Fact{}
		}
		writeJSON(w, http.StatusOK, extractResponse{Facts: facts, Count: len(facts)})
	}
}

// handleSearch serves ranked (or degraded) memories for a query.
func (g *Gateway) handleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user")
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "missing query parameter q", http.StatusBadRequest)
			return
		}

		result := g.bank.SearchFacts(r.Context(), userID, query)
		if result.Facts == nil {
			result.Facts = []memory.ScoredFact{}
		}
		writeJSON(w, http.StatusOK, searchResponse{
			Query:    query,
			Facts:    result.Facts,
			Degraded: result.Degraded,
		})
	}
}

// handleSummary returns the plain-text memory summary.
func (g *Gateway) handleSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user")

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(g.bank.Summary(r.Context(), userID)))
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
