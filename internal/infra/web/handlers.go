package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"conversation-insights/internal/domain"
	"conversation-insights/internal/infra/metrics"
	"conversation-insights/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) observe(route string, code int) {
	metrics.IncHTTPRequest(route, strconv.Itoa(code))
}

// POST /api/v1/conversations -> 202 Accepted
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var in usecase.ConversationIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.observe("ingest", http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := s.convUC.Ingest(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			s.observe("ingest", http.StatusBadRequest)
			writeError(w, http.StatusBadRequest, "text is required")
		case errors.Is(err, domain.ErrAlreadyExists):
			s.observe("ingest", http.StatusConflict)
			writeError(w, http.StatusConflict, "external_id already ingested")
		default:
			s.observe("ingest", http.StatusInternalServerError)
			writeError(w, http.StatusInternalServerError, "failed to ingest conversation")
		}
		return
	}

	s.observe("ingest", http.StatusAccepted)
	writeJSON(w, http.StatusAccepted, map[string]any{"id": conv.ID, "enqueued": true})
}

// POST /api/v1/conversations/bulk -> 202 Accepted
func (s *Server) handleIngestBulk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Conversations []usecase.ConversationIn `json:"conversations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.observe("ingest_bulk", http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Conversations) == 0 {
		s.observe("ingest_bulk", http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "conversations is required")
		return
	}
	if len(payload.Conversations) > s.cfg.BulkMaxItems {
		s.observe("ingest_bulk", http.StatusRequestEntityTooLarge)
		writeError(w, http.StatusRequestEntityTooLarge,
			"maximum "+strconv.Itoa(s.cfg.BulkMaxItems)+" conversations per bulk request")
		return
	}

	ids, err := s.convUC.IngestBulk(r.Context(), payload.Conversations)
	if err != nil {
		s.observe("ingest_bulk", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to ingest conversations")
		return
	}

	s.observe("ingest_bulk", http.StatusAccepted)
	writeJSON(w, http.StatusAccepted, map[string]any{"ingested": len(ids), "enqueued": len(ids)})
}

// GET /api/v1/conversations/{id}
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := s.convUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.observe("conversation_get", http.StatusNotFound)
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.observe("conversation_get", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	s.observe("conversation_get", http.StatusOK)
	writeJSON(w, http.StatusOK, conv)
}

// GET /api/v1/conversations?skip&limit
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}

	convs, err := s.convUC.List(r.Context(), skip, limit)
	if err != nil {
		s.observe("conversation_list", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	s.observe("conversation_list", http.StatusOK)
	writeJSON(w, http.StatusOK, convs)
}

// GET /api/v1/conversations/{id}/events
func (s *Server) handleConversationEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	events, err := s.convUC.Events(r.Context(), id)
	if err != nil {
		s.observe("conversation_events", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	s.observe("conversation_events", http.StatusOK)
	writeJSON(w, http.StatusOK, events)
}

// GET /api/v1/insights?limit&sentiment
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	if limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}

	insights, err := s.insightUC.ListRecent(r.Context(), limit, r.URL.Query().Get("sentiment"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			s.observe("insight_list", http.StatusBadRequest)
			writeError(w, http.StatusBadRequest, "invalid sentiment value")
			return
		}
		s.observe("insight_list", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to list insights")
		return
	}
	s.observe("insight_list", http.StatusOK)
	writeJSON(w, http.StatusOK, insights)
}

// GET /api/v1/insights/{id}
func (s *Server) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	insight, err := s.insightUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.observe("insight_get", http.StatusNotFound)
			writeError(w, http.StatusNotFound, "insight not found")
			return
		}
		s.observe("insight_get", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load insight")
		return
	}
	s.observe("insight_get", http.StatusOK)
	writeJSON(w, http.StatusOK, insight)
}

// GET /api/v1/insights/conversation/{id}
func (s *Server) handleInsightsForConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	insights, err := s.insightUC.ForConversation(r.Context(), id)
	if err != nil {
		s.observe("insight_by_conversation", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}
	if len(insights) == 0 {
		s.observe("insight_by_conversation", http.StatusNotFound)
		writeError(w, http.StatusNotFound, "no insights found for this conversation")
		return
	}
	s.observe("insight_by_conversation", http.StatusOK)
	writeJSON(w, http.StatusOK, insights)
}

// GET /api/v1/insights/trends?days
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days == 0 {
		days = 7
	}

	trends, err := s.insightUC.Trends(r.Context(), days)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			s.observe("trends", http.StatusBadRequest)
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		s.observe("trends", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to compute trends")
		return
	}
	s.observe("trends", http.StatusOK)
	writeJSON(w, http.StatusOK, trends)
}

// POST /api/v1/admin/session exchanges the configured admin secret for a
// short-lived JWT.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.observe("admin_login", http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.cfg.AdminSecret == "" || req.Secret != s.cfg.AdminSecret {
		s.observe("admin_login", http.StatusForbidden)
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	token, err := s.auth.Mint()
	if err != nil {
		s.observe("admin_login", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}
	s.observe("admin_login", http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GET /api/v1/stats (admin)
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Totals(r.Context())
	if err != nil {
		s.observe("stats", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to get totals")
		return
	}
	s.observe("stats", http.StatusOK)
	writeJSON(w, http.StatusOK, stats)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.sched.Alive() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"queue_depth":  s.sched.QueueDepth(),
		"worker_alive": s.sched.Alive(),
	})
}
