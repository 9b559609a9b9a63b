package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tarunagarwal/turbott/internal/models"
	"go.uber.org/zap"
)

type askRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

type turnResponse struct {
	ID        string           `json:"id"`
	Timestamp string           `json:"timestamp"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Sources   []sourceResponse `json:"sources"`
}

func toTurnResponse(turn models.ConversationTurn) turnResponse {
	sources := make([]sourceResponse, 0, len(turn.Sources))
	for _, c := range turn.Sources {
		sources = append(sources, sourceResponse{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Content:    c.Content,
		})
	}
	return turnResponse{
		ID:        turn.ID,
		Timestamp: turn.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Question:  turn.Question,
		Answer:    turn.Answer,
		Sources:   sources,
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))
	turn, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, toTurnResponse(turn))
}

type addTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddText(w http.ResponseWriter, r *http.Request) {
	var req addTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	count, err := s.session.ProcessText(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("text ingestion failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]int{"chunks": count})
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("ingest request", zap.String("path", req.Path))
	count, err := s.session.LoadDocuments(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]int{"chunks": count})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.session.History()
	turns := make([]turnResponse, 0, len(history))
	for _, t := range history {
		turns = append(turns, toTurnResponse(t))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"turns": turns})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.session.ClearConversation()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type exportRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := s.session.ExportConversation(req.Path); err != nil {
		s.logger.Error("export failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"path": req.Path, "status": "exported"})
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	if s.keyword == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	results, err := s.keyword.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"chunks": s.session.IndexedChunks(),
	})
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIndexNotInitialized):
		return http.StatusConflict
	case errors.Is(err, models.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
