package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/models"
)

func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	var input models.VideoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.URL == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if !strings.HasPrefix(input.URL, "https") || !strings.HasSuffix(input.URL, ".mp4") {
		s.respondError(w, http.StatusUnprocessableEntity, "url must be an https .mp4 link")
		return
	}
	now := time.Now().UTC()
	rec := &models.VideoRecord{
		ID:              uuid.New().String(),
		CreatedAt:       now,
		StatusChangedAt: now,
		Status:          models.StatusQueued,
		URL:             input.URL,
	}
	if err := s.storage.CreateVideo(r.Context(), rec); err != nil {
		s.logger.Error("create video failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": rec.ID, "status": rec.Status.String()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := &models.SearchQuery{
		Text:     r.URL.Query().Get("text"),
		BM25:     queryFlag(r, "bm25"),
		Semantic: queryFlag(r, "semantic"),
		Vector:   queryFlag(r, "vector"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		query.Limit, _ = strconv.Atoi(limit)
	}
	s.logger.Debug("search request",
		zap.String("text", query.Text),
		zap.Bool("bm25", query.BM25),
		zap.Bool("semantic", query.Semantic),
	)
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		if query.Text == "" {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	hints := s.hints.Lookup(text)
	if hints == nil {
		hints = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hints": hints})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		count = 20
	}
	videos, err := s.storage.ListVideos(r.Context(), offset, count)
	if err != nil {
		s.logger.Error("list videos failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []*models.VideoRecord{}
	}
	s.respondJSON(w, http.StatusOK, videos)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.storage.CountVideos(ctx)
	if err != nil {
		s.logger.Error("status: count videos failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byStatus := make(map[string]int64, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		n, err := s.storage.CountByStatus(ctx, st)
		if err != nil {
			s.logger.Error("status: count by status failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		byStatus[st.String()] = n
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"videos":    total,
		"by_status": byStatus,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryFlag(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || strings.EqualFold(v, "true")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
