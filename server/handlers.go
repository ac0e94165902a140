// Package server exposes the ingestion and chat pipelines over plain
// net/http.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"studyassist/chat"
	"studyassist/core"
	"studyassist/ingest"
	"studyassist/logging"
)

type Server struct {
	ingestor *ingest.Ingestor
	chat     *chat.Service
	logger   *logging.Logger
}

func New(ingestor *ingest.Ingestor, chatService *chat.Service, logger *logging.Logger) *Server {
	return &Server{ingestor: ingestor, chat: chatService, logger: logger}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest/video/{id}", s.handleIngestVideo)
	mux.HandleFunc("POST /ingest/pdf/{id}", s.handleIngestPDF)
	mux.HandleFunc("POST /chat/query", s.handleChatQuery)
	mux.HandleFunc("GET /chat/history/{user}", s.handleHistory)
	mux.HandleFunc("GET /chat/sessions/{user}", s.handleSessions)
	mux.HandleFunc("POST /chat/session/{user}", s.handleNewSession)
	mux.HandleFunc("DELETE /chat/session/{user}/{session}", s.handleDeleteSession)
	mux.HandleFunc("POST /chat/clear-memory/{session}", s.handleClearMemory)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type ingestVideoRequest struct {
	Title     string         `json:"title"`
	Segments  []core.Segment `json:"segments"`
	SRT       string         `json:"srt"`
	Force     bool           `json:"force"`
	ChunkSize int            `json:"chunk_size"`
	Overlap   int            `json:"overlap"`
}

type ingestResponse struct {
	SourceID string `json:"source_id"`
	Stored   int    `json:"stored"`
}

func (s *Server) handleIngestVideo(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	var req ingestVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	segments := req.Segments
	if len(segments) == 0 && strings.TrimSpace(req.SRT) != "" {
		segments = ingest.ParseSRT(req.SRT)
	}
	if len(segments) == 0 {
		core.WriteError(w, http.StatusBadRequest, "segments or srt required")
		return
	}

	records, err := s.ingestor.IngestVideo(r.Context(), segments, sourceID, req.Title, ingest.Options{
		Force:     req.Force,
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
	})
	if err != nil {
		s.writeIngestError(w, sourceID, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, ingestResponse{SourceID: sourceID, Stored: len(records)})
}

type ingestPDFRequest struct {
	Title     string      `json:"title"`
	Pages     []core.Page `json:"pages"`
	Force     bool        `json:"force"`
	ChunkSize int         `json:"chunk_size"`
	Overlap   int         `json:"overlap"`
}

func (s *Server) handleIngestPDF(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	var req ingestPDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Pages) == 0 {
		core.WriteError(w, http.StatusBadRequest, "pages required")
		return
	}

	records, err := s.ingestor.IngestPDF(r.Context(), req.Pages, sourceID, req.Title, ingest.Options{
		Force:     req.Force,
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
	})
	if err != nil {
		s.writeIngestError(w, sourceID, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, ingestResponse{SourceID: sourceID, Stored: len(records)})
}

func (s *Server) writeIngestError(w http.ResponseWriter, sourceID string, err error) {
	if errors.Is(err, ingest.ErrAlreadyIngested) {
		core.WriteError(w, http.StatusConflict, "source already ingested; set force to re-ingest")
		return
	}
	s.logger.Error("ingestion failed", "source_id", sourceID, "error", err)
	core.WriteError(w, http.StatusInternalServerError, "ingestion failed")
}

func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := s.chat.Answer(r.Context(), req)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuery) {
			core.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("chat query failed", "error", err)
		core.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	core.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"history": s.chat.History(userID),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"sessions": s.chat.Sessions(userID),
	})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	sessionID := s.chat.StartSession(userID)
	core.WriteJSON(w, http.StatusOK, map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.chat.DeleteSession(r.PathValue("user"), r.PathValue("session"))
	core.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	s.chat.ClearMemory(r.PathValue("session"))
	core.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
