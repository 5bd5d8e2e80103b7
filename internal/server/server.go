// Package server exposes the game sessions over HTTP for the browser client.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/user/vida-loka-sim/internal/game"
	"github.com/user/vida-loka-sim/internal/interfaces"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

// Server handles the HTTP API of the game
type Server struct {
	gm       *game.GameManager
	audio    *AudioHub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the API server
func New(gm *game.GameManager, audio *AudioHub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audio == nil {
		audio = NewAudioHub(logger)
	}
	return &Server{
		gm:     gm,
		audio:  audio,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// The stream outlives any request timeout
	router.Get("/sessions/{id}/stream", s.handleStream)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/speed", s.handleGetSpeed)
		r.Put("/speed", s.handleSetSpeed)
		r.Get("/locations", s.handleLocations)

		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Get("/progress", s.handleProgress)
			r.Post("/enter", s.handleEnter)
			r.Post("/leave", s.handleLeave)
			r.Post("/activities/{activity}", s.handleActivity)
			r.Post("/items/{name}/use", s.handleUseItem)
			r.Post("/tasks/{key}/toggle", s.handleToggleTask)
			r.Post("/move", s.handleMove)
			r.Post("/new-game", s.handleNewGame)
			r.Get("/summary", s.handleSummary)
			r.Get("/summary/qr", s.handleSummaryQR)
		})
	})

	return router
}

type startSessionRequest struct {
	PlayerName    string `json:"player_name"`
	CharacterName string `json:"character_name"`
}

type enterRequest struct {
	Location      string         `json:"location"`
	PlayerName    string         `json:"player_name"`
	CharacterName string         `json:"character_name"`
	Stats         map[string]any `json:"stats"`
}

type moveRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type speedRequest struct {
	FastForward *bool `json:"fast_forward"`
}

type speedResponse struct {
	FastForward bool `json:"fast_forward"`
}

type activityResponse struct {
	Started bool                  `json:"started"`
	Session types.SessionSnapshot `json:"session"`
}

type useItemResponse struct {
	Used    bool                  `json:"used"`
	Session types.SessionSnapshot `json:"session"`
}

type moveResponse struct {
	Prompt  *types.Prompt         `json:"prompt"`
	Session types.SessionSnapshot `json:"session"`
}

type leaveResponse struct {
	Handoff *types.Handoff        `json:"handoff"`
	Session types.SessionSnapshot `json:"session"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps game errors to HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrGameOver):
		status = http.StatusConflict
	case errors.Is(err, game.ErrUnknownLocation),
		errors.Is(err, game.ErrUnknownActivity),
		errors.Is(err, game.ErrNotInLocation),
		errors.Is(err, game.ErrInvalidPlayerArg):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (interfaces.GameSession, bool) {
	session, err := s.gm.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func decode(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(v)
}

func (s *Server) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, speedResponse{FastForward: s.gm.FastForward()})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if err := decode(r, &req); err != nil || req.FastForward == nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	s.gm.SetFastForward(*req.FastForward)
	s.writeJSON(w, http.StatusOK, speedResponse{FastForward: s.gm.FastForward()})
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.gm.Locations())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	session, err := s.gm.StartSession(req.PlayerName, req.CharacterName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.gm.EndSession(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.gm.Progress(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req enterRequest
	if err := decode(r, &req); err != nil || req.Location == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	// Browser stats are merged field by field over the defaults
	var handoff *types.Handoff
	if req.Stats != nil {
		handoff = &types.Handoff{
			PlayerName:    req.PlayerName,
			CharacterName: req.CharacterName,
			Stats:         game.MergeStats(s.gm.DefaultStats(), req.Stats),
		}
	}

	if err := session.Enter(req.Location, handoff); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	handoff, err := session.Leave()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, leaveResponse{Handoff: handoff, Session: session.Snapshot()})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	started, err := session.PerformActivity(chi.URLParam(r, "activity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, activityResponse{Started: started, Session: session.Snapshot()})
}

func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	used, err := session.UseItem(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, useItemResponse{Used: used, Session: session.Snapshot()})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.ToggleTask(chi.URLParam(r, "key")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := decode(r, &req); err != nil || req.X == nil || req.Y == nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	prompt, err := session.Move(*req.X, *req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, moveResponse{Prompt: prompt, Session: session.Snapshot()})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.NewGame(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session.Snapshot())
}
