package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"demoapps/internal/game"
	"demoapps/internal/locale"
	"demoapps/internal/session"
	"demoapps/internal/storage"
)

const (
	defaultScoreLimit = 10
	maxScoreLimit     = 100
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *session.Manager
	store    *storage.Store
	webFS    fs.FS
	log      *zap.Logger
}

// New creates a server with all routes and subscribes it to realtime ticks.
// webFS should be the "web" subdirectory of the embedded filesystem.
func New(registry *game.Registry, manager *session.Manager, store *storage.Store, webFS fs.FS, log *zap.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
		store:    store,
		webFS:    webFS,
		log:      log,
	}
	manager.OnTick(s.broadcastState)
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /api/sessions/{code}/start", s.handleStartSession)
	s.mux.HandleFunc("GET /api/scores/{game}", s.handleScores)
	s.mux.HandleFunc("GET /api/locales", s.handleLocales)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type createSessionRequest struct {
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

// handleCreateSession creates a session and seats the caller as host. A
// caller without a player ID is given a fresh one.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" {
		writeError(w, http.StatusBadRequest, "gameType required")
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}

	sess, err := s.manager.Create(r.Context(), req.GameType)
	if errors.Is(err, session.ErrUnknownGame) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("create session", zap.String("game", req.GameType), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	if err := s.manager.Join(r.Context(), sess, req.PlayerID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code, PlayerID: req.PlayerID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := s.manager.Start(r.Context(), sess); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Broadcast new state to all players
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("game")
	g, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	if !g.Info().HighScores {
		writeError(w, http.StatusNotFound, "game has no score board")
		return
	}
	limit := defaultScoreLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxScoreLimit)
	}
	scores, err := s.store.TopScores(r.Context(), name, limit)
	if err != nil {
		s.log.Error("top scores", zap.String("game", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load scores")
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

type localeInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// handleLocales lists the locale files served under /locales.
func (s *Server) handleLocales(w http.ResponseWriter, r *http.Request) {
	entries, err := fs.ReadDir(s.webFS, "locales")
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, http.StatusOK, []localeInfo{})
		return
	}
	if err != nil {
		s.log.Error("list locales", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list locales")
		return
	}
	out := []localeInfo{}
	for _, e := range entries {
		code, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || !locale.ValidCode(code) {
			continue
		}
		out = append(out, localeInfo{Code: code, Name: locale.LanguageName(code)})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
