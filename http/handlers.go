package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"darts/auth"
	"darts/game"
	"darts/store"
	"darts/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Only allow same origin until a proper allowlist is configured.
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

type Handlers struct {
	authService *auth.Service
	engine      *game.Engine
	wsManager   *ws.Manager
	store       store.Store
}

func NewHandlers(authService *auth.Service, engine *game.Engine, wsManager *ws.Manager, store store.Store) *Handlers {
	return &Handlers{
		authService: authService,
		engine:      engine,
		wsManager:   wsManager,
		store:       store,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

// Auth handlers

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrUserExists):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("register failed")
			http.Error(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"playerId": user.ID,
		"username": user.Username,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		} else {
			log.Error().Err(err).Msg("login failed")
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	if err := h.authService.GetSessionManager().SetSessionCookie(w, sessionID); err != nil {
		log.Error().Err(err).Msg("failed to set session cookie")
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId": user.ID,
		"username": user.Username,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.authService.GetSessionManager().SessionFromRequest(r)
	if sessionID != "" {
		h.authService.Logout(sessionID)
		h.authService.GetSessionManager().ClearSessionCookie(w)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the authenticated player's profile, including the running
// three-dart average maintained by the engine.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	playerID, ok := PlayerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.store.GetUserByID(playerID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile")
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId":     user.ID,
		"username":     user.Username,
		"averageScore": user.AverageScore,
		"visitCount":   user.VisitCount,
	})
}

// GetGame serves a read-only snapshot; a reconnecting device can fetch the
// current state over plain HTTP before the websocket catches up.
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := PlayerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	gameID := mux.Vars(r)["gameId"]
	snapshot, err := h.engine.Snapshot(gameID)
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to load game")
		http.Error(w, "Failed to load game", http.StatusInternalServerError)
		return
	}

	if snapshot.Player(playerID) == nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// HandleWebSocket upgrades the connection and hands it to the ws manager,
// which binds it in the connection registry.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID, ok := PlayerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.wsManager.HandleConnection(conn, playerID)
}
