// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaspell/wordwire/internal/auth"
	"github.com/kaspell/wordwire/internal/board"
	"github.com/kaspell/wordwire/internal/game"
	"github.com/kaspell/wordwire/internal/lobby"
	"github.com/kaspell/wordwire/internal/models"
	"github.com/kaspell/wordwire/internal/words"
)

// LobbyServer holds what the HTTP boundary needs: the lobby registry and a
// logger.
type LobbyServer struct {
	Registry *lobby.Registry
	Logger   *logrus.Logger
}

func NewLobbyServer(reg *lobby.Registry, logger *logrus.Logger) *LobbyServer {
	return &LobbyServer{Registry: reg, Logger: logger}
}

// CreateLobbyHandler creates a lobby around a freshly sampled board and
// registers it. Responds with the new lobby id.
func (s *LobbyServer) CreateLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		vocab, err := words.Sample(board.Size)
		if err != nil {
			http.Error(w, "sampling words", http.StatusInternalServerError)
			return
		}
		g, err := game.NewWrapper(vocab)
		if err != nil {
			http.Error(w, "creating game", http.StatusInternalServerError)
			return
		}

		id := uuid.NewString()
		l := lobby.New(id, g, s.Logger)
		if err := s.Registry.Add(l); err != nil {
			http.Error(w, "lobby id collision", http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"lobby_id": id})
	}
}

// LobbyHandler routes /lobby/{id}/{resource} to the per-lobby endpoints.
func (s *LobbyServer) LobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/lobby/"), "/")
		if len(pathParts) < 2 || pathParts[0] == "" {
			http.Error(w, "missing lobby id", http.StatusBadRequest)
			return
		}
		l, ok := s.Registry.Get(pathParts[0])
		if !ok {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		switch pathParts[1] {
		case "players":
			s.createPlayer(w, r, l)
		case "team":
			s.joinTeam(w, r, l)
		case "spymaster":
			s.electSpymaster(w, r, l)
		case "gameInfo":
			s.gameInfo(w, r, l)
		case "ws":
			s.acceptWS(w, r, l)
		default:
			http.Error(w, "unknown lobby resource", http.StatusNotFound)
		}
	}
}

// createPlayer registers a named player, sets their session cookie and
// returns the echo challenge their realtime connection must answer.
func (s *LobbyServer) createPlayer(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "missing player name", http.StatusBadRequest)
		return
	}

	p, challenge, err := l.AddPlayer(req.Name)
	if err != nil {
		if errors.Is(err, lobby.ErrLobbyClosed) {
			http.Error(w, "lobby is closed", http.StatusGone)
			return
		}
		http.Error(w, "adding player", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateSessionToken(auth.Session{PID: p.ID, LobbyID: l.ID})
	if err != nil {
		http.Error(w, "creating session token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(challenge)
}

// joinTeam puts the session's player on the requested team.
func (s *LobbyServer) joinTeam(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pid, ok := s.sessionPlayer(w, r, l)
	if !ok {
		return
	}
	t, ok := s.decodeTeam(w, r)
	if !ok {
		return
	}
	if err := l.JoinTeam(pid, t); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// electSpymaster makes the session's player spymaster of the requested team.
func (s *LobbyServer) electSpymaster(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pid, ok := s.sessionPlayer(w, r, l)
	if !ok {
		return
	}
	t, ok := s.decodeTeam(w, r)
	if !ok {
		return
	}
	if err := l.ElectSpymaster(pid, t); err != nil {
		if errors.Is(err, lobby.ErrUnknownPlayer) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// gameInfo returns the session player's view of the lobby. Spymasters see
// tile classifications, everyone else only what has been revealed.
func (s *LobbyServer) gameInfo(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pid, ok := s.sessionPlayer(w, r, l)
	if !ok {
		return
	}
	view, err := l.View(pid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// sessionPlayer resolves the player id from the session cookie, checking it
// was minted for this lobby. Writes the error response itself.
func (s *LobbyServer) sessionPlayer(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) (models.PlayerID, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return 0, false
	}
	session, err := auth.AuthenticateSessionToken(cookie.Value)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusForbidden)
		return 0, false
	}
	if session.LobbyID != l.ID {
		http.Error(w, "session is for a different lobby", http.StatusForbidden)
		return 0, false
	}
	return session.PID, true
}

// decodeTeam reads a {"team": "A"|"B"} body. Writes the error response
// itself.
func (s *LobbyServer) decodeTeam(w http.ResponseWriter, r *http.Request) (game.Team, bool) {
	var req struct {
		Team string `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return 0, false
	}
	t, err := game.ParseTeam(req.Team)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return t, true
}
