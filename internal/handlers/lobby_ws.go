// internal/handlers/lobby_ws.go
package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/kaspell/wordwire/internal/lobby"
	"github.com/kaspell/wordwire/internal/middleware"
	"github.com/kaspell/wordwire/internal/ws"
)

const wsSubprotocol = "wordwire"

// acceptWS upgrades the request and hands the connection to the lobby as an
// orphan. Identification happens in-band over the echo challenge, so no
// session is required here. The connection outlives the handler: the
// websocket library hijacks the underlying TCP connection on accept.
func (s *LobbyServer) acceptWS(w http.ResponseWriter, r *http.Request, l *lobby.Lobby) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}

	if sock.Subprotocol() != wsSubprotocol {
		sock.Close(BadSubprotocolError, "client must speak the wordwire subprotocol")
		return
	}

	conn := ws.NewPlayerConn(uuid.NewString(), sock, s.Logger)
	if err := l.AcceptConnection(conn); err != nil {
		// AcceptConnection closed the wrapper; this tells the client why.
		sock.Close(LobbyClosedError, err.Error())
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)
}
