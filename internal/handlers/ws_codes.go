// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby websocket handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	LobbyClosedError    = 3001 // Target lobby has stopped admitting connections.
)
