// internal/protocol/protocol.go
package protocol

import (
	"encoding/json"

	"github.com/kaspell/wordwire/internal/models"
)

// Kind tags every frame exchanged over the realtime connection.
type Kind string

// Client-to-server frames.
const (
	KindAuthResponse Kind = "auth_response"
	KindTileSelect   Kind = "tile_select"
)

// Server-to-client frames.
const (
	KindAuthOk       Kind = "auth_ok"
	KindAuthReject   Kind = "auth_reject"
	KindUpdateState  Kind = "update_state"
	KindTeamWin      Kind = "team_win"
	KindInvalidMove  Kind = "invalid_move"
	KindPlayerUpdate Kind = "player_update"
)

// KindInvalidMessage is the catch-all for frames that fail to parse. It is
// never sent on the wire; the lobby logs and drops it.
const KindInvalidMessage Kind = "invalid_message"

// Message is the tagged union carried in every frame. Which fields are
// meaningful depends on Type.
type Message struct {
	Type Kind `json:"type"`

	// auth_response
	PID      models.PlayerID `json:"pid,omitempty"`
	Response string          `json:"response,omitempty"`

	// tile_select; pointer so tile 0 survives omitempty
	Tile *int `json:"tile,omitempty"`

	// update_state
	Seq uint64 `json:"seq,omitempty"`

	// team_win
	Team   string `json:"team,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Decode parses a raw frame. Unparseable input maps to KindInvalidMessage
// rather than an error, so the event loop has a single classification path.
func Decode(data []byte) Message {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return Message{Type: KindInvalidMessage}
	}
	switch msg.Type {
	case KindAuthResponse, KindTileSelect, KindAuthOk, KindAuthReject,
		KindUpdateState, KindTeamWin, KindInvalidMove, KindPlayerUpdate:
		return msg
	}
	return Message{Type: KindInvalidMessage}
}

// Encode marshals a message for the wire.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// AuthOk builds the successful-authentication reply.
func AuthOk() Message {
	return Message{Type: KindAuthOk}
}

// AuthReject builds the failed-authentication reply.
func AuthReject() Message {
	return Message{Type: KindAuthReject}
}

// UpdateState builds the versioned state-change broadcast.
func UpdateState(seq uint64) Message {
	return Message{Type: KindUpdateState, Seq: seq}
}

// TeamWin builds the game-over broadcast.
func TeamWin(team, reason string) Message {
	return Message{Type: KindTeamWin, Team: team, Reason: reason}
}

// InvalidMove builds the per-player move rejection.
func InvalidMove(reason string) Message {
	return Message{Type: KindInvalidMove, Reason: reason}
}

// PlayerUpdate builds the roster-change broadcast.
func PlayerUpdate() Message {
	return Message{Type: KindPlayerUpdate}
}

// TileSelect builds the client move frame.
func TileSelect(tile int) Message {
	return Message{Type: KindTileSelect, Tile: &tile}
}

// AuthResponse builds the client challenge-echo frame.
func AuthResponse(pid models.PlayerID, response string) Message {
	return Message{Type: KindAuthResponse, PID: pid, Response: response}
}
