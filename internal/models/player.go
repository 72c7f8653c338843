// internal/models/player.go
package models

// PlayerID identifies a player within a single lobby. IDs are assigned
// sequentially by the lobby when the player is created.
type PlayerID uint32

// Player is the game-facing profile of a lobby participant.
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}
