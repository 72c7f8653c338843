// internal/game/types.go
package game

import "errors"

// Team identifies one of the two sides of a game.
type Team uint8

const (
	TeamA Team = iota
	TeamB
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	if t == TeamA {
		return "A"
	}
	return "B"
}

// ParseTeam converts the wire form ("A" or "B") back into a Team.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "A":
		return TeamA, nil
	case "B":
		return TeamB, nil
	}
	return TeamA, errors.New("team must be A or B")
}

// WinReason explains how a game was decided.
type WinReason uint8

const (
	// ScoreReached means the winning team revealed all of its own tiles.
	ScoreReached WinReason = iota
	// OpponentRevealedHazard means the losing team revealed the hazard tile.
	OpponentRevealedHazard
)

func (r WinReason) String() string {
	if r == ScoreReached {
		return "score_reached"
	}
	return "opponent_revealed_hazard"
}

// MoveResult is the outcome of a single accepted move: either the game
// continues, or a team has won for the given reason.
type MoveResult struct {
	Win    bool
	Winner Team
	Reason WinReason
}

// Continue is the MoveResult for a move that does not end the game.
var Continue = MoveResult{}

// WinFor builds a winning MoveResult.
func WinFor(t Team, reason WinReason) MoveResult {
	return MoveResult{Win: true, Winner: t, Reason: reason}
}

var (
	// ErrPlayerNotInTeam rejects a move by a player on neither roster.
	ErrPlayerNotInTeam = errors.New("player does not belong to a team")

	// ErrNotYourTurn rejects a move made out of turn.
	ErrNotYourTurn = errors.New("not your team's turn")

	// ErrCannotBegin rejects a begin attempt before both teams have at
	// least two players and a spymaster.
	ErrCannotBegin = errors.New("need at least 2 players and a spymaster per team")

	// ErrNotStarted rejects a move against a game still in its initial phase.
	ErrNotStarted = errors.New("game has not begun")

	// ErrAlreadyBegun rejects a second begin on a running game.
	ErrAlreadyBegun = errors.New("game already in progress")

	// ErrNotOnTeam rejects electing a spymaster who is not on the team.
	ErrNotOnTeam = errors.New("player is not on that team")
)
