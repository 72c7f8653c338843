// internal/lobby/view.go
package lobby

import (
	"sort"

	"github.com/kaspell/wordwire/internal/board"
	"github.com/kaspell/wordwire/internal/game"
	"github.com/kaspell/wordwire/internal/models"
)

// TileView is one tile as seen by a particular player. Class is only
// populated when that player is allowed to see the classification.
type TileView struct {
	Word     string `json:"word"`
	Revealed bool   `json:"revealed"`
	Class    string `json:"class,omitempty"`
}

// View is the game as seen by a particular player: spymasters see every
// tile's classification, regular players only those of revealed tiles.
type View struct {
	LobbyID  string           `json:"lobby_id"`
	Phase    string           `json:"phase"`
	Turn     string           `json:"turn,omitempty"`
	PendingA int              `json:"pending_a"`
	PendingB int              `json:"pending_b"`
	TeamA    []*models.Player `json:"team_a"`
	TeamB    []*models.Player `json:"team_b"`
	Tiles    []TileView       `json:"tiles"`
	Seq      uint64           `json:"seq"`
}

func classOf(b *board.Board, i int) string {
	switch {
	case b.IsHazard(i):
		return "hazard"
	case b.IsTeamA(i):
		return "team_a"
	case b.IsTeamB(i):
		return "team_b"
	default:
		return "neutral"
	}
}

// View builds the visibility-filtered game view for the given player.
func (l *Lobby) View(pid models.PlayerID) (View, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.mdm.Player(pid); !ok {
		return View{}, ErrUnknownPlayer
	}

	v := View{
		LobbyID:  l.ID,
		Phase:    l.game.Phase().String(),
		PendingA: l.game.Pending(game.TeamA),
		PendingB: l.game.Pending(game.TeamB),
		TeamA:    sortedRoster(l.game.Roster(game.TeamA)),
		TeamB:    sortedRoster(l.game.Roster(game.TeamB)),
		Seq:      l.moveSeq,
	}
	if turn, ok := l.game.Turn(); ok {
		v.Turn = turn.String()
	}

	spymaster := l.game.IsSpymaster(pid)
	b := l.game.Board()
	v.Tiles = make([]TileView, 0, board.Size)
	for i, word := range b.Words() {
		tv := TileView{Word: word, Revealed: b.IsRevealed(i)}
		if spymaster || tv.Revealed {
			tv.Class = classOf(b, i)
		}
		v.Tiles = append(v.Tiles, tv)
	}
	return v, nil
}

func sortedRoster(roster []*models.Player) []*models.Player {
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster
}
