// internal/game/game.go
package game

import (
	"github.com/kaspell/wordwire/internal/board"
	"github.com/kaspell/wordwire/internal/models"
)

// core carries the state shared by both game phases: the board, the two
// rosters keyed by player id, the elected spymasters and the turn pointer.
// The turn pointer is only meaningful once the game is in progress.
type core struct {
	board *board.Board

	teamA map[models.PlayerID]*models.Player
	teamB map[models.PlayerID]*models.Player

	// Spymasters are keyed by player id rather than roster position, so a
	// selection survives later roster changes.
	spymasterA *models.PlayerID
	spymasterB *models.PlayerID

	next Team
}

// InitialGame is a game accepting roster changes but not yet accepting moves.
type InitialGame struct {
	core
}

// InProgressGame is a begun game accepting moves.
type InProgressGame struct {
	core
}

// NewInitial creates an unstarted game over a fresh board built from the
// given 25-word vocabulary.
func NewInitial(vocab []string) (*InitialGame, error) {
	b, err := board.New(vocab)
	if err != nil {
		return nil, err
	}
	return &InitialGame{core: core{
		board: b,
		teamA: make(map[models.PlayerID]*models.Player),
		teamB: make(map[models.PlayerID]*models.Player),
	}}, nil
}

// AddPlayer puts the player on the given team's roster. A player is on at
// most one team, so adding to one team removes any membership on the other;
// re-adding to the same team just overwrites the profile.
func (c *core) AddPlayer(t Team, p *models.Player) {
	switch t {
	case TeamA:
		delete(c.teamB, p.ID)
		c.teamA[p.ID] = p
	case TeamB:
		delete(c.teamA, p.ID)
		c.teamB[p.ID] = p
	}
}

// SetSpymaster elects the given player as the team's spymaster. The player
// must already be on that team's roster.
func (c *core) SetSpymaster(t Team, pid models.PlayerID) error {
	roster := c.roster(t)
	if _, ok := roster[pid]; !ok {
		return ErrNotOnTeam
	}
	id := pid
	if t == TeamA {
		c.spymasterA = &id
	} else {
		c.spymasterB = &id
	}
	return nil
}

// Spymaster returns the team's elected spymaster, if any.
func (c *core) Spymaster(t Team) (models.PlayerID, bool) {
	ptr := c.spymasterA
	if t == TeamB {
		ptr = c.spymasterB
	}
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// IsSpymaster reports whether pid is the spymaster of either team.
func (c *core) IsSpymaster(pid models.PlayerID) bool {
	if c.spymasterA != nil && *c.spymasterA == pid {
		return true
	}
	return c.spymasterB != nil && *c.spymasterB == pid
}

// TeamOf resolves which team a player belongs to.
func (c *core) TeamOf(pid models.PlayerID) (Team, bool) {
	if _, ok := c.teamA[pid]; ok {
		return TeamA, true
	}
	if _, ok := c.teamB[pid]; ok {
		return TeamB, true
	}
	return TeamA, false
}

func (c *core) roster(t Team) map[models.PlayerID]*models.Player {
	if t == TeamA {
		return c.teamA
	}
	return c.teamB
}

// Roster returns a copy of the team's roster.
func (c *core) Roster(t Team) []*models.Player {
	src := c.roster(t)
	out := make([]*models.Player, 0, len(src))
	for _, p := range src {
		out = append(out, p)
	}
	return out
}

// Pending returns the team's count of still-hidden own tiles. It reaches
// zero exactly when the team has won on score.
func (c *core) Pending(t Team) int {
	if t == TeamA {
		return c.board.PendingTeamA()
	}
	return c.board.PendingTeamB()
}

// Board exposes the underlying board for read-only queries (views, tests).
func (c *core) Board() *board.Board {
	return c.board
}

// CanBegin reports whether the game is ready to start: at least two players
// per team and a spymaster elected for each.
func (c *core) CanBegin() bool {
	return len(c.teamA) >= 2 && len(c.teamB) >= 2 &&
		c.spymasterA != nil && c.spymasterB != nil
}

// Begin converts an initial game into a running one with team A to move.
// On failure the initial game is returned unchanged along with the error, so
// the caller can add players and retry.
func (g *InitialGame) Begin() (*InProgressGame, error) {
	if !g.CanBegin() {
		return nil, ErrCannotBegin
	}
	running := &InProgressGame{core: g.core}
	running.next = TeamA
	return running, nil
}

// Turn returns the team whose move it is.
func (g *InProgressGame) Turn() Team {
	return g.next
}

// TryUnravel resolves one tile reveal by the given player.
//
// Revealing the hazard ends the game immediately in the opponent's favor;
// the pending scores are not consulted on that move, so a hazard reveal can
// never be converted into a score win. Otherwise the tile's classification
// decides turn and score: a neutral or opposing tile passes the turn, an own
// tile keeps it, and either team's pending count reaching zero wins on score.
func (g *InProgressGame) TryUnravel(pid models.PlayerID, tile int) (MoveResult, error) {
	team, ok := g.TeamOf(pid)
	if !ok {
		return Continue, ErrPlayerNotInTeam
	}
	if team != g.next {
		return Continue, ErrNotYourTurn
	}
	if err := g.board.Reveal(tile); err != nil {
		return Continue, err
	}

	if g.board.IsHazard(tile) {
		return WinFor(team.Other(), OpponentRevealedHazard), nil
	}

	switch {
	case g.board.IsNeutral(tile):
		g.next = team.Other()
	case team == TeamA && g.board.IsTeamA(tile), team == TeamB && g.board.IsTeamB(tile):
		// Own tile: the acting team keeps the turn.
	default:
		// Opposing team's tile: their score improves and the turn passes.
		g.next = team.Other()
	}

	if g.Pending(TeamA) == 0 {
		return WinFor(TeamA, ScoreReached), nil
	}
	if g.Pending(TeamB) == 0 {
		return WinFor(TeamB, ScoreReached), nil
	}
	return Continue, nil
}
