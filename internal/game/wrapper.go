// internal/game/wrapper.go
package game

import (
	"github.com/kaspell/wordwire/internal/board"
	"github.com/kaspell/wordwire/internal/models"
)

// Phase names the two concrete states a wrapped game can be in.
type Phase uint8

const (
	PhaseInitial Phase = iota
	PhaseInProgress
)

func (p Phase) String() string {
	if p == PhaseInitial {
		return "initial"
	}
	return "in_progress"
}

// Wrapper holds a game as a single mutable value whose phase changes in
// place, dispatching each operation to whichever phase is live. Exactly one
// of the two fields is non-nil at any time.
type Wrapper struct {
	initial *InitialGame
	running *InProgressGame
}

// NewWrapper builds a wrapped game in its initial phase.
func NewWrapper(vocab []string) (*Wrapper, error) {
	g, err := NewInitial(vocab)
	if err != nil {
		return nil, err
	}
	return &Wrapper{initial: g}, nil
}

// Phase reports the live phase.
func (w *Wrapper) Phase() Phase {
	if w.running != nil {
		return PhaseInProgress
	}
	return PhaseInitial
}

// Started reports whether the game has begun.
func (w *Wrapper) Started() bool {
	return w.running != nil
}

func (w *Wrapper) live() *core {
	if w.running != nil {
		return &w.running.core
	}
	return &w.initial.core
}

// AddPlayer adds or moves a player onto a team; legal in both phases since
// players may join mid-lobby.
func (w *Wrapper) AddPlayer(t Team, p *models.Player) {
	w.live().AddPlayer(t, p)
}

// SetSpymaster elects a team's spymaster by player id.
func (w *Wrapper) SetSpymaster(t Team, pid models.PlayerID) error {
	return w.live().SetSpymaster(t, pid)
}

// Spymaster returns the team's elected spymaster, if any.
func (w *Wrapper) Spymaster(t Team) (models.PlayerID, bool) {
	return w.live().Spymaster(t)
}

// IsSpymaster reports whether pid is either team's spymaster.
func (w *Wrapper) IsSpymaster(pid models.PlayerID) bool {
	return w.live().IsSpymaster(pid)
}

// TeamOf resolves a player's team.
func (w *Wrapper) TeamOf(pid models.PlayerID) (Team, bool) {
	return w.live().TeamOf(pid)
}

// Roster returns a copy of a team's roster.
func (w *Wrapper) Roster(t Team) []*models.Player {
	return w.live().Roster(t)
}

// Pending returns a team's count of still-hidden own tiles.
func (w *Wrapper) Pending(t Team) int {
	return w.live().Pending(t)
}

// Board exposes the underlying board for read-only queries.
func (w *Wrapper) Board() *board.Board {
	return w.live().Board()
}

// CanBegin reports readiness to start.
func (w *Wrapper) CanBegin() bool {
	return w.live().CanBegin()
}

// Begin transitions the wrapped game from initial to in-progress in place.
// On failure the initial game is untouched and the caller may retry.
func (w *Wrapper) Begin() error {
	if w.running != nil {
		return ErrAlreadyBegun
	}
	running, err := w.initial.Begin()
	if err != nil {
		return err
	}
	w.initial = nil
	w.running = running
	return nil
}

// Turn returns the team to move; false while the game is still initial.
func (w *Wrapper) Turn() (Team, bool) {
	if w.running == nil {
		return TeamA, false
	}
	return w.running.Turn(), true
}

// TryUnravel forwards a move to the running game.
func (w *Wrapper) TryUnravel(pid models.PlayerID, tile int) (MoveResult, error) {
	if w.running == nil {
		return Continue, ErrNotStarted
	}
	return w.running.TryUnravel(pid, tile)
}
