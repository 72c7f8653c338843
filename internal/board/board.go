// internal/board/board.go
package board

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand"
)

// Size is the number of tiles on a board.
const Size = 25

// Per-class tile counts. One hazard tile, eight tiles per team; the
// remaining eight are neutral.
const (
	hazardCount = 1
	teamCount   = 8
)

var (
	// ErrAlreadyRevealed is returned when a tile has been revealed before.
	ErrAlreadyRevealed = errors.New("tile already revealed")

	// ErrTileOutOfRange is returned for tile indices outside [0, Size).
	ErrTileOutOfRange = errors.New("tile index out of range")
)

// Board holds the 25-word layout and the bit-encoded tile state for one game.
// The word order and the hazard/team classification are fixed at construction;
// only the revealed mask changes afterwards.
type Board struct {
	words [Size]string

	hazardIndex int
	teamAMask   uint32
	teamBMask   uint32

	revealedMask uint32
}

// allMask has the low Size bits set.
const allMask = uint32(1<<Size) - 1

// New builds a board from a 25-word vocabulary, randomly partitioning the
// tile indices into one hazard tile, eight tiles per team and eight neutral
// tiles. The classification never changes for the lifetime of the board.
func New(vocab []string) (*Board, error) {
	if len(vocab) != Size {
		return nil, fmt.Errorf("vocabulary must contain exactly %d words, got %d", Size, len(vocab))
	}

	b := &Board{}
	copy(b.words[:], vocab)

	perm := rand.Perm(Size)
	b.hazardIndex = perm[0]
	for _, i := range perm[hazardCount : hazardCount+teamCount] {
		b.teamAMask |= 1 << i
	}
	for _, i := range perm[hazardCount+teamCount : hazardCount+2*teamCount] {
		b.teamBMask |= 1 << i
	}

	if err := b.checkPartition(); err != nil {
		return nil, err
	}
	return b, nil
}

// checkPartition asserts that hazard, team A, team B and neutral cover all
// 25 indices exactly once.
func (b *Board) checkPartition() error {
	hazard := uint32(1) << b.hazardIndex
	if b.teamAMask&b.teamBMask != 0 || hazard&(b.teamAMask|b.teamBMask) != 0 {
		return errors.New("board classification masks overlap")
	}
	if bits.OnesCount32(b.teamAMask) != teamCount || bits.OnesCount32(b.teamBMask) != teamCount {
		return errors.New("board team masks have wrong cardinality")
	}
	if hazard|b.teamAMask|b.teamBMask|b.neutralMask() != allMask {
		return errors.New("board classification does not cover all tiles")
	}
	return nil
}

func (b *Board) neutralMask() uint32 {
	return allMask &^ (uint32(1)<<b.hazardIndex | b.teamAMask | b.teamBMask)
}

// Words returns the board's words in tile order.
func (b *Board) Words() []string {
	return b.words[:]
}

// Reveal marks tile i as revealed. Revealing a tile twice is always an
// error and leaves the board unchanged.
func (b *Board) Reveal(i int) error {
	if i < 0 || i >= Size {
		return ErrTileOutOfRange
	}
	bit := uint32(1) << i
	if b.revealedMask&bit != 0 {
		return ErrAlreadyRevealed
	}
	b.revealedMask |= bit
	return nil
}

// IsRevealed reports whether tile i has been revealed.
func (b *Board) IsRevealed(i int) bool {
	return i >= 0 && i < Size && b.revealedMask&(1<<i) != 0
}

// IsHazard reports whether tile i is the hazard tile.
func (b *Board) IsHazard(i int) bool {
	return i == b.hazardIndex
}

// IsTeamA reports whether tile i belongs to team A.
func (b *Board) IsTeamA(i int) bool {
	return i >= 0 && i < Size && b.teamAMask&(1<<i) != 0
}

// IsTeamB reports whether tile i belongs to team B.
func (b *Board) IsTeamB(i int) bool {
	return i >= 0 && i < Size && b.teamBMask&(1<<i) != 0
}

// IsNeutral reports whether tile i belongs to neither team and is not the
// hazard.
func (b *Board) IsNeutral(i int) bool {
	return i >= 0 && i < Size && b.neutralMask()&(1<<i) != 0
}

// PendingTeamA counts team A's tiles that are still hidden.
func (b *Board) PendingTeamA() int {
	return bits.OnesCount32(b.teamAMask &^ b.revealedMask)
}

// PendingTeamB counts team B's tiles that are still hidden.
func (b *Board) PendingTeamB() int {
	return bits.OnesCount32(b.teamBMask &^ b.revealedMask)
}

// OnlyHazardHidden reports whether every tile except the hazard has been
// revealed.
func (b *Board) OnlyHazardHidden() bool {
	hidden := allMask &^ b.revealedMask
	return hidden == uint32(1)<<b.hazardIndex
}
