// internal/board/board_test.go
package board

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() []string {
	words := make([]string, Size)
	for i := range words {
		words[i] = fmt.Sprintf("word-%d", i)
	}
	return words
}

func TestNewRejectsWrongVocabSize(t *testing.T) {
	_, err := New(testVocab()[:10])
	assert.Error(t, err)

	_, err = New(append(testVocab(), "extra"))
	assert.Error(t, err)
}

func TestNewPartitionsTiles(t *testing.T) {
	// The partition is random, so check the invariant across many boards.
	for trial := 0; trial < 50; trial++ {
		b, err := New(testVocab())
		require.NoError(t, err)

		hazard, teamA, teamB, neutral := 0, 0, 0, 0
		for i := 0; i < Size; i++ {
			classes := 0
			if b.IsHazard(i) {
				hazard++
				classes++
			}
			if b.IsTeamA(i) {
				teamA++
				classes++
			}
			if b.IsTeamB(i) {
				teamB++
				classes++
			}
			if b.IsNeutral(i) {
				neutral++
				classes++
			}
			assert.Equal(t, 1, classes, "tile %d must have exactly one classification", i)
		}
		assert.Equal(t, 1, hazard)
		assert.Equal(t, 8, teamA)
		assert.Equal(t, 8, teamB)
		assert.Equal(t, 8, neutral)
	}
}

func TestRevealTwiceFails(t *testing.T) {
	b, err := New(testVocab())
	require.NoError(t, err)

	require.NoError(t, b.Reveal(7))
	assert.True(t, b.IsRevealed(7))

	before := b.revealedMask
	err = b.Reveal(7)
	assert.ErrorIs(t, err, ErrAlreadyRevealed)
	assert.Equal(t, before, b.revealedMask, "failed reveal must not change state")
}

func TestRevealOutOfRange(t *testing.T) {
	b, err := New(testVocab())
	require.NoError(t, err)

	assert.ErrorIs(t, b.Reveal(-1), ErrTileOutOfRange)
	assert.ErrorIs(t, b.Reveal(Size), ErrTileOutOfRange)
}

func TestPendingCounts(t *testing.T) {
	b, err := New(testVocab())
	require.NoError(t, err)

	require.Equal(t, 8, b.PendingTeamA())
	require.Equal(t, 8, b.PendingTeamB())

	pendingA := 8
	for i := 0; i < Size; i++ {
		if !b.IsTeamA(i) {
			continue
		}
		require.NoError(t, b.Reveal(i))
		pendingA--
		assert.Equal(t, pendingA, b.PendingTeamA(), "pending must decrease by one per own-team reveal")
		assert.Equal(t, 8, b.PendingTeamB(), "other team's pending must be unaffected")
	}
	assert.Equal(t, 0, b.PendingTeamA())
}

func TestPendingUnchangedByForeignReveals(t *testing.T) {
	b, err := New(testVocab())
	require.NoError(t, err)

	for i := 0; i < Size; i++ {
		if b.IsTeamA(i) {
			continue
		}
		require.NoError(t, b.Reveal(i))
		assert.Equal(t, 8, b.PendingTeamA())
	}
}

func TestOnlyHazardHidden(t *testing.T) {
	b, err := New(testVocab())
	require.NoError(t, err)

	assert.False(t, b.OnlyHazardHidden())
	for i := 0; i < Size; i++ {
		if b.IsHazard(i) {
			continue
		}
		require.NoError(t, b.Reveal(i))
	}
	assert.True(t, b.OnlyHazardHidden())
	assert.Equal(t, 1, bits.OnesCount32(allMask&^b.revealedMask))
}

func TestWordsPreserveOrder(t *testing.T) {
	vocab := testVocab()
	b, err := New(vocab)
	require.NoError(t, err)
	assert.Equal(t, vocab, b.Words())
}
