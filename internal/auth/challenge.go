// internal/auth/challenge.go
package auth

import (
	"github.com/google/uuid"

	"github.com/kaspell/wordwire/internal/models"
)

// Challenge is the player-facing half of an echo challenge: the player must
// return the challenge string unchanged, tagged with their claimed id.
type Challenge struct {
	PID       models.PlayerID `json:"pid"`
	Challenge string          `json:"challenge"`
}

// IssuedChallenge pairs the player-facing challenge with the answer the
// server expects.
type IssuedChallenge struct {
	Challenge
	expected string
}

// NewEchoChallenge builds an echo challenge for the player with a random
// challenge string.
func NewEchoChallenge(pid models.PlayerID) IssuedChallenge {
	c := uuid.NewString()
	return IssuedChallenge{
		Challenge: Challenge{PID: pid, Challenge: c},
		expected:  c,
	}
}

// Matches reports whether the echoed response closes the challenge. The
// match is exact.
func (ic IssuedChallenge) Matches(response string) bool {
	return ic.expected == response
}
