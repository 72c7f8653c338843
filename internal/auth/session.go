// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kaspell/wordwire/internal/models"
)

// privateKey and publicKey sign and verify session tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpireSec is how many seconds until session expiration (0 => never).
	tokenExpireSec int
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// parseTokenExpireTime reads TOKEN_EXPIRE_TIME and sets tokenExpireSec.
func parseTokenExpireTime() error {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		tokenExpireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse token expire time: %w", err)
	}
	tokenExpireSec = int(d.Seconds())
	return nil
}

// Init generates a fresh ed25519 key pair at runtime and sets the token
// expiration. Sessions do not survive process restarts; players in the
// affected lobbies simply re-create themselves, which fits the ephemeral
// lobby lifetime.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseTokenExpireTime()
}

// Session identifies a player within a lobby at the HTTP boundary.
type Session struct {
	PID     models.PlayerID
	LobbyID string
}

// CreateSessionToken signs a session JWT binding a player id to a lobby.
func CreateSessionToken(s Session) (string, error) {
	claims := jwt.MapClaims{
		"pid":   uint32(s.PID),
		"lobby": s.LobbyID,
	}
	if tokenExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(tokenExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSessionToken verifies a session JWT and returns its session.
func AuthenticateSessionToken(tokenString string) (Session, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return Session{}, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("invalid jwt claims")
	}
	pid, ok := claims["pid"].(float64)
	if !ok {
		return Session{}, fmt.Errorf("missing pid in jwt")
	}
	lobbyID, ok := claims["lobby"].(string)
	if !ok {
		return Session{}, fmt.Errorf("missing lobby in jwt")
	}
	return Session{PID: models.PlayerID(pid), LobbyID: lobbyID}, nil
}
