// internal/modem/modem.go
package modem

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/kaspell/wordwire/internal/models"
)

// Conn is the transport surface the modem routes over. *ws.PlayerConn
// satisfies it; tests substitute in-memory fakes.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

var (
	// ErrPlayerNotFound is returned when routing to an unknown or unbound
	// player.
	ErrPlayerNotFound = errors.New("player not found or has no connection")

	// ErrConnectionNotFound is returned when a connection id matches
	// neither an orphan nor an identified connection.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConnIdentified rejects binding a connection that already
	// identified as a different player.
	ErrConnIdentified = errors.New("connection already identified as another player")
)

// line couples a player's profile with their bound connection, if any.
type line struct {
	player *models.Player
	conn   Conn
}

// Modem maps player identities to their profiles and, once authenticated,
// to their connections; sockets that have not identified themselves yet are
// held as orphans. A connection id lives in at most one of the orphan map
// and the identified mapping.
//
// The modem is not safe for concurrent use on its own: the owning lobby's
// event loop is its single writer.
type Modem struct {
	log *logrus.Entry

	orphans    map[string]Conn
	identified map[string]models.PlayerID
	players    map[models.PlayerID]*line
}

// New builds an empty modem.
func New(log *logrus.Entry) *Modem {
	return &Modem{
		log:        log,
		orphans:    make(map[string]Conn),
		identified: make(map[string]models.PlayerID),
		players:    make(map[models.PlayerID]*line),
	}
}

// AddPlayer registers a player profile, overwriting any prior entry with
// the same id but keeping an existing bound connection.
func (m *Modem) AddPlayer(p *models.Player) {
	if ln, ok := m.players[p.ID]; ok {
		ln.player = p
		return
	}
	m.players[p.ID] = &line{player: p}
}

// AddOrphan registers a connection that has not authenticated yet.
func (m *Modem) AddOrphan(c Conn) {
	m.orphans[c.ID()] = c
}

// Bind promotes an orphan connection to the given player's channel. If the
// player already had a bound connection the old one is silently dropped.
// Only orphans can bind: a connection that identified as another player is
// rejected, and re-binding to the same player is a no-op.
func (m *Modem) Bind(connID string, pid models.PlayerID) error {
	ln, ok := m.players[pid]
	if !ok {
		return ErrPlayerNotFound
	}
	if bound, ok := m.identified[connID]; ok {
		if bound != pid {
			return ErrConnIdentified
		}
		return nil
	}
	conn, ok := m.orphans[connID]
	if !ok {
		return ErrConnectionNotFound
	}
	delete(m.orphans, connID)
	if old := ln.conn; old != nil && old.ID() != connID {
		delete(m.identified, old.ID())
		_ = old.Close()
	}
	ln.conn = conn
	m.identified[connID] = pid
	return nil
}

// Player looks up a registered profile.
func (m *Modem) Player(pid models.PlayerID) (*models.Player, bool) {
	ln, ok := m.players[pid]
	if !ok {
		return nil, false
	}
	return ln.player, true
}

// PlayerForConn resolves an identified connection to its player.
func (m *Modem) PlayerForConn(connID string) (models.PlayerID, bool) {
	pid, ok := m.identified[connID]
	return pid, ok
}

// SendToPlayer routes one frame to a bound player.
func (m *Modem) SendToPlayer(pid models.PlayerID, data []byte) error {
	ln, ok := m.players[pid]
	if !ok || ln.conn == nil {
		return ErrPlayerNotFound
	}
	return ln.conn.Send(data)
}

// SendToConn routes one frame to a connection id, resolving orphans first
// and identified connections second.
func (m *Modem) SendToConn(connID string, data []byte) error {
	if c, ok := m.orphans[connID]; ok {
		return c.Send(data)
	}
	if pid, ok := m.identified[connID]; ok {
		return m.SendToPlayer(pid, data)
	}
	return ErrConnectionNotFound
}

// Broadcast fans one frame out to every bound player. Individual send
// failures are logged, not propagated.
func (m *Modem) Broadcast(data []byte) {
	for pid, ln := range m.players {
		if ln.conn == nil {
			continue
		}
		if err := ln.conn.Send(data); err != nil {
			m.log.Warnf("broadcast to player %d failed: %v", pid, err)
		}
	}
}

// Close tears down the connection behind connID, whether orphan or bound.
func (m *Modem) Close(connID string) error {
	if c, ok := m.orphans[connID]; ok {
		delete(m.orphans, connID)
		return c.Close()
	}
	if pid, ok := m.identified[connID]; ok {
		delete(m.identified, connID)
		if ln, lok := m.players[pid]; lok && ln.conn != nil && ln.conn.ID() == connID {
			c := ln.conn
			ln.conn = nil
			return c.Close()
		}
		return nil
	}
	return ErrConnectionNotFound
}

// CloseAll best-effort closes every live connection, orphan or bound.
func (m *Modem) CloseAll() {
	for id, c := range m.orphans {
		delete(m.orphans, id)
		if err := c.Close(); err != nil {
			m.log.Warnf("closing orphan %s failed: %v", id, err)
		}
	}
	for id := range m.identified {
		delete(m.identified, id)
	}
	for pid, ln := range m.players {
		if ln.conn == nil {
			continue
		}
		c := ln.conn
		ln.conn = nil
		if err := c.Close(); err != nil {
			m.log.Warnf("closing connection of player %d failed: %v", pid, err)
		}
	}
}

// NumOrphans reports how many unidentified connections are held.
func (m *Modem) NumOrphans() int {
	return len(m.orphans)
}

// NumPlayers reports how many profiles are registered.
func (m *Modem) NumPlayers() int {
	return len(m.players)
}
