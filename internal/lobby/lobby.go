// internal/lobby/lobby.go
package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaspell/wordwire/internal/auth"
	"github.com/kaspell/wordwire/internal/cache"
	"github.com/kaspell/wordwire/internal/database"
	"github.com/kaspell/wordwire/internal/game"
	"github.com/kaspell/wordwire/internal/modem"
	"github.com/kaspell/wordwire/internal/models"
	"github.com/kaspell/wordwire/internal/protocol"
	"github.com/kaspell/wordwire/internal/ws"
)

// Connection is the realtime endpoint a lobby admits: routable by the modem
// and redirectable into the lobby's shared inbound channel.
type Connection interface {
	modem.Conn
	RouteInboundInto(chan<- ws.Frame) error
}

var (
	// ErrLobbyClosed rejects players and connections after the lobby has
	// stopped admitting.
	ErrLobbyClosed = errors.New("lobby is closed")

	// ErrUnknownPlayer rejects operations for player ids the lobby never
	// issued.
	ErrUnknownPlayer = errors.New("unknown player")
)

const inboundQueueSize = 256

// Lobby owns one game, one modem, the outstanding-challenge table and the
// single event loop that serializes every game/router mutation. The HTTP
// boundary reaches it through the embedded read/write lock: the event loop
// and the non-realtime mutations take the write half, views take the read
// half.
type Lobby struct {
	ID string

	mu   sync.RWMutex
	game *game.Wrapper
	mdm  *modem.Modem

	challenges map[models.PlayerID]auth.IssuedChallenge
	moveSeq    uint64
	admitting  bool
	ended      bool
	nextPID    models.PlayerID

	inbound chan ws.Frame
	done    chan struct{}
	quit    sync.Once

	log *logrus.Entry
}

// New creates an admitting lobby around the given game.
func New(id string, g *game.Wrapper, logger *logrus.Logger) *Lobby {
	log := logger.WithField("lobby", id)
	return &Lobby{
		ID:         id,
		game:       g,
		mdm:        modem.New(log),
		challenges: make(map[models.PlayerID]auth.IssuedChallenge),
		admitting:  true,
		nextPID:    1,
		inbound:    make(chan ws.Frame, inboundQueueSize),
		done:       make(chan struct{}),
		log:        log,
	}
}

// AddPlayer registers a new player with the modem, issues their echo
// challenge and returns the player-facing half for delivery over the
// non-realtime channel.
func (l *Lobby) AddPlayer(name string) (*models.Player, auth.Challenge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.admitting {
		return nil, auth.Challenge{}, ErrLobbyClosed
	}

	p := &models.Player{ID: l.nextPID, Name: name}
	l.nextPID++
	l.mdm.AddPlayer(p)

	ic := auth.NewEchoChallenge(p.ID)
	l.challenges[p.ID] = ic

	l.log.Infof("player %d (%s) created", p.ID, p.Name)
	l.broadcast(protocol.PlayerUpdate())
	return p, ic.Challenge, nil
}

// JoinTeam puts an existing player on a team, switching them if they were
// on the other one.
func (l *Lobby) JoinTeam(pid models.PlayerID, t game.Team) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.mdm.Player(pid)
	if !ok {
		return ErrUnknownPlayer
	}
	l.game.AddPlayer(t, p)
	l.log.Infof("player %d joined team %s", pid, t)
	l.broadcast(protocol.PlayerUpdate())
	return nil
}

// ElectSpymaster makes the player their team's spymaster.
func (l *Lobby) ElectSpymaster(pid models.PlayerID, t game.Team) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mdm.Player(pid); !ok {
		return ErrUnknownPlayer
	}
	if err := l.game.SetSpymaster(t, pid); err != nil {
		return err
	}
	l.log.Infof("player %d elected spymaster of team %s", pid, t)
	l.broadcast(protocol.PlayerUpdate())
	return nil
}

// AcceptConnection admits a live connection as an orphan and redirects its
// inbound stream into the lobby's shared channel. A closed lobby shuts the
// connection immediately.
func (l *Lobby) AcceptConnection(c Connection) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.admitting {
		_ = c.Close()
		return ErrLobbyClosed
	}
	if err := c.RouteInboundInto(l.inbound); err != nil {
		_ = c.Close()
		return err
	}
	l.mdm.AddOrphan(c)
	l.log.Infof("connection %s admitted", c.ID())
	return nil
}

// Run is the lobby's event loop: the single goroutine that drains the
// shared inbound channel and owns all game and modem mutation. It exits
// when the lobby quits.
func (l *Lobby) Run() {
	l.log.Info("event loop started")
	defer l.log.Info("event loop stopped")

	for {
		select {
		case <-l.done:
			return
		case fr := <-l.inbound:
			l.dispatch(fr)
		}
	}
}

// dispatch classifies one inbound frame and routes it to a handler.
func (l *Lobby) dispatch(fr ws.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fr.Close {
		if err := l.mdm.Close(fr.ConnID); err != nil && !errors.Is(err, modem.ErrConnectionNotFound) {
			l.log.Warnf("closing connection %s: %v", fr.ConnID, err)
		}
		return
	}

	msg := protocol.Decode(fr.Data)
	switch msg.Type {
	case protocol.KindAuthResponse:
		l.handleAuthResponse(fr.ConnID, msg)
	case protocol.KindTileSelect:
		l.handleTileSelect(fr.ConnID, msg)
	case protocol.KindInvalidMessage:
		l.log.Warnf("unparseable frame from connection %s", fr.ConnID)
	default:
		l.log.Debugf("ignoring %s frame from connection %s", msg.Type, fr.ConnID)
	}
}

// handleAuthResponse resolves an echo-challenge answer. A correct answer
// closes the challenge and binds the connection to the player; anything
// else is rejected and the connection force-closed. There is no retry.
func (l *Lobby) handleAuthResponse(connID string, msg protocol.Message) {
	ic, ok := l.challenges[msg.PID]
	if !ok || !ic.Matches(msg.Response) {
		l.log.Warnf("auth rejected for connection %s (pid %d)", connID, msg.PID)
		l.sendToConn(connID, protocol.AuthReject())
		if err := l.mdm.Close(connID); err != nil && !errors.Is(err, modem.ErrConnectionNotFound) {
			l.log.Warnf("closing rejected connection %s: %v", connID, err)
		}
		return
	}

	if err := l.mdm.Bind(connID, msg.PID); err != nil {
		// The challenge stays open so the player can answer it on a
		// fresh connection.
		l.log.Warnf("binding connection %s to player %d: %v", connID, msg.PID, err)
		l.sendToConn(connID, protocol.AuthReject())
		if err := l.mdm.Close(connID); err != nil && !errors.Is(err, modem.ErrConnectionNotFound) {
			l.log.Warnf("closing rejected connection %s: %v", connID, err)
		}
		return
	}
	delete(l.challenges, msg.PID)
	l.log.Infof("connection %s authenticated as player %d", connID, msg.PID)
	l.sendToConn(connID, protocol.AuthOk())
}

// handleTileSelect resolves a move attempt. Frames from connections that
// never authenticated are silently dropped; a still-initial game is lazily
// begun on the first attempt; a decided game rejects every further select.
func (l *Lobby) handleTileSelect(connID string, msg protocol.Message) {
	pid, ok := l.mdm.PlayerForConn(connID)
	if !ok {
		l.log.Debugf("tile select from unidentified connection %s ignored", connID)
		return
	}
	if l.ended {
		l.sendToPlayer(pid, protocol.InvalidMove("game has ended"))
		return
	}
	if msg.Tile == nil {
		l.sendToPlayer(pid, protocol.InvalidMove("missing tile index"))
		return
	}

	if !l.game.Started() {
		if err := l.game.Begin(); err != nil {
			l.sendToPlayer(pid, protocol.InvalidMove(err.Error()))
			return
		}
		l.log.Info("game begun")
	}

	res, err := l.game.TryUnravel(pid, *msg.Tile)
	if err != nil {
		l.sendToPlayer(pid, protocol.InvalidMove(err.Error()))
		return
	}

	l.moveSeq++
	l.publishMove(pid, *msg.Tile, res)

	if !res.Win {
		l.broadcast(protocol.UpdateState(l.moveSeq))
		return
	}

	l.log.Infof("team %s wins: %s", res.Winner, res.Reason)
	l.broadcast(protocol.TeamWin(res.Winner.String(), res.Reason.String()))
	l.admitting = false
	l.ended = true
	l.recordResult(res)
}

// publishMove hands the accepted move to the history queue, off the event
// loop's critical path.
func (l *Lobby) publishMove(pid models.PlayerID, tile int, res game.MoveResult) {
	result := "continue"
	if res.Win {
		result = "win_" + res.Winner.String()
	}
	rec := cache.MoveRecord{
		LobbyID:   l.ID,
		Seq:       l.moveSeq,
		PID:       pid,
		Tile:      tile,
		Result:    result,
		Timestamp: time.Now().Unix(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishMove(ctx, rec); err != nil {
			l.log.Warnf("publishing move %d: %v", rec.Seq, err)
		}
	}()
}

// recordResult snapshots the finished game and persists it in the
// background. Requires the lobby lock.
func (l *Lobby) recordResult(res game.MoveResult) {
	if database.DB == nil {
		return
	}
	result := database.GameResult{
		LobbyID:  l.ID,
		Winner:   res.Winner,
		Reason:   res.Reason,
		PendingA: l.game.Pending(game.TeamA),
		PendingB: l.game.Pending(game.TeamB),
		Rosters: map[game.Team][]*models.Player{
			game.TeamA: l.game.Roster(game.TeamA),
			game.TeamB: l.game.Roster(game.TeamB),
		},
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.RecordGameResult(ctx, result); err != nil {
			l.log.Errorf("recording game result: %v", err)
		}
	}()
}

// sendToConn encodes and routes one message to a connection id.
func (l *Lobby) sendToConn(connID string, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		l.log.Errorf("encoding %s: %v", msg.Type, err)
		return
	}
	if err := l.mdm.SendToConn(connID, data); err != nil {
		l.log.Warnf("sending %s to connection %s: %v", msg.Type, connID, err)
	}
}

// sendToPlayer encodes and routes one message to a bound player.
func (l *Lobby) sendToPlayer(pid models.PlayerID, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		l.log.Errorf("encoding %s: %v", msg.Type, err)
		return
	}
	if err := l.mdm.SendToPlayer(pid, data); err != nil {
		l.log.Warnf("sending %s to player %d: %v", msg.Type, pid, err)
	}
}

// broadcast encodes and fans one message out to every bound player.
func (l *Lobby) broadcast(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		l.log.Errorf("encoding %s: %v", msg.Type, err)
		return
	}
	l.mdm.Broadcast(data)
}

// Admitting reports whether the lobby still accepts players and
// connections.
func (l *Lobby) Admitting() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.admitting
}

// MoveSeq returns the current move-sequence counter.
func (l *Lobby) MoveSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.moveSeq
}

// Quit closes admission, best-effort closes every live connection and stops
// the event loop. Quitting twice is harmless.
func (l *Lobby) Quit() {
	l.quit.Do(func() {
		l.mu.Lock()
		l.admitting = false
		l.mdm.CloseAll()
		l.mu.Unlock()
		close(l.done)
		l.log.Info("lobby quit")
	})
}
