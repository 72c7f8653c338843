// internal/lobby/lobby_test.go
package lobby

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaspell/wordwire/internal/board"
	"github.com/kaspell/wordwire/internal/game"
	"github.com/kaspell/wordwire/internal/models"
	"github.com/kaspell/wordwire/internal/protocol"
	"github.com/kaspell/wordwire/internal/ws"
)

// fakeConn is an in-memory Connection recording everything sent to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	sent   []protocol.Message
	closed bool
	shared chan<- ws.Frame
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, protocol.Decode(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) RouteInboundInto(ch chan<- ws.Frame) error {
	if f.shared != nil {
		return ws.ErrAlreadyForwarding
	}
	f.shared = ch
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) messages() []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeConn) lastMessage() *protocol.Message {
	msgs := f.messages()
	if len(msgs) == 0 {
		return nil
	}
	return &msgs[len(msgs)-1]
}

func testVocab() []string {
	words := make([]string, board.Size)
	for i := range words {
		words[i] = fmt.Sprintf("word-%d", i)
	}
	return words
}

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	g, err := game.NewWrapper(testVocab())
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New("lobby-1", g, logger)
}

func frame(connID string, msg protocol.Message) ws.Frame {
	data, err := protocol.Encode(msg)
	if err != nil {
		panic(err)
	}
	return ws.Frame{ConnID: connID, Data: data}
}

// connect admits a fake connection as an orphan.
func connect(t *testing.T, l *Lobby, id string) *fakeConn {
	t.Helper()
	c := &fakeConn{id: id}
	require.NoError(t, l.AcceptConnection(c))
	return c
}

// authedPlayer creates a player, admits a connection for them and completes
// the echo challenge.
func authedPlayer(t *testing.T, l *Lobby, name string) (*models.Player, *fakeConn) {
	t.Helper()
	p, ch, err := l.AddPlayer(name)
	require.NoError(t, err)
	c := connect(t, l, fmt.Sprintf("conn-%d", p.ID))
	l.dispatch(frame(c.id, protocol.AuthResponse(p.ID, ch.Challenge)))
	last := c.lastMessage()
	require.NotNil(t, last)
	require.Equal(t, protocol.KindAuthOk, last.Type)
	return p, c
}

// seedTeams builds a ready-to-begin lobby: two authed players per team with
// the first of each elected spymaster.
func seedTeams(t *testing.T, l *Lobby) (map[models.PlayerID]*fakeConn, []*models.Player) {
	t.Helper()
	conns := make(map[models.PlayerID]*fakeConn)
	var players []*models.Player
	for i := 0; i < 4; i++ {
		p, c := authedPlayer(t, l, fmt.Sprintf("player-%d", i+1))
		conns[p.ID] = c
		players = append(players, p)
	}
	require.NoError(t, l.JoinTeam(players[0].ID, game.TeamA))
	require.NoError(t, l.JoinTeam(players[1].ID, game.TeamB))
	require.NoError(t, l.JoinTeam(players[2].ID, game.TeamA))
	require.NoError(t, l.JoinTeam(players[3].ID, game.TeamB))
	require.NoError(t, l.ElectSpymaster(players[0].ID, game.TeamA))
	require.NoError(t, l.ElectSpymaster(players[1].ID, game.TeamB))
	return conns, players
}

// findTile returns an unrevealed tile matching the predicate.
func findTile(t *testing.T, l *Lobby, pred func(int) bool) int {
	t.Helper()
	b := l.game.Board()
	for i := 0; i < board.Size; i++ {
		if !b.IsRevealed(i) && pred(i) {
			return i
		}
	}
	t.Fatal("no matching tile left")
	return -1
}

func countKind(msgs []protocol.Message, kind protocol.Kind) int {
	n := 0
	for _, m := range msgs {
		if m.Type == kind {
			n++
		}
	}
	return n
}

func TestAddPlayerAssignsSequentialIDs(t *testing.T) {
	l := newTestLobby(t)
	p1, ch1, err := l.AddPlayer("alice")
	require.NoError(t, err)
	p2, ch2, err := l.AddPlayer("bob")
	require.NoError(t, err)

	assert.Equal(t, models.PlayerID(1), p1.ID)
	assert.Equal(t, models.PlayerID(2), p2.ID)
	assert.Equal(t, p1.ID, ch1.PID)
	assert.NotEqual(t, ch1.Challenge, ch2.Challenge)
}

func TestAuthSuccessBindsConnection(t *testing.T) {
	l := newTestLobby(t)
	p, ch, err := l.AddPlayer("alice")
	require.NoError(t, err)

	c := connect(t, l, "c1")
	l.dispatch(frame("c1", protocol.AuthResponse(p.ID, ch.Challenge)))

	last := c.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthOk, last.Type)
	assert.False(t, c.isClosed())

	// A second response for the same pid finds no pending challenge.
	c2 := connect(t, l, "c2")
	l.dispatch(frame("c2", protocol.AuthResponse(p.ID, ch.Challenge)))
	last = c2.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthReject, last.Type)
	assert.True(t, c2.isClosed())
}

func TestAuthWrongAnswerRejectsAndCloses(t *testing.T) {
	l := newTestLobby(t)
	p, ch, err := l.AddPlayer("alice")
	require.NoError(t, err)

	c := connect(t, l, "c1")
	l.dispatch(frame("c1", protocol.AuthResponse(p.ID, "wrong")))

	last := c.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthReject, last.Type)
	assert.True(t, c.isClosed(), "rejected connection is force-closed")

	// The challenge survives a failed attempt; a fresh connection may
	// still answer it.
	c2 := connect(t, l, "c2")
	l.dispatch(frame("c2", protocol.AuthResponse(p.ID, ch.Challenge)))
	last = c2.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthOk, last.Type)
}

func TestAuthUnknownPlayerRejected(t *testing.T) {
	l := newTestLobby(t)
	c := connect(t, l, "c1")
	l.dispatch(frame("c1", protocol.AuthResponse(42, "anything")))
	last := c.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthReject, last.Type)
	assert.True(t, c.isClosed())
}

func TestTileSelectFromUnidentifiedConnIgnored(t *testing.T) {
	l := newTestLobby(t)
	c := connect(t, l, "c1")
	l.dispatch(frame("c1", protocol.TileSelect(3)))
	assert.Empty(t, c.messages(), "unauthenticated moves are silently dropped")
}

func TestTileSelectBeforeReadyRepliesInvalidMove(t *testing.T) {
	l := newTestLobby(t)
	p, c := authedPlayer(t, l, "alice")
	require.NoError(t, l.JoinTeam(p.ID, game.TeamA))

	l.dispatch(frame(c.id, protocol.TileSelect(3)))
	last := c.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindInvalidMove, last.Type)
	assert.False(t, l.game.Started(), "failed lazy begin leaves the game initial")
}

func TestLazyBeginOnFirstMove(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)
	require.False(t, l.game.Started())

	tile := findTile(t, l, l.game.Board().IsTeamA)
	l.dispatch(frame(conns[players[0].ID].id, protocol.TileSelect(tile)))

	assert.True(t, l.game.Started())
	assert.Equal(t, uint64(1), l.MoveSeq())
	for _, c := range conns {
		last := c.lastMessage()
		require.NotNil(t, last)
		assert.Equal(t, protocol.KindUpdateState, last.Type)
		assert.Equal(t, uint64(1), last.Seq)
	}
}

func TestMoveErrorsGoToActingPlayerOnly(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)

	// Player 2 (team B) moves first, out of turn.
	before := len(conns[players[1].ID].messages())
	othersBefore := len(conns[players[0].ID].messages())
	l.dispatch(frame(conns[players[1].ID].id, protocol.TileSelect(0)))

	msgs := conns[players[1].ID].messages()
	require.Len(t, msgs, before+1)
	assert.Equal(t, protocol.KindInvalidMove, msgs[len(msgs)-1].Type)
	assert.Len(t, conns[players[0].ID].messages(), othersBefore, "teammates see nothing")
	assert.Equal(t, uint64(0), l.MoveSeq(), "rejected moves do not bump the counter")
}

func TestHazardWinBroadcastsAndClosesLobby(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)

	tile := findTile(t, l, l.game.Board().IsHazard)
	l.dispatch(frame(conns[players[0].ID].id, protocol.TileSelect(tile)))

	for _, c := range conns {
		last := c.lastMessage()
		require.NotNil(t, last)
		assert.Equal(t, protocol.KindTeamWin, last.Type)
		assert.Equal(t, "B", last.Team)
		assert.Equal(t, "opponent_revealed_hazard", last.Reason)
	}
	assert.False(t, l.Admitting())

	// New connections are refused once the game has ended.
	c := &fakeConn{id: "late"}
	assert.ErrorIs(t, l.AcceptConnection(c), ErrLobbyClosed)
	assert.True(t, c.isClosed())

	_, _, err := l.AddPlayer("late-player")
	assert.ErrorIs(t, err, ErrLobbyClosed)
}

func TestScoreWinBroadcast(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)
	acting := conns[players[0].ID]

	for i := 0; i < 8; i++ {
		tile := findTile(t, l, l.game.Board().IsTeamA)
		l.dispatch(frame(acting.id, protocol.TileSelect(tile)))
	}

	last := acting.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindTeamWin, last.Type)
	assert.Equal(t, "A", last.Team)
	assert.Equal(t, "score_reached", last.Reason)
	assert.Equal(t, uint64(8), l.MoveSeq())
}

func TestCloseFrameDropsConnection(t *testing.T) {
	l := newTestLobby(t)
	p, c := authedPlayer(t, l, "alice")

	l.dispatch(ws.Frame{ConnID: c.id, Close: true})
	assert.True(t, c.isClosed())

	// The player is unreachable afterwards; moves from the stale conn id
	// are silently ignored.
	require.NoError(t, l.JoinTeam(p.ID, game.TeamA))
	n := len(c.messages())
	l.dispatch(frame(c.id, protocol.TileSelect(0)))
	assert.Len(t, c.messages(), n)
}

func TestQuitClosesEverything(t *testing.T) {
	l := newTestLobby(t)
	_, c := authedPlayer(t, l, "alice")
	orphan := connect(t, l, "orphan")

	l.Quit()
	l.Quit() // idempotent

	assert.True(t, c.isClosed())
	assert.True(t, orphan.isClosed())
	assert.False(t, l.Admitting())
}

func TestRouteInboundRejectedTwice(t *testing.T) {
	l := newTestLobby(t)
	c := connect(t, l, "c1")
	assert.ErrorIs(t, c.RouteInboundInto(l.inbound), ws.ErrAlreadyForwarding)
}

func TestEventLoopDrainsSharedChannel(t *testing.T) {
	l := newTestLobby(t)
	p, ch, err := l.AddPlayer("alice")
	require.NoError(t, err)
	c := connect(t, l, "c1")

	go l.Run()
	defer l.Quit()

	c.shared <- frame("c1", protocol.AuthResponse(p.ID, ch.Challenge))

	require.Eventually(t, func() bool {
		last := c.lastMessage()
		return last != nil && last.Type == protocol.KindAuthOk
	}, time.Second, 5*time.Millisecond)
}

func TestPlayerUpdateBroadcastOnRosterChanges(t *testing.T) {
	l := newTestLobby(t)
	p, c := authedPlayer(t, l, "alice")

	before := countKind(c.messages(), protocol.KindPlayerUpdate)
	require.NoError(t, l.JoinTeam(p.ID, game.TeamA))
	require.NoError(t, l.ElectSpymaster(p.ID, game.TeamA))
	after := countKind(c.messages(), protocol.KindPlayerUpdate)
	assert.Equal(t, before+2, after)
}

func TestViewVisibility(t *testing.T) {
	l := newTestLobby(t)
	_, players := seedTeams(t, l)
	spymaster, regular := players[0], players[2]

	sv, err := l.View(spymaster.ID)
	require.NoError(t, err)
	for _, tile := range sv.Tiles {
		assert.NotEmpty(t, tile.Class, "spymasters see every classification")
	}

	rv, err := l.View(regular.ID)
	require.NoError(t, err)
	for _, tile := range rv.Tiles {
		assert.False(t, tile.Revealed)
		assert.Empty(t, tile.Class, "hidden tiles reveal nothing to regular players")
		assert.NotEmpty(t, tile.Word, "tile words are always visible")
	}
	assert.Equal(t, 8, rv.PendingA)
	assert.Equal(t, "initial", rv.Phase)
	assert.Empty(t, rv.Turn)
	require.Len(t, rv.TeamA, 2)
	assert.Equal(t, players[0].ID, rv.TeamA[0].ID)

	_, err = l.View(99)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestViewShowsRevealedClassAfterMove(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)

	tile := findTile(t, l, l.game.Board().IsTeamA)
	l.dispatch(frame(conns[players[0].ID].id, protocol.TileSelect(tile)))

	rv, err := l.View(players[2].ID)
	require.NoError(t, err)
	assert.True(t, rv.Tiles[tile].Revealed)
	assert.Equal(t, "team_a", rv.Tiles[tile].Class)
	assert.Equal(t, "A", rv.Turn)
	assert.Equal(t, "in_progress", rv.Phase)
	assert.Equal(t, 7, rv.PendingA)
}

func TestMovesRejectedAfterWin(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)
	acting := conns[players[0].ID]

	hazard := findTile(t, l, l.game.Board().IsHazard)
	l.dispatch(frame(acting.id, protocol.TileSelect(hazard)))
	require.Equal(t, uint64(1), l.MoveSeq())

	tile := findTile(t, l, l.game.Board().IsTeamA)
	l.dispatch(frame(acting.id, protocol.TileSelect(tile)))

	last := acting.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindInvalidMove, last.Type)
	assert.Equal(t, uint64(1), l.MoveSeq(), "a decided game accepts no more moves")

	for _, c := range conns {
		msgs := c.messages()
		assert.Equal(t, 1, countKind(msgs, protocol.KindTeamWin))
		assert.Zero(t, countKind(msgs, protocol.KindUpdateState))
	}
}

func TestMovesRejectedAfterScoreWin(t *testing.T) {
	l := newTestLobby(t)
	conns, players := seedTeams(t, l)
	acting := conns[players[0].ID]

	for i := 0; i < 8; i++ {
		tile := findTile(t, l, l.game.Board().IsTeamA)
		l.dispatch(frame(acting.id, protocol.TileSelect(tile)))
	}
	require.Equal(t, uint64(8), l.MoveSeq())

	tile := findTile(t, l, l.game.Board().IsTeamB)
	l.dispatch(frame(acting.id, protocol.TileSelect(tile)))

	last := acting.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindInvalidMove, last.Type)
	assert.Equal(t, uint64(8), l.MoveSeq())
	assert.Equal(t, 1, countKind(acting.messages(), protocol.KindTeamWin),
		"the win is announced exactly once")
}

func TestAuthForAnotherPlayerOnBoundConnRejected(t *testing.T) {
	l := newTestLobby(t)
	alice, c1 := authedPlayer(t, l, "alice")
	bob, bobCh, err := l.AddPlayer("bob")
	require.NoError(t, err)

	// A socket already speaking for alice cannot claim bob's challenge.
	l.dispatch(frame(c1.id, protocol.AuthResponse(bob.ID, bobCh.Challenge)))

	last := c1.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthReject, last.Type)
	assert.True(t, c1.isClosed())
	_, ok := l.mdm.PlayerForConn(c1.id)
	assert.False(t, ok)
	_, ok = l.mdm.Player(alice.ID)
	assert.True(t, ok)

	// Bob's challenge survives and a fresh connection can still claim it.
	c2 := connect(t, l, "c2")
	l.dispatch(frame("c2", protocol.AuthResponse(bob.ID, bobCh.Challenge)))
	last = c2.lastMessage()
	require.NotNil(t, last)
	assert.Equal(t, protocol.KindAuthOk, last.Type)
	pid, ok := l.mdm.PlayerForConn("c2")
	require.True(t, ok)
	assert.Equal(t, bob.ID, pid)
}
