// internal/ws/conn_test.go
package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair stands up a real websocket pair and wraps the server side in a
// PlayerConn.
func dialPair(t *testing.T, id string) (*PlayerConn, *websocket.Conn) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	accepted := make(chan *PlayerConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		accepted <- NewPlayerConn(id, sock, logger)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	select {
	case pc := <-accepted:
		t.Cleanup(func() { pc.Close() })
		return pc, client
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted")
		return nil, nil
	}
}

func TestInboundFramesPreserveOrder(t *testing.T) {
	pc, client := dialPair(t, "c1")
	shared := make(chan Frame, 64)
	require.NoError(t, pc.RouteInboundInto(shared))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, client.Write(ctx, websocket.MessageText, []byte(fmt.Sprintf("msg-%d", i))))
	}

	for i := 0; i < n; i++ {
		select {
		case fr := <-shared:
			assert.Equal(t, "c1", fr.ConnID)
			assert.False(t, fr.Close)
			assert.Equal(t, fmt.Sprintf("msg-%d", i), string(fr.Data))
		case <-time.After(5 * time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
}

func TestForwarderEmitsCloseFrameWhenPeerLeaves(t *testing.T) {
	pc, client := dialPair(t, "c1")
	shared := make(chan Frame, 4)
	require.NoError(t, pc.RouteInboundInto(shared))

	require.NoError(t, client.Close(websocket.StatusNormalClosure, "bye"))

	select {
	case fr := <-shared:
		assert.Equal(t, "c1", fr.ConnID)
		assert.True(t, fr.Close)
	case <-time.After(5 * time.Second):
		t.Fatal("close frame never arrived")
	}
}

func TestRouteInboundIntoIsSingleShot(t *testing.T) {
	pc, _ := dialPair(t, "c1")
	shared := make(chan Frame, 4)
	require.NoError(t, pc.RouteInboundInto(shared))
	assert.ErrorIs(t, pc.RouteInboundInto(shared), ErrAlreadyForwarding)
}

func TestSendDeliversInEnqueueOrder(t *testing.T) {
	pc, client := dialPair(t, "c1")

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, pc.Send([]byte(fmt.Sprintf("out-%d", i))))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		typ, data, err := client.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)
		assert.Equal(t, fmt.Sprintf("out-%d", i), string(data))
	}
}

func TestCloseIsIdempotentAndStopsSends(t *testing.T) {
	pc, _ := dialPair(t, "c1")
	require.NoError(t, pc.Close())
	require.NoError(t, pc.Close())
	assert.ErrorIs(t, pc.Send([]byte("late")), ErrConnClosed)
}
