// internal/ws/conn.go
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Frame is one inbound unit handed to the lobby's event loop, tagged with
// the connection it arrived on. Close marks the end of that connection's
// stream; Data is empty in that case.
type Frame struct {
	ConnID string
	Data   []byte
	Close  bool
}

const outboundQueueSize = 32

var (
	// ErrAlreadyForwarding is returned on a second attempt to redirect the
	// inbound stream.
	ErrAlreadyForwarding = errors.New("inbound stream already forwarded")

	// ErrConnClosed is returned when sending on a closed connection.
	ErrConnClosed = errors.New("connection closed")

	// ErrSendQueueFull is returned when the outbound queue is saturated.
	ErrSendQueueFull = errors.New("outbound queue full")
)

// PlayerConn owns exactly one physical websocket. On construction it starts
// an outbound writer draining a send queue; RouteInboundInto moves the
// inbound side into a forwarding goroutine that feeds a shared channel.
type PlayerConn struct {
	id   string
	sock *websocket.Conn
	log  *logrus.Entry

	out chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	forwarding bool

	closeOnce sync.Once
}

// NewPlayerConn wraps an accepted websocket and starts its writer goroutine.
func NewPlayerConn(id string, sock *websocket.Conn, logger *logrus.Logger) *PlayerConn {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PlayerConn{
		id:     id,
		sock:   sock,
		log:    logger.WithField("conn", id),
		out:    make(chan []byte, outboundQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	go p.writePump()
	return p
}

// ID returns the connection's identifier.
func (p *PlayerConn) ID() string {
	return p.id
}

// Send enqueues one outbound frame. It never blocks beyond the queue's
// backpressure: a saturated queue drops the frame with an error instead of
// stalling the caller.
func (p *PlayerConn) Send(data []byte) error {
	select {
	case <-p.ctx.Done():
		return ErrConnClosed
	default:
	}
	select {
	case p.out <- data:
		return nil
	default:
		p.log.Warn("outbound queue full, dropping frame")
		return ErrSendQueueFull
	}
}

// RouteInboundInto moves ownership of the inbound stream into a background
// goroutine that forwards every frame, tagged with this connection's id,
// into the shared channel. Per-connection arrival order is preserved. Once
// redirected, the stream cannot be redirected again.
func (p *PlayerConn) RouteInboundInto(shared chan<- Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.forwarding {
		return ErrAlreadyForwarding
	}
	p.forwarding = true
	go p.forward(shared)
	return nil
}

// forward reads frames until the socket closes or the connection is torn
// down, then emits a final close frame so the consumer can clean up.
func (p *PlayerConn) forward(shared chan<- Frame) {
	defer func() {
		select {
		case shared <- Frame{ConnID: p.id, Close: true}:
		case <-time.After(5 * time.Second):
			p.log.Warn("event loop gone, dropping close frame")
		}
	}()

	for {
		typ, data, err := p.sock.Read(p.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && p.ctx.Err() == nil {
				p.log.Debugf("read error: %v", err)
			}
			return
		}
		if typ != websocket.MessageText {
			p.log.Debugf("ignoring non-text message type %d", typ)
			continue
		}
		select {
		case shared <- Frame{ConnID: p.id, Data: data}:
		case <-p.ctx.Done():
			return
		}
	}
}

// writePump drains the outbound queue onto the socket in enqueue order and
// pings periodically to detect dead peers.
func (p *PlayerConn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case data := <-p.out:
			writeCtx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
			err := p.sock.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				p.log.Warnf("write failed: %v", err)
				p.Close()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(p.ctx, 15*time.Second)
			err := p.sock.Ping(pingCtx)
			cancel()
			if err != nil {
				p.log.Debugf("ping failed, assuming disconnect: %v", err)
				p.Close()
				return
			}
		}
	}
}

// Close sends a best-effort close frame and releases the writer and
// forwarder. Closing twice succeeds silently.
func (p *PlayerConn) Close() error {
	p.closeOnce.Do(func() {
		_ = p.sock.Close(websocket.StatusNormalClosure, "closing")
		p.cancel()
	})
	return nil
}
