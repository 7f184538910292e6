package live

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/metrics"
)

// Transport is the part of *websocket.Conn the registry depends on.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

type State int32

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var connIDCounter atomic.Uint64

// Conn is one persistent client connection tracked by a Registry.
type Conn struct {
	id  uint64
	reg *Registry
	t   Transport

	mu     sync.RWMutex
	state  State
	userID string

	alive atomic.Bool
	send  chan []byte
	// ping holds at most one pending heartbeat and is separate from send
	// so a backlog of frames cannot starve it.
	ping chan struct{}
	done chan struct{}
	once sync.Once
}

func newConn(reg *Registry, t Transport) *Conn {
	c := &Conn{
		id:   connIDCounter.Add(1),
		reg:  reg,
		t:    t,
		send: make(chan []byte, reg.opts.SendBuffer),
		ping: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	c.alive.Store(true)
	t.SetReadLimit(reg.opts.MaxMessageSize)
	t.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})
	return c
}

func (c *Conn) ID() uint64 { return c.id }

func (c *Conn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// UserID is empty until the connection authenticates.
func (c *Conn) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Done is closed once the connection has been torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close tears the connection down. Only the first call has any effect.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()

		close(c.done)
		c.reg.remove(c)
		_ = c.t.Close()
		logging.Debug().Uint64("conn_id", c.id).Str("user_id", c.UserID()).Msg("live connection closed")
	})
}

func (c *Conn) authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateAuthenticated
}

// enqueue never blocks; a full queue drops the frame.
func (c *Conn) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// requestPing never blocks. A ping already pending satisfies the request.
func (c *Conn) requestPing() {
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

func (c *Conn) readPump() {
	defer c.Close()

	for {
		mt, data, err := c.t.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("live connection read failed")
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		msg, err := decode(data)
		if err != nil {
			logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("ignoring unparsable live message")
			continue
		}
		if msg.Type != TypeAuth {
			continue
		}
		if !c.authenticate(msg.Token) {
			return
		}
	}
}

// authenticate returns false when the connection must be torn down.
func (c *Conn) authenticate(tok string) bool {
	if c.State() != StateUnauthenticated {
		return true
	}

	claims, err := c.reg.verifier.Verify(tok)
	if err != nil {
		metrics.LiveAuth.WithLabelValues("rejected").Inc()
		logging.Warn().Err(err).Uint64("conn_id", c.id).Msg("live authentication failed")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Authentication failed")
		_ = c.t.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.reg.opts.WriteWait))
		return false
	}

	c.mu.Lock()
	if c.state != StateUnauthenticated {
		c.mu.Unlock()
		return c.state != StateClosed
	}
	c.state = StateAuthenticated
	c.userID = claims.UserID
	c.mu.Unlock()

	metrics.LiveAuth.WithLabelValues("accepted").Inc()
	logging.Info().Uint64("conn_id", c.id).Str("user_id", claims.UserID).Msg("live connection authenticated")

	ack, _ := encode(TypeAuthAck, nil)
	c.enqueue(ack)
	return true
}

func (c *Conn) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case <-c.ping:
			if err := c.t.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.reg.opts.WriteWait)); err != nil {
				return
			}
		case data := <-c.send:
			if err := c.t.SetWriteDeadline(time.Now().Add(c.reg.opts.WriteWait)); err != nil {
				return
			}
			if err := c.t.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("live write failed")
				return
			}
		}
	}
}
