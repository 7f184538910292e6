package live

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/metrics"
	"github.com/Shuru63/skylark-lab-assignment/internal/token"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultSendBuffer        = 64
	DefaultWriteWait         = 10 * time.Second
	DefaultMaxMessageSize    = 64 * 1024
)

type Verifier interface {
	Verify(tok string) (*token.Claims, error)
}

type Options struct {
	HeartbeatInterval time.Duration
	SendBuffer        int
	WriteWait         time.Duration
	MaxMessageSize    int64
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	if o.WriteWait <= 0 {
		o.WriteWait = DefaultWriteWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	return o
}

// Registry is safe for concurrent use. The lock only guards the set of
// connections; it is never held across transport writes.
type Registry struct {
	verifier Verifier
	opts     Options

	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewRegistry(v Verifier, opts Options) *Registry {
	return &Registry{
		verifier: v,
		opts:     opts.withDefaults(),
		conns:    make(map[*Conn]struct{}),
	}
}

func (r *Registry) String() string { return "live-registry" }

// Accept registers t as a new unauthenticated connection and starts its pumps.
func (r *Registry) Accept(t Transport) *Conn {
	c := newConn(r, t)

	r.mu.Lock()
	r.conns[c] = struct{}{}
	n := len(r.conns)
	r.mu.Unlock()

	metrics.LiveConnections.Inc()
	logging.Debug().Uint64("conn_id", c.id).Int("open", n).Msg("live connection accepted")

	go c.writePump()
	go c.readPump()
	return c
}

func (r *Registry) remove(c *Conn) {
	r.mu.Lock()
	_, ok := r.conns[c]
	delete(r.conns, c)
	r.mu.Unlock()
	if ok {
		metrics.LiveConnections.Dec()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// snapshot returns the current connections ordered by id.
func (r *Registry) snapshot(match func(*Conn) bool) []*Conn {
	r.mu.RLock()
	out := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		if match == nil || match(c) {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Broadcast queues an ALERT frame carrying payload on every open,
// authenticated connection of userID and reports how many accepted it.
func (r *Registry) Broadcast(userID string, payload any) int {
	if userID == "" {
		return 0
	}
	data, err := encode(TypeAlert, payload)
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("encode alert frame")
		return 0
	}

	targets := r.snapshot(func(c *Conn) bool {
		return c.authenticated() && c.UserID() == userID
	})

	queued := 0
	for _, c := range targets {
		if c.enqueue(data) {
			queued++
			metrics.AlertFrames.WithLabelValues("queued").Inc()
			continue
		}
		metrics.AlertFrames.WithLabelValues("dropped").Inc()
		logging.Warn().Uint64("conn_id", c.id).Str("user_id", userID).Msg("alert frame dropped")
	}
	return queued
}

// Sweep runs one heartbeat pass over every connection.
func (r *Registry) Sweep() {
	for _, c := range r.snapshot(nil) {
		r.check(c)
	}
}

func (r *Registry) check(c *Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Str("panic", fmt.Sprint(rec)).Uint64("conn_id", c.id).Msg("heartbeat check panicked")
			c.Close()
		}
	}()

	if !c.alive.Swap(false) {
		metrics.HeartbeatTerminations.Inc()
		logging.Info().Uint64("conn_id", c.id).Str("user_id", c.UserID()).Msg("terminating unresponsive live connection")
		c.Close()
		return
	}
	c.requestPing()
}

// CloseAll tears down every open connection.
func (r *Registry) CloseAll() {
	for _, c := range r.snapshot(nil) {
		c.Close()
	}
}

// Serve runs the heartbeat until ctx is cancelled, then closes every
// connection.
func (r *Registry) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}
