// Package reactor implements the single-threaded, epoll-driven
// accept/read loop: a non-blocking listening socket, edge-triggered
// readiness notification, per-connection buffering, and dispatch into
// the HTTP/1.1 codec (with a single-exchange HTTP/2 preface path) and
// the route table or static file server.
package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/trivago/netrunner/http2"
	"github.com/trivago/netrunner/httpmsg"
	"github.com/trivago/netrunner/logx"
	"github.com/trivago/netrunner/route"
	"github.com/trivago/netrunner/staticfs"
)

// Handler processes a matched request and fills in resp. userData is
// whatever was passed to route.Table.Register for the matched route.
type Handler func(req *httpmsg.Request, resp *httpmsg.Response, userData any)

// Stats exposes the reactor's live counters for the metrics package to
// read; all fields are updated atomically.
type Stats struct {
	ActiveConnections int64
	HTTP1Served       int64
	HTTP2Preface      int64
	Rejected          int64
}

// Reactor owns the listening socket, the poller, and every tracked
// connection. A Reactor must not be reused after Stop.
type Reactor struct {
	cfg   Config
	table *route.Table
	static []*staticfs.Server

	Stats Stats

	listenFd int
	poll     poller
	accepts  *rate.Limiter

	mu          sync.Mutex
	connections map[int]*connection

	stopped atomic.Bool
	done    chan struct{}
}

// New creates a Reactor bound to the given route table. Static file
// servers registered via AddStatic are consulted, in registration order,
// for any request no route matched.
func New(cfg Config, table *route.Table) *Reactor {
	cfg = cfg.withDefaults()
	return &Reactor{
		cfg:         cfg,
		table:       table,
		connections: make(map[int]*connection),
		done:        make(chan struct{}),
		listenFd:    -1,
		accepts:     rate.NewLimiter(rate.Limit(cfg.AcceptsPerSecond), cfg.AcceptBurst),
	}
}

// AddStatic registers a static file server consulted when no route
// matches a request.
func (r *Reactor) AddStatic(s *staticfs.Server) {
	r.static = append(r.static, s)
}

// Run binds the listening socket and drives the accept/read loop until
// Stop is called. It blocks.
func (r *Reactor) Run() error {
	fd, err := listenSocket(r.cfg.Host, r.cfg.Port)
	if err != nil {
		return err
	}
	r.listenFd = fd

	poll, err := newPoller()
	if err != nil {
		closeFD(fd)
		return err
	}
	r.poll = poll

	if err := r.poll.add(r.listenFd); err != nil {
		r.poll.close()
		closeFD(fd)
		return fmt.Errorf("reactor: register listener: %w", err)
	}

	logx.Note.Printf("reactor listening on %s:%d", r.cfg.Host, r.cfg.Port)
	defer close(r.done)

	for !r.stopped.Load() {
		events, err := r.poll.wait(int(r.cfg.PollTimeout / time.Millisecond))
		if err != nil {
			logx.Error.Printf("reactor: poll wait: %v", err)
			continue
		}

		for _, ev := range events {
			if r.stopped.Load() {
				break
			}
			if ev.fd == r.listenFd {
				r.acceptLoop()
				continue
			}
			r.handleEvent(ev)
		}

		r.sweepIdle()
	}

	return nil
}

// Stop tears down every tracked connection and the listening socket.
// Idempotent: a second call is a no-op.
func (r *Reactor) Stop() error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}

	<-r.done

	r.mu.Lock()
	for fd := range r.connections {
		closeFD(fd)
	}
	r.connections = make(map[int]*connection)
	r.mu.Unlock()

	if r.poll != nil {
		r.poll.close()
	}
	if r.listenFd >= 0 {
		closeFD(r.listenFd)
	}

	logx.Note.Print("reactor stopped")
	return nil
}

// acceptLoop drains every pending connection off the listening socket,
// since edge-triggered readiness only fires once per batch of arrivals.
func (r *Reactor) acceptLoop() {
	for {
		connFd, remote, err := acceptConn(r.listenFd)
		if err != nil {
			return // EAGAIN or a transient accept error; try again next wakeup
		}

		if !r.accepts.Allow() {
			atomic.AddInt64(&r.Stats.Rejected, 1)
			logx.Warning.Print("reactor: accept rate exceeded, shedding connection")
			closeFD(connFd)
			continue
		}

		r.mu.Lock()
		tooMany := len(r.connections) >= r.cfg.MaxConnections
		if !tooMany {
			r.connections[connFd] = newConnection(connFd)
		}
		r.mu.Unlock()

		if tooMany {
			atomic.AddInt64(&r.Stats.Rejected, 1)
			logx.Warning.Print("reactor: max connections reached, rejecting")
			closeFD(connFd)
			continue
		}

		atomic.AddInt64(&r.Stats.ActiveConnections, 1)
		if err := r.poll.add(connFd); err != nil {
			r.removeConnection(connFd)
			continue
		}

		_ = remote
	}
}

func (r *Reactor) handleEvent(ev event) {
	r.mu.Lock()
	conn, ok := r.connections[ev.fd]
	r.mu.Unlock()
	if !ok {
		return
	}

	if ev.hangup {
		r.removeConnection(ev.fd)
		return
	}
	if !ev.readable {
		return
	}

	for {
		chunk := make([]byte, 4096)
		n, wouldBlock, err := readFD(ev.fd, chunk)
		if err != nil || (n == 0 && !wouldBlock) {
			r.removeConnection(ev.fd)
			return
		}
		if wouldBlock {
			break
		}

		if conn.append(chunk[:n]) {
			logx.Warning.Printf("reactor: request exceeded max size on fd %d", ev.fd)
			r.removeConnection(ev.fd)
			return
		}
	}

	r.process(conn)
}

// process attempts HTTP/2 preface promotion, then HTTP/1.1 parsing, and
// dispatches a complete request. Every successful exchange closes the
// connection: neither path implements keep-alive.
func (r *Reactor) process(conn *connection) {
	if !conn.isHTTP2 && http2.DetectPreface(conn.buffer) {
		conn.isHTTP2 = true
		conn.http2State = http2.NewConnState()
		conn.consume(len(http2.Preface))
		atomic.AddInt64(&r.Stats.HTTP2Preface, 1)

		if err := writeFD(conn.fd, conn.http2State.InitialSettingsFrame()); err != nil {
			r.removeConnection(conn.fd)
			return
		}
	}

	if conn.isHTTP2 {
		r.processHTTP2(conn)
		return
	}

	r.processHTTP1(conn)
}

func (r *Reactor) processHTTP2(conn *connection) {
	if len(conn.buffer) == 0 {
		return // wait for the peer's SETTINGS frame
	}

	resp, consumed, err := conn.http2State.Negotiate(conn.buffer)
	if err != nil && consumed == 0 {
		return // incomplete frame, wait for more bytes
	}

	if len(resp) > 0 {
		_ = writeFD(conn.fd, resp)
	}
	if consumed > 0 {
		conn.consume(consumed)
	}

	// Single-request exchange: this path never multiplexes streams or
	// stays open past the initial settings handshake.
	r.removeConnection(conn.fd)
}

func (r *Reactor) processHTTP1(conn *connection) {
	req, consumed, err := httpmsg.ParseRequest(conn.buffer, maxRequestSize)
	switch err {
	case nil:
		// fall through to dispatch below
	case httpmsg.ErrIncomplete:
		return
	default:
		r.removeConnection(conn.fd)
		return
	}

	conn.consume(consumed)
	req.RequestID = uuid.New().String()
	resp := httpmsg.NewResponse(404)
	r.dispatch(req, resp)
	logx.Debug.Printf("reactor: [%s] %s %s -> %d", req.RequestID, req.Method, req.RawPath, resp.Status)

	if err := writeFD(conn.fd, resp.Bytes(r.cfg.ServerIdentity)); err != nil {
		logx.Warning.Printf("reactor: write failed on fd %d: %v", conn.fd, err)
	}
	atomic.AddInt64(&r.Stats.HTTP1Served, 1)
	r.removeConnection(conn.fd)
}

func (r *Reactor) dispatch(req *httpmsg.Request, resp *httpmsg.Response) {
	matched, params, ok := r.table.Match(req.Method, req.RawPath)
	if ok {
		req.PathParams = params
		if handler, isHandler := matched.Handler.(Handler); isHandler {
			handler(req, resp, matched.UserData)
			return
		}
	}

	for _, s := range r.static {
		if s.Serve(req.RawPath, resp) {
			return
		}
	}

	resp.Status = 404
	resp.Body = []byte("404 Not Found")
}

func (r *Reactor) removeConnection(fd int) {
	r.mu.Lock()
	_, existed := r.connections[fd]
	delete(r.connections, fd)
	r.mu.Unlock()

	if !existed {
		return
	}
	r.poll.remove(fd)
	closeFD(fd)
	atomic.AddInt64(&r.Stats.ActiveConnections, -1)
}

// sweepIdle closes every connection that has seen no activity for longer
// than the configured idle timeout.
func (r *Reactor) sweepIdle() {
	now := time.Now()

	r.mu.Lock()
	var stale []int
	for fd, conn := range r.connections {
		if conn.idleFor(now) > r.cfg.IdleTimeout {
			stale = append(stale, fd)
		}
	}
	r.mu.Unlock()

	for _, fd := range stale {
		logx.Debug.Printf("reactor: closing idle connection fd %d", fd)
		r.removeConnection(fd)
	}
}
