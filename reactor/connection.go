package reactor

import (
	"time"

	"github.com/trivago/netrunner/http2"
)

// maxRequestSize bounds how large a connection's read buffer may grow
// before an incomplete HTTP/1.1 request is treated as malformed.
const maxRequestSize = 65536

// connection tracks per-socket state between readiness notifications:
// the accumulated read buffer, HTTP/2 promotion, and idle bookkeeping.
type connection struct {
	fd           int
	buffer       []byte
	isHTTP2      bool
	http2State   *http2.ConnState
	lastActivity time.Time
}

func newConnection(fd int) *connection {
	return &connection{
		fd:           fd,
		buffer:       make([]byte, 0, 4096),
		lastActivity: time.Now(),
	}
}

// append grows the buffer by all of data and reports whether it has now
// reached maxRequestSize; the caller drops the connection when it has.
func (c *connection) append(data []byte) (full bool) {
	c.buffer = append(c.buffer, data...)
	c.lastActivity = time.Now()
	return len(c.buffer) >= maxRequestSize
}

// consume drops the first n bytes of the buffer, as parsed bytes are
// removed once a request (or HTTP/2 frame) has been fully handled.
func (c *connection) consume(n int) {
	c.buffer = append(c.buffer[:0], c.buffer[n:]...)
}

func (c *connection) idleFor(now time.Time) time.Duration {
	return now.Sub(c.lastActivity)
}
