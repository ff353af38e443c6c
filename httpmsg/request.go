// Package httpmsg implements the HTTP/1.1 wire codec: request parsing and
// response serialisation over a byte buffer, plus percent-decoding for
// query strings. It deliberately does not implement keep-alive; every
// response is followed by connection close, per the runtime's design.
package httpmsg

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/trivago/netrunner/route"
)

// ErrIncomplete is returned by ParseRequest when the buffer does not yet
// contain a full request (no CRLFCRLF terminator found, or fewer body
// bytes than the Content-Length header declares).
var ErrIncomplete = errors.New("httpmsg: incomplete request")

// ErrMalformed is returned by ParseRequest when the buffered bytes can
// never form a valid request (bad request line, or the buffer overflowed
// MAX_REQUEST_SIZE before a terminator was found).
var ErrMalformed = errors.New("httpmsg: malformed request")

// Header is one (name, value) pair. Requests and responses keep headers in
// an ordered sequence; case-insensitive lookup is provided separately.
type Header struct {
	Name  string
	Value string
}

// Request is a parsed HTTP/1.1 request. Handlers borrow a *Request for the
// duration of their invocation and must not retain it.
type Request struct {
	Method      route.Method
	RawPath     string
	QueryString string
	HTTPVersion string
	Headers     []Header
	Body        []byte

	PathParams  map[string]string
	QueryParams map[string]string

	// RemoteAddr is a field for the peer address. The reactor does not
	// fill it in, so it is empty on requests the reactor dispatches.
	RemoteAddr string

	// RequestID is a per-request correlation ID assigned by the reactor
	// before dispatch, surfaced to handlers and echoed in logs.
	RequestID string
}

// Header returns the first header value matching name, compared
// case-insensitively, and whether it was found.
func (r *Request) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// ContentLength parses the Content-Length header, returning 0 if absent or
// unparsable.
func (r *Request) ContentLength() int {
	v, ok := r.Header("Content-Length")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseRequest parses buf as an HTTP/1.1 request. On success it returns the
// request and the number of bytes consumed from buf. maxSize bounds how
// large an incomplete request may grow before being treated as malformed
// (MAX_REQUEST_SIZE in the spec).
func ParseRequest(buf []byte, maxSize int) (*Request, int, error) {
	term := indexCRLFCRLF(buf)
	if term < 0 {
		if len(buf) >= maxSize {
			return nil, 0, ErrMalformed
		}
		return nil, 0, ErrIncomplete
	}

	head := string(buf[:term])
	bodyStart := term + 4

	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 {
		return nil, 0, ErrMalformed
	}

	reqLine := strings.Fields(lines[0])
	if len(reqLine) != 3 {
		return nil, 0, ErrMalformed
	}

	req := &Request{
		Method:      route.ParseMethod(reqLine[0]),
		HTTPVersion: reqLine[2],
		QueryParams: map[string]string{},
	}

	path := reqLine[1]
	if i := strings.IndexByte(path, '?'); i >= 0 {
		req.RawPath = path[:i]
		req.QueryString = path[i+1:]
	} else {
		req.RawPath = path
	}
	if req.QueryString != "" {
		req.QueryParams = ParseQuery(req.QueryString)
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := line[:colon]
		value := strings.TrimLeft(line[colon+1:], " ")
		req.Headers = append(req.Headers, Header{Name: name, Value: value})
	}

	// The body is whatever the caller has buffered beyond the headers, up
	// to Content-Length when present; a declared body that is not yet fully
	// buffered yields ErrIncomplete so the reactor waits for more bytes.
	remaining := buf[bodyStart:]
	if cl := req.ContentLength(); cl > 0 {
		if len(remaining) < cl {
			return nil, 0, ErrIncomplete
		}
		req.Body = append([]byte(nil), remaining[:cl]...)
		return req, bodyStart + cl, nil
	}

	if len(remaining) > 0 {
		req.Body = append([]byte(nil), remaining...)
	}
	return req, len(buf), nil
}

// indexCRLFCRLF returns the index of the first byte of the first "\r\n\r\n"
// in buf, or -1 if absent.
func indexCRLFCRLF(buf []byte) int {
	return bytes.Index(buf, []byte("\r\n\r\n"))
}
